package tally

import "github.com/sakif/slay-vote/internal/model"

// CategoryResult is the tally of one category plus its current leader.
type CategoryResult struct {
	Category model.Category `json:"category"`
	Entries  []Entry        `json:"entries"`
	Leader   *Entry         `json:"leader,omitempty"`
}

// Dashboard is the full results view.
type Dashboard struct {
	TotalVotes  int              `json:"totalVotes"`
	TotalVoters int              `json:"totalVoters"`
	Categories  []CategoryResult `json:"categories"`
}

// Summarize tallies every category, in catalog order.
func Summarize(categories []model.Category, votes []model.Vote) Dashboard {
	d := Dashboard{
		TotalVotes:  len(votes),
		TotalVoters: TotalVoters(votes),
		Categories:  make([]CategoryResult, 0, len(categories)),
	}

	for _, cat := range categories {
		res := CategoryResult{
			Category: cat,
			Entries:  Tally(cat, votes),
		}
		if leader, ok := Leader(res.Entries); ok {
			res.Leader = &leader
		}
		d.Categories = append(d.Categories, res)
	}

	return d
}
