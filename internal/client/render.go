package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/tally"
)

const (
	defaultBarWidth = 24
	barFull         = "█"
	barEmpty        = "░"
)

// Theme holds the styles used by the terminal renderer.
type Theme struct {
	Title   lipgloss.Style
	Faint   lipgloss.Style
	Bar     lipgloss.Style
	Mine    lipgloss.Style
	Leader  lipgloss.Style
	Current lipgloss.Style
}

// DefaultTheme suits a dark terminal.
var DefaultTheme = Theme{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	Faint:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	Bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("99")),
	Mine:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	Leader:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	Current: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
}

// Renderer draws snapshots as plain terminal text.
type Renderer struct {
	theme    Theme
	barWidth int
}

func NewRenderer(theme Theme, barWidth int) *Renderer {
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}
	return &Renderer{theme: theme, barWidth: barWidth}
}

// Results renders every category's bars with a header line.
func (r *Renderer) Results(s Snapshot) string {
	var b strings.Builder

	who := "not logged in"
	if s.User.LoggedIn {
		who = s.User.Email
	}
	b.WriteString(r.theme.Faint.Render(fmt.Sprintf("%d votes · %d voters · %s",
		s.Results.TotalVotes, s.Results.TotalVoters, who)))
	b.WriteString("\n\n")

	for i, res := range s.Results.Categories {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.category(res, s))
	}
	return b.String()
}

// Current renders the category under the cursor in a box, along with
// its candidates and any pending write-in.
func (r *Renderer) Current(s Snapshot) string {
	cat, ok := s.CurrentCategory()
	if !ok {
		return r.theme.Faint.Render("no categories")
	}

	var res tally.CategoryResult
	for _, c := range s.Results.Categories {
		if c.Category.ID == cat.ID {
			res = c
			break
		}
	}
	if res.Category.ID == "" {
		res = tally.CategoryResult{Category: cat, Entries: tally.Tally(cat, nil)}
	}

	body := r.category(res, s)
	footer := r.theme.Faint.Render(fmt.Sprintf("%d/%d", s.Current+1, len(s.Categories)))
	if s.Draft != "" {
		footer += "  " + r.theme.Faint.Render("write-in: "+s.Draft)
	}
	return r.theme.Current.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}

func (r *Renderer) category(res tally.CategoryResult, s Snapshot) string {
	var b strings.Builder

	title := strings.TrimSpace(res.Category.Emoji + " " + res.Category.Title)
	b.WriteString(r.theme.Title.Render(title))
	b.WriteString("\n")

	mine, hasMine := s.MyChoice(res.Category.ID)
	top := 0
	labelWidth := 0
	for _, e := range res.Entries {
		if e.Votes > top {
			top = e.Votes
		}
		if w := lipgloss.Width(e.FullName); w > labelWidth {
			labelWidth = w
		}
	}

	for _, e := range res.Entries {
		label := e.FullName + strings.Repeat(" ", labelWidth-lipgloss.Width(e.FullName))
		line := fmt.Sprintf("  %s %s %d", label, r.theme.Bar.Render(r.bar(e.Votes, top)), e.Votes)
		if hasMine && model.ParseCandidateRef(e.Key) == mine {
			line = r.theme.Mine.Render(line + "  ← your choice")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if res.Leader != nil {
		b.WriteString(r.theme.Leader.Render(fmt.Sprintf("  Leading: %s (%d)", res.Leader.FullName, res.Leader.Votes)))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) bar(votes, top int) string {
	filled := 0
	if top > 0 {
		filled = votes * r.barWidth / top
	}
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, r.barWidth-filled)
}
