// Package tally turns raw votes into per-candidate counts.
//
// Everything here is pure: the functions read the category definitions
// and a snapshot of votes and return fresh values. Callers recompute
// whenever the vote snapshot is replaced.
package tally

import (
	"sort"
	"strings"

	"github.com/sakif/slay-vote/internal/model"
)

// Entry is one bar in a category's results.
type Entry struct {
	Key       string `json:"id"`        // wire form of the candidate reference
	Name      string `json:"name"`      // first word, for chart labels
	FullName  string `json:"fullName"`
	Votes     int    `json:"votes"`
	WriteIn   bool   `json:"writeIn"`
	AvatarURL string `json:"avatarUrl"`
}

// key separates static candidates from write-ins, so a static ID can
// never collide with a write-in name.
type key struct {
	writeIn bool
	value   string
}

// Tally counts the votes cast in category.
//
// Every predefined candidate appears exactly once, even with zero votes.
// Write-ins sharing the same trimmed name collapse into one entry.
// Votes for unknown static IDs, or write-ins with a blank name, are
// dropped. The result is sorted by votes, highest first; ties keep
// definition order, with write-ins after the predefined candidates in
// the order they were first seen.
func Tally(category model.Category, votes []model.Vote) []Entry {
	entries := make([]Entry, 0, len(category.Candidates))
	index := make(map[key]int, len(category.Candidates))

	for _, cand := range category.Candidates {
		index[key{value: cand.ID}] = len(entries)
		entries = append(entries, Entry{
			Key:       cand.ID,
			Name:      shortName(cand.Name),
			FullName:  cand.Name,
			AvatarURL: cand.AvatarURL(),
		})
	}

	for _, v := range votes {
		if v.CategoryID != category.ID {
			continue
		}

		ref := v.Candidate
		if !ref.IsWriteIn() {
			if i, ok := index[key{value: ref.ID()}]; ok {
				entries[i].Votes++
			}
			continue
		}

		name := ref.Name()
		if name == "" {
			continue
		}
		k := key{writeIn: true, value: name}
		if i, ok := index[k]; ok {
			entries[i].Votes++
			continue
		}
		index[k] = len(entries)
		entries = append(entries, Entry{
			Key:       ref.String(),
			Name:      shortName(name),
			FullName:  name,
			Votes:     1,
			WriteIn:   true,
			AvatarURL: model.GeneratedAvatar(name),
		})
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.WriteIn && e.Votes == 0 {
			continue
		}
		kept = append(kept, e)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Votes > kept[j].Votes
	})
	return kept
}

// TotalVoters counts distinct voters across all categories.
func TotalVoters(votes []model.Vote) int {
	seen := make(map[string]struct{}, len(votes))
	for _, v := range votes {
		seen[v.VoterKey()] = struct{}{}
	}
	return len(seen)
}

// Leader returns the top entry if it has at least one vote.
func Leader(entries []Entry) (Entry, bool) {
	if len(entries) == 0 || entries[0].Votes == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

func shortName(full string) string {
	first, _, _ := strings.Cut(full, " ")
	return first
}
