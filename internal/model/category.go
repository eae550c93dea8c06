// Package model defines the data structures shared by the server, the
// store and the client: categories with their candidates, votes and
// users.
package model

import (
	"net/url"
	"strings"
)

// PairSeparator joins the two members of a paired candidate's name,
// e.g. "Ann & Bob".
const PairSeparator = " & "

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// Candidate is a predefined option inside a category.
type Candidate struct {
	ID     string `json:"id"               yaml:"id"`
	Name   string `json:"name"             yaml:"name"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// AvatarURL returns the configured avatar, or a generated one seeded by
// the candidate's name.
func (c Candidate) AvatarURL() string {
	if c.Avatar != "" {
		return c.Avatar
	}
	return GeneratedAvatar(c.Name)
}

// Members splits a paired candidate into its two people. Missing halves
// fall back to "1" and "2" so a malformed name still renders two avatars.
func (c Candidate) Members() [2]string {
	first, second, _ := strings.Cut(c.Name, PairSeparator)
	if first == "" {
		first = "1"
	}
	if second == "" {
		second = "2"
	}
	return [2]string{first, second}
}

// GeneratedAvatar builds a deterministic avatar URL for a name.
func GeneratedAvatar(seed string) string {
	return avatarBaseURL + url.QueryEscape(seed)
}

// Category is one award people vote in. Categories are fixed at startup.
//
// A Paired category is one where every candidate stands for two people.
type Category struct {
	ID          string      `json:"id"          yaml:"id"`
	Title       string      `json:"title"       yaml:"title"`
	Emoji       string      `json:"emoji"       yaml:"emoji"`
	Description string      `json:"description" yaml:"description"`
	Paired      bool        `json:"paired"      yaml:"paired"`
	Candidates  []Candidate `json:"candidates"  yaml:"candidates"`
}

// Candidate looks up a predefined candidate by ID.
func (c Category) Candidate(id string) (Candidate, bool) {
	for _, cand := range c.Candidates {
		if cand.ID == id {
			return cand, true
		}
	}
	return Candidate{}, false
}
