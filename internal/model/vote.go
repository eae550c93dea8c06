package model

import "time"

// Vote is one voter's choice in one category.
//
// A voter has at most one vote per category: the store upserts on
// (CategoryID, VoterEmail), so voting again replaces the previous choice.
//
// VoterEmail is only filled for the voter's own votes. Public listings
// carry Voter, a stable pseudonym of the email, instead.
type Vote struct {
	ID         string       `json:"id"`
	CategoryID string       `json:"categoryId"`
	Candidate  CandidateRef `json:"candidateId"`
	VoterEmail string       `json:"voterEmail,omitempty"`
	Voter      string       `json:"voter,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// VoterKey returns whichever voter identity the vote carries.
func (v Vote) VoterKey() string {
	if v.VoterEmail != "" {
		return v.VoterEmail
	}
	return v.Voter
}
