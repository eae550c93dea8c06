// Package repository declares the storage contracts the services depend
// on. Implementations live in subpackages (see sqldb).
package repository

import (
	"context"

	"github.com/sakif/slay-vote/internal/model"
)

// VoteRepository stores votes. UpsertVote is keyed on
// (CategoryID, VoterEmail): a second vote by the same voter in the same
// category replaces the first instead of adding a row.
type VoteRepository interface {
	UpsertVote(ctx context.Context, vote *model.Vote) error
	ListVotes(ctx context.Context) ([]model.Vote, error)
	ListVotesByVoter(ctx context.Context, email string) ([]model.Vote, error)
}

// VoterRepository records who has logged in.
type VoterRepository interface {
	UpsertVoter(ctx context.Context, voter *model.Voter) error
	GetVoter(ctx context.Context, email string) (*model.Voter, error)
}
