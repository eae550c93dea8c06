// Package client is the voter-side half of the system: it talks to the
// vote server through a Gateway, keeps the application state, and runs
// the reconciliation loop that re-fetches votes whenever the server
// signals a change.
//
// The loop is the only writer of the vote snapshot apart from direct
// user actions, and every write replaces the whole set. Readers take
// copies through App.Snapshot.
package client

import (
	"context"
	"errors"

	"github.com/sakif/slay-vote/internal/model"
)

// ErrNotLoggedIn is returned by gateway calls that need a session when
// none is set.
var ErrNotLoggedIn = errors.New("client: not logged in")

// Gateway is the remote vote store.
//
// UpsertVote is keyed on (categoryID, voterEmail): voting again in a
// category replaces the earlier vote. Subscribe delivers at-least-once
// change signals; a burst of changes may arrive as one signal.
type Gateway interface {
	Login(ctx context.Context, email string) (Session, error)
	FetchCategories(ctx context.Context) ([]model.Category, error)
	FetchAllVotes(ctx context.Context) ([]model.Vote, error)
	FetchMyVotes(ctx context.Context) ([]model.Vote, error)
	UpsertVote(ctx context.Context, categoryID string, ref model.CandidateRef, voterEmail string) error
	Subscribe(ctx context.Context) (Subscription, error)
	SetToken(token string)
}

// Subscription is a live change feed. Changes is closed when the feed
// ends, either through Close or because the connection dropped.
type Subscription interface {
	Changes() <-chan struct{}
	Close() error
}
