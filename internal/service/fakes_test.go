package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/catalog"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/notify"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory stand-ins for the repository and publisher
// interfaces. Each has an error field to simulate a failing backend.

type fakeVoteRepo struct {
	mu      sync.Mutex
	votes   []model.Vote
	nextID  int
	failErr error
}

func (f *fakeVoteRepo) UpsertVote(_ context.Context, v *model.Vote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}

	now := time.Now().UTC()
	for i := range f.votes {
		if f.votes[i].CategoryID == v.CategoryID && f.votes[i].VoterEmail == v.VoterEmail {
			f.votes[i].Candidate = v.Candidate
			f.votes[i].UpdatedAt = now
			*v = f.votes[i]
			return nil
		}
	}

	f.nextID++
	v.ID = "vote-" + string(rune('0'+f.nextID))
	v.CreatedAt, v.UpdatedAt = now, now
	f.votes = append(f.votes, *v)
	return nil
}

func (f *fakeVoteRepo) ListVotes(_ context.Context) ([]model.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	return append([]model.Vote{}, f.votes...), nil
}

func (f *fakeVoteRepo) ListVotesByVoter(_ context.Context, email string) ([]model.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := []model.Vote{}
	for _, v := range f.votes {
		if v.VoterEmail == email {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeVoterRepo struct {
	voters  map[string]model.Voter
	failErr error
}

func newFakeVoterRepo() *fakeVoterRepo {
	return &fakeVoterRepo{voters: make(map[string]model.Voter)}
}

func (f *fakeVoterRepo) UpsertVoter(_ context.Context, v *model.Voter) error {
	if f.failErr != nil {
		return f.failErr
	}
	now := time.Now().UTC()
	if existing, ok := f.voters[v.Email]; ok {
		v.CreatedAt = existing.CreatedAt
	} else {
		v.CreatedAt = now
	}
	v.LastSeen = now
	f.voters[v.Email] = *v
	return nil
}

func (f *fakeVoterRepo) GetVoter(_ context.Context, email string) (*model.Voter, error) {
	v, ok := f.voters[email]
	if !ok {
		return nil, apperror.NotFound("voter", email)
	}
	return &v, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type initialPseudonyms struct{}

func (initialPseudonyms) Pseudonym(email string) string { return "p:" + email[:1] }

var errDBDown = errors.New("database is down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]model.Category{
		{
			ID:    "cat1",
			Title: "Most Likely to Go Viral",
			Candidates: []model.Candidate{
				{ID: "c1", Name: "Alice Smith"},
				{ID: "c2", Name: "Bob Jones"},
			},
		},
		{
			ID:    "cat2",
			Title: "Best Duo",
			Candidates: []model.Candidate{
				{ID: "d1", Name: "Ann & Ben"},
			},
			Paired: true,
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}
