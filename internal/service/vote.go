// Package service holds the business rules between the HTTP handlers and
// the store.
//
//	Handler (HTTP) → Service (rules, orchestration) → Repository (SQL)
//	                                                ↘ notify.Publisher
//
// Services take and return domain types only, so the same rules apply to
// every caller. Errors meant for the user are apperror values; handlers
// turn them into status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/catalog"
	"github.com/sakif/slay-vote/internal/metrics"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/notify"
	"github.com/sakif/slay-vote/internal/repository"
	"github.com/sakif/slay-vote/internal/tally"
)

// MaxWriteInLength caps write-in names, counted in characters.
const MaxWriteInLength = 60

// Pseudonymizer hides voter emails in public vote listings.
type Pseudonymizer interface {
	Pseudonym(email string) string
}

// VoteService validates, stores and reports votes.
type VoteService struct {
	votes      repository.VoteRepository
	catalog    *catalog.Catalog
	publisher  notify.Publisher
	pseudonyms Pseudonymizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewVoteService(
	votes repository.VoteRepository,
	cat *catalog.Catalog,
	publisher notify.Publisher,
	pseudonyms Pseudonymizer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *VoteService {
	return &VoteService{
		votes:      votes,
		catalog:    cat,
		publisher:  publisher,
		pseudonyms: pseudonyms,
		metrics:    m,
		logger:     logger,
	}
}

// Categories returns the catalog in display order.
func (s *VoteService) Categories() []model.Category {
	return s.catalog.Categories()
}

// Submit records email's choice in categoryID, replacing any earlier
// choice there. Static candidates must belong to the category; write-ins
// need a name of 1 to MaxWriteInLength characters.
//
// Once the vote is stored a change event is published. A publish failure
// is logged but does not fail the submission: the vote is already saved
// and the next change or reconnect refreshes watchers.
func (s *VoteService) Submit(ctx context.Context, email, categoryID string, ref model.CandidateRef) (*model.Vote, error) {
	if email == "" {
		return nil, apperror.Unauthorized("log in to vote")
	}

	if err := s.validate(categoryID, ref); err != nil {
		s.countFailure("validation")
		return nil, err
	}

	vote := &model.Vote{
		CategoryID: categoryID,
		Candidate:  ref,
		VoterEmail: email,
	}
	if err := s.votes.UpsertVote(ctx, vote); err != nil {
		s.countFailure("store")
		s.logger.Error("failed to store vote",
			slog.String("category", categoryID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("storing vote: %w", err)
	}

	kind := "static"
	if ref.IsWriteIn() {
		kind = "write_in"
	}
	if s.metrics != nil {
		s.metrics.VotesSubmitted.WithLabelValues(categoryID, kind).Inc()
	}

	s.logger.Info("vote stored",
		slog.String("id", vote.ID),
		slog.String("category", categoryID),
		slog.String("candidate", ref.String()),
	)

	ev := notify.Event{CategoryID: categoryID, At: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish change event",
			slog.String("category", categoryID),
			slog.String("error", err.Error()),
		)
	}

	return vote, nil
}

func (s *VoteService) validate(categoryID string, ref model.CandidateRef) error {
	cat, ok := s.catalog.Get(categoryID)
	if !ok {
		return apperror.NotFound("category", categoryID)
	}

	if err := ref.Validate(); err != nil {
		return apperror.ValidationFailed("candidateId", "choose a candidate or type a name")
	}

	if ref.IsWriteIn() {
		if utf8.RuneCountInString(ref.Name()) > MaxWriteInLength {
			return apperror.ValidationFailed("candidateId",
				fmt.Sprintf("write-in names must be %d characters or less", MaxWriteInLength))
		}
		return nil
	}

	if _, ok := cat.Candidate(ref.ID()); !ok {
		return apperror.ValidationFailed("candidateId",
			fmt.Sprintf("%q is not a candidate in %s", ref.ID(), cat.Title))
	}
	return nil
}

// List returns every vote with voter emails replaced by pseudonyms.
func (s *VoteService) List(ctx context.Context) ([]model.Vote, error) {
	votes, err := s.votes.ListVotes(ctx)
	if err != nil {
		s.logger.Error("failed to list votes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing votes: %w", err)
	}

	for i := range votes {
		votes[i].Voter = s.pseudonyms.Pseudonym(votes[i].VoterEmail)
		votes[i].VoterEmail = ""
	}
	return votes, nil
}

// Mine returns email's own votes, one per category at most.
func (s *VoteService) Mine(ctx context.Context, email string) ([]model.Vote, error) {
	if email == "" {
		return nil, apperror.Unauthorized("log in to see your votes")
	}

	votes, err := s.votes.ListVotesByVoter(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing votes for voter: %w", err)
	}
	return votes, nil
}

// Results tallies every category from the current vote set.
func (s *VoteService) Results(ctx context.Context) (tally.Dashboard, error) {
	votes, err := s.votes.ListVotes(ctx)
	if err != nil {
		return tally.Dashboard{}, fmt.Errorf("loading votes for results: %w", err)
	}
	return tally.Summarize(s.catalog.Categories(), votes), nil
}

func (s *VoteService) countFailure(reason string) {
	if s.metrics != nil {
		s.metrics.VoteFailures.WithLabelValues(reason).Inc()
	}
}
