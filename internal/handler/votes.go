package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/auth"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/tally"
)

// VoteService is what VoteHandler needs from the service layer.
type VoteService interface {
	Categories() []model.Category
	Submit(ctx context.Context, email, categoryID string, ref model.CandidateRef) (*model.Vote, error)
	List(ctx context.Context) ([]model.Vote, error)
	Mine(ctx context.Context, email string) ([]model.Vote, error)
	Results(ctx context.Context) (tally.Dashboard, error)
}

type VoteHandler struct {
	votes  VoteService
	logger *slog.Logger
}

func NewVoteHandler(votes VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

// SubmitVoteRequest is the body of PUT /api/votes/{categoryID}.
// CandidateID is a static candidate ID or "custom:<name>" for a write-in.
type SubmitVoteRequest struct {
	CandidateID model.CandidateRef `json:"candidateId"`
}

// HandleCategories handles GET /api/categories.
func (h *VoteHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.votes.Categories())
}

// HandleList handles GET /api/votes: every vote, voters pseudonymized.
func (h *VoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	votes, err := h.votes.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// HandleMine handles GET /api/votes/mine.
func (h *VoteHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())

	votes, err := h.votes.Mine(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// HandleSubmit handles PUT /api/votes/{categoryID}. PUT because voting
// again in the same category replaces the earlier choice.
func (h *VoteHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("log in to vote"))
		return
	}

	var req SubmitVoteRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.logger.Warn("invalid vote body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	vote, err := h.votes.Submit(r.Context(), email, chi.URLParam(r, "categoryID"), req.CandidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

// HandleResults handles GET /api/results.
func (h *VoteHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	d, err := h.votes.Results(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
