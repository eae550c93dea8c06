package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/slay-vote/internal/auth"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/tally"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardHandler renders the results page. The page opens the change
// stream and reloads itself on every "refresh".
type DashboardHandler struct {
	votes     VoteService
	templates *template.Template
	logger    *slog.Logger
}

func NewDashboardHandler(votes VoteService, logger *slog.Logger) (*DashboardHandler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent": percent,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &DashboardHandler{
		votes:     votes,
		templates: tmpl,
		logger:    logger,
	}, nil
}

type dashboardData struct {
	Title   string
	User    model.User
	Results tally.Dashboard
	Mine    map[string]string // category ID → wire form of the voter's choice
}

// HandleDashboard handles GET /. Anonymous visitors see results only.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	results, err := h.votes.Results(r.Context())
	if err != nil {
		h.logger.Error("failed to load results", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := dashboardData{
		Title:   "Slay Awards",
		Results: results,
		Mine:    map[string]string{},
	}
	if email, ok := auth.EmailFromContext(r.Context()); ok {
		data.User = model.User{Email: email, LoggedIn: true}
		data.Mine = h.choices(r.Context(), email)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "dashboard", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) choices(ctx context.Context, email string) map[string]string {
	mine := map[string]string{}
	votes, err := h.votes.Mine(ctx, email)
	if err != nil {
		h.logger.Warn("failed to load own votes", slog.String("error", err.Error()))
		return mine
	}
	for _, v := range votes {
		mine[v.CategoryID] = v.Candidate.String()
	}
	return mine
}

// percent returns votes as a share of voters, for bar widths.
func percent(votes, voters int) int {
	if voters <= 0 {
		return 0
	}
	return votes * 100 / voters
}
