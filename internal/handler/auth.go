package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/auth"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/service"
)

const stateCookie = "oauth_state"

// AuthService is what AuthHandler needs from the service layer.
type AuthService interface {
	LoginWithEmail(ctx context.Context, email string) (*service.AuthResult, error)
	LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*service.AuthResult, error)
	Voter(ctx context.Context, email string) (*model.Voter, error)
}

// OAuthProvider is the GitHub side of the OAuth flow.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves the login endpoints. Browsers get the session in an
// HttpOnly cookie; API clients read the token from the login response
// and send it as a bearer token.
type AuthHandler struct {
	auth         AuthService
	github       OAuthProvider // nil when GitHub login is not configured
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(svc AuthService, github OAuthProvider, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         svc,
		github:       github,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type LoginRequest struct {
	Email string `json:"email"`
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.LoginWithEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res)
	writeJSON(w, http.StatusOK, res)
}

// HandleLogout handles POST /auth/logout. Tokens are stateless, so this
// only deletes the cookie; API clients drop their stored token.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// MeResponse is the body of GET /api/me.
type MeResponse struct {
	model.User
	Provider string    `json:"provider"`
	Since    time.Time `json:"since"`
}

// HandleMe handles GET /api/me. The route sits behind RequireAuth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not signed in"))
		return
	}

	voter, err := h.auth.Voter(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		User:     model.User{Email: voter.Email, LoggedIn: true},
		Provider: voter.Provider,
		Since:    voter.CreatedAt,
	})
}

// HandleGitHubLogin handles GET /auth/github/login: store a random state
// in a short-lived cookie and redirect to GitHub.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("login provider", "github"))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback handles GET /auth/github/callback.
//
// The state query parameter must match the state cookie; otherwise the
// callback could belong to a login someone else started.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("login provider", "github"))
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	res, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, res)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, res *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
