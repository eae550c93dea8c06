package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the session token for browsers.
const CookieName = "token"

// contextKey is unexported so no other package can read or shadow the
// session stored in a request context.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth rejects requests without a valid session with 401 and
// stores the session in the context for the rest.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches the session when a valid token is present and
// lets anonymous requests through unchanged.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := extractSession(r, tokens); err == nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the caller's session, or false for
// anonymous requests.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok && sess.Email != ""
}

// EmailFromContext is SessionFromContext for callers that only need the
// voter's email.
func EmailFromContext(ctx context.Context) (string, bool) {
	sess, ok := SessionFromContext(ctx)
	return sess.Email, ok
}

// extractSession prefers an Authorization bearer token and falls back to
// the cookie.
func extractSession(r *http.Request, tokens *TokenService) (Session, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok && tok != "" {
			return tokens.Validate(strings.TrimSpace(tok))
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, err
	}
	return tokens.Validate(cookie.Value)
}
