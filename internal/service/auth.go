package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/auth"
	"github.com/sakif/slay-vote/internal/metrics"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/repository"
)

const maxEmailLength = 254

// AuthService signs voters in and out.
//
//	AuthHandler → AuthService → VoterRepository
//	                          ↘ TokenService (JWT)
//
// There are no passwords: an email login trusts the address typed in.
// GitHub login trusts GitHub's verified primary email.
type AuthService struct {
	voters  repository.VoterRepository
	tokens  *auth.TokenService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAuthService(
	voters repository.VoterRepository,
	tokens *auth.TokenService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		voters:  voters,
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
}

// AuthResult bundles the signed-in user with their session token, so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// NormalizeEmail trims and lowercases an address and checks that it
// looks like one.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > maxEmailLength {
		return "", apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", maxEmailLength))
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return "", apperror.ValidationFailed("email", "email must look like name@example.com")
	}
	return email, nil
}

// LoginWithEmail signs in the voter owning email.
func (s *AuthService) LoginWithEmail(ctx context.Context, email string) (*AuthResult, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, &model.Voter{Email: email, Provider: model.ProviderEmail})
}

// LoginWithGitHub signs in the voter behind a completed GitHub OAuth flow.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email, err := NormalizeEmail(gh.Email)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, &model.Voter{Email: email, Provider: model.ProviderGitHub, Login: gh.Login})
}

func (s *AuthService) login(ctx context.Context, voter *model.Voter) (*AuthResult, error) {
	if err := s.voters.UpsertVoter(ctx, voter); err != nil {
		return nil, fmt.Errorf("service/auth: recording voter: %w", err)
	}

	token, err := s.tokens.Generate(voter.Email, voter.Provider)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(voter.Provider).Inc()
	}
	s.logger.Info("voter signed in",
		slog.String("provider", voter.Provider),
		slog.String("login", voter.Login),
	)

	return &AuthResult{
		User:      model.User{Email: voter.Email, LoggedIn: true},
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.TTL()),
	}, nil
}

// Voter returns the stored record for email.
func (s *AuthService) Voter(ctx context.Context, email string) (*model.Voter, error) {
	if email == "" {
		return nil, apperror.Unauthorized("not signed in")
	}
	return s.voters.GetVoter(ctx, email)
}

// ValidateToken returns the session a token carries.
func (s *AuthService) ValidateToken(tokenStr string) (auth.Session, error) {
	sess, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return auth.Session{}, apperror.Unauthorized("invalid or expired session")
	}
	return sess, nil
}
