package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/auth"
	"github.com/sakif/slay-vote/internal/model"
)

func newTestAuthService(t *testing.T, repo *fakeVoterRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-for-auth-service!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(repo, tokens, nil, testLogger())
}

// =========================================================================
// EMAIL TESTS
// =========================================================================

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ann@example.com", "ann@example.com", false},
		{"  Ann@Example.COM ", "ann@example.com", false},
		{"", "", true},
		{"   ", "", true},
		{"ann", "", true},
		{"@example.com", "", true},
		{"ann@", "", true},
		{"an n@example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeEmail(tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperror.ErrValidation) {
					t.Errorf("NormalizeEmail(%q) error = %v, want validation error", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeEmail(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLoginWithEmail(t *testing.T) {
	repo := newFakeVoterRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.LoginWithEmail(context.Background(), " Ann@Example.com")
	if err != nil {
		t.Fatalf("LoginWithEmail() error = %v", err)
	}
	if res.User != (model.User{Email: "ann@example.com", LoggedIn: true}) {
		t.Errorf("User = %+v", res.User)
	}
	if res.Token == "" {
		t.Error("Token should not be empty")
	}

	stored, ok := repo.voters["ann@example.com"]
	if !ok || stored.Provider != model.ProviderEmail {
		t.Errorf("stored voter = %+v", stored)
	}

	sess, err := svc.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if sess.Email != "ann@example.com" || sess.Provider != model.ProviderEmail {
		t.Errorf("session = %+v", sess)
	}
}

func TestLoginWithEmail_Invalid(t *testing.T) {
	repo := newFakeVoterRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.LoginWithEmail(context.Background(), "not-an-email")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if len(repo.voters) != 0 {
		t.Error("invalid login must not record a voter")
	}
}

func TestLoginWithEmail_RepoError(t *testing.T) {
	repo := newFakeVoterRepo()
	repo.failErr = errDBDown
	svc := newTestAuthService(t, repo)

	if _, err := svc.LoginWithEmail(context.Background(), "ann@example.com"); !errors.Is(err, errDBDown) {
		t.Errorf("error = %v, want wrapped %v", err, errDBDown)
	}
}

func TestLoginWithGitHub(t *testing.T) {
	repo := newFakeVoterRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "ann", Email: "Ann@Example.com"})
	if err != nil {
		t.Fatalf("LoginWithGitHub() error = %v", err)
	}
	if res.User.Email != "ann@example.com" {
		t.Errorf("Email = %q", res.User.Email)
	}
	if v := repo.voters["ann@example.com"]; v.Provider != model.ProviderGitHub || v.Login != "ann" {
		t.Errorf("stored voter = %+v", v)
	}
}

func TestLoginWithGitHub_Nil(t *testing.T) {
	svc := newTestAuthService(t, newFakeVoterRepo())

	if _, err := svc.LoginWithGitHub(context.Background(), nil); err == nil {
		t.Fatal("LoginWithGitHub(nil) should fail")
	}
}

func TestVoter(t *testing.T) {
	repo := newFakeVoterRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.Voter(ctx, ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Voter(\"\") error = %v, want unauthorized", err)
	}
	if _, err := svc.Voter(ctx, "ghost@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Voter(unknown) error = %v, want not found", err)
	}

	_, _ = svc.LoginWithEmail(ctx, "ann@example.com")
	v, err := svc.Voter(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("Voter() error = %v", err)
	}
	if v.Email != "ann@example.com" {
		t.Errorf("Email = %q", v.Email)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := newTestAuthService(t, newFakeVoterRepo())

	if _, err := svc.ValidateToken("garbage"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want unauthorized", err)
	}
}
