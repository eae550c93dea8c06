// Package auth issues and checks voter sessions.
//
// SESSION FLOW:
//  1. The voter signs in, either by typing an email (POST /auth/login) or
//     through GitHub (/auth/github/login → /auth/github/callback).
//  2. The server upserts the voter row and issues a signed JWT whose
//     subject is the voter's email.
//  3. Browsers get the JWT in an HttpOnly "token" cookie. The CLI client
//     gets it in the login response body and sends it back as
//     "Authorization: Bearer <jwt>".
//  4. Middleware validates the JWT on every request and stores the email
//     in the request context.
//
// The email is the only identity the vote store knows about: one vote
// per (category, email).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "slay-vote"

	// DefaultTTL is how long a session lasts when no TTL is configured.
	DefaultTTL = 7 * 24 * time.Hour
)

// TokenService signs and verifies session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A ttl of zero means DefaultTTL.
// Example secret: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the session lifetime used by Generate.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// claims is the JWT payload. "sub" holds the voter's email and "prv"
// records how they signed in.
type claims struct {
	Provider string `json:"prv,omitempty"`
	jwt.RegisteredClaims
}

// Session is what a valid token says about its bearer.
type Session struct {
	Email    string
	Provider string
	Expires  time.Time
}

// Generate signs a session token for email with the configured TTL.
func (s *TokenService) Generate(email, provider string) (string, error) {
	return s.GenerateWithDuration(email, provider, s.ttl)
}

// GenerateWithDuration signs a token that expires after d. Tests use a
// negative d to produce expired tokens.
func (s *TokenService) GenerateWithDuration(email, provider string, d time.Duration) (string, error) {
	if email == "" {
		return "", errors.New("auth: cannot sign a token without an email")
	}

	now := time.Now()
	c := claims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token and returns the session it carries.
//
// The jwt library checks the signature, expiry and issuer. Restricting
// the accepted methods to HS256 rules out "alg: none" tokens.
func (s *TokenService) Validate(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("auth: token expired")
		}
		return Session{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Session{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Session{}, fmt.Errorf("auth: token has no subject")
	}

	sess := Session{Email: c.Subject, Provider: c.Provider}
	if c.ExpiresAt != nil {
		sess.Expires = c.ExpiresAt.Time
	}
	return sess, nil
}
