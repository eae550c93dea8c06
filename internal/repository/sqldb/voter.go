package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/repository"
)

var _ repository.VoterRepository = (*DB)(nil)

// UpsertVoter records a login. First login inserts the voter; later
// logins refresh provider, login and last_seen but keep created_at.
func (db *DB) UpsertVoter(ctx context.Context, voter *model.Voter) error {
	now := time.Now().UTC()
	if voter.Provider == "" {
		voter.Provider = model.ProviderEmail
	}

	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO voters (email, provider, login, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE
		SET provider  = excluded.provider,
		    login     = excluded.login,
		    last_seen = excluded.last_seen`),
		voter.Email,
		voter.Provider,
		voter.Login,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqldb: upserting voter: %w", err)
	}

	stored, err := db.GetVoter(ctx, voter.Email)
	if err != nil {
		return err
	}
	*voter = *stored
	return nil
}

// GetVoter looks a voter up by email.
func (db *DB) GetVoter(ctx context.Context, email string) (*model.Voter, error) {
	var v model.Voter
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT email, provider, login, created_at, last_seen
		FROM voters WHERE email = ?`),
		email,
	).Scan(&v.Email, &v.Provider, &v.Login, &v.CreatedAt, &v.LastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("voter", email)
		}
		return nil, fmt.Errorf("sqldb: getting voter: %w", err)
	}
	return &v, nil
}
