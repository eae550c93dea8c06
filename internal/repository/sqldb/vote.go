package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/slay-vote/internal/apperror"
	"github.com/sakif/slay-vote/internal/model"
	"github.com/sakif/slay-vote/internal/repository"
)

var _ repository.VoteRepository = (*DB)(nil)

const voteColumns = `id, category_id, candidate_id, voter_email, created_at, updated_at`

// UpsertVote inserts the vote, or replaces the candidate of the voter's
// existing vote in that category. The vote's ID and timestamps are
// filled from the stored row: a replaced vote keeps its original ID and
// CreatedAt.
func (db *DB) UpsertVote(ctx context.Context, vote *model.Vote) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO votes (`+voteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (category_id, voter_email) DO UPDATE
		SET candidate_id = excluded.candidate_id,
		    updated_at   = excluded.updated_at`),
		xid.New().String(),
		vote.CategoryID,
		vote.Candidate.String(),
		vote.VoterEmail,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqldb: upserting vote (category=%s): %w", vote.CategoryID, err)
	}

	stored, err := db.getVote(ctx, vote.CategoryID, vote.VoterEmail)
	if err != nil {
		return err
	}
	*vote = *stored
	return nil
}

func (db *DB) getVote(ctx context.Context, categoryID, email string) (*model.Vote, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+voteColumns+`
		FROM votes
		WHERE category_id = ? AND voter_email = ?`),
		categoryID, email,
	)

	v, err := scanVote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("vote", categoryID)
		}
		return nil, fmt.Errorf("sqldb: reading vote (category=%s): %w", categoryID, err)
	}
	return v, nil
}

// ListVotes returns every vote, oldest first.
func (db *DB) ListVotes(ctx context.Context) ([]model.Vote, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+voteColumns+`
		FROM votes
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing votes: %w", err)
	}
	return collectVotes(rows)
}

// ListVotesByVoter returns one voter's votes, oldest first.
func (db *DB) ListVotesByVoter(ctx context.Context, email string) ([]model.Vote, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT `+voteColumns+`
		FROM votes
		WHERE voter_email = ?
		ORDER BY created_at, id`),
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing votes for voter: %w", err)
	}
	return collectVotes(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVote(s scanner) (*model.Vote, error) {
	var (
		v         model.Vote
		candidate string
	)
	if err := s.Scan(
		&v.ID,
		&v.CategoryID,
		&candidate,
		&v.VoterEmail,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.Candidate = model.ParseCandidateRef(candidate)
	return &v, nil
}

func collectVotes(rows *sql.Rows) ([]model.Vote, error) {
	defer rows.Close()

	votes := []model.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("sqldb: scanning vote row: %w", err)
		}
		votes = append(votes, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating votes: %w", err)
	}
	return votes, nil
}
