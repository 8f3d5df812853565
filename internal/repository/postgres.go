package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/ibisbots/internal/domain"
)

type PostgresLedger struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db, now: time.Now}
}

const pgClaimUpsert = `
INSERT INTO reward_claims (bot, tag, holder, claimed_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (bot, tag) DO UPDATE
SET holder = EXCLUDED.holder, claimed_at = EXCLUDED.claimed_at, expires_at = EXCLUDED.expires_at
WHERE reward_claims.confirmed_at IS NULL
  AND (reward_claims.holder = EXCLUDED.holder OR reward_claims.expires_at < EXCLUDED.claimed_at)
RETURNING bot, tag, holder, reward_id, claimed_at, expires_at, confirmed_at`

const pgClaimSelect = `
SELECT bot, tag, holder, reward_id, claimed_at, expires_at, confirmed_at
FROM reward_claims WHERE bot = $1 AND tag = $2`

func (l *PostgresLedger) Claim(ctx context.Context, bot, tag, holder string, ttl time.Duration) (*Claim, error) {
	now := l.now().UTC()
	claim, err := scanPgClaim(l.db.QueryRow(ctx, pgClaimUpsert, bot, tag, holder, now, now.Add(ttl)))
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("claim reward tag: %w", err)
	}

	existing, err := scanPgClaim(l.db.QueryRow(ctx, pgClaimSelect, bot, tag))
	if err != nil {
		return nil, fmt.Errorf("read reward claim: %w", err)
	}
	if existing.Confirmed() {
		return existing, nil
	}
	return nil, fmt.Errorf("claim %s held by %s until %s: %w", tag, existing.Holder, existing.ExpiresAt.Format(time.RFC3339), domain.ErrClaimHeld)
}

func scanPgClaim(row pgx.Row) (*Claim, error) {
	var (
		c         Claim
		claimed   pgtype.Timestamptz
		expires   pgtype.Timestamptz
		confirmed pgtype.Timestamptz
	)
	if err := row.Scan(&c.Bot, &c.Tag, &c.Holder, &c.RewardID, &claimed, &expires, &confirmed); err != nil {
		return nil, err
	}
	c.ClaimedAt = pgTimestamptzToTime(claimed)
	c.ExpiresAt = pgTimestamptzToTime(expires)
	c.ConfirmedAt = pgTimestamptzToTimePtr(confirmed)
	return &c, nil
}

func (l *PostgresLedger) Confirm(ctx context.Context, bot, tag, holder, rewardID string) error {
	res, err := l.db.Exec(ctx, `
		UPDATE reward_claims SET reward_id = $4, confirmed_at = $5
		WHERE bot = $1 AND tag = $2 AND holder = $3`,
		bot, tag, holder, rewardID, l.now().UTC())
	if err != nil {
		return fmt.Errorf("confirm reward claim: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("confirm %s: %w", tag, domain.ErrClaimHeld)
	}
	return nil
}

func (l *PostgresLedger) Release(ctx context.Context, bot, tag, holder string) error {
	_, err := l.db.Exec(ctx, `
		DELETE FROM reward_claims
		WHERE bot = $1 AND tag = $2 AND holder = $3 AND confirmed_at IS NULL`,
		bot, tag, holder)
	if err != nil {
		return fmt.Errorf("release reward claim: %w", err)
	}
	return nil
}

func (l *PostgresLedger) RecordRun(ctx context.Context, run Run) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}
	_, err = l.db.Exec(ctx, `
		INSERT INTO bot_runs (id, bot, started_at, finished_at, next_wake, error)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, run.Bot, run.StartedAt.UTC(), run.FinishedAt.UTC(), timeToPgTimestamptz(run.NextWake), run.Error)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (l *PostgresLedger) LastRuns(ctx context.Context, bot string, limit int) ([]Run, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, bot, started_at, finished_at, next_wake, error
		FROM bot_runs WHERE bot = $1
		ORDER BY started_at DESC LIMIT $2`, bot, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			id       uuid.UUID
			started  pgtype.Timestamptz
			finished pgtype.Timestamptz
			next     pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &r.Bot, &started, &finished, &next, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ID = id.String()
		r.StartedAt = pgTimestamptzToTime(started)
		r.FinishedAt = pgTimestamptzToTime(finished)
		r.NextWake = pgTimestamptzToTime(next)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (l *PostgresLedger) Close() error {
	l.db.Close()
	return nil
}
