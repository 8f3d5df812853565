package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/set-night/ibisbots/internal/domain"
	_ "modernc.org/sqlite"
)

const SQLiteSchemaVersion = 1

// OpenSQLite opens (or creates) the ledger database at path and applies the
// schema.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open sqlite: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: ping: %w", err)
	}
	if err := MigrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite brings the schema up to SQLiteSchemaVersion.
func MigrateSQLite(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("migrate sqlite: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("migrate sqlite: read version: %w", err)
	}
	if current >= SQLiteSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS reward_claims (
			bot          TEXT    NOT NULL,
			tag          TEXT    NOT NULL,
			holder       TEXT    NOT NULL,
			reward_id    TEXT    NOT NULL DEFAULT '',
			claimed_at   INTEGER NOT NULL,
			expires_at   INTEGER NOT NULL,
			confirmed_at INTEGER NULL,
			PRIMARY KEY (bot, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS bot_runs (
			id          TEXT    PRIMARY KEY,
			bot         TEXT    NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			next_wake   INTEGER NULL,
			error       TEXT    NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_runs_bot_started ON bot_runs(bot, started_at)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, SQLiteSchemaVersion); err != nil {
		return fmt.Errorf("migrate sqlite: record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate sqlite: commit: %w", err)
	}
	return nil
}

type SQLiteLedger struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db, now: time.Now}
}

const sqliteClaimUpsert = `
INSERT INTO reward_claims (bot, tag, holder, claimed_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (bot, tag) DO UPDATE
SET holder = excluded.holder, claimed_at = excluded.claimed_at, expires_at = excluded.expires_at
WHERE reward_claims.confirmed_at IS NULL
  AND (reward_claims.holder = excluded.holder OR reward_claims.expires_at < excluded.claimed_at)
RETURNING bot, tag, holder, reward_id, claimed_at, expires_at, confirmed_at`

const sqliteClaimSelect = `
SELECT bot, tag, holder, reward_id, claimed_at, expires_at, confirmed_at
FROM reward_claims WHERE bot = ? AND tag = ?`

func (l *SQLiteLedger) Claim(ctx context.Context, bot, tag, holder string, ttl time.Duration) (*Claim, error) {
	now := l.now().UTC()
	claim, err := scanSQLiteClaim(l.db.QueryRowContext(ctx, sqliteClaimUpsert, bot, tag, holder, unixMilli(now), unixMilli(now.Add(ttl))))
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim reward tag: %w", err)
	}

	existing, err := scanSQLiteClaim(l.db.QueryRowContext(ctx, sqliteClaimSelect, bot, tag))
	if err != nil {
		return nil, fmt.Errorf("read reward claim: %w", err)
	}
	if existing.Confirmed() {
		return existing, nil
	}
	return nil, fmt.Errorf("claim %s held by %s until %s: %w", tag, existing.Holder, existing.ExpiresAt.Format(time.RFC3339), domain.ErrClaimHeld)
}

func scanSQLiteClaim(row *sql.Row) (*Claim, error) {
	var (
		c                Claim
		claimed, expires int64
		confirmed        *int64
	)
	if err := row.Scan(&c.Bot, &c.Tag, &c.Holder, &c.RewardID, &claimed, &expires, &confirmed); err != nil {
		return nil, err
	}
	c.ClaimedAt = fromUnixMilli(&claimed)
	c.ExpiresAt = fromUnixMilli(&expires)
	if confirmed != nil {
		t := fromUnixMilli(confirmed)
		c.ConfirmedAt = &t
	}
	return &c, nil
}

func (l *SQLiteLedger) Confirm(ctx context.Context, bot, tag, holder, rewardID string) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE reward_claims SET reward_id = ?, confirmed_at = ?
		WHERE bot = ? AND tag = ? AND holder = ?`,
		rewardID, unixMilli(l.now()), bot, tag, holder)
	if err != nil {
		return fmt.Errorf("confirm reward claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm reward claim: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("confirm %s: %w", tag, domain.ErrClaimHeld)
	}
	return nil
}

func (l *SQLiteLedger) Release(ctx context.Context, bot, tag, holder string) error {
	_, err := l.db.ExecContext(ctx, `
		DELETE FROM reward_claims
		WHERE bot = ? AND tag = ? AND holder = ? AND confirmed_at IS NULL`,
		bot, tag, holder)
	if err != nil {
		return fmt.Errorf("release reward claim: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) RecordRun(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO bot_runs (id, bot, started_at, finished_at, next_wake, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Bot, unixMilli(run.StartedAt), unixMilli(run.FinishedAt), unixMilli(run.NextWake), run.Error)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) LastRuns(ctx context.Context, bot string, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, bot, started_at, finished_at, next_wake, error
		FROM bot_runs WHERE bot = ?
		ORDER BY started_at DESC LIMIT ?`, bot, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			next              *int64
		)
		if err := rows.Scan(&r.ID, &r.Bot, &started, &finished, &next, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = fromUnixMilli(&started)
		r.FinishedAt = fromUnixMilli(&finished)
		r.NextWake = fromUnixMilli(next)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
