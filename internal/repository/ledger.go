package repository

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// Claim is a lease on a reward tag. A confirmed claim carries the id of the
// reward that was created under it and never expires.
type Claim struct {
	Bot         string
	Tag         string
	Holder      string
	RewardID    string
	ClaimedAt   time.Time
	ExpiresAt   time.Time
	ConfirmedAt *time.Time
}

func (c *Claim) Confirmed() bool { return c != nil && c.ConfirmedAt != nil }

// Run is one completed bot step.
type Run struct {
	ID         string    `json:"id"`
	Bot        string    `json:"bot"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	NextWake   time.Time `json:"next_wake,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Ledger guards reward creation across concurrent runners of the same bot and
// journals completed steps.
//
// Claim takes the lease for (bot, tag) when it is free, expired and
// unconfirmed, or already held by holder. A confirmed claim is returned as is
// so the caller can reuse its reward. Any other live lease yields
// domain.ErrClaimHeld.
type Ledger interface {
	Claim(ctx context.Context, bot, tag, holder string, ttl time.Duration) (*Claim, error)
	Confirm(ctx context.Context, bot, tag, holder, rewardID string) error
	Release(ctx context.Context, bot, tag, holder string) error

	RecordRun(ctx context.Context, run Run) error
	LastRuns(ctx context.Context, bot string, limit int) ([]Run, error)

	Close() error
}

// Open selects a backend from dsn: empty disables the ledger, postgres URLs
// use PostgreSQL with the embedded migrations, and anything else is treated
// as a SQLite path (an optional "sqlite://" or "file:" prefix is stripped).
func Open(ctx context.Context, dsn string, migrations fs.FS) (Ledger, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return NopLedger{}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		if err := RunMigrations(dsn, migrations); err != nil {
			return nil, err
		}
		pool, err := NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewPostgresLedger(pool), nil
	default:
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "file:")
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		return NewSQLiteLedger(db), nil
	}
}
