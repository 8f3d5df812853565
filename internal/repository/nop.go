package repository

import (
	"context"
	"time"
)

// NopLedger grants every claim and keeps no journal. Used when no ledger DSN
// is configured and a single instance per bot is guaranteed by deployment.
type NopLedger struct{}

func (NopLedger) Claim(_ context.Context, bot, tag, holder string, ttl time.Duration) (*Claim, error) {
	now := time.Now().UTC()
	return &Claim{Bot: bot, Tag: tag, Holder: holder, ClaimedAt: now, ExpiresAt: now.Add(ttl)}, nil
}

func (NopLedger) Confirm(context.Context, string, string, string, string) error { return nil }

func (NopLedger) Release(context.Context, string, string, string) error { return nil }

func (NopLedger) RecordRun(context.Context, Run) error { return nil }

func (NopLedger) LastRuns(context.Context, string, int) ([]Run, error) { return nil, nil }

func (NopLedger) Close() error { return nil }
