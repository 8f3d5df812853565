package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/set-night/ibisbots/internal/domain"
)

func newTestLedger(t *testing.T) (*SQLiteLedger, *time.Time) {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	ledger := NewSQLiteLedger(db)
	ledger.now = func() time.Time { return now }
	return ledger, &now
}

func TestOpenSQLiteRecordsSchemaVersion(t *testing.T) {
	ledger, _ := newTestLedger(t)

	var current int
	if err := ledger.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if current != SQLiteSchemaVersion {
		t.Fatalf("version=%d, want %d", current, SQLiteSchemaVersion)
	}
	if err := MigrateSQLite(ledger.db); err != nil {
		t.Fatalf("second migrate should be a no-op: %v", err)
	}
}

func TestClaimIsExclusiveUntilExpiry(t *testing.T) {
	ledger, now := newTestLedger(t)
	ctx := context.Background()

	claim, err := ledger.Claim(ctx, "streak", "streak:2026-10-12", "runner-a", time.Minute)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if claim.Holder != "runner-a" || claim.Confirmed() {
		t.Fatalf("unexpected claim: %+v", claim)
	}

	if _, err := ledger.Claim(ctx, "streak", "streak:2026-10-12", "runner-b", time.Minute); !errors.Is(err, domain.ErrClaimHeld) {
		t.Fatalf("expected ErrClaimHeld, got %v", err)
	}

	if _, err := ledger.Claim(ctx, "streak", "streak:2026-10-12", "runner-a", time.Minute); err != nil {
		t.Fatalf("holder should be able to renew: %v", err)
	}

	if _, err := ledger.Claim(ctx, "holiday", "streak:2026-10-12", "runner-b", time.Minute); err != nil {
		t.Fatalf("claims are scoped per bot: %v", err)
	}

	*now = now.Add(2 * time.Minute)
	claim, err = ledger.Claim(ctx, "streak", "streak:2026-10-12", "runner-b", time.Minute)
	if err != nil {
		t.Fatalf("expired claim should be taken over: %v", err)
	}
	if claim.Holder != "runner-b" {
		t.Fatalf("holder=%s, want runner-b", claim.Holder)
	}
}

func TestConfirmedClaimIsReturnedToEveryone(t *testing.T) {
	ledger, now := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.Claim(ctx, "dilemma", "dilemma:a1:p1", "runner-a", time.Minute); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := ledger.Confirm(ctx, "dilemma", "dilemma:a1:p1", "runner-b", "reward-9"); !errors.Is(err, domain.ErrClaimHeld) {
		t.Fatalf("confirm by non-holder should fail, got %v", err)
	}
	if err := ledger.Confirm(ctx, "dilemma", "dilemma:a1:p1", "runner-a", "reward-9"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	*now = now.Add(time.Hour)
	claim, err := ledger.Claim(ctx, "dilemma", "dilemma:a1:p1", "runner-b", time.Minute)
	if err != nil {
		t.Fatalf("claim after confirm: %v", err)
	}
	if !claim.Confirmed() || claim.RewardID != "reward-9" || claim.Holder != "runner-a" {
		t.Fatalf("expected confirmed claim of runner-a, got %+v", claim)
	}

	if err := ledger.Release(ctx, "dilemma", "dilemma:a1:p1", "runner-a"); err != nil {
		t.Fatalf("release: %v", err)
	}
	claim, err = ledger.Claim(ctx, "dilemma", "dilemma:a1:p1", "runner-b", time.Minute)
	if err != nil || !claim.Confirmed() {
		t.Fatalf("release must not drop a confirmed claim: %+v %v", claim, err)
	}
}

func TestReleaseFreesUnconfirmedClaim(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.Claim(ctx, "referral", "referrer:a:b", "runner-a", time.Hour); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := ledger.Release(ctx, "referral", "referrer:a:b", "runner-a"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := ledger.Claim(ctx, "referral", "referrer:a:b", "runner-b", time.Hour); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
}

func TestRunJournal(t *testing.T) {
	ledger, now := newTestLedger(t)
	ctx := context.Background()

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		started := now.Add(time.Duration(i) * time.Hour)
		run := Run{ID: id, Bot: "streak", StartedAt: started, FinishedAt: started.Add(time.Second)}
		if i == 1 {
			run.Error = "boom"
		} else {
			run.NextWake = started.Add(24 * time.Hour)
		}
		if err := ledger.RecordRun(ctx, run); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}
	if err := ledger.RecordRun(ctx, Run{ID: "other", Bot: "holiday", StartedAt: *now, FinishedAt: *now}); err != nil {
		t.Fatalf("record run: %v", err)
	}

	runs, err := ledger.LastRuns(ctx, "streak", 2)
	if err != nil {
		t.Fatalf("last runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[1].Error != "boom" || !runs[1].NextWake.IsZero() {
		t.Fatalf("unexpected failed run: %+v", runs[1])
	}
	if !runs[0].NextWake.Equal(now.Add(26 * time.Hour)) {
		t.Fatalf("next wake=%s", runs[0].NextWake)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	ledger, err := Open(ctx, "", nil)
	if err != nil {
		t.Fatalf("open nop: %v", err)
	}
	if _, ok := ledger.(NopLedger); !ok {
		t.Fatalf("expected NopLedger, got %T", ledger)
	}

	ledger, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "ledger.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })
	if _, ok := ledger.(*SQLiteLedger); !ok {
		t.Fatalf("expected *SQLiteLedger, got %T", ledger)
	}
}
