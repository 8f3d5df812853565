package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestWaitUntilPastDeadlineReturnsImmediately(t *testing.T) {
	w := NewWaiter(nil, "streak")
	w.now = func() time.Time { return testNow }

	start := time.Now()
	woken, err := w.WaitUntil(context.Background(), testNow.Add(-time.Hour))
	if err != nil || woken {
		t.Fatalf("woken=%v err=%v", woken, err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("past deadline must not block")
	}
}

func TestWaitUntilDeadline(t *testing.T) {
	w := NewWaiter(nil, "streak")
	woken, err := w.WaitUntil(context.Background(), time.Now().Add(20*time.Millisecond))
	if err != nil || woken {
		t.Fatalf("woken=%v err=%v", woken, err)
	}
}

func TestWaitUntilContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	w := NewWaiter(nil, "streak")
	_, err := w.WaitUntil(ctx, time.Now().Add(time.Hour))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWaitUntilNudge(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	w := NewWaiter(rdb, "story")
	done := make(chan bool, 1)
	go func() {
		woken, err := w.WaitUntil(context.Background(), time.Now().Add(time.Minute))
		if err != nil {
			t.Errorf("wait: %v", err)
		}
		done <- woken
	}()

	deadline := time.After(5 * time.Second)
	for {
		if n := mr.PubSubNumSub(WakeChannel("story"))[WakeChannel("story")]; n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("waiter never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := Nudge(context.Background(), rdb, "story", "operator"); err != nil {
		t.Fatalf("nudge: %v", err)
	}

	select {
	case woken := <-done:
		if !woken {
			t.Fatal("expected to be woken by nudge")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestNudgeDuringStepWakesNextWait(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	w := NewWaiter(rdb, "holiday")
	defer func() { _ = w.Close() }()
	w.Listen(context.Background())

	// published while no wait is in progress
	if err := Nudge(context.Background(), rdb, "holiday", "operator"); err != nil {
		t.Fatalf("nudge: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	woken, err := w.WaitUntil(ctx, time.Now().Add(time.Hour))
	if err != nil || !woken {
		t.Fatalf("woken=%v err=%v, want an early wake", woken, err)
	}
}
