package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/set-night/ibisbots/internal/clock"
)

// WakeChannel is the Redis channel a bot listens on for early wake-ups.
func WakeChannel(bot string) string {
	return "ibisbots:wake:" + bot
}

// Waiter blocks a bot until its next deadline. With a Redis client it also
// returns early when someone publishes to the bot's wake channel. The
// subscription stays open between waits, so a nudge sent while a step runs
// wakes the next wait at once.
type Waiter struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
	sub     *redis.PubSub
	nudges  <-chan *redis.Message
}

func NewWaiter(rdb *redis.Client, bot string) *Waiter {
	return &Waiter{rdb: rdb, channel: WakeChannel(bot), now: time.Now}
}

// Listen subscribes to the wake channel unless already subscribed. A failed
// subscription is logged and retried on the next wait.
func (w *Waiter) Listen(ctx context.Context) {
	if w.rdb == nil || w.sub != nil {
		return
	}
	sub := w.rdb.Subscribe(ctx, w.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		if ctx.Err() == nil {
			slog.Warn("wake channel unavailable, sleeping without it", "channel", w.channel, "error", err)
		}
		return
	}
	w.sub = sub
	w.nudges = sub.Channel()
}

// Close drops the wake subscription.
func (w *Waiter) Close() error {
	if w.sub == nil {
		return nil
	}
	err := w.sub.Close()
	w.sub, w.nudges = nil, nil
	return err
}

// WaitUntil returns true when woken by a nudge, false when the deadline
// passed, and ctx.Err() when the context ends first. Deadlines in the past
// return immediately and discard pending nudges.
func (w *Waiter) WaitUntil(ctx context.Context, deadline time.Time) (bool, error) {
	w.Listen(ctx)

	d := clock.Until(w.now(), deadline)
	if d <= 0 {
		w.drain()
		return false, ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		case msg, ok := <-w.nudges:
			if !ok {
				w.sub, w.nudges = nil, nil
				continue
			}
			slog.Info("woken early", "channel", msg.Channel, "payload", msg.Payload)
			return true, nil
		}
	}
}

func (w *Waiter) drain() {
	for {
		select {
		case _, ok := <-w.nudges:
			if !ok {
				w.sub, w.nudges = nil, nil
				return
			}
		default:
			return
		}
	}
}

// Nudge wakes every waiter of bot.
func Nudge(ctx context.Context, rdb *redis.Client, bot, reason string) error {
	if err := rdb.Publish(ctx, WakeChannel(bot), reason).Err(); err != nil {
		return fmt.Errorf("publish wake: %w", err)
	}
	return nil
}
