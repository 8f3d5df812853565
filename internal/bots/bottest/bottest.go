// Package bottest wires bots to an in-memory platform for tests.
package bottest

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/set-night/ibisbots/internal/clock"
	"github.com/set-night/ibisbots/internal/platform/platformtest"
	"github.com/set-night/ibisbots/internal/service"
)

const BotID = "bot-1"

// Time is a manually advanced time source.
type Time struct {
	mu sync.Mutex
	t  time.Time
}

func NewTime(t time.Time) *Time { return &Time{t: t} }

func (c *Time) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Time) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *Time) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Env is a fake platform plus the services a bot is built from.
type Env struct {
	Fake *platformtest.Fake
	Time *Time
	Deps service.Deps
}

// New builds an Env in UTC starting at start, with a seeded random source.
func New(bot string, start time.Time) *Env {
	tm := NewTime(start)
	fake := platformtest.New(BotID, tm.Now)
	return &Env{
		Fake: fake,
		Time: tm,
		Deps: service.Deps{
			API:        fake,
			Clock:      clock.New(time.UTC).WithNow(tm.Now),
			Activities: service.NewActivityService(fake, bot, nil),
			Rewards:    service.NewRewardService(fake, nil, bot, "test-holder", nil),
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
			Rand:       rand.New(rand.NewPCG(1, 2)),
		},
	}
}
