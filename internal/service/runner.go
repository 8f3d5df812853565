package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/ibisbots/internal/middleware"
	"github.com/set-night/ibisbots/internal/repository"
)

// Bot is one reward bot. Init runs once before the first step; Step performs
// one load-evaluate-mutate pass and returns the next wake time.
type Bot interface {
	Name() string
	Init(ctx context.Context) error
	Step(ctx context.Context) (time.Time, error)
}

// Waiting is satisfied by *Waiter.
type Waiting interface {
	WaitUntil(ctx context.Context, deadline time.Time) (bool, error)
}

type Runner struct {
	bot         Bot
	waiter      Waiting
	ledger      repository.Ledger
	notifier    Notifier
	middlewares []middleware.Middleware
	now         func() time.Time
}

type RunnerOption func(*Runner)

func WithLedger(l repository.Ledger) RunnerOption {
	return func(r *Runner) { r.ledger = l }
}

func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithMiddleware appends step middleware; the first one added is outermost.
func WithMiddleware(mws ...middleware.Middleware) RunnerOption {
	return func(r *Runner) { r.middlewares = append(r.middlewares, mws...) }
}

func NewRunner(bot Bot, waiter Waiting, opts ...RunnerOption) *Runner {
	r := &Runner{
		bot:      bot,
		waiter:   waiter,
		ledger:   repository.NopLedger{},
		notifier: NopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loops until ctx ends or a step fails. A failed step stops the bot; the
// next process start resumes from the state persisted on the platform.
func (r *Runner) Run(ctx context.Context) error {
	name := r.bot.Name()
	if l, ok := r.waiter.(interface{ Listen(context.Context) }); ok {
		l.Listen(ctx)
	}
	if err := r.bot.Init(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.notifier.StepFailed(ctx, name, err)
		return fmt.Errorf("init %s: %w", name, err)
	}

	// the journal sits outside the caller's middleware so recovered panics are recorded
	step := middleware.Chain(r.recorded(middleware.Chain(r.bot.Step, r.middlewares...)), middleware.AssignRunID())

	for {
		wake, err := step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.notifier.StepFailed(ctx, name, err)
			return fmt.Errorf("step %s: %w", name, err)
		}

		if _, err := r.waiter.WaitUntil(ctx, wake); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("wait %s: %w", name, err)
		}
	}
}

// recorded journals each step in the ledger. Journal failures are logged and
// never fail the step.
func (r *Runner) recorded(next middleware.Step) middleware.Step {
	return func(ctx context.Context) (time.Time, error) {
		started := r.now()
		wake, err := next(ctx)

		run := repository.Run{
			ID:         middleware.RunID(ctx),
			Bot:        r.bot.Name(),
			StartedAt:  started,
			FinishedAt: r.now(),
		}
		if err != nil {
			run.Error = err.Error()
		} else {
			run.NextWake = wake
		}
		if recErr := r.ledger.RecordRun(context.WithoutCancel(ctx), run); recErr != nil {
			slog.Warn("failed to record run", "bot", run.Bot, "run_id", run.ID, "error", recErr)
		}
		return wake, err
	}
}
