package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging logs how long each step took and when the bot wakes next.
func Logging(botName string) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context) (time.Time, error) {
			start := time.Now()
			wake, err := next(ctx)

			if err != nil {
				slog.Error("step failed",
					"bot", botName,
					"run_id", RunID(ctx),
					"duration", time.Since(start),
					"error", err,
				)
				return wake, err
			}

			slog.Info("step finished",
				"bot", botName,
				"run_id", RunID(ctx),
				"duration", time.Since(start),
				"next_wake", wake,
			)
			return wake, nil
		}
	}
}
