package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Recover turns a panic inside a step into an error so the runner fails the
// same way it does for any other step error.
func Recover(botName string) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context) (wake time.Time, err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic recovered in step",
						"bot", botName,
						"run_id", RunID(ctx),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("panic in %s step: %v", botName, r)
				}
			}()
			return next(ctx)
		}
	}
}
