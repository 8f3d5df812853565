package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const RunIDKey ctxKey = "run_id"

// RunID extracts the current step's run id from context.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(RunIDKey).(string)
	return id
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// AssignRunID gives every step a fresh run id unless the caller set one.
func AssignRunID() Middleware {
	return func(next Step) Step {
		return func(ctx context.Context) (time.Time, error) {
			if RunID(ctx) == "" {
				ctx = WithRunID(ctx, uuid.NewString())
			}
			return next(ctx)
		}
	}
}
