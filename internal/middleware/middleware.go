// Package middleware wraps bot steps with cross-cutting behavior.
package middleware

import (
	"context"
	"time"
)

// Step runs one evaluation of a bot and returns when it wants to run next.
type Step func(ctx context.Context) (time.Time, error)

type Middleware func(next Step) Step

// Chain wraps step so that the first middleware is the outermost.
func Chain(step Step, mws ...Middleware) Step {
	for i := len(mws) - 1; i >= 0; i-- {
		step = mws[i](step)
	}
	return step
}
