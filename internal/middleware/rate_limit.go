package middleware

import (
	"context"
	"log/slog"
	"time"
)

// RateLimit keeps a bot from polling faster than once per minInterval by
// pushing early wake times back.
func RateLimit(botName string, minInterval time.Duration, now func() time.Time) Middleware {
	if now == nil {
		now = time.Now
	}
	return func(next Step) Step {
		return func(ctx context.Context) (time.Time, error) {
			wake, err := next(ctx)
			if err != nil {
				return wake, err
			}

			earliest := now().Add(minInterval)
			if wake.Before(earliest) {
				slog.Debug("rate limited",
					"bot", botName,
					"requested", wake,
					"wake", earliest,
				)
				return earliest, nil
			}
			return wake, nil
		}
	}
}
