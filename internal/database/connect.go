package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const connectAttempts = 5

var connectBaseBackoff = time.Second

// withRetry runs dial until it succeeds, ctx ends, or connectAttempts is
// reached. Waits double after each failure. Containers started together
// often come up before their database does.
func withRetry(ctx context.Context, log zerolog.Logger, target string, dial func(context.Context) error) error {
	backoff := connectBaseBackoff
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = dial(ctx); err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}
		log.Warn().Err(err).
			Str("target", target).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Msg("Connection failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect %s: %w", target, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("connect %s after %d attempts: %w", target, connectAttempts, err)
}
