package dbx

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitReady pings db until it answers, retrying with exponential backoff
// starting at base for at most attempts extra tries.
func WaitReady(ctx context.Context, db Pinger, attempts uint64, base time.Duration) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(base))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return nil
}
