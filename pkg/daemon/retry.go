package daemon

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retry runs op up to attempts times, waiting every between tries. It
// returns op's last error, or the context error when ctx ends first.
func retry(ctx context.Context, attempts int, every time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(every), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(op, b)
}
