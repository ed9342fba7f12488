package posting

import (
	"context"
	"math/rand"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// Backoff bounds used by RetryOnConflict.
var (
	RetryBaseDelay = 10 * time.Millisecond
	RetryMaxDelay  = time.Second
)

// RetryOnConflict re-runs the whole use case while it fails with a
// retryable kind (concurrency, serialization, infrastructure). The ledger
// core itself never retries; callers opt in here and pick the budget.
func RetryOnConflict(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil || !apperror.IsRetryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		logger.Debug(ctx, "retrying after conflict", "attempt", attempt+1, "kind", apperror.KindOf(err).String())

		delay := RetryBaseDelay << min(attempt, 16)
		if delay > RetryMaxDelay || delay <= 0 {
			delay = RetryMaxDelay
		}
		delay = fullJitter(delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// fullJitter returns a random duration in [0, d).
func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}
