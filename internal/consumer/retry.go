package consumer

import (
	"context"
	"time"
)

// retryPolicy retries an operation a fixed number of times with a fixed
// backoff while retryable reports true for its result.
type retryPolicy struct {
	attempts  int
	backoff   time.Duration
	retryable func(error) bool
}

func (r retryPolicy) do(ctx context.Context, op func(attempt int) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = op(attempt)
		if err == nil || !r.retryable(err) || attempt == r.attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.backoff):
		}
	}
	return err
}
