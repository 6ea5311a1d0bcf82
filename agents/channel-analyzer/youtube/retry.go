package youtube

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"google.golang.org/api/googleapi"
)

// retryConfig controls backoff for calls that may hit upstream throttling.
type retryConfig struct {
	maxRetries  int
	initialWait time.Duration
	maxWait     time.Duration
}

var defaultRetry = retryConfig{
	maxRetries:  3,
	initialWait: 500 * time.Millisecond,
	maxWait:     10 * time.Second,
}

// rateLimitedError marks an HTTP 429 or equivalent throttle response so the
// caller retries with backoff before giving up on the unit.
type rateLimitedError struct {
	status int
}

func (e *rateLimitedError) Error() string {
	return "upstream rate limited"
}

// transientStatusError marks a retryable non-success status (5xx).
type transientStatusError struct {
	status int
}

func (e *transientStatusError) Error() string {
	return "transient upstream status"
}

// withRetry runs fn, retrying retryable failures with exponential backoff.
// Non-retryable errors and context cancellation return immediately.
func withRetry(ctx context.Context, rc retryConfig, fn func() error) error {
	var lastErr error

	wait := rc.initialWait
	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt < rc.maxRetries {
			log.Printf("Retryable source error (attempt %d/%d), backing off %v: %v", attempt+1, rc.maxRetries, wait, err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
			if wait > rc.maxWait {
				wait = rc.maxWait
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	var rateErr *rateLimitedError
	if errors.As(err, &rateErr) {
		return true
	}

	var statusErr *transientStatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
