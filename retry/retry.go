// Package retry applies a fixed attempt budget with exponential
// backoff to individual HTTP calls, distinguishing transient outcomes
// from fatal ones.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/adamwoolhether/brightdata/errs"
)

const (
	// DefaultMaxAttempts is the total call budget: one initial attempt
	// plus two retries.
	DefaultMaxAttempts = 3
	// DefaultBackoffFactor is the base of the exponential delay between
	// attempts, in seconds.
	DefaultBackoffFactor = 1.5
)

// retryStatuses is the set of response codes treated as transient.
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// CallFunc issues one HTTP attempt. It is invoked once per attempt so
// implementations must build a fresh request body each time.
type CallFunc func(ctx context.Context) (*http.Response, error)

// Policy decides whether an outcome is retryable and how long to wait
// before the next attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts, initial call included.
	MaxAttempts int
	// BackoffFactor is the base of the per-attempt delay
	// BackoffFactor^attempt seconds. Zero disables waiting, which is
	// only useful in tests.
	BackoffFactor float64
}

// Default returns the process-wide policy shared by all API calls.
func Default() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// Retryable reports whether the status code is in the transient set.
func (p Policy) Retryable(statusCode int) bool {
	return retryStatuses[statusCode]
}

// Delay returns the wait applied before retrying the given 0-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BackoffFactor == 0 {
		return 0
	}
	return time.Duration(math.Pow(p.BackoffFactor, float64(attempt)) * float64(time.Second))
}

// Do runs call under the policy. Transient statuses and transport
// faults are retried with backoff until the budget runs out, then
// surface as an error wrapping [errs.ErrTransient]. Any other response,
// success or fatal, is returned to the caller unconsumed for
// classification.
func Do(ctx context.Context, p Policy, call CallFunc) (*http.Response, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; ; attempt++ {
		resp, err := call(ctx)
		if err != nil {
			if attempt == p.MaxAttempts-1 {
				return nil, exhausted(p.MaxAttempts, err)
			}
		} else if p.Retryable(resp.StatusCode) {
			statusCode := resp.StatusCode
			drain(resp)
			if attempt == p.MaxAttempts-1 {
				return nil, fmt.Errorf("%w: server error after %d attempts: status %d",
					errs.ErrTransient, p.MaxAttempts, statusCode)
			}
		} else {
			return resp, nil
		}

		if err := wait(ctx, p.Delay(attempt)); err != nil {
			return nil, err
		}
	}
}

// exhausted wraps a transport fault with a message naming its kind.
func exhausted(attempts int, err error) error {
	var netErr net.Error
	var opErr *net.OpError

	switch {
	case errors.As(err, &netErr) && netErr.Timeout(), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: request timed out after %d attempts: %w", errs.ErrTransient, attempts, err)
	case errors.As(err, &opErr):
		return fmt.Errorf("%w: connection error after %d attempts: %w", errs.ErrTransient, attempts, err)
	default:
		return fmt.Errorf("%w: network error after %d attempts: %w", errs.ErrTransient, attempts, err)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain discards and closes a doomed response body so the underlying
// connection can be reused by the next attempt.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
