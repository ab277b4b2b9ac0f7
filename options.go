package brightdata

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/brightdata/retry"
	"github.com/adamwoolhether/brightdata/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error

type options struct {
	token       string
	client      *http.Client
	timeout     *time.Duration
	maxWorkers  int
	baseURL     string
	logger      *slog.Logger
	tracer      trace.Tracer
	policy      *retry.Policy
	throttle    *throttle.Config
	failFast    bool
	noProvision bool

	webUnlockerZone string
	serpZone        string
	browserZone     string
}

// WithAPIToken sets the account's bearer token, overriding the
// BRIGHTDATA_API_TOKEN environment variable.
func WithAPIToken(token string) Option {
	return func(o *options) error {
		o.token = token
		return nil
	}
}

// WithHTTPClient replaces the default [http.Client]. The client is
// copied before use; its transport is kept as the base transport and
// still wrapped with the SDK headers.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTimeout sets the per-call timeout applied to each individual
// HTTP request. It does not bound a batch as a whole.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		o.timeout = &d
		return nil
	}
}

// WithMaxWorkers caps batch concurrency. The effective worker count of
// a batch of size n is min(n, workers).
func WithMaxWorkers(workers int) Option {
	return func(o *options) error {
		if workers <= 0 {
			return errors.New("workers must be positive")
		}
		o.maxWorkers = workers
		return nil
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(raw string) Option {
	return func(o *options) error {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base url %q", raw)
		}
		o.baseURL = strings.TrimSuffix(raw, "/")
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer injects a tracer; a no-op tracer is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithRetryPolicy replaces the default retry policy shared by all calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) error {
		if p.MaxAttempts <= 0 {
			return errors.New("retry policy must allow at least one attempt")
		}
		o.policy = &p
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting of outbound calls
// with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithFailFast makes batch operations abort on the first item failure
// instead of isolating it into that item's result slot. The returned
// error wraps the offending input's identity.
func WithFailFast() Option {
	return func(o *options) error {
		o.failFast = true
		return nil
	}
}

// WithoutZoneProvisioning skips the zone existence check and creation
// normally performed during [Build].
func WithoutZoneProvisioning() Option {
	return func(o *options) error {
		o.noProvision = true
		return nil
	}
}

// WithWebUnlockerZone overrides the default web unlocker zone name.
func WithWebUnlockerZone(name string) Option {
	return func(o *options) error {
		if err := validateZoneName(name); err != nil {
			return err
		}
		o.webUnlockerZone = name
		return nil
	}
}

// WithSERPZone overrides the default SERP zone name.
func WithSERPZone(name string) Option {
	return func(o *options) error {
		if err := validateZoneName(name); err != nil {
			return err
		}
		o.serpZone = name
		return nil
	}
}

// WithBrowserZone overrides the default browser-automation zone name.
func WithBrowserZone(name string) Option {
	return func(o *options) error {
		if err := validateZoneName(name); err != nil {
			return err
		}
		o.browserZone = name
		return nil
	}
}
