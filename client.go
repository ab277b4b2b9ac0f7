// Package brightdata is a client SDK for the Bright Data API: web
// unlocker proxy requests, SERP search, dataset snapshot jobs, and
// zone provisioning.
//
// Batch operations fan out over a bounded worker pool and collect
// results in input order. Per-item failures are isolated into their
// result slot by default; see [WithFailFast] for the strict mode.
package brightdata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/brightdata/errs"
	"github.com/adamwoolhether/brightdata/retry"
	"github.com/adamwoolhether/brightdata/snapshot"
	"github.com/adamwoolhether/brightdata/throttle"
	"github.com/adamwoolhether/brightdata/zones"
)

const (
	version        = "1.1.0"
	userAgentValue = "brightdata-sdk-go/" + version

	defaultBaseURL = "https://api.brightdata.com"

	// DefaultMaxWorkers caps batch concurrency unless overridden.
	DefaultMaxWorkers = 10
	// DefaultTimeout bounds each individual HTTP call, not a batch.
	DefaultTimeout = 30 * time.Second

	// connectionPoolSize sizes the shared transport's idle connection
	// pool. Kept at least as large as the worker pool so fan-out does
	// not queue on connections.
	connectionPoolSize = 20
)

// Client is the entry point to the API. It is safe for concurrent use.
type Client struct {
	hc         *http.Client
	baseURL    string
	logger     *slog.Logger
	tracer     trace.Tracer
	policy     retry.Policy
	timeout    time.Duration
	maxWorkers int
	failFast   bool

	webUnlockerZone string
	serpZone        string
	browserZone     string

	zones     *zones.Manager
	snapshots *snapshot.Client
}

// Build constructs a Client from options and environment fallbacks.
// Unless disabled via [WithoutZoneProvisioning], the required zones
// are provisioned synchronously before the client is returned; a
// failure to list active zones is logged and skipped, so construction
// still succeeds without network access to the zone API.
func Build(ctx context.Context, optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	env, err := fromEnv()
	if err != nil {
		return nil, err
	}

	token := opts.token
	if token == "" {
		token = env.APIToken
	}
	if err := validateToken(token); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:         defaultBaseURL,
		logger:          slog.Default(),
		tracer:          noop.NewTracerProvider().Tracer("no-op tracer"),
		policy:          retry.Default(),
		timeout:         DefaultTimeout,
		maxWorkers:      DefaultMaxWorkers,
		failFast:        opts.failFast,
		webUnlockerZone: fallback(opts.webUnlockerZone, env.WebUnlockerZone),
		serpZone:        fallback(opts.serpZone, env.SERPZone),
		browserZone:     fallback(opts.browserZone, env.BrowserZone),
	}

	if opts.baseURL != "" {
		c.baseURL = opts.baseURL
	}
	if opts.logger != nil {
		c.logger = opts.logger
	}
	if opts.tracer != nil {
		c.tracer = opts.tracer
	}
	if opts.policy != nil {
		c.policy = *opts.policy
	}
	if opts.timeout != nil {
		c.timeout = *opts.timeout
	}
	if opts.maxWorkers > 0 {
		c.maxWorkers = opts.maxWorkers
	}

	// Copy an injected client so wrapping its transport never mutates
	// the caller's value.
	hc := &http.Client{}
	if opts.client != nil {
		cpy := *opts.client
		hc = &cpy
	}

	var transport http.RoundTripper
	switch {
	case hc.Transport != nil:
		transport = hc.Transport
	default:
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.MaxIdleConns = connectionPoolSize
		base.MaxIdleConnsPerHost = connectionPoolSize
		transport = base
	}
	transport = apiHeaders{token: token, base: transport}
	if opts.throttle != nil {
		transport, err = throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, c.logger, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
	}
	hc.Transport = transport
	c.hc = hc

	c.zones = zones.NewManager(hc, c.baseURL, c.logger)
	c.snapshots = snapshot.NewClient(hc, c.baseURL, c.logger, c.timeout)

	c.logger.Debug("client configured", "token", maskToken(token), "base_url", c.baseURL)

	if !opts.noProvision {
		required := map[string]zones.Type{
			c.webUnlockerZone: zones.TypeUnblocker,
			c.browserZone:     zones.TypeUnblocker,
			c.serpZone:        zones.TypeSERP,
		}
		if err := c.zones.EnsureRequired(ctx, required); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ListZones returns all active zones in the account.
func (c *Client) ListZones(ctx context.Context) ([]zones.Zone, error) {
	return c.zones.List(ctx)
}

// DownloadSnapshot retrieves a triggered job's result by snapshot id.
// See the snapshot package for the download options and the decoded
// body shapes.
func (c *Client) DownloadSnapshot(ctx context.Context, snapshotID string, optFns ...snapshot.DownloadOption) (any, error) {
	ctx, span := c.tracer.Start(ctx, "brightdata.download_snapshot")
	defer span.End()

	return c.snapshots.Download(ctx, snapshotID, optFns...)
}

// apiHeaders is an http.RoundTripper adding the bearer token, the
// identifying user agent, and a JSON content type to every request.
type apiHeaders struct {
	token string
	base  http.RoundTripper
}

func (h apiHeaders) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("Authorization", "Bearer "+h.token)
	cpy.Header.Set("User-Agent", userAgentValue)
	if cpy.Header.Get("Content-Type") == "" {
		cpy.Header.Set("Content-Type", "application/json")
	}
	return h.base.RoundTrip(cpy)
}

func validateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: api token is required, provide it via WithAPIToken or the BRIGHTDATA_API_TOKEN environment variable", errs.ErrValidation)
	}
	if len(strings.TrimSpace(token)) < 10 {
		return fmt.Errorf("%w: api token appears to be invalid", errs.ErrValidation)
	}
	return nil
}

// maskToken keeps only a short preview for logs.
func maskToken(token string) string {
	if len(token) > 8 {
		return token[:4] + "***" + token[len(token)-4:]
	}
	return "***"
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
