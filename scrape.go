package brightdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/brightdata/dispatch"
	"github.com/adamwoolhether/brightdata/errs"
)

// Scrape unlocks and scrapes a single URL through the web unlocker
// proxy. The result is a map or slice when the json format is
// requested, otherwise the raw page text.
func (c *Client) Scrape(ctx context.Context, targetURL string, optFns ...RequestOption) (any, error) {
	opts := c.newRequestOpts()
	for _, opt := range optFns {
		opt(&opts)
	}

	payload, err := c.scrapePayload(targetURL, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "brightdata.scrape",
		trace.WithAttributes(attribute.String("target.url", targetURL)))
	defer span.End()

	return c.doRequest(ctx, payload, opts)
}

// ScrapeBatch scrapes many URLs concurrently over a bounded worker
// pool. The returned slice has one slot per input URL, in input
// order, each holding the decoded result or that item's error. A
// single item's failure never aborts its siblings unless the client
// was built [WithFailFast], in which case the first failing input's
// error is returned and the slice is nil.
//
// Every URL is validated before any request is dispatched.
func (c *Client) ScrapeBatch(ctx context.Context, urls []string, optFns ...RequestOption) ([]Result, error) {
	opts := c.newRequestOpts()
	for _, opt := range optFns {
		opt(&opts)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: url list must not be empty", errs.ErrValidation)
	}

	payloads := make([]requestPayload, len(urls))
	for i, u := range urls {
		payload, err := c.scrapePayload(u, opts)
		if err != nil {
			return nil, fmt.Errorf("url %d: %w", i, err)
		}
		payloads[i] = payload
	}

	logger := c.logger.With("batch_id", uuid.New().String(), "op", "scrape")
	logger.Info("dispatching batch", "size", len(urls), "workers", min(len(urls), opts.maxWorkers))

	ctx, span := c.tracer.Start(ctx, "brightdata.scrape_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(urls))))
	defer span.End()

	outcomes := dispatch.Run(ctx, len(urls), opts.maxWorkers, func(ctx context.Context, i int) (any, error) {
		return c.doRequest(ctx, payloads[i], opts)
	})

	return c.collect(logger, urls, outcomes)
}

func (c *Client) scrapePayload(targetURL string, opts requestOpts) (requestPayload, error) {
	zone := opts.zone
	if zone == "" {
		zone = c.webUnlockerZone
	}

	payload := requestPayload{
		Zone:       zone,
		URL:        targetURL,
		Format:     opts.format,
		Method:     opts.method,
		Country:    opts.country,
		DataFormat: opts.dataFormat,
	}

	if err := validatePayload(payload); err != nil {
		return requestPayload{}, err
	}

	return payload, nil
}

// collect converts pool outcomes into ordered Results, applying the
// isolation policy.
func (c *Client) collect(logger *slog.Logger, inputs []string, outcomes []dispatch.Result[any]) ([]Result, error) {
	results := make([]Result, len(outcomes))
	for i, out := range outcomes {
		results[i] = Result{Input: inputs[i], Value: out.Value, Err: out.Err}
		if out.Err == nil {
			continue
		}
		logger.Warn("batch item failed", "input", inputs[i], "error", out.Err)
		if c.failFast {
			return nil, fmt.Errorf("%q: %w", inputs[i], out.Err)
		}
	}
	return results, nil
}
