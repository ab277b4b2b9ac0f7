package brightdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/brightdata/dispatch"
	"github.com/adamwoolhether/brightdata/errs"
)

// searchEngines maps an engine name to its query URL prefix.
var searchEngines = map[string]string{
	"google": "https://www.google.com/search?q=",
	"bing":   "https://www.bing.com/search?q=",
	"yandex": "https://yandex.com/search/?text=",
}

// Search runs one query through the SERP API. The engine defaults to
// google; see [WithSearchEngine].
func (c *Client) Search(ctx context.Context, query string, optFns ...RequestOption) (any, error) {
	opts := c.newRequestOpts()
	for _, opt := range optFns {
		opt(&opts)
	}

	payload, err := c.searchPayload(query, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "brightdata.search",
		trace.WithAttributes(attribute.String("search.engine", opts.engine)))
	defer span.End()

	return c.doRequest(ctx, payload, opts)
}

// SearchBatch runs many queries concurrently with the same ordering
// and isolation semantics as [Client.ScrapeBatch]: slot i holds the
// outcome of queries[i], and per-item failures stay in their slot
// unless the client was built [WithFailFast].
func (c *Client) SearchBatch(ctx context.Context, queries []string, optFns ...RequestOption) ([]Result, error) {
	opts := c.newRequestOpts()
	for _, opt := range optFns {
		opt(&opts)
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: query list must not be empty", errs.ErrValidation)
	}

	payloads := make([]requestPayload, len(queries))
	for i, q := range queries {
		payload, err := c.searchPayload(q, opts)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		payloads[i] = payload
	}

	logger := c.logger.With("batch_id", uuid.New().String(), "op", "search")
	logger.Info("dispatching batch", "size", len(queries), "workers", min(len(queries), opts.maxWorkers))

	ctx, span := c.tracer.Start(ctx, "brightdata.search_batch",
		trace.WithAttributes(
			attribute.Int("batch.size", len(queries)),
			attribute.String("search.engine", opts.engine),
		))
	defer span.End()

	outcomes := dispatch.Run(ctx, len(queries), opts.maxWorkers, func(ctx context.Context, i int) (any, error) {
		return c.doRequest(ctx, payloads[i], opts)
	})

	return c.collect(logger, queries, outcomes)
}

func (c *Client) searchPayload(query string, opts requestOpts) (requestPayload, error) {
	base, ok := searchEngines[opts.engine]
	if !ok {
		return requestPayload{}, fmt.Errorf("%w: unsupported search engine %q, supported: google, bing, yandex",
			errs.ErrValidation, opts.engine)
	}

	if strings.TrimSpace(query) == "" {
		return requestPayload{}, fmt.Errorf("%w: query must be a non-empty string", errs.ErrValidation)
	}

	zone := opts.zone
	if zone == "" {
		zone = c.serpZone
	}

	payload := requestPayload{
		Zone:       zone,
		URL:        base + url.QueryEscape(query),
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
