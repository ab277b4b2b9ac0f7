package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adamwoolhether/brightdata/errs"
	"github.com/adamwoolhether/brightdata/retry"
	"github.com/adamwoolhether/brightdata/validate"
)

// requestPayload is the body of the /request proxy endpoint.
type requestPayload struct {
	Zone       string `json:"zone" validate:"required"`
	URL        string `json:"url" validate:"required,url"`
	Format     string `json:"format" validate:"oneof=json raw"`
	Method     string `json:"method"`
	Country    string `json:"country"`
	DataFormat string `json:"data_format"`
}

// RequestOption adjusts one scrape or search call.
type RequestOption func(*requestOpts)

type requestOpts struct {
	zone       string
	format     string
	method     string
	country    string
	dataFormat string
	engine     string
	async      bool
	timeout    time.Duration
	maxWorkers int
}

func (c *Client) newRequestOpts() requestOpts {
	return requestOpts{
		format:     "raw",
		method:     http.MethodGet,
		dataFormat: "html",
		engine:     "google",
		timeout:    c.timeout,
		maxWorkers: c.maxWorkers,
	}
}

// WithZone overrides the zone the request runs through.
func WithZone(zone string) RequestOption {
	return func(o *requestOpts) {
		o.zone = zone
	}
}

// WithFormat selects the response encoding: "json" for structured
// data, "raw" for the page text. When a json response fails to parse,
// the raw text is returned instead of an error.
func WithFormat(format string) RequestOption {
	return func(o *requestOpts) {
		o.format = format
	}
}

// WithMethod sets the HTTP method the proxy uses for the target.
func WithMethod(method string) RequestOption {
	return func(o *requestOpts) {
		o.method = method
	}
}

// WithCountry routes the request through a proxy in the given
// two-letter ISO country.
func WithCountry(country string) RequestOption {
	return func(o *requestOpts) {
		o.country = country
	}
}

// WithDataFormat requests an additional transformation, e.g.
// "markdown" or "screenshot".
func WithDataFormat(dataFormat string) RequestOption {
	return func(o *requestOpts) {
		o.dataFormat = dataFormat
	}
}

// WithSearchEngine picks the engine for [Client.Search] and
// [Client.SearchBatch]: google, bing, or yandex. Scrape calls ignore it.
func WithSearchEngine(engine string) RequestOption {
	return func(o *requestOpts) {
		o.engine = engine
	}
}

// WithAsync enables fire-and-forget processing on the API side.
func WithAsync() RequestOption {
	return func(o *requestOpts) {
		o.async = true
	}
}

// WithRequestTimeout overrides the client's per-call timeout for this
// operation.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(o *requestOpts) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithWorkers overrides the client's batch concurrency cap for this
// operation.
func WithWorkers(workers int) RequestOption {
	return func(o *requestOpts) {
		if workers > 0 {
			o.maxWorkers = workers
		}
	}
}

// doRequest performs one /request call under the retry policy and
// decodes the body per the declared format. A 2xx body that fails to
// parse as json degrades to the raw text rather than an error.
func (c *Client) doRequest(ctx context.Context, payload requestPayload, opts requestOpts) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request payload: %w", err)
	}

	endpoint := c.baseURL + "/request"
	if opts.async {
		endpoint += "?async=true"
	}

	// Each attempt gets a fresh body reader and its own timeout, and
	// buffers the response so the deadline covers the read as well.
	call := func(ctx context.Context) (*http.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		resp.Body = io.NopCloser(bytes.NewReader(raw))

		return resp, nil
	}

	resp, err := retry.Do(ctx, c.policy, call)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.FromStatus(resp.StatusCode, string(raw))
	}

	if opts.format == "json" {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			c.logger.Warn("response is not valid json, returning raw text", "error", err)
			return string(raw), nil
		}
		return decoded, nil
	}

	return string(raw), nil
}

// validatePayload runs zone and struct validation for one operation.
func validatePayload(p requestPayload) error {
	if err := validateZoneName(p.Zone); err != nil {
		return err
	}
	return validate.Struct(p)
}
