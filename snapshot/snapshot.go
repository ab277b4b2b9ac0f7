// Package snapshot triggers asynchronous dataset collection jobs and
// retrieves their results by snapshot id.
//
// The remote job lifecycle is deliberately stateless on the client
// side: Trigger returns an opaque id, and Download can be re-invoked
// with it at will. No polling loop and no local job state exist.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adamwoolhether/brightdata/errs"
	"github.com/adamwoolhether/brightdata/validate"
)

// TriggerItem is one job item in a multi-item trigger call.
type TriggerItem struct {
	URL              string `json:"url" validate:"required,url"`
	Prompt           string `json:"prompt" validate:"required"`
	Country          string `json:"country"`
	AdditionalPrompt string `json:"additional_prompt"`
	WebSearch        bool   `json:"web_search"`
}

// TriggerResponse carries the provider-assigned job id.
type TriggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// Client talks to the dataset endpoints over an authenticated HTTP client.
type Client struct {
	hc      *http.Client
	baseURL string
	logger  *slog.Logger
	timeout time.Duration
}

// NewClient builds a snapshot Client. The HTTP client is expected to
// carry authentication on its transport.
func NewClient(hc *http.Client, baseURL string, logger *slog.Logger, timeout time.Duration) *Client {
	return &Client{
		hc:      hc,
		baseURL: baseURL,
		logger:  logger,
		timeout: timeout,
	}
}

// Trigger issues one multi-item collection call against the given
// dataset and returns the provider-assigned snapshot id.
func (c *Client) Trigger(ctx context.Context, datasetID string, items []TriggerItem) (*TriggerResponse, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("%w: dataset id must not be empty", errs.ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", errs.ErrValidation)
	}
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(items); err != nil {
		return nil, fmt.Errorf("encoding trigger payload: %w", err)
	}

	endpoint := c.baseURL + "/datasets/v3/trigger?" + url.Values{
		"dataset_id":     {datasetID},
		"include_errors": {"true"},
	}.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("building trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trigger call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading trigger response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: invalid API token or insufficient permissions", errs.ErrAuthentication)
	case resp.StatusCode != http.StatusOK:
		return nil, errs.FromStatus(resp.StatusCode, string(body))
	}

	var result TriggerResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding trigger response: %w", err)
	}

	if result.SnapshotID != "" {
		c.logger.Info("collection job triggered", "snapshot_id", result.SnapshotID, "items", len(items))
	}

	return &result, nil
}

// downloadParams carries the download call's validated query parameters.
type downloadParams struct {
	Format    string `json:"format" validate:"omitempty,oneof=json ndjson jsonl csv"`
	Compress  bool   `json:"compress"`
	BatchSize int    `json:"batch_size" validate:"omitempty,gte=1000"`
	Part      int    `json:"part"`

	// partSet distinguishes an explicit WithPart call from the zero
	// value, so part=0 can be rejected instead of silently ignored.
	partSet bool
}

// DownloadOption is a functional option for [Client.Download].
type DownloadOption func(*downloadParams)

// WithFormat requests the snapshot in the given wire format:
// json, ndjson, jsonl, or csv. The default is json.
func WithFormat(format string) DownloadOption {
	return func(p *downloadParams) {
		p.Format = format
	}
}

// WithCompress asks the API to compress the result. The response body
// is gunzipped transparently before decoding.
func WithCompress() DownloadOption {
	return func(p *downloadParams) {
		p.Compress = true
	}
}

// WithBatchSize divides the snapshot into batches of the given record
// count. The API enforces a minimum of 1000.
func WithBatchSize(size int) DownloadOption {
	return func(p *downloadParams) {
		p.BatchSize = size
	}
}

// WithPart selects which batch to download. Parts are numbered from 1
// and require WithBatchSize.
func WithPart(part int) DownloadOption {
	return func(p *downloadParams) {
		p.Part = part
		p.partSet = true
	}
}

// Download retrieves a snapshot's result by id. The decoded value is
// a []any for newline-delimited JSON bodies, a map or slice for a
// single JSON document, and a string for CSV or anything that is not
// valid JSON.
func (c *Client) Download(ctx context.Context, snapshotID string, optFns ...DownloadOption) (any, error) {
	if snapshotID == "" {
		return nil, fmt.Errorf("%w: snapshot id must not be empty", errs.ErrValidation)
	}

	params := downloadParams{Format: "json"}
	for _, opt := range optFns {
		opt(&params)
	}
	if params.partSet {
		if params.Part < 1 {
			return nil, errs.NewFieldsError("part", errors.New("must be 1 or greater"))
		}
		if params.BatchSize == 0 {
			return nil, errs.NewFieldsError("batch_size", errors.New("is required when part is set"))
		}
	}
	if err := validate.Struct(params); err != nil {
		return nil, err
	}

	query := url.Values{}
	if params.Format != "json" {
		query.Set("format", params.Format)
	}
	if params.Compress {
		query.Set("compress", "true")
	}
	if params.BatchSize > 0 {
		query.Set("batch_size", strconv.Itoa(params.BatchSize))
	}
	if params.partSet {
		query.Set("part", strconv.Itoa(params.Part))
	}

	endpoint := c.baseURL + "/datasets/v3/snapshot/" + url.PathEscape(snapshotID)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading snapshot %q: %w", snapshotID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", snapshotID, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: invalid API token or insufficient permissions", errs.ErrAuthentication)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("snapshot %q: %w", snapshotID, errs.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, errs.FromStatus(resp.StatusCode, string(raw))
	}

	raw, err = gunzip(raw)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot %q: %w", snapshotID, err)
	}

	if params.Format == "csv" {
		return string(raw), nil
	}

	return decodeBody(string(raw)), nil
}
