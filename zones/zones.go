// Package zones lists and idempotently provisions the named remote
// zones required before product requests can succeed.
package zones

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adamwoolhether/brightdata/errs"
)

// Type discriminates the product class a zone serves.
type Type string

const (
	// TypeUnblocker serves both web-unlocker and browser-automation requests.
	TypeUnblocker Type = "unblocker"
	// TypeSERP serves search requests.
	TypeSERP Type = "serp"
)

// Zone describes one active zone in the account.
type Zone struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// defaultPlan is the fixed plan attached to every zone the SDK creates.
var defaultPlan = map[string]any{
	"type":                  "static",
	"ips_type":              "shared",
	"bandwidth":             "1",
	"ip_alloc_preset":       "shared_block",
	"ips":                   0,
	"country":               "any",
	"country_city":          "any",
	"mobile":                "false",
	"serp":                  "false",
	"city":                  "false",
	"asn":                   "false",
	"vip":                   "false",
	"vips_type":             "shared",
	"vips":                  "0",
	"vip_country":           "any",
	"vip_country_city":      "any",
	"ub_premium":            false,
	"solve_captcha_disable": true,
	"custom_headers":        false,
}

// Manager performs zone reads and provisioning over an authenticated
// HTTP client.
type Manager struct {
	hc      *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewManager builds a Manager. The client is expected to carry
// authentication on its transport.
func NewManager(hc *http.Client, baseURL string, logger *slog.Logger) *Manager {
	return &Manager{
		hc:      hc,
		baseURL: baseURL,
		logger:  logger,
	}
}

// List returns all active zones in the account.
func (m *Manager) List(ctx context.Context) ([]Zone, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/zone/get_active_zones", nil)
	if err != nil {
		return nil, fmt.Errorf("building list request: %w", err)
	}

	resp, err := m.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading zones response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatus(resp.StatusCode, string(body))
	}

	var zones []Zone
	if err := json.Unmarshal(body, &zones); err != nil {
		return nil, fmt.Errorf("decoding zones response: %w", err)
	}

	return zones, nil
}

// EnsureRequired guarantees every required zone exists, creating the
// missing ones. A failure to list active zones degrades to a warning
// and skips provisioning entirely: the client stays usable and later
// requests surface the missing zone instead.
func (m *Manager) EnsureRequired(ctx context.Context, required map[string]Type) error {
	active, err := m.List(ctx)
	if err != nil {
		m.logger.Warn("skipping zone provisioning, unable to list active zones", "error", err)
		return nil
	}

	existing := make(map[string]bool, len(active))
	for _, z := range active {
		existing[z.Name] = true
	}

	for name, typ := range required {
		if existing[name] {
			continue
		}
		if err := m.Create(ctx, name, typ); err != nil {
			return fmt.Errorf("provisioning zone %q: %w", name, err)
		}
	}

	return nil
}

// Create provisions a new zone. Creation is idempotent: a rejection
// carrying a duplicate-name signal means the zone already exists and
// is treated as success.
func (m *Manager) Create(ctx context.Context, name string, typ Type) error {
	payload := map[string]any{
		"zone": map[string]any{
			"name": name,
			"type": string(typ),
		},
		"plan": defaultPlan,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encoding zone payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/zone", &buf)
	if err != nil {
		return fmt.Errorf("building create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.hc.Do(req)
	if err != nil {
		return fmt.Errorf("creating zone: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		m.logger.Info("zone created", "zone", name, "type", string(typ))
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if isDuplicateName(string(body)) {
		m.logger.Debug("zone already exists", "zone", name)
		return nil
	}

	return errs.FromStatus(resp.StatusCode, string(body))
}

// isDuplicateName matches the API's duplicate-zone rejection,
// case-insensitively.
func isDuplicateName(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "duplicate zone name") || strings.Contains(lower, "already exists")
}
