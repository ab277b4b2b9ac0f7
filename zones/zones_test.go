package zones_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/brightdata/errs"
	"github.com/adamwoolhether/brightdata/zones"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_List(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/zone/get_active_zones" {
			t.Errorf("path = %q, want /zone/get_active_zones", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		w.Write([]byte(`[{"name":"sdk_unlocker","type":"unblocker"},{"name":"sdk_serp","type":"serp"}]`))
	}))
	defer ts.Close()

	m := zones.NewManager(ts.Client(), ts.URL, discardLogger())

	got, err := m.List(t.Context())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	want := []zones.Zone{
		{Name: "sdk_unlocker", Type: "unblocker"},
		{Name: "sdk_serp", Type: "serp"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("zones mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_List_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer ts.Close()

	m := zones.NewManager(ts.Client(), ts.URL, discardLogger())

	_, err := m.List(t.Context())
	if !errors.Is(err, errs.ErrAuthentication) {
		t.Fatalf("error = %v, want errs.ErrAuthentication", err)
	}
}

func TestManager_EnsureRequired_CreatesMissing(t *testing.T) {
	var created atomic.Int64

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/zone/get_active_zones":
			w.Write([]byte(`[{"name":"existing_zone","type":"unblocker"}]`))
		case "/zone":
			created.Add(1)

			var payload struct {
				Zone struct {
					Name string `json:"name"`
					Type string `json:"type"`
				} `json:"zone"`
				Plan map[string]any `json:"plan"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decoding create payload: %v", err)
			}
			if payload.Zone.Name != "serp_zone" {
				t.Errorf("zone name = %q, want serp_zone", payload.Zone.Name)
			}
			if payload.Zone.Type != "serp" {
				t.Errorf("zone type = %q, want serp", payload.Zone.Type)
			}
			if payload.Plan["type"] != "static" {
				t.Errorf("plan type = %v, want static", payload.Plan["type"])
			}

			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer ts.Close()

	m := zones.NewManager(ts.Client(), ts.URL, discardLogger())

	err := m.EnsureRequired(t.Context(), map[string]zones.Type{
		"existing_zone": zones.TypeUnblocker,
		"serp_zone":     zones.TypeSERP,
	})
	if err != nil {
		t.Fatalf("EnsureRequired returned error: %v", err)
	}

	if got := created.Load(); got != 1 {
		t.Errorf("create calls = %d, want 1: existing zones must not be recreated", got)
	}
}

func TestManager_Create_DuplicateNameIsSuccess(t *testing.T) {
	bodies := []string{
		"Duplicate zone name",
		"zone ALREADY EXISTS in account",
	}

	for _, body := range bodies {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, body, http.StatusConflict)
		}))

		m := zones.NewManager(ts.Client(), ts.URL, discardLogger())
		if err := m.Create(t.Context(), "sdk_unlocker", zones.TypeUnblocker); err != nil {
			t.Errorf("Create with body %q returned error: %v", body, err)
		}

		ts.Close()
	}
}

func TestManager_Create_FatalError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	}))
	defer ts.Close()

	m := zones.NewManager(ts.Client(), ts.URL, discardLogger())

	err := m.Create(t.Context(), "sdk_unlocker", zones.TypeUnblocker)
	if !errors.Is(err, errs.ErrAPI) {
		t.Fatalf("error = %v, want errs.ErrAPI", err)
	}
}

func TestManager_EnsureRequired_ListFailureSkipsProvisioning(t *testing.T) {
	var created atomic.Int64

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/zone" {
			created.Add(1)
			return
		}
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer ts.Close()

	m := zones.NewManager(ts.Client(), ts.URL, discardLogger())

	err := m.EnsureRequired(t.Context(), map[string]zones.Type{"sdk_unlocker": zones.TypeUnblocker})
	if err != nil {
		t.Fatalf("EnsureRequired should degrade to a warning, got error: %v", err)
	}
	if got := created.Load(); got != 0 {
		t.Errorf("create calls = %d, want 0 when listing fails", got)
	}
}

func TestManager_EnsureRequired_CreateFailurePropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/zone/get_active_zones" {
			w.Write([]byte(`[]`))
			return
		}
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	m := zones.NewManager(ts.Client(), ts.URL, discardLogger())

	err := m.EnsureRequired(t.Context(), map[string]zones.Type{"sdk_unlocker": zones.TypeUnblocker})
	if !errors.Is(err, errs.ErrAuthorization) {
		t.Fatalf("error = %v, want errs.ErrAuthorization", err)
	}
}
