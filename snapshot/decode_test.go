package snapshot

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
)

func TestDecodeBody_NDJSON(t *testing.T) {
	got := decodeBody("{\"a\":1}\n{\"b\":2}")

	want := []any{
		map[string]any{"a": float64(1)},
		map[string]any{"b": float64(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBody_NDJSONSkipsMalformedLines(t *testing.T) {
	got := decodeBody("{\"a\":1}\nnot json\n{\"b\":2}\n")

	want := []any{
		map[string]any{"a": float64(1)},
		map[string]any{"b": float64(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBody_SingleDocument(t *testing.T) {
	got := decodeBody(`{"snapshot":"data","count":2}`)

	want := map[string]any{"snapshot": "data", "count": float64(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBody_FallsBackToRawText(t *testing.T) {
	body := "not json at all"

	got := decodeBody(body)
	if got != body {
		t.Errorf("decodeBody(%q) = %v, want the raw string back", body, got)
	}
}

func TestDecodeBody_JSONArrayIsNotNDJSON(t *testing.T) {
	got := decodeBody("[{\"a\":1},\n{\"b\":2}]")

	want := []any{
		map[string]any{"a": float64(1)},
		map[string]any{"b": float64(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestGunzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("writing gzip fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}

	got, err := gunzip(buf.Bytes())
	if err != nil {
		t.Fatalf("gunzip returned error: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("gunzip = %q, want %q", got, `{"a":1}`)
	}
}

func TestGunzip_PassesPlainBodyThrough(t *testing.T) {
	body := []byte("plain,csv\n1,2")

	got, err := gunzip(body)
	if err != nil {
		t.Fatalf("gunzip returned error: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("gunzip = %q, want untouched body", got)
	}
}
