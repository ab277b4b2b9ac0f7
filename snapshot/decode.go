package snapshot

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte header every gzip stream starts with.
var gzipMagic = []byte{0x1f, 0x8b}

// gunzip inflates raw when it is a gzip stream and returns it
// untouched otherwise. The transport does not decompress for us here
// because the compress flag is an API parameter, not an
// Accept-Encoding negotiation.
func gunzip(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// decodeBody tries the snapshot wire shapes in a fixed order:
// newline-delimited JSON first, then a single JSON document, then raw
// text as the fallback. The first decoder whose gate matches wins.
func decodeBody(body string) any {
	if looksNDJSON(body) {
		return decodeNDJSON(body)
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err == nil {
		return doc
	}

	return body
}

// looksNDJSON gates the line decoder: the trimmed body must start an
// object and another object must open on a later line.
func looksNDJSON(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "{") && strings.Contains(body, "\n{")
}

// decodeNDJSON parses the body line by line, silently skipping
// malformed lines.
func decodeNDJSON(body string) []any {
	lines := strings.Split(strings.TrimSpace(body), "\n")

	records := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var record any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	return records
}
