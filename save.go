package brightdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adamwoolhether/brightdata/errs"
)

// SaveContent persists result content to a local file and returns its
// path. An empty filename defaults to a timestamped name; the
// extension always matches the format. JSON content is pretty-printed;
// everything else is written verbatim as text.
//
// The data is staged in a temp file next to the destination and
// renamed into place on success.
func (c *Client) SaveContent(content any, filename, format string) (string, error) {
	if format == "" {
		format = "json"
	}

	if filename == "" {
		filename = fmt.Sprintf("brightdata_results_%s.%s", time.Now().Format("20060102_150405"), format)
	}
	if !strings.HasSuffix(filename, "."+format) {
		filename += "." + format
	}

	data, err := renderContent(content, format)
	if err != nil {
		return "", err
	}

	file, err := os.CreateTemp(filepath.Dir(filename), ".brightdata-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			c.logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				c.logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("writing content: %w", err)
	}
	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), filename); err != nil {
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true
	c.logger.Info("content saved", "path", filename)

	return filename, nil
}

func renderContent(content any, format string) ([]byte, error) {
	if format == "json" {
		if s, ok := content.(string); ok {
			return []byte(s), nil
		}
		data, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%w: encoding json content: %w", errs.ErrValidation, err)
		}
		return data, nil
	}

	switch v := content.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return fmt.Appendf(nil, "%v", v), nil
	}
}
