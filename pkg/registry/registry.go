// Package registry supplies metadata snapshots from snapshot files, the PyPI
// JSON API, the OSV vulnerability database and source hosts.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound is returned when a package does not exist in the source.
var ErrNotFound = errors.New("registry: package not found")

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "pkgrisk"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// doJSON sends a request with an optional JSON body and decodes a JSON reply.
// A 404 is reported as ErrNotFound.
func doJSON(ctx context.Context, client *http.Client, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("registry: marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("registry: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("registry: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("registry: %s %s returned %d: %s", method, url, resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registry: decoding %s: %w", url, err)
	}
	return nil
}
