package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultPullTimeout bounds one full-state request.
	DefaultPullTimeout = 30 * time.Second

	// maxStateBytes bounds the full-state body.
	maxStateBytes = 64 << 20
)

// HTTPPuller fetches the full state with GET on the state endpoint.
// Safe for concurrent use.
type HTTPPuller struct {
	url    string
	client *http.Client
}

// NewHTTPPuller creates a puller for url. A zero timeout selects
// DefaultPullTimeout.
func NewHTTPPuller(url string, timeout time.Duration) *HTTPPuller {
	if timeout <= 0 {
		timeout = DefaultPullTimeout
	}
	return &HTTPPuller{url: url, client: &http.Client{Timeout: timeout}}
}

// URL returns the state endpoint.
func (p *HTTPPuller) URL() string {
	return p.url
}

// Pull returns the response body. Non-2xx responses are a *StatusError.
func (p *HTTPPuller) Pull(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: p.url, Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStateBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.url, err)
	}
	if len(body) > maxStateBytes {
		return nil, fmt.Errorf("read %s: body exceeds %d bytes", p.url, maxStateBytes)
	}
	return body, nil
}
