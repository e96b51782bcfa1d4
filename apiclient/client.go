// Package apiclient talks to the wallet REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"tgwallet/metrics"
)

const maxResponseBody = 8 << 20

// Doer issues one request against the backend and decodes the reply into out.
// out may be nil when the body is not needed.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Config configures the client
type Config struct {
	BaseURL    string
	Timeout    time.Duration // 0 means no timeout
	HTTPClient *http.Client  // Overrides Timeout when set
	Metrics    *metrics.Metrics
}

// Client is a JSON client bound to a base URL. It makes exactly one attempt
// per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// New creates a new backend client
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}, nil
}

// URL returns the absolute URL for path
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// Do implements Doer
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	url := c.URL(path)

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	logger := log.WithFields(log.Fields{
		"method":   method,
		"endpoint": metrics.EndpointLabel(path),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(method, path, "network_error", time.Since(start))
		logger.WithError(err).Warn("Backend request failed")
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, truncated, err := readAllWithLimit(resp.Body, maxResponseBody)
	if err != nil {
		c.metrics.ObserveUpstream(method, path, "network_error", time.Since(start))
		return &NetworkError{Method: method, URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}

	logger = logger.WithFields(log.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveUpstream(method, path, "http_error", time.Since(start))
		text := strings.TrimSpace(string(data))
		if truncated {
			text += "...(truncated)"
		}
		logger.Debug("Backend returned error status")
		return &HTTPStatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       text,
			Detail:     extractDetail(data),
		}
	}

	if out != nil {
		if truncated {
			c.metrics.ObserveUpstream(method, path, "parse_error", time.Since(start))
			return &ParseError{URL: url, Err: fmt.Errorf("response body exceeds %d bytes", maxResponseBody)}
		}
		if len(bytes.TrimSpace(data)) == 0 {
			c.metrics.ObserveUpstream(method, path, "parse_error", time.Since(start))
			return &ParseError{URL: url, Err: io.ErrUnexpectedEOF}
		}
		if err := json.Unmarshal(data, out); err != nil {
			c.metrics.ObserveUpstream(method, path, "parse_error", time.Since(start))
			return &ParseError{URL: url, Body: string(data), Err: err}
		}
	}

	c.metrics.ObserveUpstream(method, path, "ok", time.Since(start))
	logger.Debug("Backend request completed")
	return nil
}

// Get performs a GET and decodes the reply as T
func Get[T any](ctx context.Context, d Doer, path string) (T, error) {
	var out T
	if err := d.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Post performs a POST with a JSON body and decodes the reply as T
func Post[T any](ctx context.Context, d Doer, path string, body any) (T, error) {
	var out T
	if err := d.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// readAllWithLimit reads at most limit bytes and reports whether more were available
func readAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
