// ABOUTME: HTTP client shared by the provider backends
// ABOUTME: Exponential backoff on 429/5xx, default headers, SSE entry point

package httputil

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mauromedda/nano-agent-go/pkg/model/internal/sse"
)

const (
	maxAttempts = 4
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 10 * time.Second
)

// Client posts JSON payloads to one provider endpoint. Requests that fail
// with 429 or a 5xx are retried with exponential backoff until the attempt
// budget runs out; the final response is returned unread either way.
type Client struct {
	hc      *http.Client
	baseURL string
	headers map[string]string
}

// New builds a Client for baseURL. headers are applied to every request.
// Proxies come from the environment (HTTP_PROXY, HTTPS_PROXY).
func New(baseURL string, headers map[string]string) *Client {
	return &Client{
		hc: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: headers,
	}
}

// BaseURL reports the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends payload to path, retrying retryable failures. The caller
// owns the response body.
func (c *Client) PostJSON(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	var resp *http.Response

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, backoffFor(attempt-1)); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", path, err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err = c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("posting to %s: %w", path, err)
		}
		if !retryable(resp.StatusCode) || attempt == maxAttempts-1 {
			return resp, nil
		}
		resp.Body.Close()
	}
	return resp, nil
}

// PostSSE sends payload and returns an SSE decoder over the response body.
// The caller must close resp.Body when done with the decoder.
func (c *Client) PostSSE(ctx context.Context, path string, payload []byte) (*sse.Decoder, *http.Response, error) {
	resp, err := c.PostJSON(ctx, path, payload)
	if err != nil {
		return nil, nil, err
	}
	return sse.NewDecoder(resp.Body), resp, nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func backoffFor(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
