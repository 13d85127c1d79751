// Package rest is the JSON-over-HTTP plumbing shared by the embedding and
// vector store clients.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 4
	defaultDelay    = 200 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s failed: %s: %s", e.Method, e.URL, e.Status, e.Body)
}

// Temporary reports whether the request is worth retrying.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryConfig controls retries of transient failures.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

func (rc RetryConfig) options(ctx context.Context) []retry.Option {
	if rc.Attempts == 0 {
		rc.Attempts = defaultAttempts
	}
	if rc.Delay == 0 {
		rc.Delay = defaultDelay
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = defaultMaxDelay
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.DelayType(func(n uint, err error, cfg *retry.Config) time.Duration {
			var he *HTTPError
			if errors.As(err, &he) && he.RetryAfter > 0 {
				return he.RetryAfter
			}
			return retry.BackOffDelay(n, err, cfg)
		}),
	}
}

// Client sends JSON requests with a fixed header set.
type Client struct {
	HTTP    *http.Client
	Headers map[string]string
	Retry   RetryConfig
}

// New returns a Client with the given timeout.
func New(timeout time.Duration, headers map[string]string) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}, Headers: headers}
}

// DoJSON marshals body (when non-nil), sends it and decodes the response into
// out (when non-nil). Transport errors, 429 and 5xx are retried.
func (c *Client) DoJSON(ctx context.Context, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}
	return retry.Do(func() error {
		return c.do(ctx, method, url, payload, out)
	}, c.Retry.options(ctx)...)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, out any) error {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(bytes.TrimSpace(data)), 512),
		}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				he.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return he
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func isTransient(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Temporary()
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
