package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "guardiansos/1.0"
	maxErrorBody     = 512
)

// Client is the outbound HTTP client shared by notification gateways.
type Client struct {
	client    *http.Client
	userAgent string
}

func New(userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := http.Client{
		Timeout: timeout,
	}
	c := &Client{
		client:    &httpClient,
		userAgent: userAgent,
	}
	httpClient.Transport = c
	return c
}

// Options carries per-request credentials.
type Options struct {
	Username string
	Password string
	Bearer   string
	Header   map[string]string
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader, opts Options, response any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if opts.Username != "" || opts.Password != "" {
		req.SetBasicAuth(opts.Username, opts.Password)
	}
	if opts.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Bearer)
	}
	for k, v := range opts.Header {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	if response == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PostJSON sends payload as JSON and decodes a JSON response into response
// when it is non-nil.
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload any, opts Options, response any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, endpoint, "application/json", bytes.NewReader(raw), opts, response)
}

func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values, opts Options, response any) error {
	return c.do(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), opts, response)
}
