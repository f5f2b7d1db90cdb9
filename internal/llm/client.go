// Package llm is the transport client for OpenRouter-compatible chat
// completion endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Reply is the outcome of Send: Text for non-streaming requests, an open
// not-yet-consumed Stream otherwise. The caller owns Stream and must close it.
type Reply struct {
	Text   string
	Stream io.ReadCloser
}

// Client posts completion requests and lists models.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	title   string
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default streaming-safe HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRateLimit caps outgoing requests per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(cl *Client) {
		if perMinute <= 0 {
			cl.limiter = nil
			return
		}
		cl.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
	}
}

// WithTimeout bounds each request, including the time spent reading a stream.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithAppTitle sets the X-Title header OpenRouter uses for attribution.
func WithAppTitle(title string) Option {
	return func(cl *Client) { cl.title = title }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a client rooted at baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: normalizeBaseURL(baseURL),
		http:    newStreamingHTTPClient(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Send dispatches req with credential as bearer token.
func (c *Client) Send(ctx context.Context, req CompletionRequest, credential string) (*Reply, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, &AuthError{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}

	cancel := func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/chat/completions", body, credential, req.Stream)
	if err != nil {
		cancel()
		return nil, err
	}
	c.logger.Debug("completion response", "status", resp.StatusCode, "stream", req.Stream, "model", req.Model)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		return nil, c.apiError(resp)
	}

	if req.Stream {
		stream, err := decodeBody(resp)
		if err != nil {
			cancel()
			return nil, err
		}
		return &Reply{Stream: &cancelOnClose{ReadCloser: stream, cancel: cancel}}, nil
	}

	defer cancel()
	data, err := readBody(resp)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if !gjson.ValidBytes(data) {
		c.logger.Warn("completion response is not JSON", "body", truncateForLog(string(data), 512))
		return nil, fmt.Errorf("llm: invalid completion response")
	}
	content := gjson.GetBytes(data, "choices.0.message.content")
	return &Reply{Text: strings.TrimSpace(content.String())}, nil
}

// Complete sends a non-streaming request and returns the trimmed answer.
func (c *Client) Complete(ctx context.Context, req CompletionRequest, credential string) (string, error) {
	req.Stream = false
	reply, err := c.Send(ctx, req, credential)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Stream sends a streaming request and returns the open SSE body.
func (c *Client) Stream(ctx context.Context, req CompletionRequest, credential string) (io.ReadCloser, error) {
	req.Stream = true
	reply, err := c.Send(ctx, req, credential)
	if err != nil {
		return nil, err
	}
	return reply.Stream, nil
}

// ListModels fetches the models listing, sorted for display.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/models", nil, "", false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp)
	}
	data, err := readBody(resp)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	var listing struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("llm: decode models: %w", err)
	}
	SortModels(listing.Data)
	return listing.Data, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, credential string, stream bool) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, classifyTransportError(err)
		}
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Accept-Encoding", "identity")
	} else {
		req.Header.Set("Accept-Encoding", "gzip, zstd")
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "url", endpoint, "error", err)
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

func (c *Client) apiError(resp *http.Response) error {
	data, _ := readBody(resp)
	c.logger.Warn("endpoint returned error status",
		"status", resp.StatusCode,
		"body", truncateForLog(string(data), 16*1024),
	)
	e := &APIError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	if gjson.ValidBytes(data) {
		e.Detail = strings.TrimSpace(gjson.GetBytes(data, "error.message").String())
	}
	return e
}

func classifyTransportError(err error) error {
	detail := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		detail = urlErr.Err.Error()
		if urlErr.Timeout() {
			detail = "request timed out"
		}
	}
	return &NetworkError{Detail: detail, Err: err}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
