package zn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/zeronorth-oss/znctl/internal/metrics"
	"github.com/zeronorth-oss/znctl/pkg/types"
)

// DefaultAPIRoot is the production API endpoint.
const DefaultAPIRoot = "https://api.zeronorth.io/v1"

const requestCounter = "api_requests_total"

// Client issues authenticated requests against the orchestration API.
// It owns no remote state; every method is a single network call whose raw
// body the caller classifies with Classify.
type Client struct {
	http      *resty.Client
	logger    types.Logger
	collector metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger.
func WithLogger(logger types.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout overrides the per-request timeout (default 60s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithMetrics attaches a metrics collector; the client counts every API
// request by method.
func WithMetrics(ctx context.Context, collector metrics.Collector) Option {
	return func(c *Client) {
		c.collector = collector
		// Already-registered is fine when several clients share a collector.
		_, _ = collector.RegisterCounter(ctx, requestCounter, "method")     //nolint:errcheck
		_, _ = collector.RegisterCounter(ctx, pollIterationCounter, "job") //nolint:errcheck
	}
}

// NewClient builds a client for the given API root and credential. The
// credential is sent raw in the Authorization header on every request.
func NewClient(apiRoot, token string, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(apiRoot).
		SetTimeout(60 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", token)
	c := &Client{
		http:   httpClient,
		logger: &types.MockLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET against path and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with an optional JSON body. Body may be a struct (it
// is marshaled), or pre-built JSON as string/[]byte (validated, not
// re-encoded). A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE against path.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// Upload issues a multipart POST of a local file to path under the given
// form field name.
func (c *Client) Upload(ctx context.Context, path, field, filePath string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("upload path cannot be empty")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile(field, filePath).
		Post(path)
	c.count(ctx, http.MethodPost)
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, Path: path, Err: err}
	}
	return resp.Body(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("request path cannot be empty")
	}
	req := c.http.R().SetContext(ctx)
	if body != nil {
		if err := checkRawBody(body); err != nil {
			return nil, err
		}
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	c.count(ctx, method)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	c.logger.Debug("api call",
		zap.String("method", method), zap.String("path", path), zap.String("status", resp.Status()))
	return resp.Body(), nil
}

// checkRawBody rejects pre-built bodies that are not valid JSON text.
// Struct bodies are marshaled by the HTTP layer and need no check.
func checkRawBody(body interface{}) error {
	var raw []byte
	switch b := body.(type) {
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	case json.RawMessage:
		raw = b
	default:
		return nil
	}
	if !json.Valid(raw) {
		return fmt.Errorf("request body is not valid JSON")
	}
	return nil
}

func (c *Client) count(ctx context.Context, method string) {
	if c.collector == nil {
		return
	}
	_ = c.collector.AddCounter(ctx, requestCounter, 1, method) //nolint:errcheck
}
