// Package httpclient provides the HTTP transport shared by the ArcGIS, map.apps
// and availability clients.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps the body size accepted from remote endpoints
	MaxResponseSize = 50 * 1024 * 1024

	// UserAgent is sent with every request
	UserAgent = "ma-ags-reports/1.0"
)

// Client performs GET and form POST requests and returns the response body of a 200 response
type Client interface {
	Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error)
	PostForm(ctx context.Context, url string, form map[string]string, opts ...RequestOption) ([]byte, error)
}

// RequestOption customises a single request
type RequestOption func(*resty.Request)

// WithQuery adds a query parameter. Values passed this way never appear in error messages.
func WithQuery(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParam(key, value)
	}
}

// WithBasicAuth sets HTTP basic authentication
func WithBasicAuth(username, password string) RequestOption {
	return func(r *resty.Request) {
		r.SetBasicAuth(username, password)
	}
}

// Option configures the DefaultClient
type Option func(*clientConfig)

type clientConfig struct {
	timeout            time.Duration
	insecureSkipVerify bool
	maxResponseSize    int
	tracerProvider     trace.TracerProvider
}

// WithTimeout sets the per-request timeout; zero keeps DefaultTimeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Internal GIS
// endpoints commonly use self-signed certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *clientConfig) {
		c.insecureSkipVerify = skip
	}
}

// WithMaxResponseSize overrides MaxResponseSize
func WithMaxResponseSize(size int) Option {
	return func(c *clientConfig) {
		c.maxResponseSize = size
	}
}

// WithTracerProvider enables client spans for every request
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracerProvider = tp
	}
}

// DefaultClient implements Client on top of resty
type DefaultClient struct {
	client          *resty.Client
	maxResponseSize int
}

var _ Client = (*DefaultClient)(nil)

// NewDefaultClient creates a new HTTP client
func NewDefaultClient(opts ...Option) *DefaultClient {
	client, cfg := newResty(opts)
	return &DefaultClient{client: client, maxResponseSize: cfg.maxResponseSize}
}

// NewResty returns a resty client configured like DefaultClient, for callers
// that need more than GET and form POST.
func NewResty(opts ...Option) *resty.Client {
	client, _ := newResty(opts)
	return client
}

func newResty(opts []Option) (*resty.Client, *clientConfig) {
	cfg := &clientConfig{
		timeout:         DefaultTimeout,
		maxResponseSize: MaxResponseSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := resty.New().
		SetTimeout(cfg.timeout).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json, application/xml;q=0.9, */*;q=0.8")

	if cfg.insecureSkipVerify {
		// #nosec G402 -- internal GIS endpoints with self-signed certificates
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	if cfg.tracerProvider != nil {
		instrument(client, cfg.tracerProvider)
	}

	return client, cfg
}

// Get issues a GET request
func (c *DefaultClient) Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, opts)
}

// PostForm issues a POST request with a form-encoded body
func (c *DefaultClient) PostForm(
	ctx context.Context, url string, form map[string]string, opts ...RequestOption,
) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, append([]RequestOption{func(r *resty.Request) {
		r.SetFormData(form)
	}}, opts...))
}

func (c *DefaultClient) do(ctx context.Context, method, url string, opts []RequestOption) ([]byte, error) {
	req := c.client.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to %s: %w", url, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		if len(body) > c.maxResponseSize {
			body = nil
		}
		return nil, &HTTPError{
			StatusCode: resp.StatusCode(),
			URL:        url,
			Message:    http.StatusText(resp.StatusCode()),
			Body:       body,
		}
	}

	if len(body) > c.maxResponseSize {
		return nil, fmt.Errorf("response from %s exceeds maximum size of %d bytes", url, c.maxResponseSize)
	}

	return body, nil
}
