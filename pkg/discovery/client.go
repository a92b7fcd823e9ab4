package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/DrSkyle/netmapper/pkg/telemetry"
)

const (
	ScanPath  = "/api/scan"
	GraphPath = "/api/graph"
)

// Client talks to the discovery service. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option defines a functional configuration override.
type Option func(*Client)

// WithHTTPClient swaps the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New builds a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		logger:  slog.Default(),
		tracer:  telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Scan runs one discovery request. A 200 carrying no devices is reported as
// *EmptyResultError, never as an empty success.
func (c *Client) Scan(ctx context.Context) ([]Device, error) {
	ctx, span := c.tracer.Start(ctx, "discovery.Scan")
	defer span.End()

	body, status, _, err := c.get(ctx, OpScan, ScanPath)
	if err != nil {
		return nil, c.fail(span, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status > 299 {
		return nil, c.fail(span, &ServiceError{Op: OpScan, Status: status, Message: payloadMessage(body)})
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, c.fail(span, &EmptyResultError{})
	}

	var devices []Device
	if err := json.Unmarshal(trimmed, &devices); err != nil {
		return nil, c.fail(span, &TransportError{Op: OpScan, Err: fmt.Errorf("decode devices: %w", err)})
	}
	if len(devices) == 0 {
		return nil, c.fail(span, &EmptyResultError{})
	}

	span.SetAttributes(attribute.Int("scan.devices", len(devices)))
	c.logger.Debug("Scan completed", "devices", len(devices))
	return devices, nil
}

// Graph downloads the rendered network map.
func (c *Client) Graph(ctx context.Context) (*Image, error) {
	ctx, span := c.tracer.Start(ctx, "discovery.Graph")
	defer span.End()

	body, status, contentType, err := c.get(ctx, OpGraph, GraphPath)
	if err != nil {
		return nil, c.fail(span, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status > 299 {
		return nil, c.fail(span, &ServiceError{Op: OpGraph, Status: status, Message: payloadMessage(body)})
	}

	span.SetAttributes(
		attribute.Int("graph.bytes", len(body)),
		attribute.String("graph.content_type", contentType),
	)
	c.logger.Debug("Graph downloaded", "bytes", len(body), "content_type", contentType)
	return &Image{Data: body, ContentType: contentType}, nil
}

func (c *Client) get(ctx context.Context, op Op, path string) ([]byte, int, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, "", &TransportError{Op: op, Err: err}
		}
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, "", &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, "", &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, "", &TransportError{Op: op, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Debug("Discovery request failed", "error", err)
	return err
}
