// Package engine wires the discovery client, scan controller, graph manager
// and view coordinator into one runtime.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/graphres"
	"github.com/DrSkyle/netmapper/pkg/metrics"
	"github.com/DrSkyle/netmapper/pkg/scan"
	"github.com/DrSkyle/netmapper/pkg/storage"
	"github.com/DrSkyle/netmapper/pkg/telemetry"
	"github.com/DrSkyle/netmapper/pkg/version"
	"github.com/DrSkyle/netmapper/pkg/view"
)

// Engine is the runtime core.
type Engine struct {
	// Core components.
	Client  *discovery.Client
	Scans   *scan.Controller
	Graphs  *graphres.Manager
	View    *view.Coordinator
	Metrics *metrics.Recorder
	Store   storage.BlobStore
	Logger  *slog.Logger

	// Immutable config.
	config        config.Config
	httpClient    *http.Client
	mode          view.Mode
	skipTelemetry bool

	// Shutdown hooks, run in reverse order by Close.
	closers []func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// WithConfig sets the runtime configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithHTTPClient overrides the client used to reach the discovery service.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = hc
	}
}

// WithStore overrides where downloaded maps are saved.
func WithStore(s storage.BlobStore) Option {
	return func(e *Engine) {
		e.Store = s
	}
}

// WithMode sets the initial display mode.
func WithMode(m view.Mode) Option {
	return func(e *Engine) {
		e.mode = m
	}
}

// WithShutdownHook registers fn to run on Close, after every component the
// engine built itself. It also runs when New fails.
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(e *Engine) {
		if fn != nil {
			e.closers = append(e.closers, fn)
		}
	}
}

// WithoutTelemetry skips tracer provider setup, for embedding in a process
// that already configured OpenTelemetry.
func WithoutTelemetry() Option {
	return func(e *Engine) {
		e.skipTelemetry = true
	}
}

// New initializes the Engine. Callers must Close it. On failure everything
// started so far, shutdown hooks included, is closed before returning.
func New(ctx context.Context, opts ...Option) (_ *Engine, err error) {
	e := &Engine{
		Logger:  NewLogger(os.Stderr, slog.LevelInfo),
		Metrics: metrics.New(),
		config:  config.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	defer func() {
		if err != nil {
			if cerr := e.Close(ctx); cerr != nil {
				e.Logger.Warn("Cleanup after failed start", "error", cerr)
			}
		}
	}()

	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	if !e.skipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.closers = append(e.closers, shutdown)
		}
	}

	clientOpts := []discovery.Option{
		discovery.WithLogger(e.Logger),
		discovery.WithTracer(telemetry.Tracer()),
	}
	if e.httpClient != nil {
		clientOpts = append(clientOpts, discovery.WithHTTPClient(e.httpClient))
	}
	if e.config.RateLimit > 0 {
		clientOpts = append(clientOpts, discovery.WithRateLimit(e.config.RateLimit, 1))
	}
	client, err := discovery.New(e.config.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}
	e.Client = client

	if e.Store == nil {
		store, err := storage.Open(ctx, e.config.Output, storage.Options{
			Region:   e.config.Region,
			Endpoint: e.config.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open output %q: %w", e.config.Output, err)
		}
		e.Store = store
	}

	e.Scans = scan.NewController(client,
		scan.WithLogger(e.Logger),
		scan.WithMetrics(e.Metrics),
	)
	e.Graphs = graphres.NewManager(client,
		graphres.WithLogger(e.Logger),
		graphres.WithMetrics(e.Metrics),
	)
	e.View = view.New(e.Scans, e.Graphs,
		view.WithStore(e.Store),
		view.WithLogger(e.Logger),
		view.WithMode(e.mode),
	)
	e.closers = append(e.closers, func(context.Context) error { return e.View.Close() })

	if e.config.MetricsAddr != "" {
		e.serveMetrics(e.config.MetricsAddr)
	}

	e.Logger.Debug("Engine ready", "base_url", client.BaseURL(), "output", e.Store.Location(""))
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	return e.config
}

func (e *Engine) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		defer recoverPanic(e.Logger)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Warn("Metrics server stopped", "addr", addr, "error", err)
		}
	}()
	e.closers = append(e.closers, srv.Shutdown)
	e.Logger.Info("Serving metrics", "addr", addr)
}

// Close releases the graph resource and flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// NewLogger returns a JSON logger that redacts sensitive attributes.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSensitiveData,
	}))
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"password": true, "access_key": true, "token": true, "secret": true,
		"api_key": true, "auth_token": true, "credential": true, "authorization": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}

func recoverPanic(logger *slog.Logger) {
	if r := recover(); r != nil {
		logger.Error("Recovered from panic", "error", r, "stack", string(debug.Stack()))
	}
}
