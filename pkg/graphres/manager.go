package graphres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Source is the graph endpoint the manager drives.
type Source interface {
	Graph(ctx context.Context) (*discovery.Image, error)
}

// Manager owns at most one live Resource. Installing a new resource releases
// the previous one after the swap, so readers never see a gap.
type Manager struct {
	source  Source
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
	flights singleflight.Group

	mu           sync.Mutex
	current      *Resource
	live         int
	fetchSeq     uint64
	installedSeq uint64
	lastErr      error
	closed       bool
}

// Option defines a functional configuration override.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// WithClock overrides the time source used for handles and filenames.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager returns a manager holding no resource.
func NewManager(source Source, opts ...Option) *Manager {
	m := &Manager{
		source: source,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fetch downloads the graph for the device set identified by key and installs
// it as the current resource. On failure the current resource is untouched.
func (m *Manager) Fetch(ctx context.Context, key string) (*Resource, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.fetchSeq++
	seq := m.fetchSeq
	m.mu.Unlock()

	img, err := m.load(ctx, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		// A newer fetch already installed its graph; this failure is history.
		if seq < m.installedSeq {
			m.logger.Debug("Dropping superseded graph failure", "key", key, "fetch", seq, "installed", m.installedSeq, "error", err)
			return nil, ErrSuperseded
		}
		m.lastErr = err
		m.metrics.GraphFetched(metrics.OutcomeError)
		m.logger.Warn("Graph fetch failed", "key", key, "error", err)
		return nil, err
	}
	if m.closed {
		return nil, ErrClosed
	}

	// A shared flight may already have been installed by another caller.
	if m.current != nil && m.current.origin == img {
		if seq > m.installedSeq {
			m.installedSeq = seq
		}
		return m.current, nil
	}
	if seq < m.installedSeq {
		m.logger.Debug("Dropping superseded graph fetch", "key", key, "fetch", seq, "installed", m.installedSeq)
		return nil, ErrSuperseded
	}

	res := newResource(key, img, m.now())
	old := m.current
	m.current = res
	m.live++
	m.installedSeq = seq
	m.lastErr = nil

	if old != nil && old.release() {
		m.live--
	}

	m.metrics.GraphFetched(metrics.OutcomeSuccess)
	m.metrics.GraphHeld(m.live, res.Size())
	m.logger.Info("Graph installed", "key", key, "resource", res.ID(), "bytes", res.Size())
	return res, nil
}

// Download exposes the graph as a file to save. The held payload is reused
// when it belongs to key (or key is empty); otherwise the graph is fetched,
// sharing any in-flight request for the same key. A download never replaces
// the displayed resource.
func (m *Manager) Download(ctx context.Context, key string) (*Download, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	cur := m.current
	m.mu.Unlock()

	now := m.now()
	if cur != nil && (key == "" || cur.Key() == key) {
		if data, err := cur.Bytes(); err == nil {
			m.clearErr()
			return newDownload(now, cur.ContentType(), data), nil
		}
	}

	img, err := m.load(ctx, key)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		m.metrics.GraphFetched(metrics.OutcomeError)
		m.logger.Warn("Graph download failed", "key", key, "error", err)
		return nil, err
	}

	m.clearErr()
	m.metrics.GraphFetched(metrics.OutcomeSuccess)
	return newDownload(now, img.ContentType, append([]byte(nil), img.Data...)), nil
}

// Release drops the current resource. Calling it with nothing held is a no-op.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

// Close releases the current resource and rejects further fetches.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
	m.closed = true
	return nil
}

func (m *Manager) releaseLocked() {
	if m.current == nil {
		return
	}
	if m.current.release() {
		m.live--
		m.logger.Debug("Graph released", "resource", m.current.ID())
	}
	m.current = nil
	m.metrics.GraphHeld(m.live, 0)
}

// Current returns the live resource, or nil.
func (m *Manager) Current() *Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Live reports how many handles are unreleased.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// LastError is the most recent graph failure, cleared by the next success.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// LastErrorMessage is LastError in display form.
func (m *Manager) LastErrorMessage() string {
	return discovery.UserMessage(discovery.OpGraph, m.LastError())
}

func (m *Manager) clearErr() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

// load fetches through the shared flight for key.
func (m *Manager) load(ctx context.Context, key string) (*discovery.Image, error) {
	v, err, shared := m.flights.Do("graph/"+key, func() (img interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				img = (*discovery.Image)(nil)
				err = &discovery.TransportError{Op: discovery.OpGraph, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		return m.source.Graph(ctx)
	})
	if shared {
		m.logger.Debug("Graph request shared with in-flight fetch", "key", key)
	}
	if err != nil {
		return nil, err
	}
	img, _ := v.(*discovery.Image)
	if img == nil {
		return nil, &discovery.TransportError{Op: discovery.OpGraph, Err: fmt.Errorf("empty response")}
	}
	return img, nil
}
