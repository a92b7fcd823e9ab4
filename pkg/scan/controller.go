// Package scan owns the scan lifecycle: it issues discovery requests and turns
// their outcome into the live Session.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/metrics"
)

// Status of the live session.
type Status int

const (
	Idle Status = iota
	Scanning
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Session is a snapshot of one scan. ID is the request sequence number that
// produced it; the initial idle session has ID 0.
type Session struct {
	ID           uint64
	Status       Status
	Devices      []discovery.Device
	Err          error
	ErrorMessage string
	CompletedAt  time.Time
}

// HasDevices reports whether the session carries a device set.
func (s Session) HasDevices() bool {
	return len(s.Devices) > 0
}

func (s Session) clone() Session {
	if s.Devices != nil {
		s.Devices = append([]discovery.Device(nil), s.Devices...)
	}
	return s
}

// Scanner is the discovery call the controller drives.
type Scanner interface {
	Scan(ctx context.Context) ([]discovery.Device, error)
}

// Controller serializes scan outcomes. Overlapping Scan calls are allowed;
// only the response to the most recently issued call is committed.
type Controller struct {
	source  Scanner
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	mu      sync.Mutex
	seq     uint64
	session Session
	subs    map[int]chan Session
	nextSub int
}

// Option defines a functional configuration override.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Controller) {
		c.metrics = r
	}
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController returns a controller in the Idle state.
func NewController(source Scanner, opts ...Option) *Controller {
	c := &Controller{
		source:  source,
		logger:  slog.Default(),
		now:     time.Now,
		session: Session{Status: Idle},
		subs:    make(map[int]chan Session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the live session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Scanning reports whether a request is outstanding for the live session.
func (c *Controller) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Status == Scanning
}

// Scan issues one discovery request and returns the session committed for it.
// If a newer Scan was issued meanwhile, this call's response is dropped and
// the current session is returned instead. Scan never returns an error:
// failures become Error sessions.
func (c *Controller) Scan(ctx context.Context) Session {
	c.mu.Lock()
	c.seq++
	id := c.seq
	c.session = Session{ID: id, Status: Scanning}
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Debug("Scan issued", "scan_id", id)
	devices, err := c.run(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.seq {
		c.logger.Debug("Dropping superseded scan response", "scan_id", id, "latest", c.seq)
		c.metrics.ScanSuperseded()
		return c.session.clone()
	}

	next := Session{ID: id}
	switch {
	case err != nil:
		next.Status = Error
		next.Err = err
		next.ErrorMessage = discovery.UserMessage(discovery.OpScan, err)
	case len(devices) == 0:
		next.Status = Error
		next.Err = &discovery.EmptyResultError{}
		next.ErrorMessage = discovery.MsgNoDevices
	default:
		next.Status = Success
		next.Devices = append([]discovery.Device(nil), devices...)
		next.CompletedAt = c.now()
	}

	c.session = next
	c.record(next)
	c.publishLocked()
	return next.clone()
}

// run calls the source and turns a panic into a transport failure so a bad
// collaborator cannot take the process down.
func (c *Controller) run(ctx context.Context) (devices []discovery.Device, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Scan source panicked", "error", r, "stack", string(debug.Stack()))
			devices = nil
			err = &discovery.TransportError{Op: discovery.OpScan, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return c.source.Scan(ctx)
}

func (c *Controller) record(s Session) {
	switch {
	case s.Status == Success:
		c.metrics.ScanCommitted(metrics.OutcomeSuccess)
		c.logger.Info("Scan committed", "scan_id", s.ID, "devices", len(s.Devices))
	case discovery.IsEmptyResult(s.Err):
		c.metrics.ScanCommitted(metrics.OutcomeEmpty)
		c.logger.Warn("Scan found no devices", "scan_id", s.ID)
	default:
		c.metrics.ScanCommitted(metrics.OutcomeError)
		c.logger.Warn("Scan failed", "scan_id", s.ID, "error", s.Err)
	}
}

// Subscribe returns a channel receiving every session change. The channel
// keeps only the newest undelivered session. Call cancel to stop delivery.
func (c *Controller) Subscribe() (<-chan Session, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Session, 1)
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.session.clone()
	}
}
