// Package view composes the scan session and the graph resource into what the
// presentation layer renders, and owns the list/graph display mode.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/DrSkyle/netmapper/pkg/graphres"
	"github.com/DrSkyle/netmapper/pkg/scan"
	"github.com/DrSkyle/netmapper/pkg/storage"
)

// Mode is the display mode.
type Mode int

const (
	List Mode = iota
	Graph
)

func (m Mode) String() string {
	if m == Graph {
		return "graph"
	}
	return "list"
}

// ParseMode accepts "list" or "graph".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "list", "":
		return List, nil
	case "graph":
		return Graph, nil
	}
	return List, fmt.Errorf("unknown view mode %q", s)
}

// ErrNothingToDownload is returned when no device set is available to map.
var ErrNothingToDownload = errors.New("no devices to map: run a scan first")

// Scans is the slice of scan.Controller the coordinator needs.
type Scans interface {
	Scan(ctx context.Context) scan.Session
	Session() scan.Session
	Subscribe() (<-chan scan.Session, func())
}

// Graphs is the slice of graphres.Manager the coordinator needs.
type Graphs interface {
	Fetch(ctx context.Context, key string) (*graphres.Resource, error)
	Download(ctx context.Context, key string) (*graphres.Download, error)
	Current() *graphres.Resource
	LastErrorMessage() string
	Close() error
}

// GraphInfo describes the displayed graph without exposing its payload.
type GraphInfo struct {
	ID          string
	Key         string
	CreatedAt   time.Time
	ContentType string
	Size        int
	// Current is false when the graph was fetched for an older device set.
	Current bool
}

// State is everything a renderer needs for one frame.
type State struct {
	Mode        Mode
	Session     scan.Session
	Graph       *GraphInfo
	GraphError  string
	SaveError   string
	LastSaved   string
	CanDownload bool
}

// Coordinator wires user actions to the scan controller and graph manager.
type Coordinator struct {
	scans  Scans
	graphs Graphs
	store  storage.BlobStore
	logger *slog.Logger

	mu        sync.Mutex
	mode      Mode
	lastSaved string
	saveErr   string
}

// Option defines a functional configuration override.
type Option func(*Coordinator)

// WithStore sets where downloads are saved.
func WithStore(s storage.BlobStore) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.store = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMode sets the starting mode.
func WithMode(m Mode) Option {
	return func(c *Coordinator) {
		c.mode = m
	}
}

// New returns a coordinator in List mode saving to the working directory.
func New(scans Scans, graphs Graphs, opts ...Option) *Coordinator {
	c := &Coordinator{
		scans:  scans,
		graphs: graphs,
		store:  storage.NewLocalStore("."),
		logger: slog.Default(),
		mode:   List,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionKey identifies the device set of s for graph bookkeeping.
func SessionKey(s scan.Session) string {
	return strconv.FormatUint(s.ID, 10)
}

// Mode returns the current display mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches the display mode. It never scans. Entering Graph mode
// fetches a graph when devices are known and none is held for them; leaving
// it keeps the held graph until the next fetch or Close.
func (c *Coordinator) SetMode(ctx context.Context, m Mode) error {
	c.mu.Lock()
	prev := c.mode
	c.mode = m
	c.mu.Unlock()

	if prev != m {
		c.logger.Debug("View mode changed", "from", prev.String(), "to", m.String())
	}
	if m != Graph {
		return nil
	}
	return c.ensureGraph(ctx)
}

// Toggle flips between List and Graph.
func (c *Coordinator) Toggle(ctx context.Context) error {
	next := Graph
	if c.Mode() == Graph {
		next = List
	}
	return c.SetMode(ctx, next)
}

// Scan runs a scan and, in Graph mode, refreshes the graph for the new
// device set. Graph failures are kept by the manager and do not affect the
// returned session.
func (c *Coordinator) Scan(ctx context.Context) scan.Session {
	s := c.scans.Scan(ctx)
	if c.Mode() == Graph {
		if err := c.ensureGraph(ctx); err != nil {
			c.logger.Debug("Graph refresh after scan failed", "error", err)
		}
	}
	return s
}

// RefreshGraph fetches the graph for the current device set if needed.
func (c *Coordinator) RefreshGraph(ctx context.Context) error {
	return c.ensureGraph(ctx)
}

func (c *Coordinator) ensureGraph(ctx context.Context) error {
	s := c.scans.Session()
	if !s.HasDevices() {
		return nil
	}
	key := SessionKey(s)
	if cur := c.graphs.Current(); cur != nil && cur.Key() == key && !cur.Released() {
		return nil
	}
	_, err := c.graphs.Fetch(ctx, key)
	if errors.Is(err, graphres.ErrSuperseded) {
		return nil
	}
	return err
}

// Download fetches (or reuses) the map for the current device set and saves
// it to the configured store. It returns where the file was written.
func (c *Coordinator) Download(ctx context.Context) (string, error) {
	s := c.scans.Session()
	if !s.HasDevices() || s.Status == scan.Scanning {
		return "", ErrNothingToDownload
	}

	d, err := c.graphs.Download(ctx, SessionKey(s))
	if err != nil {
		return "", err
	}

	where, err := d.Save(ctx, c.store)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.saveErr = err.Error()
		c.logger.Warn("Saving network map failed", "error", err)
		return "", err
	}
	c.saveErr = ""
	c.lastSaved = where
	c.logger.Info("Network map saved", "location", where)
	return where, nil
}

// Subscribe delivers every session change (newest wins) until cancel is
// called. Renderers use it to redraw as soon as a scan commits.
func (c *Coordinator) Subscribe() (<-chan scan.Session, func()) {
	return c.scans.Subscribe()
}

// Snapshot composes the current state for rendering.
func (c *Coordinator) Snapshot() State {
	s := c.scans.Session()

	c.mu.Lock()
	st := State{
		Mode:        c.mode,
		Session:     s,
		LastSaved:   c.lastSaved,
		SaveError:   c.saveErr,
		GraphError:  c.graphs.LastErrorMessage(),
		CanDownload: s.HasDevices() && s.Status != scan.Scanning,
	}
	c.mu.Unlock()

	if cur := c.graphs.Current(); cur != nil && !cur.Released() {
		st.Graph = &GraphInfo{
			ID:          cur.ID(),
			Key:         cur.Key(),
			CreatedAt:   cur.CreatedAt(),
			ContentType: cur.ContentType(),
			Size:        cur.Size(),
			Current:     cur.Key() == SessionKey(s),
		}
	}
	return st
}

// Close releases the graph resource. Callers defer it right after New.
func (c *Coordinator) Close() error {
	return c.graphs.Close()
}
