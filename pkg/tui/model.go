// Package tui is the interactive terminal front end: a device list and a
// network-map view driven by the view coordinator.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/filter"
	"github.com/DrSkyle/netmapper/pkg/scan"
	"github.com/DrSkyle/netmapper/pkg/view"
)

const refreshInterval = 250 * time.Millisecond

type Model struct {
	ctx      context.Context
	coord    *view.Coordinator
	prefs    *config.Preferences
	sessions <-chan scan.Session

	// core components
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
	filterInput textinput.Model

	// state
	state       view.State
	filter      *filter.Filter
	filtering   bool
	showDetails bool
	pending     int // scans issued and not yet returned
	fetching    bool
	// One SetMode runs at a time; wantMode is where the user last asked to be.
	modeInFlight bool
	wantMode     view.Mode
	saving      bool
	quitting    bool
	width       int
	height      int

	// data
	devices []discovery.Device

	// feedback
	statusMsg  string
	statusErr  bool
	statusTime time.Time

	// navigation
	cursor int
}

type (
	tickMsg      time.Time
	scanDoneMsg  struct{}
	sessionMsg   scan.Session
	graphDoneMsg struct {
		mode view.Mode
		err  error
	}
	savedMsg struct {
		where string
		err   error
	}
)

// Option configures the model.
type Option func(*Model)

// WithFilter starts the list filtered by f.
func WithFilter(f *filter.Filter) Option {
	return func(m *Model) {
		m.filter = f
	}
}

// WithSize sets the initial terminal size, before the first WindowSizeMsg.
func WithSize(width, height int) Option {
	return func(m *Model) {
		m.width, m.height = width, height
	}
}

// withSessions redraws on every session change pushed by the scan controller.
func withSessions(ch <-chan scan.Session) Option {
	return func(m *Model) {
		m.sessions = ch
	}
}

// NewModel builds the TUI over coord. ctx bounds every request the TUI issues.
func NewModel(ctx context.Context, coord *view.Coordinator, prefs *config.Preferences, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Points

	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = `kind == "router"`
	in.CharLimit = 256

	if prefs == nil {
		prefs = config.NewPreferences(config.Light, nil)
	}

	m := Model{
		ctx:         ctx,
		coord:       coord,
		prefs:       prefs,
		spinner:     s,
		help:        help.New(),
		keys:        defaultKeys(),
		filterInput: in,
		width:       100,
		height:      30,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refresh()
	m.wantMode = m.state.Mode
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(), m.waitForSession())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, coord *view.Coordinator, prefs *config.Preferences, opts ...Option) error {
	sessions, unsubscribe := coord.Subscribe()
	defer unsubscribe()

	opts = append(opts, withSessions(sessions))
	p := tea.NewProgram(NewModel(ctx, coord, prefs, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// refresh pulls a fresh snapshot from the coordinator and re-applies the filter.
func (m *Model) refresh() {
	m.state = m.coord.Snapshot()
	if m.modeInFlight {
		m.state.Mode = m.wantMode
	}
	m.devices = m.filter.Apply(m.state.Session.Devices)
	if m.cursor >= len(m.devices) {
		m.cursor = len(m.devices) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) styles() styles {
	return stylesFor(m.prefs.Theme())
}

func (m Model) scanning() bool {
	return m.pending > 0
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
	m.statusTime = time.Now()
}

func (m Model) scanCmd() tea.Cmd {
	ctx, coord := m.ctx, m.coord
	return func() tea.Msg {
		coord.Scan(ctx)
		return scanDoneMsg{}
	}
}

// switchMode starts the coordinator switch to mode. Callers check
// modeInFlight first.
func (m *Model) switchMode(mode view.Mode) tea.Cmd {
	m.modeInFlight = true
	m.fetching = mode == view.Graph && m.state.Session.HasDevices()
	ctx, coord := m.ctx, m.coord
	return func() tea.Msg {
		return graphDoneMsg{mode: mode, err: coord.SetMode(ctx, mode)}
	}
}

// waitForSession blocks until the controller publishes a session. It yields
// nothing once the subscription is cancelled.
func (m Model) waitForSession() tea.Cmd {
	if m.sessions == nil {
		return nil
	}
	ch := m.sessions
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return sessionMsg(s)
	}
}

func (m Model) saveCmd() tea.Cmd {
	ctx, coord := m.ctx, m.coord
	return func() tea.Msg {
		where, err := coord.Download(ctx)
		return savedMsg{where: where, err: err}
	}
}
