package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/filter"
	"github.com/DrSkyle/netmapper/pkg/view"
)

const statusTTL = 5 * time.Second

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.refresh()
		if !m.statusTime.IsZero() && time.Since(m.statusTime) > statusTTL {
			m.statusMsg = ""
		}
		return m, tick()

	case scanDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.refresh()

	case sessionMsg:
		m.refresh()
		return m, m.waitForSession()

	case graphDoneMsg:
		m.modeInFlight = false
		m.fetching = false
		m.refresh()
		if msg.err != nil {
			m.setStatus(discovery.UserMessage(discovery.OpGraph, msg.err), true)
		}
		// The user toggled again while this switch ran.
		if m.wantMode != msg.mode {
			m.state.Mode = m.wantMode
			return m, m.switchMode(m.wantMode)
		}

	case savedMsg:
		m.saving = false
		m.refresh()
		switch {
		case errors.Is(msg.err, view.ErrNothingToDownload):
			m.setStatus("Nothing to download yet", true)
		case msg.err != nil:
			m.setStatus(discovery.UserMessage(discovery.OpGraph, msg.err), true)
		default:
			m.setStatus("Saved network map to "+msg.where, false)
		}
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Scan):
		// Overlapping scans are allowed; the controller keeps the latest.
		m.pending++
		m.showDetails = false
		return m, m.scanCmd()

	case key.Matches(msg, m.keys.Mode):
		next := view.Graph
		if m.state.Mode == view.Graph {
			next = view.List
		}
		m.state.Mode = next
		m.wantMode = next
		if m.modeInFlight {
			return m, nil
		}
		return m, m.switchMode(next)

	case key.Matches(msg, m.keys.Download):
		if !m.state.CanDownload || m.saving {
			m.setStatus("Nothing to download yet", true)
			return m, nil
		}
		m.saving = true
		return m, m.saveCmd()

	case key.Matches(msg, m.keys.Theme):
		t, err := m.prefs.Toggle()
		if err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("Theme: %s", t), false)
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.filter.String())
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Details):
		if m.state.Mode == view.List && len(m.devices) > 0 {
			m.showDetails = !m.showDetails
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filterInput.Blur()
		return m, nil

	case tea.KeyEnter:
		f, err := filter.Compile(m.filterInput.Value())
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.filter = f
		m.filtering = false
		m.filterInput.Blur()
		m.cursor = 0
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}
