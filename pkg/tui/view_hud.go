package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/DrSkyle/netmapper/pkg/scan"
	"github.com/DrSkyle/netmapper/pkg/version"
)

const lastScanLayout = "2006-01-02 15:04:05"

func (m Model) viewHUD() string {
	st := m.styles()
	s := m.state.Session

	status := "IDLE"
	statusStyle := st.subtle
	switch {
	case m.scanning() || s.Status == scan.Scanning:
		status = "SCANNING " + m.spinner.View()
		statusStyle = st.special
	case s.Status == scan.Error:
		status = "ERROR"
		statusStyle = st.danger
	case s.Status == scan.Success:
		status = fmt.Sprintf("%d DEVICES", len(s.Devices))
		statusStyle = st.special
	}

	segTitle := st.highlight.Render(fmt.Sprintf("%s %s", version.AppName, version.Current))
	segStatus := statusStyle.Render(fmt.Sprintf("[ %s ]", status))
	segMode := st.hudLabel.Render("VIEW:") + st.hudValue.Render(m.state.Mode.String())

	right := segMode
	if !s.CompletedAt.IsZero() {
		right = st.subtle.Render("Last scan: "+s.CompletedAt.Format(lastScanLayout)) + "  |  " + segMode
	}
	if f := m.filter.String(); f != "" {
		right = st.warning.Render("[FILTER: "+f+"]") + "  " + right
	}

	width := m.width - 4
	if width < 0 {
		width = 0
	}
	left := lipgloss.JoinHorizontal(lipgloss.Center, segTitle, "  ", segStatus)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		left,
		lipgloss.NewStyle().Width(gap).Render(""),
		right,
	)
	return st.hud.Render(content)
}
