package tui

import (
	"fmt"
	"strings"

	"github.com/DrSkyle/netmapper/pkg/scan"
)

func (m Model) viewList() string {
	st := m.styles()
	s := m.state.Session

	switch {
	case s.Status == scan.Error:
		return "\n   " + st.danger.Render("[ERROR] ") + s.ErrorMessage + "\n"
	case len(s.Devices) == 0 && (m.scanning() || s.Status == scan.Scanning):
		return fmt.Sprintf("\n   %s Scanning network...\n", m.spinner.View())
	case len(s.Devices) == 0:
		return "\n   " + st.subtle.Render("No scan yet. Press s to discover devices on the network.") + "\n"
	case len(m.devices) == 0:
		return "\n   " + st.subtle.Render("No devices match the filter.") + "\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("   %-15s  %-17s  %-12s  %s", "IP ADDRESS", "MAC ADDRESS", "TYPE", "VENDOR")
	b.WriteString(st.subtle.Render(header) + "\n")
	b.WriteString(st.subtle.Render("   "+strings.Repeat("─", 60)) + "\n")

	start, end := m.calculateWindow(len(m.devices))
	for i := start; i < end; i++ {
		d := m.devices[i]
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}

		line := fmt.Sprintf("%s %-15s  %-17s  %-12s  %s", marker, truncate(d.IP, 15), d.MAC, truncate(d.Type, 12), d.Vendor)
		if i == m.cursor {
			b.WriteString(st.selected.Render(line) + "\n")
		} else {
			b.WriteString(st.normal.Render(line) + "\n")
		}
	}

	if len(m.devices) != len(s.Devices) {
		b.WriteString(st.subtle.Render(fmt.Sprintf("\n   %d of %d devices shown", len(m.devices), len(s.Devices))) + "\n")
	}
	return b.String()
}

func (m Model) calculateWindow(total int) (int, int) {
	windowSize := m.height - 10 // HUD, header and footer
	if windowSize < 5 {
		windowSize = 5
	}

	start := m.cursor - (windowSize / 2)
	if start < 0 {
		start = 0
	}

	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
