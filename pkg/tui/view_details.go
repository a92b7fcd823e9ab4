package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewDetails() string {
	if m.cursor < 0 || m.cursor >= len(m.devices) {
		return "No Device Selected"
	}
	st := m.styles()
	d := m.devices[m.cursor]

	header := st.detailsHeader.Render(fmt.Sprintf("%s : %s", d.Type, d.IP))
	lines := []string{
		fmt.Sprintf("%-12s : %s", "IP Address", d.IP),
		fmt.Sprintf("%-12s : %s", "MAC Address", d.MAC),
		fmt.Sprintf("%-12s : %s", "Type", d.Type),
	}
	// Vendor is only shown when the service resolved one.
	if d.HasVendor() {
		lines = append(lines, fmt.Sprintf("%-12s : %s", "Vendor", d.Vendor))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, lines...)...)
	return st.detailsBox.Render(body) + "\n" + st.subtle.Render("   enter: back to list")
}
