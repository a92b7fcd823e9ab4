package tui

import (
	"strings"

	"github.com/DrSkyle/netmapper/pkg/view"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.styles()

	var b strings.Builder
	b.WriteString(m.viewHUD())
	b.WriteString("\n")

	switch {
	case m.state.Mode == view.Graph:
		b.WriteString(m.viewGraph())
	case m.showDetails:
		b.WriteString(m.viewDetails())
	default:
		b.WriteString(m.viewList())
	}
	b.WriteString("\n")

	if m.filtering {
		b.WriteString(m.filterInput.View() + "\n")
	}
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(st.danger.Render(" "+m.statusMsg) + "\n")
		} else {
			b.WriteString(st.special.Render(" "+m.statusMsg) + "\n")
		}
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
