package tui

import (
	"fmt"
	"strings"
)

const graphTimeLayout = "15:04:05"

func (m Model) viewGraph() string {
	st := m.styles()
	g := m.state.Graph

	var b strings.Builder
	b.WriteString(st.title.Render("NETWORK MAP") + "\n")

	switch {
	case m.fetching:
		fmt.Fprintf(&b, "\n   %s Rendering network map...\n", m.spinner.View())
	case g == nil && !m.state.Session.HasDevices():
		b.WriteString("\n   " + st.subtle.Render("Run a scan (s) to draw the network map.") + "\n")
	case g == nil:
		b.WriteString("\n   " + st.subtle.Render("No map loaded.") + "\n")
	default:
		lines := []string{
			fmt.Sprintf("%-10s : %s", "Resource", g.ID),
			fmt.Sprintf("%-10s : scan #%s", "Devices", g.Key),
			fmt.Sprintf("%-10s : %s", "Fetched", g.CreatedAt.Format(graphTimeLayout)),
			fmt.Sprintf("%-10s : %d bytes (%s)", "Size", g.Size, g.ContentType),
		}
		body := strings.Join(lines, "\n")
		if !g.Current {
			body += "\n\n" + st.warning.Render("Drawn for an earlier scan.")
		}
		b.WriteString(st.card.Render(body) + "\n")
		if m.state.CanDownload {
			b.WriteString(st.subtle.Render("   Press d to save the map as PNG.") + "\n")
		}
	}

	if m.state.GraphError != "" {
		b.WriteString("\n   " + st.danger.Render("[ERROR] ") + m.state.GraphError + "\n")
	}
	if m.state.LastSaved != "" {
		b.WriteString(st.subtle.Render("   Last saved: "+m.state.LastSaved) + "\n")
	}
	return b.String()
}
