package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/DrSkyle/netmapper/pkg/config"
)

type palette struct {
	accent   lipgloss.Color // Header / Border
	success  lipgloss.Color
	text     lipgloss.Color
	sub      lipgloss.Color
	danger   lipgloss.Color
	warning  lipgloss.Color
	selectBg lipgloss.Color
}

var (
	darkPalette = palette{
		accent:   lipgloss.Color("#874BFD"),
		success:  lipgloss.Color("#00FF99"),
		text:     lipgloss.Color("#E2E8F0"),
		sub:      lipgloss.Color("#64748B"),
		danger:   lipgloss.Color("#FF0055"),
		warning:  lipgloss.Color("#F59E0B"),
		selectBg: lipgloss.Color("#331832"),
	}
	lightPalette = palette{
		accent:   lipgloss.Color("#5B21B6"),
		success:  lipgloss.Color("#047857"),
		text:     lipgloss.Color("#191919"),
		sub:      lipgloss.Color("#6B7280"),
		danger:   lipgloss.Color("#BE123C"),
		warning:  lipgloss.Color("#B45309"),
		selectBg: lipgloss.Color("#EDE9FE"),
	}
)

type styles struct {
	subtle    lipgloss.Style
	highlight lipgloss.Style
	special   lipgloss.Style
	danger    lipgloss.Style
	warning   lipgloss.Style

	title         lipgloss.Style
	card          lipgloss.Style
	hud           lipgloss.Style
	hudLabel      lipgloss.Style
	hudValue      lipgloss.Style
	selected      lipgloss.Style
	normal        lipgloss.Style
	detailsBox    lipgloss.Style
	detailsHeader lipgloss.Style
}

func newStyles(p palette) styles {
	return styles{
		subtle:    lipgloss.NewStyle().Foreground(p.sub),
		highlight: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		special:   lipgloss.NewStyle().Foreground(p.success).Bold(true),
		danger:    lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		warning:   lipgloss.NewStyle().Foreground(p.warning),

		title: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true).
			Padding(0, 1),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.sub).
			Padding(1, 2).
			Margin(0, 1),
		hud: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1).
			Foreground(p.text),
		hudLabel: lipgloss.NewStyle().
			Foreground(p.sub).
			Bold(true).
			MarginRight(1),
		hudValue: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		selected: lipgloss.NewStyle().
			Foreground(p.text).
			Background(p.selectBg).
			Bold(true),
		normal: lipgloss.NewStyle().
			Foreground(p.sub),
		detailsBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.success).
			Padding(1, 2).
			MarginTop(1),
		detailsHeader: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true).
			Underline(true).
			MarginBottom(1),
	}
}

var themes = map[config.Theme]styles{
	config.Light: newStyles(lightPalette),
	config.Dark:  newStyles(darkPalette),
}

func stylesFor(t config.Theme) styles {
	if s, ok := themes[t]; ok {
		return s
	}
	return themes[config.Light]
}
