// Package theme holds the dashboard's color palette. It follows the
// teacher's internal/tui/theme package closely: the same Text/Colors/Gradient
// shapes, built on lipgloss and go-colorful. The state palette itself (which
// color each of ok/jitter/lag/loss gets) comes from original_source/main.c's
// init_pair() calls rather than the teacher's own scheme.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/bartnv/pingwatch/internal/target"
)

// Default is the theme the dashboard uses unless overridden.
var Default = Theme{
	Text: Text{
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#AAAAAA"}),
		Important: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#DDDDDD"}).
			Bold(true),
		Unimportant: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}),
	},
	Colors: Colors{
		Primary:     lipgloss.Color("#1F326F"),
		OnPrimary:   lipgloss.Color("#CCCCCC"),
		Secondary:   lipgloss.Color("#788AC4"),
		OnSecondary: lipgloss.Color("#000000"),
	},
	States: StatePalette{
		OK:      lipgloss.Color("#2ECC40"), // COLOR_GREEN
		Jitter:  lipgloss.Color("#FFDC00"), // COLOR_YELLOW
		Lag:     lipgloss.Color("#0074D9"), // COLOR_BLUE
		Loss:    lipgloss.Color("#FF4136"), // COLOR_RED
		Unknown: lipgloss.Color("#666666"),
	},
	Heatmap: Gradient{Low: "#2ECC40", High: "#FF4136"},
}

// Theme bundles the styles the dashboard draws with.
type Theme struct {
	Text    Text
	Colors  Colors
	States  StatePalette
	Heatmap Gradient
}

// Text holds common text styles.
type Text struct {
	Normal      lipgloss.Style
	Important   lipgloss.Style
	Unimportant lipgloss.Style
}

// Colors holds common recurring colors (borders, headers, selection).
type Colors struct {
	Primary     lipgloss.TerminalColor
	OnPrimary   lipgloss.TerminalColor
	Secondary   lipgloss.TerminalColor
	OnSecondary lipgloss.TerminalColor
}

// StatePalette maps each classification state to the color it's drawn in on
// the grid and map (spec §6), grounded in original_source/main.c's
// init_pair(STATE_OK, COLOR_GREEN, ...) etc.
type StatePalette struct {
	OK, Jitter, Lag, Loss, Unknown lipgloss.Color
}

// Color returns the palette entry for s.
func (p StatePalette) Color(s target.State) lipgloss.Color {
	switch s {
	case target.OK:
		return p.OK
	case target.Jitter:
		return p.Jitter
	case target.Lag:
		return p.Lag
	case target.Loss:
		return p.Loss
	default:
		return p.Unknown
	}
}

// Heatmap maps a fraction in [0, 1] to a color. The dashboard does not use
// it: grid and map cells are colored by state only.
type Heatmap interface {
	At(v float64) lipgloss.TerminalColor
}

// Gradient is a two-stop Heatmap blended in HCL space, identical in
// implementation to the teacher's internal/tui/theme.Gradient.
type Gradient struct {
	Low  string
	High string
}

// At returns the color for v, which must be in [0, 1].
func (g Gradient) At(v float64) lipgloss.TerminalColor {
	cold := hexColor(g.Low)
	hot := hexColor(g.High)
	return lipgloss.Color(cold.BlendHcl(hot, v).Hex())
}

func hexColor(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{R: 1}
	}
	return c
}
