package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bartnv/pingwatch/internal/target"
)

const commentGlyphRunes = `'-` + "`" + `|\/`

// commentGlyph substitutes the six punctuation marks original_source's
// print_tree() draws as line-art (ACS_* box-drawing characters) for their
// Unicode box-drawing equivalents, so an annotation like "server`-main"
// still reads as connector art in the simplified map (spec scoping note
// in DESIGN.md: full recursive tree-connector drawing was dropped).
func commentGlyph(s string) string {
	replacer := strings.NewReplacer(
		"'", "┌",
		"-", "─",
		"`", "└",
		"|", "│",
		"\\", "╲",
		"/", "╱",
	)
	return replacer.Replace(s)
}

func (m *Model) renderStatusBar() string {
	left := m.th.Text.Important.Render(fmt.Sprintf(" round %d ", m.round))
	mid := m.th.Text.Normal.Render(fmt.Sprintf("estimated local latency: %s", m.estimate.Round(time.Millisecond)))
	var right string
	if m.snapshot.NDown > 0 {
		right = lipgloss.NewStyle().Foreground(m.th.States.Color(target.Loss)).Bold(true).
			Render(fmt.Sprintf(" %d down ", m.snapshot.NDown))
	} else {
		right = m.th.Text.Unimportant.Render(" all ok ")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + mid + strings.Repeat(" ", gap) + right
}

// renderGrid draws one cell per target, its id colored by the target's
// last state, in registration order (spec §6's grid pane).
func (m *Model) renderGrid() string {
	var b strings.Builder
	for _, tv := range m.snapshot.Targets {
		color := m.th.States.Color(tv.LastColor)
		cell := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%c", tv.ID))
		b.WriteString(cell)
		if tv.Detached {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return lipgloss.NewStyle().Width(m.gridWidth()).Render(b.String())
}

func (m *Model) gridWidth() int {
	w := m.width
	if m.showMap {
		w = w * 2 / 3
	}
	if m.showDown != downHidden {
		w = w * 3 / 4
	}
	if w < 1 {
		w = 1
	}
	return w
}

// renderMap draws the rank-indented host list (the simplified
// replacement for print_tree()'s recursive ASCII-art connectors): one
// line per target, indented by its rank, colored by TreeColor, with any
// annotation's comment punctuation swapped for box-drawing glyphs.
func (m *Model) renderMap() string {
	var b strings.Builder
	for _, tv := range m.snapshot.Targets {
		indent := strings.Repeat("  ", tv.Rank)
		color := m.th.States.Color(tv.TreeColor)
		line := fmt.Sprintf("%s%c %s", indent, tv.ID, tv.Hostname)
		if tv.Annotation != "" {
			line += " " + commentGlyph(tv.Annotation)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(line))
		b.WriteByte('\n')
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		Width(m.width / 3).
		Render(b.String())
}

// renderDownList lists every target currently down with its outage
// duration (spec §4.5's down-list, toggled by Enter).
func (m *Model) renderDownList() string {
	var b strings.Builder
	b.WriteString(m.th.Text.Important.Render("down:"))
	b.WriteByte('\n')
	any := false
	for _, tv := range m.snapshot.Targets {
		if tv.DownSince.IsZero() {
			continue
		}
		any = true
		d := time.Since(tv.DownSince).Round(time.Second)
		fmt.Fprintf(&b, "%c %-20s %s\n", tv.ID, tv.Hostname, d)
	}
	if !any {
		b.WriteString(m.th.Text.Unimportant.Render("(none)"))
	}
	return lipgloss.NewStyle().Width(m.width / 4).Render(b.String())
}

// renderInfo draws the host-info panel for the currently selected id
// (spec §6: A-Z/0-9 toggles this panel), including per-window RTT
// statistics and the current bell mode.
func (m *Model) renderInfo(tv TargetView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", string(tv.ID), tv.Hostname, tv.Address)
	if tv.Annotation != "" {
		fmt.Fprintf(&b, "%s\n", commentGlyph(tv.Annotation))
	}
	fmt.Fprintf(&b, "rtt min/avg/max: %s / %s / %s\n",
		tv.RTTMin.Round(time.Millisecond), tv.RTTAvg.Round(time.Millisecond), tv.RTTMax.Round(time.Millisecond))
	fmt.Fprintf(&b, "window (%d samples): avg %s stddev %s, %d delayed, %d lost\n",
		tv.Window.Count, tv.Window.RTTAvg.Round(time.Millisecond), tv.Window.StdDev.Round(time.Millisecond),
		tv.Window.DelayCount, tv.Window.LossCount)
	fmt.Fprintf(&b, "totals: ok %d, delayed %d, lost %d\n", tv.OKCount, tv.DelayCount, tv.LossCount)
	if !tv.DownSince.IsZero() {
		fmt.Fprintf(&b, "down since %s (%s ago)\n", tv.DownSince.Format(time.Kitchen), time.Since(tv.DownSince).Round(time.Second))
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(m.th.Colors.Secondary).
		Padding(0, 1).
		Width(m.width - 2).
		Render(b.String())
}
