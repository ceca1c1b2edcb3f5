// Package scroller is a bounded log line buffer installable as log.SetOutput,
// rendered as a scrolling pane by internal/render/dashboard.
//
// The teacher's internal/tui/logwindow.Model does the same job with an
// ever-growing strings.Builder and a channel that pushes each write into
// bubbletea's Update loop. That's the "unbounded scroller growth" this
// package exists to fix (spec §9 design note): lines are kept in a fixed
// ring of config.ScrollerLines entries, and the dashboard pulls the current
// contents after each domain event instead of bubbletea buffering every
// write.
package scroller

import (
	"bytes"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/bartnv/pingwatch/internal/config"
)

// Scroller is a concurrency-safe, fixed-capacity ring of log lines. It
// implements io.Writer so it can be installed with log.SetOutput.
type Scroller struct {
	mu      sync.Mutex
	lines   []string
	head    int
	count   int
	pending bytes.Buffer
}

// New creates an empty Scroller holding up to config.ScrollerLines lines.
func New() *Scroller {
	return &Scroller{lines: make([]string, config.ScrollerLines)}
}

// Write implements io.Writer, splitting p into complete lines and dropping
// the oldest line once the ring is full. A trailing partial line (no
// newline yet) is buffered until the next Write completes it.
func (s *Scroller) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Write(p)
	for {
		data := s.pending.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		s.push(string(data[:i]))
		s.pending.Next(i + 1)
	}
	return len(p), nil
}

func (s *Scroller) push(line string) {
	s.lines[s.head] = line
	s.head = (s.head + 1) % len(s.lines)
	if s.count < len(s.lines) {
		s.count++
	}
}

// Lines returns the buffered lines, oldest first.
func (s *Scroller) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, s.count)
	start := (s.head - s.count + len(s.lines)) % len(s.lines)
	for i := 0; i < s.count; i++ {
		out[i] = s.lines[(start+i)%len(s.lines)]
	}
	return out
}

// Model renders a Scroller's contents in a bounded viewport (spec §6's
// scroller pane). Unlike the teacher's logwindow.Model, it has no Init/Update
// message of its own: the dashboard calls Sync after handling whatever
// domain event just arrived, since new lines only ever appear as a
// side-effect of those events.
type Model struct {
	s     *Scroller
	vp    viewport.Model
	ready bool
}

// NewModel creates a Model over s.
func NewModel(s *Scroller) *Model {
	return &Model{s: s}
}

// SetSize sizes (or initializes) the underlying viewport.
func (m *Model) SetSize(width, height int) {
	if !m.ready {
		m.vp = viewport.New(width, height)
		m.vp.Style = lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			Padding(0, 1)
		m.ready = true
	}
	m.vp.Width = width
	m.vp.Height = height
}

// Sync refreshes the viewport content from the Scroller and scrolls to the
// bottom. Call it once per domain event before rendering.
func (m *Model) Sync() {
	if !m.ready {
		return
	}
	m.vp.SetContent(joinLines(m.s.Lines()))
	m.vp.GotoBottom()
}

// View renders the scroller pane.
func (m *Model) View() string {
	return m.vp.View()
}

func joinLines(lines []string) string {
	var b bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l)
	}
	return b.String()
}
