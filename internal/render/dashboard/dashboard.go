// Package dashboard is the bubbletea implementation of the terminal
// renderer (spec §6): the grid, the network map, the scroller pane, the
// status bar, the host-info panel and the outage list. It follows the
// teacher's internal/tui.Model shape (Init/Update/View, a displayPane enum,
// handleKeyMsg/handleResize) adapted to this domain's events instead of
// the teacher's ping table.
//
// The core event loop (internal/eventloop) runs on its own goroutine and
// owns every mutable target.Target and history.Ring. Rather than share
// those pointers with bubbletea's own goroutine — which would need a mutex
// on every hot field, the way the teacher's internal/pinger.pingHistory
// protects itself with p.mu — Adapter takes an immutable value snapshot on
// the event-loop goroutine at the moment each event fires and hands that
// snapshot across on a channel, the same channel-handoff idiom the teacher
// uses for its logwindow messages. bubbletea only ever touches its own copy.
package dashboard

import (
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bartnv/pingwatch/internal/config"
	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/render/theme"
	"github.com/bartnv/pingwatch/internal/scroller"
	"github.com/bartnv/pingwatch/internal/target"
)

// TargetView is an immutable snapshot of one target, safe to read from any
// goroutine.
type TargetView struct {
	Num        int
	ID         byte
	Hostname   string
	Address    string
	Annotation string
	Rank       int
	Detached   bool

	LastColor target.State
	TreeColor target.State
	RTTLast   time.Duration
	RTTMin    time.Duration
	RTTAvg    time.Duration
	RTTMax    time.Duration
	OKAvg     time.Duration
	OKCount   int
	DelayCount int
	LossCount int
	DownSince time.Time

	Window history.WindowStats
}

// Snapshot is the full dashboard state as of one event.
type Snapshot struct {
	Targets []TargetView
	NDown   int
}

func (s Snapshot) byID(id byte) (TargetView, bool) {
	for _, t := range s.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return TargetView{}, false
}

// registryView is the minimal read access Adapter needs; satisfied by
// *target.Registry.
type registryView interface {
	Len() int
	At(i int) *target.Target
}

// ringView is the minimal read access Adapter needs; satisfied by
// *history.Ring.
type ringView interface {
	WindowStats(num int) history.WindowStats
}

// Adapter implements render.Sink, turning domain events into snapshot
// messages for the bubbletea program.
type Adapter struct {
	registry registryView
	ring     ringView
	ndown    func() int
	ch       chan tea.Msg
	logger   *log.Logger
}

// NewAdapter builds an Adapter. scr receives formatted log lines the way
// original_source/main.c's print_scroll does; ndown reports the current
// down-host count (spec §4.5).
func NewAdapter(reg registryView, ring ringView, scr *scroller.Scroller, ndown func() int) *Adapter {
	return &Adapter{
		registry: reg,
		ring:     ring,
		ndown:    ndown,
		ch:       make(chan tea.Msg, 256),
		logger:   log.New(scr, "", 0),
	}
}

// Cmd returns a tea.Cmd that waits for the next event. Re-issue it (the
// caller's Update does this) after every message, the same re-arming
// pattern as the teacher's logwindow.Model.recvMessage.
func (a *Adapter) Cmd() tea.Cmd {
	return func() tea.Msg {
		return <-a.ch
	}
}

func (a *Adapter) push(msg tea.Msg) {
	select {
	case a.ch <- msg:
	default:
		log.Printf("dashboard: event channel full, dropping a redraw event")
	}
}

func (a *Adapter) snapshot() Snapshot {
	n := a.registry.Len()
	views := make([]TargetView, n)
	for i := 0; i < n; i++ {
		views[i] = viewOf(a.registry.At(i), a.ring.WindowStats(i))
	}
	return Snapshot{Targets: views, NDown: a.ndown()}
}

func viewOf(t *target.Target, ws history.WindowStats) TargetView {
	return TargetView{
		Num: t.Num, ID: t.ID, Hostname: t.Hostname, Address: t.Address,
		Annotation: t.Annotation, Rank: t.Rank, Detached: t.Detached,
		LastColor: t.LastColor, TreeColor: t.TreeColor,
		RTTLast: t.RTTLast, RTTMin: t.RTTMin, RTTAvg: t.RTTAvg, RTTMax: t.RTTMax,
		OKAvg: t.OKAvg, OKCount: t.OKCount, DelayCount: t.DelayCount, LossCount: t.LossCount,
		DownSince: t.DownSince, Window: ws,
	}
}

// RoundMsg carries a new round's snapshot plus the round number and the
// local-latency estimate (SPEC_FULL.md "Local-latency estimate").
type RoundMsg struct {
	Snapshot  Snapshot
	Round     int
	Estimate  time.Duration
}

// UpdateMsg carries a snapshot taken after a single target's reply,
// timeout or out-of-sync event.
type UpdateMsg struct {
	Snapshot Snapshot
}

// BellMsg requests an audible/visible alert.
type BellMsg struct{}

func (a *Adapter) NewRound(pinground int, estimate time.Duration) {
	a.push(RoundMsg{Snapshot: a.snapshot(), Round: pinground, Estimate: estimate})
}

func (a *Adapter) Reply(t *target.Target, state target.State, rtt time.Duration) {
	switch state {
	case target.Jitter:
		a.logger.Printf("%c  %-30.30s %-15s %4d ms  (jitter)", t.ID, t.Hostname, t.Address, rtt.Milliseconds())
	case target.Lag:
		a.logger.Printf("%c  %-30.30s %-15s %4d ms  (lag)", t.ID, t.Hostname, t.Address, rtt.Milliseconds())
	}
	a.push(UpdateMsg{Snapshot: a.snapshot()})
}

func (a *Adapter) Timeout(t *target.Target, promoted bool) {
	a.logger.Printf("%c  %-30.30s %-15s >%4d ms  (timeout)", t.ID, t.Hostname, t.Address, config.RoundPeriod.Milliseconds()/int64(max(1, a.registry.Len())))
	a.push(UpdateMsg{Snapshot: a.snapshot()})
}

func (a *Adapter) OutOfSync(t *target.Target, rtt time.Duration) {
	a.logger.Printf("%c  %-30.30s %-15s %4d ms  (out of sync)", t.ID, t.Hostname, t.Address, rtt.Milliseconds())
	a.push(UpdateMsg{Snapshot: a.snapshot()})
}

func (a *Adapter) Unexpected(version probe.Version, peer net.Addr, detail string) {
	a.logger.Printf("unexpected %v packet from %s: %s", version, peer.String(), detail)
}

func (a *Adapter) SendError(t *target.Target, err error) {
	a.logger.Printf("%c  %-30.30s send error: %v", t.ID, t.Hostname, err)
}

func (a *Adapter) Bell() {
	a.push(BellMsg{})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// downVisibility mirrors the original's `showdown`: 0 hidden, 1 visible
// only while something is down, 2 always visible.
type downVisibility int

const (
	downHidden downVisibility = iota
	downOnOutage
	downAlways
)

// Model is the dashboard's bubbletea model.
type Model struct {
	adapter *Adapter
	scr     *scroller.Model
	th      theme.Theme

	width, height int

	snapshot Snapshot
	round    int
	estimate time.Duration

	showInfo   byte // 0 = none
	showDown   downVisibility
	showMap    bool

	keys keyMap

	// cycleBeep requests a bell-mode change on the event loop goroutine.
	// The dashboard has no write access to target.Target itself (spec §5:
	// only the event loop's goroutine may mutate it), so this is the only
	// way the `!` key can take effect.
	cycleBeep func(id byte)
}

type keyMap struct {
	Enter key.Binding
	Space key.Binding
	Bang  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Enter: key.NewBinding(key.WithKeys("enter")),
		Space: key.NewBinding(key.WithKeys(" ")),
		Bang:  key.NewBinding(key.WithKeys("!")),
	}
}

// New builds the dashboard model. scr is shared with whatever installed
// log.SetOutput so the scroller pane shows every log line the core emits.
// cycleBeep is called (from bubbletea's goroutine) when the user presses
// `!` over a selected host; pass eventloop.Loop.RequestCycleBeep.
func New(adapter *Adapter, scr *scroller.Scroller, cycleBeep func(id byte)) *Model {
	return &Model{
		adapter:   adapter,
		scr:       scroller.NewModel(scr),
		th:        theme.Default,
		showMap:   true,
		keys:      defaultKeyMap(),
		cycleBeep: cycleBeep,
	}
}

// Init starts the event pump.
func (m *Model) Init() tea.Cmd {
	return m.adapter.Cmd()
}

// Update handles a bubbletea message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case RoundMsg:
		m.snapshot = msg.Snapshot
		m.round = msg.Round
		m.estimate = msg.Estimate
		m.scr.Sync()
		return m, m.adapter.Cmd()
	case UpdateMsg:
		m.snapshot = msg.Snapshot
		m.scr.Sync()
		return m, m.adapter.Cmd()
	case BellMsg:
		return m, tea.Batch(m.adapter.Cmd(), bellCmd)
	}
	return m, nil
}

func bellCmd() tea.Msg {
	fmt.Print("\a")
	return nil
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	scrollerHeight := config.ScrollerLines
	if scrollerHeight > m.height/4 {
		scrollerHeight = m.height / 4
	}
	if scrollerHeight < 3 {
		scrollerHeight = 3
	}
	m.scr.SetSize(m.width, scrollerHeight)
}

// handleKey implements the runtime keystroke table (spec §6).
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Enter):
		m.toggleDownVisibility()
		return nil
	case key.Matches(msg, m.keys.Space):
		m.showMap = !m.showMap
		return nil
	case key.Matches(msg, m.keys.Bang):
		if m.showInfo != 0 && m.cycleBeep != nil {
			m.cycleBeep(m.showInfo)
		}
		return nil
	}

	r := strings.ToUpper(msg.String())
	if len(r) != 1 {
		return nil
	}
	id := r[0]
	if _, ok := m.snapshot.byID(id); !ok {
		return nil
	}
	if m.showInfo == id {
		m.showInfo = 0
	} else {
		m.showInfo = id
	}
	return nil
}

func (m *Model) toggleDownVisibility() {
	switch {
	case m.showDown == downOnOutage && m.snapshot.NDown > 0:
		m.showDown = downHidden
	case m.showDown == downAlways:
		m.showDown = downOnOutage
	case m.snapshot.NDown > 0:
		m.showDown = downOnOutage
	default:
		m.showDown = downAlways
	}
}

// View renders the full dashboard.
func (m *Model) View() string {
	if m.width < config.MinCols || m.height < config.MinRows {
		return fmt.Sprintf("terminal too small: need at least %dx%d, have %dx%d",
			config.MinCols, config.MinRows, m.width, m.height)
	}

	header := m.renderStatusBar()
	var mainPanes []string
	mainPanes = append(mainPanes, m.renderGrid())
	if m.showMap {
		mainPanes = append(mainPanes, m.renderMap())
	}
	if m.showDown == downAlways || (m.showDown == downOnOutage && m.snapshot.NDown > 0) {
		mainPanes = append(mainPanes, m.renderDownList())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, mainPanes...)

	sections := []string{header, body, m.scr.View()}
	if m.showInfo != 0 {
		if tv, ok := m.snapshot.byID(m.showInfo); ok {
			sections = append(sections, m.renderInfo(tv))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
