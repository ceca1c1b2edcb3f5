// Package render defines the contract between the domain event loop
// (internal/eventloop) and whatever presents its output — normally the
// bubbletea dashboard in internal/render/dashboard, but also
// internal/htmlreport, which observes the same stream without depending on
// terminal rendering.
package render

import (
	"net"
	"time"

	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/target"
)

// Sink receives every domain event the core loop produces, in the order
// they happen (spec §5, §6). Implementations must not block: the event loop
// calls these synchronously from its single goroutine, and spec §5 requires
// probe sends/receives to stay on schedule regardless of render speed.
type Sink interface {
	// NewRound fires once per completed ping round, before any of that
	// round's replies/timeouts are reported. estimate is the current
	// local-latency estimate (SPEC_FULL.md "Local-latency estimate").
	NewRound(pinground int, estimate time.Duration)

	// Reply reports a matched, in-sync echo reply and the state it was
	// classified as.
	Reply(t *target.Target, state target.State, rtt time.Duration)

	// Timeout reports a target's probe going unanswered. promoted is true
	// if this is the timeout that turned the target's map color to loss
	// (spec §4.5: the second consecutive loss).
	Timeout(t *target.Target, promoted bool)

	// OutOfSync reports a reply whose sequence didn't match the target's
	// in-flight probe (spec §4.1 tie-break).
	OutOfSync(t *target.Target, rtt time.Duration)

	// Unexpected reports an ICMP message that wasn't a recognized echo
	// reply for one of our targets (spec §4.3).
	Unexpected(version probe.Version, peer net.Addr, detail string)

	// SendError reports a failed probe transmission for t.
	SendError(t *target.Target, err error)

	// Bell requests an audible/visible alert, per a target's BeepMode
	// (spec §6).
	Bell()
}

// NopSink implements Sink by discarding every event. Useful as an embedded
// default for sinks that only care about a subset of events.
type NopSink struct{}

func (NopSink) NewRound(int, time.Duration)                       {}
func (NopSink) Reply(*target.Target, target.State, time.Duration) {}
func (NopSink) Timeout(*target.Target, bool)                      {}
func (NopSink) OutOfSync(*target.Target, time.Duration)            {}
func (NopSink) Unexpected(probe.Version, net.Addr, string)         {}
func (NopSink) SendError(*target.Target, error)                    {}
func (NopSink) Bell()                                              {}

// MultiSink fans events out to every Sink in order.
type MultiSink []Sink

func (m MultiSink) NewRound(pinground int, estimate time.Duration) {
	for _, s := range m {
		s.NewRound(pinground, estimate)
	}
}

func (m MultiSink) Reply(t *target.Target, state target.State, rtt time.Duration) {
	for _, s := range m {
		s.Reply(t, state, rtt)
	}
}

func (m MultiSink) Timeout(t *target.Target, promoted bool) {
	for _, s := range m {
		s.Timeout(t, promoted)
	}
}

func (m MultiSink) OutOfSync(t *target.Target, rtt time.Duration) {
	for _, s := range m {
		s.OutOfSync(t, rtt)
	}
}

func (m MultiSink) Unexpected(version probe.Version, peer net.Addr, detail string) {
	for _, s := range m {
		s.Unexpected(version, peer, detail)
	}
}

func (m MultiSink) SendError(t *target.Target, err error) {
	for _, s := range m {
		s.SendError(t, err)
	}
}

func (m MultiSink) Bell() {
	for _, s := range m {
		s.Bell()
	}
}
