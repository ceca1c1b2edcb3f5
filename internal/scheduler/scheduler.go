// Package scheduler paces one probe per target across a fixed round period,
// implementing the single-round cooperative schedule of spec §4.1, grounded
// in original_source/main.c's check_timers().
package scheduler

import (
	"fmt"
	"net"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/bartnv/pingwatch/internal/classifier"
	"github.com/bartnv/pingwatch/internal/config"
	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/target"
	"github.com/bartnv/pingwatch/internal/timeutil"
)

// Sender is the send-side of a probe.Conn. A narrow interface instead of a
// concrete *probe.Conn dependency so tests can drive the scheduler without
// opening a real raw socket — the same reason the teacher mocks its backend
// interfaces with go.uber.org/mock rather than spinning up real sockets in
// internal/pinger tests.
type Sender interface {
	Send(dest net.Addr, id uint16, seq int, sendTime time.Time) error
}

// Scheduler walks the target registry one slot at a time, sending exactly one
// probe per target per round and declaring the previous occupant of a slot
// lost if it never answered (spec §4.1, §4.5).
type Scheduler struct {
	registry *target.Registry
	ring     *history.Ring
	classify *classifier.Classifier
	clk      clock.Clock
	conns    map[probe.Version]Sender
	pid      uint16

	cur       int
	pinground int
	slot      time.Duration
}

// New builds a Scheduler. conns must have an entry for every IP family
// present among the registry's targets; pid is embedded in every echo
// request (spec §4.2) and is typically the low 16 bits of the process id.
func New(reg *target.Registry, ring *history.Ring, clf *classifier.Classifier, clk clock.Clock, conns map[probe.Version]Sender, pid uint16) *Scheduler {
	return &Scheduler{
		registry: reg,
		ring:     ring,
		classify: clf,
		clk:      clk,
		conns:    conns,
		pid:      pid,
		slot:     timeutil.SlotDuration(config.RoundPeriod, reg.Len()),
	}
}

// SlotDuration returns T/N, the time budget for one target's slot.
func (s *Scheduler) SlotDuration() time.Duration {
	return s.slot
}

// PingRound returns the current round number (spec §3's "pinground").
func (s *Scheduler) PingRound() int {
	return s.pinground
}

// TickResult reports what a single Tick did, for the event loop to log and
// apply bell policy against.
type TickResult struct {
	// NewRound is true when this tick began a new round (advanced the
	// history ring and incremented the round counter).
	NewRound bool

	// TimedOut is the target whose previous probe went unanswered, or nil
	// if the slot this tick is reusing had no probe outstanding (the very
	// first round, or the target answered its previous probe).
	TimedOut *target.Target
	Promoted bool

	// Sent is the target a new probe was transmitted to.
	Sent    *target.Target
	SendErr error
}

// Tick advances the schedule by exactly one slot: it declares the previous
// occupant of the current slot lost if it never replied, then sends a fresh
// probe to that slot's target and moves the cursor forward, wrapping to 0 (a
// new round) when it reaches the end of the registry.
//
// Both the loss declaration and the new send use the target at the same
// index deliberately: each slot belongs to one target for the schedule's
// entire lifetime, matching the original's fixed-position ping list.
func (s *Scheduler) Tick() TickResult {
	now := s.clk.Now()
	var res TickResult

	cur := s.registry.At(s.cur)
	if cur.WaitPing != 0 {
		promoted := s.classify.RecordTimeout(cur, now)
		res.TimedOut = cur
		res.Promoted = promoted
	}

	if s.cur == 0 {
		s.pinground++
		s.ring.Advance(now)
		res.NewRound = true
	}

	cur.WaitPing = s.pinground
	conn, ok := s.conns[versionOf(cur)]
	if !ok {
		res.SendErr = fmt.Errorf("scheduler: no connection open for %s's address family", cur.Hostname)
	} else if err := conn.Send(cur.Addr, s.pid, s.pinground, now); err != nil {
		res.SendErr = err
	} else {
		res.Sent = cur
	}

	s.cur++
	if s.cur >= s.registry.Len() {
		s.cur = 0
	}
	return res
}

// NextDeadline returns the wall-clock time the next slot should fire at,
// given the previous deadline. Callers seed the first deadline with
// clk.Now().Add(SlotDuration()).
func (s *Scheduler) NextDeadline(prev time.Time) time.Time {
	return prev.Add(s.slot)
}

// Wait returns how long to sleep before the slot at deadline should fire,
// clamped to zero (spec §4.1: timing drift is absorbed, never produces a
// negative wait — see internal/timeutil).
func (s *Scheduler) Wait(deadline time.Time) time.Duration {
	return timeutil.ClampSub(deadline.Sub(s.clk.Now()), 0)
}

func versionOf(t *target.Target) probe.Version {
	if t.Addr != nil && t.Addr.IP.To4() == nil {
		return probe.V6
	}
	return probe.V4
}
