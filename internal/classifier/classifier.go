// Package classifier implements the ok/jitter/lag/loss state machine and the
// per-host running statistics it feeds from (spec §4.4, §4.5).
package classifier

import (
	"time"

	"github.com/bartnv/pingwatch/internal/config"
	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/target"
)

// Classifier updates target state from probe outcomes and maintains the
// global down-host count (spec §4.5: "the global ndown equals the count of
// targets with treecolor = loss").
type Classifier struct {
	ring  *history.Ring
	ndown int
}

// New creates a Classifier writing samples into ring.
func New(ring *history.Ring) *Classifier {
	return &Classifier{ring: ring}
}

// NDown returns the number of targets currently shown down on the map.
func (c *Classifier) NDown() int {
	return c.ndown
}

// RecordReply classifies a matched, in-sync reply and updates running
// statistics, the map color, and the history ring.
//
// Callers must only invoke this after confirming received_target ==
// currtarget and received_seq == currtarget.waitping (spec §4.4), and after
// clearing t.WaitPing. pinground is the round this reply belongs to.
func (c *Classifier) RecordReply(t *target.Target, pinground int, rtt time.Duration, now time.Time) target.State {
	recovering := t.TreeColor == target.Loss
	if recovering {
		c.ndown--
	}
	// Recovery edge (spec §4.4): any reply at all — regardless of what it
	// classifies as — ends the current outage, including one that began
	// with a single loss that never reached the map.
	t.DownSince = time.Time{}

	t.RTTLast = rtt
	t.RTTSum += rtt
	if nonLoss := pinground - t.LossCount; nonLoss > 0 {
		t.RTTAvg = t.RTTSum / time.Duration(nonLoss)
	}
	ms := float64(rtt) / float64(time.Millisecond)
	t.SqSumMS2 += ms * ms
	t.ObserveMinMax(rtt)
	if t.OKCount == 0 {
		t.OKAvg = t.RTTAvg
	}
	amp := t.Amplitude()

	state := classify(pinground, rtt, t.OKAvg, amp)

	switch state {
	case target.OK:
		t.OKCount++
		t.OKSum += rtt
		t.OKAvg = t.OKSum / time.Duration(t.OKCount)
	case target.Lag:
		t.DelayCount++
	}

	// Map hysteresis (spec §4.4): a regression updates the map; a single
	// good ping does not clear a worse map state on its own. The recovery
	// edge is the one exception — leaving loss always updates TreeColor,
	// since §3's invariant requires treecolor = loss iff downsince != 0.
	if recovering || state >= t.TreeColor {
		t.TreeColor = state
	}
	t.LastColor = state

	c.ring.Set(t.Num, history.Sample{RTT: rtt, State: state})
	return state
}

// classify assigns a state using the first matching rule in spec §4.4.
func classify(pinground int, rtt, okavg, amp time.Duration) target.State {
	switch {
	case pinground <= config.LearnRounds:
		return target.OK
	case rtt <= okavg+config.JitterMultiplier*amp:
		return target.OK
	case rtt <= okavg+config.LagMultiplier*amp:
		return target.Jitter
	default:
		return target.Lag
	}
}

// RecordTimeout declares the target's in-flight probe lost at slot boundary
// (spec §4.1, §4.5). It does not clear t.WaitPing: the scheduler overwrites
// it with the new round's sequence when it sends this target's next probe in
// the same tick, so a late reply for the timed-out round no longer matches
// and is handled as out of sync.
//
// Returns true if this timeout promoted the target to down on the map
// (i.e. this was the second consecutive loss).
func (c *Classifier) RecordTimeout(t *target.Target, now time.Time) bool {
	t.LossCount++
	if t.DownSince.IsZero() {
		t.DownSince = now
	}

	promoted := t.LastColor == target.Loss && t.TreeColor != target.Loss
	if promoted {
		t.TreeColor = target.Loss
		c.ndown++
	}
	t.LastColor = target.Loss

	c.ring.Set(t.Num, history.Sample{State: target.Loss})
	return promoted
}

// RecordOutOfSync updates rttlast only, for a reply whose sequence no
// longer matches the target's in-flight probe (spec §4.1 tie-break, §8
// property 4). It must never mutate sums, counters, or classification
// state.
func RecordOutOfSync(t *target.Target, rtt time.Duration) {
	t.RTTLast = rtt
}

// Estimate returns the rolling local-latency estimate described in
// SPEC_FULL.md ("Local-latency estimate"): the average, across all targets,
// of rttlast - rttmin. Targets with no recorded reply yet are skipped. This mirrors original_source/main.c's `ell` variable.
func Estimate(targets []*target.Target) time.Duration {
	var sum time.Duration
	var n int
	for _, t := range targets {
		if !t.HasRTTMin() {
			continue
		}
		sum += t.RTTLast - t.RTTMin
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}
