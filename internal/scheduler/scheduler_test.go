package scheduler

import (
	"net"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"

	"github.com/bartnv/pingwatch/internal/classifier"
	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/target"
)

// fakeSender records every Send call instead of touching a real socket.
type fakeSender struct {
	sent []int
	err  error
}

func (f *fakeSender) Send(dest net.Addr, id uint16, seq int, sendTime time.Time) error {
	f.sent = append(f.sent, seq)
	return f.err
}

func newTestScheduler(t *testing.T, n int) (*Scheduler, *target.Registry, *fakeSender) {
	t.Helper()
	targets := make([]*target.Target, n)
	for i := range targets {
		targets[i] = &target.Target{Num: i, Address: net.IPv4(192, 0, 2, byte(i+1)).String(), Addr: &net.IPAddr{IP: net.IPv4(192, 0, 2, byte(i+1))}}
	}
	reg, err := target.NewRegistry(targets)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ring := history.NewRing(4, n)
	clf := classifier.New(ring)
	clk := fakeclock.NewFakeClock(time.Now())
	sender := &fakeSender{}
	sched := New(reg, ring, clf, clk, map[probe.Version]Sender{probe.V4: sender}, 42)
	return sched, reg, sender
}

func TestTick_SendsToEachTargetInOrder(t *testing.T) {
	sched, reg, sender := newTestScheduler(t, 3)

	for i := 0; i < 3; i++ {
		res := sched.Tick()
		if res.Sent != reg.At(i) {
			t.Errorf("tick %d sent to target %d, want target %d", i, indexOf(reg, res.Sent), i)
		}
	}
	if len(sender.sent) != 3 {
		t.Errorf("got %d sends, want 3", len(sender.sent))
	}
}

func TestTick_FirstTickOfRoundReportsNewRound(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 2)

	res := sched.Tick()
	if !res.NewRound {
		t.Errorf("first tick: NewRound = false, want true")
	}
	res = sched.Tick()
	if res.NewRound {
		t.Errorf("second tick: NewRound = true, want false")
	}
	res = sched.Tick() // wraps back to target 0, starting round 2
	if !res.NewRound {
		t.Errorf("third tick (wrap): NewRound = false, want true")
	}
}

func TestTick_TimesOutUnansweredSlotOnWrap(t *testing.T) {
	sched, reg, _ := newTestScheduler(t, 1)

	res := sched.Tick() // sends to the only target
	if res.TimedOut != nil {
		t.Fatalf("first tick reported a timeout, want none (nothing was outstanding yet)")
	}

	res = sched.Tick() // same slot again: previous send never got a reply
	if res.TimedOut != reg.At(0) {
		t.Errorf("second tick did not report the previous send as timed out")
	}
}

func TestSlotDuration(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 10)
	if got, want := sched.SlotDuration(), 6*time.Second; got != want {
		t.Errorf("SlotDuration = %v, want %v", got, want)
	}
}

func indexOf(reg *target.Registry, tg *target.Target) int {
	for i := 0; i < reg.Len(); i++ {
		if reg.At(i) == tg {
			return i
		}
	}
	return -1
}
