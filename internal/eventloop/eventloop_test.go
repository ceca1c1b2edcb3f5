package eventloop

import (
	"net"
	"testing"
	"time"

	"github.com/bartnv/pingwatch/internal/classifier"
	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/render"
	"github.com/bartnv/pingwatch/internal/target"
)

// recordingSink captures every call for assertions.
type recordingSink struct {
	render.NopSink
	replies     []target.State
	timeouts    int
	outOfSyncs  int
	unexpecteds int
	bells       int
}

func (r *recordingSink) NewRound(int, time.Duration)                    {}
func (r *recordingSink) Reply(t *target.Target, s target.State, d time.Duration) { r.replies = append(r.replies, s) }
func (r *recordingSink) Timeout(t *target.Target, promoted bool)        { r.timeouts++ }
func (r *recordingSink) OutOfSync(t *target.Target, d time.Duration)    { r.outOfSyncs++ }
func (r *recordingSink) Unexpected(probe.Version, net.Addr, string)     { r.unexpecteds++ }
func (r *recordingSink) SendError(*target.Target, error)                {}
func (r *recordingSink) Bell()                                          { r.bells++ }

func newTestLoop(sink render.Sink) (*Loop, *target.Target) {
	tg := &target.Target{Num: 0, ID: 'A', Address: "192.0.2.1"}
	reg, err := target.NewRegistry([]*target.Target{tg})
	if err != nil {
		panic(err)
	}
	ring := history.NewRing(4, 1)
	ring.Advance(time.Now())
	clf := classifier.New(ring)
	return &Loop{registry: reg, classify: clf, sink: sink}, tg
}

func TestHandleIncoming_MatchedReplyClearsWaitPing(t *testing.T) {
	sink := &recordingSink{}
	l, tg := newTestLoop(sink)
	tg.WaitPing = 7

	l.handleIncoming(incoming{
		version: probe.V4,
		reply: &probe.Reply{
			Kind:     probe.KindEchoReply,
			Peer:     &net.IPAddr{IP: net.ParseIP("192.0.2.1")},
			Seq:      7,
			SendTime: time.Now().Add(-10 * time.Millisecond),
		},
	})

	if tg.WaitPing != 0 {
		t.Errorf("WaitPing = %d, want 0 after a matched reply", tg.WaitPing)
	}
	if len(sink.replies) != 1 {
		t.Fatalf("got %d Reply calls, want 1", len(sink.replies))
	}
}

func TestHandleIncoming_OutOfSyncSequence(t *testing.T) {
	sink := &recordingSink{}
	l, tg := newTestLoop(sink)
	tg.WaitPing = 7

	l.handleIncoming(incoming{
		version: probe.V4,
		reply: &probe.Reply{
			Kind:     probe.KindEchoReply,
			Peer:     &net.IPAddr{IP: net.ParseIP("192.0.2.1")},
			Seq:      6, // stale
			SendTime: time.Now(),
		},
	})

	if tg.WaitPing != 7 {
		t.Errorf("WaitPing = %d, want unchanged 7 on an out-of-sync reply", tg.WaitPing)
	}
	if sink.outOfSyncs != 1 {
		t.Errorf("outOfSyncs = %d, want 1", sink.outOfSyncs)
	}
	if len(sink.replies) != 0 {
		t.Errorf("got %d Reply calls, want 0 for an out-of-sync reply", len(sink.replies))
	}
}

func TestHandleIncoming_UnknownAddressDropped(t *testing.T) {
	sink := &recordingSink{}
	l, _ := newTestLoop(sink)

	l.handleIncoming(incoming{
		version: probe.V4,
		reply: &probe.Reply{
			Kind: probe.KindEchoReply,
			Peer: &net.IPAddr{IP: net.ParseIP("198.51.100.1")}, // not a known target
			Seq:  1,
		},
	})

	if len(sink.replies) != 0 || sink.outOfSyncs != 0 || sink.unexpecteds != 0 {
		t.Errorf("sink got a call for a reply from an unknown address, want none")
	}
}

func TestHandleIncoming_TooShortReportedUnexpected(t *testing.T) {
	sink := &recordingSink{}
	l, _ := newTestLoop(sink)

	l.handleIncoming(incoming{
		version: probe.V4,
		reply:   &probe.Reply{Kind: probe.KindTooShort, Peer: &net.IPAddr{IP: net.ParseIP("192.0.2.1")}},
	})

	if sink.unexpecteds != 1 {
		t.Errorf("unexpecteds = %d, want 1", sink.unexpecteds)
	}
}
