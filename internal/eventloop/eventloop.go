// Package eventloop runs the single cooperative loop that owns all target
// and classifier state (spec §5). Goroutines exist only to move bytes —
// blocking socket reads — onto channels; every state
// mutation happens back in the Loop.Run goroutine, the same division of
// labor as the teacher's internal/pinger.Pinger.Run (sendLoop/receiveLoop
// goroutines feeding a single select loop).
package eventloop

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/bartnv/pingwatch/internal/classifier"
	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/render"
	"github.com/bartnv/pingwatch/internal/scheduler"
	"github.com/bartnv/pingwatch/internal/target"
)

// incoming is one received packet, tagged with which connection it arrived
// on so the loop can resolve it against the right address family.
type incoming struct {
	version probe.Version
	reply   *probe.Reply
	err     error
}

// Loop drives the scheduler and the probe connections and reports every
// outcome to a render.Sink.
type Loop struct {
	registry  *target.Registry
	classify  *classifier.Classifier
	scheduler *scheduler.Scheduler
	conns     map[probe.Version]*probe.Conn
	sink      render.Sink
	beepReq   chan byte
}

// New builds a Loop. conns must be the same map passed to scheduler.New.
func New(reg *target.Registry, clf *classifier.Classifier, sched *scheduler.Scheduler, conns map[probe.Version]*probe.Conn, sink render.Sink) *Loop {
	return &Loop{
		registry:  reg,
		classify:  clf,
		scheduler: sched,
		conns:     conns,
		sink:      sink,
		beepReq:   make(chan byte, 8),
	}
}

// RequestCycleBeep asks the loop to advance id's bell mode (spec §6's `!`
// key). Safe to call from any goroutine: the renderer can't mutate
// target.Target directly since only Run's goroutine may touch it, so this
// hands the request off the same way an incoming packet does.
func (l *Loop) RequestCycleBeep(id byte) {
	select {
	case l.beepReq <- id:
	default:
		log.Printf("eventloop: bell-mode request channel full, dropping request for %c", id)
	}
}

// readLoop blocks on one connection's ReadReply forever, pushing every
// result (success or error) onto ch. It exits when ctx is canceled.
func readLoop(ctx context.Context, version probe.Version, conn *probe.Conn, ch chan<- incoming) {
	for {
		reply, err := conn.ReadReply(ctx)
		select {
		case ch <- incoming{version: version, reply: reply, err: err}:
		case <-ctx.Done():
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Run executes the loop until ctx is canceled. It never returns a non-nil
// error on ordinary shutdown; only unrecoverable conditions are returned so
// main can treat them as fatal.
func (l *Loop) Run(ctx context.Context) error {
	in := make(chan incoming)
	for version, conn := range l.conns {
		go readLoop(ctx, version, conn, in)
	}

	deadline := time.Now().Add(l.scheduler.SlotDuration())
	timer := time.NewTimer(l.scheduler.Wait(deadline))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			res := l.scheduler.Tick()
			if res.NewRound {
				l.sink.NewRound(l.scheduler.PingRound(), classifier.Estimate(l.registry.All()))
			}
			if res.TimedOut != nil {
				l.sink.Timeout(res.TimedOut, res.Promoted)
				if res.TimedOut.BeepMode == target.BeepOnLoss {
					l.sink.Bell()
				}
			}
			if res.SendErr != nil {
				if res.Sent == nil {
					// Tick leaves Sent nil whenever the send fails (no
					// connection for the family, or the send itself
					// failed), so there's no target identity to attach.
					log.Printf("eventloop: send error: %v", res.SendErr)
				} else {
					l.sink.SendError(res.Sent, res.SendErr)
				}
			}
			deadline = l.scheduler.NextDeadline(deadline)
			timer.Reset(l.scheduler.Wait(deadline))

		case msg := <-in:
			l.handleIncoming(msg)

		case id := <-l.beepReq:
			if t, ok := l.registry.ByID(id); ok {
				t.BeepMode = t.BeepMode.Next()
			}
		}
	}
}

func (l *Loop) handleIncoming(msg incoming) {
	if msg.err != nil {
		if ctxErr := msg.err; ctxErr != nil {
			// Read deadline expiries and context cancellation both surface
			// here as errors; neither is worth more than a log line since
			// the scheduler's own timer is the authority on timing out a
			// slot (spec §4.5).
			log.Printf("eventloop: read error on %v: %v", msg.version, msg.err)
		}
		return
	}

	r := msg.reply
	switch r.Kind {
	case probe.KindTooShort:
		l.sink.Unexpected(msg.version, r.Peer, "packet shorter than minimum echo-reply size")
		return
	case probe.KindUnexpected:
		l.sink.Unexpected(msg.version, r.Peer, r.TypeCode)
		return
	}

	t, ok := l.registry.ByAddress(addrString(r.Peer))
	if !ok {
		// Spec §4.3: a reply from an address we don't recognize is
		// dropped without side effects.
		return
	}

	rtt := time.Since(r.SendTime)
	if t.WaitPing != 0 && r.Seq == t.WaitPing {
		t.WaitPing = 0
		state := l.classify.RecordReply(t, r.Seq, rtt, time.Now())
		l.sink.Reply(t, state, rtt)
		if state == target.OK && t.BeepMode == target.BeepOnOk {
			l.sink.Bell()
		}
		return
	}

	// Sequence doesn't match what we're currently waiting on: out of sync
	// (spec §4.1 tie-break, §8 property 4). Only rttlast is touched.
	classifier.RecordOutOfSync(t, rtt)
	l.sink.OutOfSync(t, rtt)
}

func addrString(addr net.Addr) string {
	if a, ok := addr.(*net.IPAddr); ok {
		return a.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err == nil {
		return host
	}
	return addr.String()
}
