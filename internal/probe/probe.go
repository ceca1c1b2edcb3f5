// Package probe builds and parses ICMP echo request/reply packets and opens
// the raw sockets they travel over (spec §4.2, §4.3).
//
// Connections are opened with golang.org/x/net/icmp against the "ip4:icmp"
// and "ip6:ipv6-icmp" raw-socket networks, the same approach the teacher
// repo uses for its simplest (non privilege-separated) backend in
// internal/backend/icmp/icmp_raw.go. Both require CAP_NET_RAW/root to open;
// internal/privilege is responsible for opening them before dropping
// privileges. golang.org/x/net/icmp takes care of the platform-specific
// detail spec §4.3 calls out (stripping the IPv4 header before handing back
// the ICMP payload), so callers always see a bare ICMP message.
package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/time/rate"
)

// Version selects the IP family a Conn speaks.
type Version int

// Values for Version.
const (
	V4 Version = iota
	V6
)

func (v Version) network() string {
	if v == V6 {
		return "ip6:ipv6-icmp"
	}
	return "ip4:icmp"
}

func (v Version) protoNum() int {
	if v == V6 {
		return 58 // ICMPv6
	}
	return 1 // ICMP
}

func (v Version) echoRequestType() icmp.Type {
	if v == V6 {
		return ipv6.ICMPTypeEchoRequest
	}
	return ipv4.ICMPTypeEcho
}

func (v Version) echoReplyType() icmp.Type {
	if v == V6 {
		return ipv6.ICMPTypeEchoReply
	}
	return ipv4.ICMPTypeEchoReply
}

// minEchoReplyLen is the smallest plausible echo reply payload: an 8-byte
// ICMP header plus the two 64-bit words of embedded send time (spec §4.3
// safety rail: "discard if packet length is less than the minimum echo-reply
// size").
const minEchoReplyLen = 8 + timePayloadLen

const timePayloadLen = 16 // two int64s: unix seconds, nanoseconds

// ErrRateLimited is returned by Conn.Send when the outbound rate limiter
// rejects a send. This guards against a misconfigured round period
// producing a probe storm, the same protection the teacher's
// internal/backend/icmp.PingConn.limiter gives per-connection sends.
var ErrRateLimited = errors.New("probe: rate limit exceeded")

// Conn is a raw ICMP connection for one IP family.
type Conn struct {
	version Version
	id      uint16
	pc      *icmp.PacketConn
	limiter *rate.Limiter
}

// Listen opens a raw ICMP connection. This requires elevated privileges; see
// internal/privilege. id is the identifier this connection's own echo
// requests carry (spec §4.2: the low 16 bits of the process id) — parse uses
// it to discard replies addressed to some other process sharing the host
// (spec §4.3: "require... identifier = process id, otherwise discard").
func Listen(version Version, id uint16) (*Conn, error) {
	pc, err := icmp.ListenPacket(version.network(), "")
	if err != nil {
		return nil, fmt.Errorf("probe: listen %v: %w", version, err)
	}
	return &Conn{
		version: version,
		id:      id,
		pc:      pc,
		// One send per millisecond sustained, bursting to the size of one
		// full round's worth of targets is never needed in practice since
		// the scheduler paces sends itself; this is a backstop, not the
		// primary pacing mechanism (that's internal/scheduler).
		limiter: rate.NewLimiter(rate.Limit(1000), 16),
	}, nil
}

// Close closes the underlying raw socket.
func (c *Conn) Close() error {
	return c.pc.Close()
}

func (v Version) String() string {
	if v == V6 {
		return "IPv6"
	}
	return "IPv4"
}

// Send builds and transmits an ICMP echo request to dest. id should be the
// low 16 bits of the process id (spec §4.2); seq is the current pinground.
// sendTime is embedded in the payload so the decoder can compute RTT without
// keeping its own send-time table.
func (c *Conn) Send(dest net.Addr, id uint16, seq int, sendTime time.Time) error {
	if !c.limiter.Allow() {
		return ErrRateLimited
	}
	msg := icmp.Message{
		Type: c.version.echoRequestType(),
		Code: 0,
		Body: &icmp.Echo{
			ID:   int(id),
			Seq:  seq & 0xffff,
			Data: marshalSendTime(sendTime),
		},
	}
	// Marshal computes the IPv4 checksum itself when psh is nil (spec §4.2).
	// For IPv6 the checksum field is left for the kernel to fill in, per
	// RFC 2463 and the behavior documented on icmp.Message.Marshal.
	wb, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("probe: marshal: %w", err)
	}
	if _, err := c.pc.WriteTo(wb, dest); err != nil {
		return fmt.Errorf("probe: sendto %v: %w", dest, err)
	}
	return nil
}

// SetReadDeadline sets the deadline for the next ReadReply call, or clears it
// if t is the zero Time.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.pc.SetReadDeadline(t)
}

// Kind classifies a received ICMP message.
type Kind int

// Values for Kind.
const (
	// KindEchoReply is a well-formed echo reply matching our process id.
	KindEchoReply Kind = iota

	// KindUnexpected is any other ICMP type/code, or an echo reply with a
	// foreign identifier (spec §4.3: "log unexpected ICMP type/code").
	KindUnexpected

	// KindTooShort is a packet shorter than the minimum echo reply size
	// (spec §4.3 safety rail).
	KindTooShort
)

// Reply is a parsed incoming ICMP message.
type Reply struct {
	Kind Kind
	Peer net.Addr

	// The following are only valid when Kind == KindEchoReply.
	ID       uint16
	Seq      int
	SendTime time.Time

	// TypeCode is a human-readable description of the ICMP type/code,
	// populated for KindUnexpected so callers can log it (spec §4.3).
	TypeCode string
}

// ReadReply reads and parses the next ICMP message. It blocks until a packet
// arrives, the read deadline (if any) passes, or ctx is done.
func (c *Conn) ReadReply(ctx context.Context) (*Reply, error) {
	if dl, ok := ctx.Deadline(); ok {
		if err := c.pc.SetReadDeadline(dl); err != nil {
			return nil, err
		}
	}
	// Cancellation without a deadline must also unblock ReadFrom.
	stop := context.AfterFunc(ctx, func() { c.pc.SetReadDeadline(time.Now()) })
	defer stop()
	buf := make([]byte, 1500)
	n, peer, err := c.pc.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	return c.parse(buf[:n], peer)
}

func (c *Conn) parse(b []byte, peer net.Addr) (*Reply, error) {
	if len(b) < minEchoReplyLen {
		return &Reply{Kind: KindTooShort, Peer: peer}, nil
	}
	msg, err := icmp.ParseMessage(c.version.protoNum(), b)
	if err != nil {
		return nil, fmt.Errorf("probe: parse: %w", err)
	}
	if msg.Type != c.version.echoReplyType() || msg.Code != 0 {
		return &Reply{
			Kind:     KindUnexpected,
			Peer:     peer,
			TypeCode: fmt.Sprintf("type=%v code=%d", msg.Type, msg.Code),
		}, nil
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		return &Reply{Kind: KindUnexpected, Peer: peer, TypeCode: "malformed echo body"}, nil
	}
	if uint16(echo.ID) != c.id {
		return &Reply{
			Kind:     KindUnexpected,
			Peer:     peer,
			TypeCode: fmt.Sprintf("foreign identifier=%d", echo.ID),
		}, nil
	}
	sendTime, err := unmarshalSendTime(echo.Data)
	if err != nil {
		return &Reply{Kind: KindTooShort, Peer: peer}, nil
	}
	return &Reply{
		Kind:     KindEchoReply,
		Peer:     peer,
		ID:       uint16(echo.ID),
		Seq:      echo.Seq,
		SendTime: sendTime,
	}, nil
}

func marshalSendTime(t time.Time) []byte {
	b := make([]byte, timePayloadLen)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.Unix()))
	binary.BigEndian.PutUint64(b[8:16], uint64(t.UnixNano()%1e9))
	return b
}

func unmarshalSendTime(b []byte) (time.Time, error) {
	if len(b) < timePayloadLen {
		return time.Time{}, fmt.Errorf("probe: payload too short: %d bytes", len(b))
	}
	sec := int64(binary.BigEndian.Uint64(b[0:8]))
	nsec := int64(binary.BigEndian.Uint64(b[8:16]))
	return time.Unix(sec, nsec), nil
}
