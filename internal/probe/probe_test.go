package probe

import (
	"net"
	"testing"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

func TestSendTimeRoundTrip(t *testing.T) {
	want := time.Unix(1700000000, 123000000)
	got, err := unmarshalSendTime(marshalSendTime(want))
	if err != nil {
		t.Fatalf("unmarshalSendTime: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestUnmarshalSendTime_TooShort(t *testing.T) {
	if _, err := unmarshalSendTime([]byte{1, 2, 3}); err == nil {
		t.Error("unmarshalSendTime with a short payload returned no error")
	}
}

func TestParse_TooShort(t *testing.T) {
	c := &Conn{version: V4}
	reply, err := c.parse([]byte{1, 2, 3}, &net.IPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reply.Kind != KindTooShort {
		t.Errorf("Kind = %v, want KindTooShort", reply.Kind)
	}
}

func TestParse_UnexpectedType(t *testing.T) {
	c := &Conn{version: V4}
	msg := icmp.Message{
		Type: ipv4.ICMPTypeDestinationUnreachable,
		Code: 1,
		Body: &icmp.DstUnreach{Data: make([]byte, minEchoReplyLen)},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	reply, err := c.parse(wb, &net.IPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reply.Kind != KindUnexpected {
		t.Errorf("Kind = %v, want KindUnexpected", reply.Kind)
	}
}

func TestParse_EchoReply(t *testing.T) {
	c := &Conn{version: V4, id: 1234}
	sendTime := time.Unix(1700000000, 0)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEchoReply,
		Code: 0,
		Body: &icmp.Echo{
			ID:   1234,
			Seq:  7,
			Data: marshalSendTime(sendTime),
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	peer := &net.IPAddr{IP: net.ParseIP("192.0.2.1")}
	reply, err := c.parse(wb, peer)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reply.Kind != KindEchoReply {
		t.Fatalf("Kind = %v, want KindEchoReply", reply.Kind)
	}
	if reply.ID != 1234 {
		t.Errorf("ID = %d, want 1234", reply.ID)
	}
	if reply.Seq != 7 {
		t.Errorf("Seq = %d, want 7", reply.Seq)
	}
	if !reply.SendTime.Equal(sendTime) {
		t.Errorf("SendTime = %v, want %v", reply.SendTime, sendTime)
	}
}

func TestParse_ForeignIdentifierReportedUnexpected(t *testing.T) {
	c := &Conn{version: V4, id: 1234}
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEchoReply,
		Code: 0,
		Body: &icmp.Echo{
			ID:   5678, // some other process's pid, not ours
			Seq:  7,
			Data: marshalSendTime(time.Unix(1700000000, 0)),
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	reply, err := c.parse(wb, &net.IPAddr{IP: net.ParseIP("192.0.2.1")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reply.Kind != KindUnexpected {
		t.Errorf("Kind = %v, want KindUnexpected for a reply with a foreign identifier", reply.Kind)
	}
}
