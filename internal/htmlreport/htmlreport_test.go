package htmlreport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartnv/pingwatch/internal/target"
)

func TestNew_WritesTargetListing(t *testing.T) {
	var buf bytes.Buffer
	targets := []*target.Target{{ID: 'A', Hostname: "host-a", Address: "192.0.2.1", Annotation: "note"}}

	_, err := New(&buf, targets)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "host-a")
	assert.Contains(t, out, "192.0.2.1")
	assert.Contains(t, out, "note")
}

func TestReply_ColorCodesByState(t *testing.T) {
	var buf bytes.Buffer
	targets := []*target.Target{{ID: 'A', Hostname: "host-a"}}
	r, err := New(&buf, targets)
	require.NoError(t, err)
	buf.Reset()

	r.Reply(targets[0], target.Jitter, 15*time.Millisecond)
	assert.Contains(t, buf.String(), `class="j"`)

	buf.Reset()
	r.Reply(targets[0], target.Lag, 40*time.Millisecond)
	assert.Contains(t, buf.String(), `class="d"`)

	buf.Reset()
	r.Timeout(targets[0], true)
	assert.Contains(t, buf.String(), `class="l"`)
}

func TestClose_WritesSummary(t *testing.T) {
	var buf bytes.Buffer
	targets := []*target.Target{{ID: 'A', Hostname: "host-a", RTTMin: 10 * time.Millisecond, RTTAvg: 20 * time.Millisecond, RTTMax: 30 * time.Millisecond}}
	r, err := New(&buf, targets)
	require.NoError(t, err)
	r.rounds = 10
	targets[0].LossCount = 2

	require.NoError(t, r.Close())
	assert.Contains(t, buf.String(), "Packets lost: 2 (20%)")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0%", percent(0, 0))
	assert.Equal(t, "25%", percent(1, 4))
}
