package timeutil

import (
	"testing"
	"time"
)

func TestClampSub(t *testing.T) {
	cases := []struct {
		name string
		a, b time.Duration
		want time.Duration
	}{
		{"positive", 5 * time.Second, 2 * time.Second, 3 * time.Second},
		{"zero", 2 * time.Second, 2 * time.Second, 0},
		{"negative clamps to zero", time.Second, 5 * time.Second, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClampSub(c.a, c.b); got != c.want {
				t.Errorf("ClampSub(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestSlotDuration(t *testing.T) {
	if got, want := SlotDuration(60*time.Second, 10), 6*time.Second; got != want {
		t.Errorf("SlotDuration(60s, 10) = %v, want %v", got, want)
	}
	if got := SlotDuration(60*time.Second, 0); got != 0 {
		t.Errorf("SlotDuration(60s, 0) = %v, want 0", got)
	}
	if got := SlotDuration(60*time.Second, -1); got != 0 {
		t.Errorf("SlotDuration(60s, -1) = %v, want 0", got)
	}
}
