// Package timeutil contains small time helpers used by the scheduler.
//
// The original implementation this was distilled from represented time as
// BSD-style struct timeval and hand-rolled tvcmp/tvsub/tvadd (see
// original_source/main.c). Go's time.Duration already gives us comparison,
// addition and subtraction, so the only thing worth keeping from that design
// is the clamp-to-zero behavior: tvsub() in the original never returns a
// negative interval, which is what keeps scheduler drift from ever producing
// a negative or past deadline.
package timeutil

import "time"

// ClampSub returns a-b, floored at zero. This mirrors the original tvsub()'s
// clamp: "when subtraction would go negative, clamp to zero so the next
// iteration fires immediately" (spec §4.1).
func ClampSub(a, b time.Duration) time.Duration {
	d := a - b
	if d < 0 {
		return 0
	}
	return d
}

// SlotDuration returns the per-target slot length for a round of the given
// period split across n targets (T/N in spec §4.1). Returns 0 if n <= 0.
func SlotDuration(period time.Duration, n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return period / time.Duration(n)
}
