// Package config holds the compile-time tunables for the monitor.
//
// The CLI is deliberately flag-free (spec §6: the only argument is an
// optional HTML output path), so these values are constants rather than a
// parsed configuration object.
package config

import "time"

const (
	// RoundPeriod is the wall-clock duration of one full ping round (T in
	// spec §4.1). Every target is probed exactly once per round.
	RoundPeriod = 60 * time.Second

	// HistoryLen is the number of rounds kept in the history ring (H in
	// spec §3).
	HistoryLen = 100

	// LearnRounds is the number of initial rounds that are always
	// classified ok, before a per-host baseline has formed (spec §4.4).
	LearnRounds = 5

	// JitterMultiplier is JIT in spec §4.4.
	JitterMultiplier = 3

	// LagMultiplier is LAG in spec §4.4.
	LagMultiplier = 10

	// TargetsFile is the name of the targets file read from the working
	// directory (spec §6).
	TargetsFile = "targets"

	// IDSequence is the fixed sequence of display ids assigned to targets
	// in file order, reused across multiple addresses of one entry (spec
	// §3).
	IDSequence = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// MaxAddrsPerName caps the number of resolved addresses that create
	// targets sharing one display id (spec §6).
	MaxAddrsPerName = 10

	// ScrollerLines is the number of lines retained in the bounded log
	// scroller (spec §9: bounded ring buffer of recent lines).
	ScrollerLines = 200

	// InitWait is how long the startup banner is shown before the
	// dashboard takes over the screen (see SPEC_FULL.md "Startup banner").
	InitWait = 5 * time.Second

	// MinRows and MinCols are the smallest terminal size the dashboard
	// will run in (spec §7: "terminal too small").
	MinRows = 16
	MinCols = 72
)
