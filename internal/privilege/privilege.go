// Package privilege opens the raw ICMP sockets while still privileged and
// then drops those privileges, matching original_source/main.c's
// `setuid(getuid())` call right after `init_ping()`.
//
// The teacher repo (internal/privsep) solves the same problem with a full
// client/server subprocess architecture, needed there because its
// traceroute backend must keep opening new raw sockets for the life of the
// program. This program opens both sockets once at startup and never needs
// another, so the simpler open-then-drop model the teacher's own
// dropPrivileges helper implements is sufficient (spec §4.8, §5).
package privilege

import (
	"fmt"
	"syscall"

	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/target"
)

// OpenConns opens a raw ICMP connection for every IP family present among
// targets. Both families are deduplicated: at most one Conn per family is
// returned. id is the identifier (spec §4.2: the low 16 bits of the process
// id) every opened Conn will stamp on its own echo requests and require of
// replies (spec §4.3). Must be called before Drop.
func OpenConns(targets []*target.Target, id uint16) (map[probe.Version]*probe.Conn, error) {
	need := map[probe.Version]bool{}
	for _, t := range targets {
		if t.Addr == nil {
			continue
		}
		if t.Addr.IP.To4() != nil {
			need[probe.V4] = true
		} else {
			need[probe.V6] = true
		}
	}

	conns := make(map[probe.Version]*probe.Conn, len(need))
	for v := range need {
		c, err := probe.Listen(v, id)
		if err != nil {
			for _, opened := range conns {
				opened.Close()
			}
			return nil, fmt.Errorf("privilege: open %v socket: %w", v, err)
		}
		conns[v] = c
	}
	return conns, nil
}

// Drop gives up root privileges permanently. Call it once, after OpenConns
// and before the event loop starts (spec §4.8: "acquire capability, then
// drop").
//
// This is original_source/main.c's setuid(getuid()) plus the teacher's
// dropPrivileges verification dance: drop, confirm the drop took, then
// confirm root can't be regained.
func Drop() error {
	uid := syscall.Getuid()
	euid := syscall.Geteuid()
	if uid == euid {
		// Running as plain root, or not setuid at all. Nothing to drop;
		// the caller already has whatever privilege it's going to have.
		return nil
	}

	if err := syscall.Setuid(uid); err != nil {
		return fmt.Errorf("privilege: setuid(%d): %w", uid, err)
	}
	if syscall.Getuid() != syscall.Geteuid() {
		return fmt.Errorf("privilege: drop failed: uid=%d euid=%d", syscall.Getuid(), syscall.Geteuid())
	}
	if err := syscall.Seteuid(0); err == nil {
		return fmt.Errorf("privilege: unexpectedly regained root after dropping it")
	}
	if syscall.Getuid() != syscall.Geteuid() {
		return fmt.Errorf("privilege: drop failed: uid=%d euid=%d", syscall.Getuid(), syscall.Geteuid())
	}
	return nil
}
