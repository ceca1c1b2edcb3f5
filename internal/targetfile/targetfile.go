// Package targetfile parses the targets file and resolves its entries into
// target.Target values (spec §6 "Targets file"). Spec §3 calls this an
// external collaborator of the core; this package is that collaborator,
// grounded in original_source/main.c's read_targets() for file syntax and
// the teacher's internal/lookup for the DNS resolution style.
package targetfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"

	"github.com/bartnv/pingwatch/internal/config"
	"github.com/bartnv/pingwatch/internal/target"
)

// entry is one raw line from the targets file, before DNS resolution.
type entry struct {
	rank       int
	detached   bool
	host       string
	annotation string
}

// Load reads and resolves the targets file at path into a dense target
// slice ready for target.NewRegistry. Entries whose host fails to resolve
// are logged and skipped (spec §6); it's only fatal if nothing resolves.
func Load(path string) ([]*target.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("targetfile: open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := parse(f)
	if err != nil {
		return nil, err
	}

	targets := resolve(entries)
	if len(targets) == 0 {
		return nil, fmt.Errorf("targetfile: no targets in %s resolved to an address", path)
	}
	return targets, nil
}

// parse reads targets-file syntax: leading spaces set rank, a blank line
// marks the next entry detached, the first token is the host, and the rest
// of the line is a free-text annotation (spec §6).
func parse(r io.Reader) ([]entry, error) {
	var entries []entry
	detached := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		raw := sc.Text()
		trimmed := strings.TrimLeft(raw, " ")
		rank := len(raw) - len(trimmed)

		content := strings.TrimRight(trimmed, "\r")
		if content == "" {
			detached = true
			continue
		}

		host := content
		annotation := ""
		if idx := strings.IndexAny(content, " \t"); idx >= 0 {
			host = content[:idx]
			annotation = strings.TrimLeft(content[idx+1:], " \t")
		}

		entries = append(entries, entry{
			rank:       rank,
			detached:   detached,
			host:       host,
			annotation: annotation,
		})
		detached = false
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("targetfile: read: %w", err)
	}
	return entries, nil
}

// resolve turns parsed entries into targets, assigning dense Num values and
// shared display ids across one entry's resolved addresses (spec §3, §6).
func resolve(entries []entry) []*target.Target {
	var targets []*target.Target
	idSeq := config.IDSequence
	resolved := 0 // only successful entries advance the id sequence (original_source/main.c:612,640)

	for _, e := range entries {
		addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), e.host)
		if err != nil {
			log.Printf("targetfile: %s: %v", e.host, err)
			continue
		}
		if len(addrs) > config.MaxAddrsPerName {
			addrs = addrs[:config.MaxAddrsPerName]
		}

		id := byte('?')
		if resolved < len(idSeq) {
			id = idSeq[resolved]
		}
		resolved++

		for _, a := range addrs {
			addr := a // copy, LookupIPAddr reuses no shared backing array but be explicit
			t := &target.Target{
				Num:        len(targets),
				ID:         id,
				Hostname:   canonicalName(addr, e.host),
				Address:    addr.IP.String(),
				Addr:       &net.IPAddr{IP: addr.IP, Zone: addr.Zone},
				Rank:       e.rank,
				Detached:   e.detached,
				Annotation: e.annotation,
			}
			targets = append(targets, t)
		}
	}
	return targets
}

// canonicalName reverse-resolves addr, falling back to the name the user
// typed if that fails (original_source/main.c does the equivalent with
// getnameinfo(); the teacher's internal/lookup.Addr does the same reverse
// lookup for its own display purposes).
func canonicalName(addr net.IPAddr, fallback string) string {
	names, err := net.LookupAddr(addr.IP.String())
	if err != nil || len(names) == 0 {
		return fallback
	}
	return strings.TrimSuffix(names[0], ".")
}
