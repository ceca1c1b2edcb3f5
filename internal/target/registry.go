package target

import "fmt"

// Registry is the in-memory set of targets created at startup and never
// destroyed (spec §3 Lifecycle). It replaces the original's intrusive
// singly-linked list (walked on every reply to find the matching target)
// with a dense slice plus an address lookup map, per the §9 design note:
// "associate an incoming source address with its target in O(1)".
type Registry struct {
	targets []*Target
	byAddr  map[string]int // textual address -> index into targets
}

// NewRegistry builds a registry from targets already assigned dense,
// 0-based Num values in the order they should appear in the map view. The
// slice order IS the ordered view the renderer walks for the map (spec §9:
// "the visible order for the map is a separate ordered view" — here it's
// simply the registration order, kept separate from the lookup map).
func NewRegistry(targets []*Target) (*Registry, error) {
	r := &Registry{
		targets: targets,
		byAddr:  make(map[string]int, len(targets)),
	}
	for i, t := range targets {
		if t.Num != i {
			return nil, fmt.Errorf("target %q has Num %d, want %d", t.Hostname, t.Num, i)
		}
		r.byAddr[t.Address] = i
	}
	return r, nil
}

// Len returns the number of targets (N in spec §4.1).
func (r *Registry) Len() int {
	return len(r.targets)
}

// At returns the target with the given dense index.
func (r *Registry) At(i int) *Target {
	return r.targets[i]
}

// All returns the targets in registration order. Callers must not mutate the
// returned slice's length; mutating individual *Target fields is how the
// rest of the core updates state.
func (r *Registry) All() []*Target {
	return r.targets
}

// ByAddress looks up the target whose resolved address equals addr. Returns
// nil, false if no target matches (spec §4.3: "if not found, drop").
func (r *Registry) ByAddress(addr string) (*Target, bool) {
	i, ok := r.byAddr[addr]
	if !ok {
		return nil, false
	}
	return r.targets[i], true
}

// ByID returns the target with the given display id, or nil, false if none
// matches. Since multiple targets may share a display id (spec §3: multiple
// resolved addresses for one entry), this returns the first match in
// registration order.
func (r *Registry) ByID(id byte) (*Target, bool) {
	for _, t := range r.targets {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
