package dashboard

import (
	"testing"
	"time"

	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/target"
)

func TestViewOf_CopiesFields(t *testing.T) {
	tg := &target.Target{Num: 3, ID: 'C', Hostname: "host-c", RTTLast: 12 * time.Millisecond}
	tv := viewOf(tg, history.WindowStats{Count: 5})

	if tv.ID != 'C' || tv.Hostname != "host-c" || tv.RTTLast != 12*time.Millisecond {
		t.Errorf("viewOf did not copy identity/state fields correctly: %+v", tv)
	}
	if tv.Window.Count != 5 {
		t.Errorf("viewOf did not embed the window stats: %+v", tv.Window)
	}

	// Mutating the source target afterward must not affect the snapshot.
	tg.RTTLast = 999 * time.Millisecond
	if tv.RTTLast == 999*time.Millisecond {
		t.Errorf("TargetView aliases the source Target instead of copying it")
	}
}

func TestSnapshotByID(t *testing.T) {
	snap := Snapshot{Targets: []TargetView{{ID: 'A'}, {ID: 'B'}}}
	if _, ok := snap.byID('B'); !ok {
		t.Errorf("byID('B') not found")
	}
	if _, ok := snap.byID('Z'); ok {
		t.Errorf("byID('Z') unexpectedly found")
	}
}

func TestCommentGlyph_SubstitutesPunctuation(t *testing.T) {
	got := commentGlyph("a'b-c`d|e\\f/g")
	for _, r := range []rune{'\'', '-', '`', '|', '\\', '/'} {
		for _, c := range got {
			if c == r {
				t.Errorf("commentGlyph left %q unsubstituted in %q", string(r), got)
			}
		}
	}
}
