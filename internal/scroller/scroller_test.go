package scroller

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWrite_SplitsCompleteLines(t *testing.T) {
	s := &Scroller{lines: make([]string, 4)}
	s.Write([]byte("one\ntwo\nthr"))
	s.Write([]byte("ee\n"))

	got := s.Lines()
	want := []string{"one", "two", "three"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Wrong lines (-want, +got):\n%v", diff)
	}
}

func TestWrite_DropsOldestPastCapacity(t *testing.T) {
	s := &Scroller{lines: make([]string, 2)}
	s.Write([]byte("a\nb\nc\n"))

	got := s.Lines()
	want := []string{"b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Wrong lines after wrap (-want, +got):\n%v", diff)
	}
}

func TestLines_Empty(t *testing.T) {
	s := &Scroller{lines: make([]string, 2)}
	if got := s.Lines(); len(got) != 0 {
		t.Errorf("Lines() = %v, want empty", got)
	}
}
