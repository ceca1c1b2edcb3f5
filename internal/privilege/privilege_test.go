package privilege

import (
	"syscall"
	"testing"
)

func TestDrop_NoopWhenNotSetuid(t *testing.T) {
	if syscall.Getuid() != syscall.Geteuid() {
		t.Skip("test process is setuid; this test covers only the uid == euid path")
	}
	if err := Drop(); err != nil {
		t.Errorf("Drop() = %v, want nil when uid == euid", err)
	}
}
