package persistence

import (
	"os"
	"testing"

	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
)

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	fs := fsport.NewMemory()
	lock, err := Acquire(fs, "/runs/run-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := Acquire(fs, "/runs/run-1"); err != nil {
		t.Fatalf("expected reacquire to succeed after release, got %v", err)
	}
}

func TestAcquireRejectsWhileHeldByLiveProcess(t *testing.T) {
	fs := fsport.NewMemory()
	if _, err := Acquire(fs, "/runs/run-1"); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	// The lock file records this test process's own PID, which is
	// alive for the duration of the test.
	if _, err := Acquire(fs, "/runs/run-1"); err == nil {
		t.Fatal("expected second Acquire to be rejected while the first lock is held")
	}
}

func TestProcessAliveReflectsCurrentProcess(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Fatal("expected the current process to be reported alive")
	}
	if processAlive(0) {
		t.Fatal("expected pid 0 to be reported not alive")
	}
}
