package lock

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAcquire_ExclusiveThenReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "aipkg.lock")

	release, err := Acquire(path, time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := Acquire(path, 300*time.Millisecond); err == nil {
		t.Fatal("expected second Acquire to time out")
	}

	release()
	release2, err := Acquire(path, time.Second)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	release2()
}
