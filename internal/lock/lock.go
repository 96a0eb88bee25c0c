// Package lock serializes state-mutating commands across processes.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultTimeout is how long Acquire waits for another process.
const DefaultTimeout = 10 * time.Second

// Acquire takes the advisory lock at path, polling until timeout. The
// returned func releases it.
func Acquire(path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock directory: %w", err)
	}
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire state lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another aipkg process is running (lock: %s)", path)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
