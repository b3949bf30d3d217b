// Package applock enforces single-instance execution with a file lock so two
// converter processes never write the same outputs concurrently.
package applock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned when another process holds the lock.
var ErrAlreadyLocked = errors.New("another reframe instance is already running")

// Lock guards a state directory against concurrent converter runs.
type Lock struct {
	path string
	lock *flock.Flock
}

// New prepares a lock under stateDir. The lock is not acquired until
// Acquire.
func New(stateDir string) *Lock {
	path := filepath.Join(stateDir, "reframe.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. It fails with ErrAlreadyLocked
// when another process already holds it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
