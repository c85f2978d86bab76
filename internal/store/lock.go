package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another process already drives the store.
var ErrLocked = errors.New("store is locked by another process")

// InstanceLock is an exclusive, non-blocking process lock.
type InstanceLock struct {
	flock *flock.Flock
	path  string
}

// Lock takes the instance lock at path, creating its directory if needed.
// It fails with ErrLocked instead of waiting when the lock is held.
func Lock(p string) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	fl := flock.New(p)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", p, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", p, ErrLocked)
	}
	return &InstanceLock{flock: fl, path: p}, nil
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string { return l.path }

// Unlock releases the lock.
func (l *InstanceLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}
