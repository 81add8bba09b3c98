// Package lock keeps a single long-running casesync process per data
// directory.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the data directory.
const FileName = "casesync.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another casesync process is using this data directory")

// Instance is an exclusive, cross-process lock on a data directory.
type Instance struct {
	flock *flock.Flock
}

// Acquire takes the lock for dataDir without blocking.
func Acquire(dataDir string) (*Instance, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dataDir, FileName))
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, fl.Path())
	}
	return &Instance{flock: fl}, nil
}

// Path returns the lock file path.
func (i *Instance) Path() string {
	return i.flock.Path()
}

// Release drops the lock. Safe to call more than once.
func (i *Instance) Release() error {
	if i == nil || !i.flock.Locked() {
		return nil
	}
	if err := i.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
