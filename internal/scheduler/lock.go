package scheduler

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already runs the scheduler.
var ErrLocked = errors.New("scheduler already running for this database")

// Lock takes an exclusive, non-blocking file lock at path.
// Release it with Unlock when the daemon exits.
func Lock(path string) (*flock.Flock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", path, ErrLocked)
	}
	return fl, nil
}
