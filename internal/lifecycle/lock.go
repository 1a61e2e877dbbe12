package lifecycle

import (
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
)

// acquireBootstrapLock takes the exclusive bootstrap lock without waiting.
// A held lock means another bootstrap worker is mid-run on this instance;
// the caller reports ErrBootstrapInProgress instead of queueing behind it,
// since the running worker will finish the same work.
func acquireBootstrapLock(lockPath string) (*flock.Flock, error) {
	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring bootstrap lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s is held)", ErrBootstrapInProgress, lockPath)
	}

	return fl, nil
}

// releaseBootstrapLock releases the file lock and closes the file
// descriptor. The lock file is intentionally left on disk to avoid a race
// where removing it could invalidate a lock concurrently acquired by
// another process. Close() calls Unlock() internally, so no explicit Unlock
// is needed. Errors are logged at debug level; this is best-effort cleanup.
func releaseBootstrapLock(logger *slog.Logger, fl *flock.Flock) {
	if fl != nil {
		if err := fl.Close(); err != nil {
			logger.Debug("failed to release bootstrap lock", "path", fl.Path(), "err", err)
		}
	}
}
