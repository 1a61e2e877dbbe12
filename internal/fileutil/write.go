package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrEmptyPath is returned when a target path is empty.
const ErrEmptyPath = sentinel.Error("path must not be empty")

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename. On POSIX systems rename is atomic, so a
// concurrent reader observes either the previous content or the new content,
// never a partial write. Parent directories are created as needed.
//
// The temp file is fsynced before the rename. Without the fsync, a crash
// between rename and writeback could leave the final path with incomplete
// contents, which would defeat the point of the atomic write for the status
// record that the start-phase activator trusts.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) (retErr error) {
	if path == "" {
		return ErrEmptyPath
	}

	if err := EnsureDirForFile(path); err != nil {
		return fmt.Errorf("prepare destination: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-write-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Close explicitly before rename so the file content is flushed.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to destination: %w", err)
	}

	return nil
}

// Touch creates an empty file at path with mode 0644, creating parent
// directories as needed. An existing file is left untouched (content and
// modification time are preserved): the completion marker's only meaningful
// property is its presence.
func Touch(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if err := EnsureDirForFile(path); err != nil {
		return fmt.Errorf("prepare marker: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		return fmt.Errorf("create marker %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close marker %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists. Any stat error other than
// "not exist" is returned so callers can distinguish an absent file
// from an unreadable one.
func Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}
