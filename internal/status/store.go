package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/giantswarm/nbenv/internal/fileutil"
	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrNoRecord is returned by Read when neither a status record nor a legacy
// marker exists, meaning no bootstrap has ever been attempted.
const ErrNoRecord = sentinel.Error("no status record")

// ErrInvalidState is returned when writing a record with an undefined state.
const ErrInvalidState = sentinel.Error("invalid status state")

// Record is one bootstrap run's persisted state.
type Record struct {
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	// Message carries the failure cause for StateFailed, empty otherwise.
	Message string `json:"message,omitempty"`
	// SpecHash fingerprints the environment specification this run applied.
	// A succeeded record with a matching hash makes re-bootstrap a no-op.
	SpecHash string `json:"spec_hash,omitempty"`
}

// Store reads and writes bootstrap status.
type Store interface {
	// Read returns the current record, or ErrNoRecord if none exists.
	Read() (Record, error)
	// Write persists the record, replacing any previous one.
	Write(Record) error
	// Ready reports whether the bootstrap has completed successfully.
	Ready() (bool, error)
}

// FileStore persists the status as a JSON record plus a legacy zero-byte
// success marker.
type FileStore struct {
	recordPath string
	markerPath string
}

// NewFileStore returns a FileStore persisting to recordPath with the legacy
// success marker at markerPath.
func NewFileStore(recordPath, markerPath string) *FileStore {
	return &FileStore{
		recordPath: recordPath,
		markerPath: markerPath,
	}
}

// Read returns the current status record. If no record file exists but the
// legacy marker does, a synthetic succeeded record is returned: markers
// written by earlier provisioning scripts carry no metadata beyond their
// existence.
func (s *FileStore) Read() (Record, error) {
	data, err := os.ReadFile(s.recordPath)
	if os.IsNotExist(err) {
		return s.readLegacy()
	}
	if err != nil {
		return Record{}, fmt.Errorf("read status record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode status record %s: %w", s.recordPath, err)
	}
	return rec, nil
}

func (s *FileStore) readLegacy() (Record, error) {
	ok, err := fileutil.Exists(s.markerPath)
	if err != nil {
		return Record{}, fmt.Errorf("check legacy marker: %w", err)
	}
	if !ok {
		return Record{}, ErrNoRecord
	}
	info, err := os.Stat(s.markerPath)
	if err != nil {
		return Record{}, fmt.Errorf("stat legacy marker: %w", err)
	}
	return Record{
		State:      StateSucceeded,
		FinishedAt: info.ModTime().UTC(),
	}, nil
}

// Write persists rec atomically. On StateSucceeded the legacy marker is
// touched as well, so older tooling that only checks for the marker keeps
// working.
func (s *FileStore) Write(rec Record) error {
	if !rec.State.IsValid() {
		return ErrInvalidState
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status record: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.recordPath, data, 0o644); err != nil {
		return fmt.Errorf("write status record: %w", err)
	}

	if rec.State == StateSucceeded {
		if err := fileutil.Touch(s.markerPath); err != nil {
			return fmt.Errorf("touch success marker: %w", err)
		}
	}
	return nil
}

// Ready reports whether the bootstrap completed successfully. A missing
// record is not an error here: it simply means not ready.
func (s *FileStore) Ready() (bool, error) {
	rec, err := s.Read()
	if errors.Is(err, ErrNoRecord) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.State == StateSucceeded, nil
}
