package status

import (
	"encoding/json"
	"fmt"
)

// State is the lifecycle state of a bootstrap run.
type State int

const (
	// StatePending means the bootstrap has been requested but the detached
	// worker has not started doing work yet.
	StatePending State = iota
	// StateRunning means the worker is executing setup steps.
	StateRunning
	// StateSucceeded means all steps completed and kernels are ready to
	// register.
	StateSucceeded
	// StateFailed means a step failed; Message carries the cause.
	StateFailed
)

var stateNames = map[State]string{
	StatePending:   "pending",
	StateRunning:   "running",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
}

var statesByName = map[string]State{
	"pending":   StatePending,
	"running":   StateRunning,
	"succeeded": StateSucceeded,
	"failed":    StateFailed,
}

// IsValid reports whether s is one of the defined states.
func (s State) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// String returns the lowercase name of the state, or "unknown" for
// undefined values.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the state is an end state of the bootstrap.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// MarshalJSON encodes the state as its lowercase name so the record file is
// readable without this package.
func (s State) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("marshal state: invalid value %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a lowercase state name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}
	state, ok := statesByName[name]
	if !ok {
		return fmt.Errorf("unmarshal state: unknown name %q", name)
	}
	*s = state
	return nil
}
