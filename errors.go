package nbenv

import (
	"github.com/giantswarm/nbenv/internal/conda"
	"github.com/giantswarm/nbenv/internal/kernels"
	"github.com/giantswarm/nbenv/internal/lifecycle"
	"github.com/giantswarm/nbenv/internal/status"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrBootstrapInProgress is returned by Bootstrapper.Run when another
	// worker holds the bootstrap lock on this instance.
	ErrBootstrapInProgress = lifecycle.ErrBootstrapInProgress

	// ErrNoEnvironments is returned when construction is attempted with an
	// empty environment list.
	ErrNoEnvironments = lifecycle.ErrNoEnvironments

	// ErrNoStatus is returned by Status when no bootstrap has ever been
	// attempted on this instance.
	ErrNoStatus = status.ErrNoRecord

	// ErrBuiltinKernel is returned when an environment name collides with
	// a kernel that ships with the notebook server.
	ErrBuiltinKernel = kernels.ErrBuiltinKernel

	// ErrEmptyEnvName is returned when an environment spec has no name.
	ErrEmptyEnvName = conda.ErrEmptyEnvName

	// ErrEmptyPython is returned when an environment spec has no Python
	// version.
	ErrEmptyPython = conda.ErrEmptyPython
)
