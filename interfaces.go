package nbenv

import (
	"context"

	"github.com/giantswarm/nbenv/internal/lifecycle"
)

// ActivationResult reports what an activation run did: whether it deferred,
// which kernels it registered, and whether the service was restarted.
type ActivationResult = lifecycle.ActivationResult

// Bootstrapper runs the create-phase provisioning work.
type Bootstrapper interface {
	// Run executes the bootstrap to completion in the calling process.
	// Returns ErrBootstrapInProgress if another worker holds the lock; a
	// previously completed run with an unchanged spec is a no-op.
	Run(ctx context.Context) error

	// Detach launches the bootstrap as a detached worker process and
	// returns its PID without waiting. The worker's output goes to the
	// configured setup log.
	Detach(ctx context.Context) (int, error)
}

// Activator runs the start-phase work: kernel registration and notebook
// service restart.
type Activator interface {
	Run(ctx context.Context) (ActivationResult, error)
}
