package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/giantswarm/nbenv/internal/status"
)

// ActivatorConfig configures an Activator. The environments to activate are
// not configured here: whatever is present under the environments root at
// run time is registered, so environments created outside the current
// configuration still get their kernels.
type ActivatorConfig struct {
	// Logger (optional, defaults to the package logger).
	Logger *slog.Logger
}

// ActivatorDeps are the collaborators an Activator drives. Probe is
// optional; the rest are required.
type ActivatorDeps struct {
	Store     status.Store
	Envs      EnvProvisioner
	Registrar KernelRegistrar
	Restarter ServiceRestarter
	// Probe, when set, confirms the service is accepting connections after
	// the restart.
	Probe ReadinessProbe
}

func (d ActivatorDeps) validate() error {
	var errs []error

	if d.Store == nil {
		errs = append(errs, errors.New("status store must not be nil"))
	}
	if d.Envs == nil {
		errs = append(errs, errors.New("env provisioner must not be nil"))
	}
	if d.Registrar == nil {
		errs = append(errs, errors.New("kernel registrar must not be nil"))
	}
	if d.Restarter == nil {
		errs = append(errs, errors.New("service restarter must not be nil"))
	}

	return errors.Join(errs...)
}

// ActivationResult reports what an activation run did.
type ActivationResult struct {
	// Deferred is true when the bootstrap had not completed, so activation
	// did nothing. Not an error: the next instance start retries.
	Deferred bool
	// Kernels are the kernel names registered during this run.
	Kernels []string
	// Restarted is true when the notebook service was restarted.
	Restarted bool
}

// Activator runs the start-phase work: kernel registration and service
// restart.
type Activator struct {
	config ActivatorConfig
	deps   ActivatorDeps
	logger *slog.Logger
}

// NewActivator creates an Activator. It performs no I/O.
func NewActivator(cfg ActivatorConfig, deps ActivatorDeps) (*Activator, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid activator deps: %w", err)
	}
	a := &Activator{
		config: cfg,
		deps:   deps,
		logger: cfg.Logger,
	}
	if a.logger == nil {
		a.logger = Logger()
	}
	return a, nil
}

// Run performs one activation pass.
//
// When the bootstrap has not completed, Run defers without error so the
// instance still starts with its stock kernels. Otherwise it registers a
// kernel for every environment directory present under the environments
// root, restarts the notebook service so the kernels appear, and optionally
// probes the service port. Registration is fail-fast: the first error
// aborts the remaining environments and skips the restart, leaving the
// already-written specs in place for the next start to finish the job.
func (a *Activator) Run(ctx context.Context) (ActivationResult, error) {
	ready, err := a.deps.Store.Ready()
	if err != nil {
		return ActivationResult{}, fmt.Errorf("check bootstrap status: %w", err)
	}
	if !ready {
		a.logger.Info("Setup still in progress")
		return ActivationResult{Deferred: true}, nil
	}

	names, err := a.deps.Envs.List()
	if err != nil {
		return ActivationResult{}, fmt.Errorf("list environments: %w", err)
	}

	result := ActivationResult{}
	for _, name := range names {
		exists, err := a.deps.Envs.Exists(name)
		if err != nil {
			return result, fmt.Errorf("check environment %s: %w", name, err)
		}
		if !exists {
			// A directory without its interpreter is not a usable
			// environment (interrupted create, out-of-band edit). Skip
			// rather than register a kernel pointing at a missing binary.
			a.logger.Warn("environment has no interpreter, skipping kernel", "env", name)
			continue
		}

		if err := a.deps.Registrar.Register(name, a.deps.Envs.PythonPath(name)); err != nil {
			return result, fmt.Errorf("register kernel %s: %w", name, err)
		}
		result.Kernels = append(result.Kernels, name)
	}

	if err := a.deps.Restarter.Restart(ctx); err != nil {
		return result, fmt.Errorf("restart notebook service: %w", err)
	}
	result.Restarted = true

	if a.deps.Probe != nil {
		if err := a.deps.Probe.Wait(ctx); err != nil {
			return result, fmt.Errorf("service readiness after restart: %w", err)
		}
	}

	a.logger.Info("activation complete", "kernels", len(result.Kernels))
	return result, nil
}
