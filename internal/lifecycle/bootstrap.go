package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/nbenv/internal/conda"
	"github.com/giantswarm/nbenv/internal/fileutil"
	"github.com/giantswarm/nbenv/internal/journal"
	"github.com/giantswarm/nbenv/internal/process"
	"github.com/giantswarm/nbenv/internal/status"
)

// BootstrapperConfig configures a Bootstrapper.
type BootstrapperConfig struct {
	// LockPath is the flock file guarding against concurrent bootstrap runs.
	LockPath string
	// JournalPath is the SQLite step journal on the persistent volume.
	JournalPath string
	// InstallerURL pins the Miniconda installer release; it feeds the spec
	// hash alongside Envs.
	InstallerURL string
	// WorkspaceDirs are created (with parents) before provisioning starts:
	// the conda prefix parent, log directories, and the kernels root.
	WorkspaceDirs []string
	// Envs are the environments to provision.
	Envs []conda.EnvSpec
	// DetachCommand relaunches this program as a foreground bootstrap
	// worker, e.g. []string{"/usr/local/bin/nbenv", "on-create", "--foreground"}.
	// Required only for Detach.
	DetachCommand []string
	// SetupLogPath receives the detached worker's combined output.
	// Required only for Detach.
	SetupLogPath string

	// Logger (optional, defaults to the package logger).
	Logger *slog.Logger
}

// Validate checks all BootstrapperConfig invariants and returns an error
// describing every violation found, using errors.Join so callers can fix
// all problems in a single pass.
func (c BootstrapperConfig) Validate() error {
	var errs []error

	if c.LockPath == "" {
		errs = append(errs, errors.New("lock path must not be empty"))
	}
	if c.JournalPath == "" {
		errs = append(errs, errors.New("journal path must not be empty"))
	}
	if c.InstallerURL == "" {
		errs = append(errs, errors.New("installer URL must not be empty"))
	}
	if len(c.Envs) == 0 {
		errs = append(errs, ErrNoEnvironments)
	}
	for _, env := range c.Envs {
		if err := env.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("environment %q: %w", env.Name, err))
		}
	}

	return errors.Join(errs...)
}

// BootstrapperDeps are the collaborators a Bootstrapper drives.
type BootstrapperDeps struct {
	Store     status.Store
	Installer Installer
	Envs      EnvProvisioner
}

func (d BootstrapperDeps) validate() error {
	var errs []error

	if d.Store == nil {
		errs = append(errs, errors.New("status store must not be nil"))
	}
	if d.Installer == nil {
		errs = append(errs, errors.New("installer must not be nil"))
	}
	if d.Envs == nil {
		errs = append(errs, errors.New("env provisioner must not be nil"))
	}

	return errors.Join(errs...)
}

// Bootstrapper runs the create-phase provisioning work.
type Bootstrapper struct {
	config BootstrapperConfig
	deps   BootstrapperDeps
	logger *slog.Logger
}

// NewBootstrapper creates a Bootstrapper. It performs no I/O.
func NewBootstrapper(cfg BootstrapperConfig, deps BootstrapperDeps) (*Bootstrapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bootstrapper config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid bootstrapper deps: %w", err)
	}
	b := &Bootstrapper{
		config: cfg,
		deps:   deps,
		logger: cfg.Logger,
	}
	if b.logger == nil {
		b.logger = Logger()
	}
	return b, nil
}

// SpecHash returns the fingerprint of this bootstrapper's environment
// specification.
func (b *Bootstrapper) SpecHash() string {
	return SpecHash(b.config.InstallerURL, b.config.Envs)
}

// Run executes the bootstrap to completion in the calling process.
//
// The bootstrap lock is taken without waiting: if another worker holds it,
// Run returns ErrBootstrapInProgress. A previously succeeded run with the
// same spec hash is a no-op. Every step outcome lands in the journal, and
// the status record transitions running -> succeeded or failed.
func (b *Bootstrapper) Run(ctx context.Context) error {
	fl, err := acquireBootstrapLock(b.config.LockPath)
	if err != nil {
		return err
	}
	defer releaseBootstrapLock(b.logger, fl)

	hash := b.SpecHash()

	rec, err := b.deps.Store.Read()
	switch {
	case errors.Is(err, status.ErrNoRecord):
		// First bootstrap on this instance.
	case err != nil:
		return fmt.Errorf("read bootstrap status: %w", err)
	case rec.State == status.StateSucceeded && rec.SpecHash == hash:
		b.logger.Info("bootstrap already complete for this spec", "spec_hash", hash)
		return nil
	}

	jnl, err := journal.Open(ctx, b.config.JournalPath)
	if err != nil {
		return fmt.Errorf("open bootstrap journal: %w", err)
	}
	defer func() {
		if closeErr := jnl.Close(); closeErr != nil {
			b.logger.Warn("close bootstrap journal", "error", closeErr)
		}
	}()

	if err := b.deps.Store.Write(status.Record{
		State:     status.StateRunning,
		StartedAt: time.Now().UTC(),
		SpecHash:  hash,
	}); err != nil {
		return fmt.Errorf("record bootstrap start: %w", err)
	}

	b.logger.Info("bootstrap started", "spec_hash", hash, "environments", len(b.config.Envs))

	if err := b.provision(ctx, jnl, hash); err != nil {
		if writeErr := b.deps.Store.Write(status.Record{
			State:      status.StateFailed,
			FinishedAt: time.Now().UTC(),
			Message:    err.Error(),
			SpecHash:   hash,
		}); writeErr != nil {
			b.logger.Error("record bootstrap failure", "error", writeErr)
		}
		return err
	}

	if err := b.deps.Store.Write(status.Record{
		State:      status.StateSucceeded,
		FinishedAt: time.Now().UTC(),
		SpecHash:   hash,
	}); err != nil {
		return fmt.Errorf("record bootstrap success: %w", err)
	}

	b.logger.Info("bootstrap complete", "spec_hash", hash)
	return nil
}

// provision performs the actual setup steps, journaling each one.
func (b *Bootstrapper) provision(ctx context.Context, jnl *journal.Journal, run string) error {
	// The installer download is pure network I/O and workspace preparation
	// is pure disk I/O; nothing blocks on either until the install step, so
	// they run concurrently.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return b.step(groupCtx, jnl, run, "download-installer", b.deps.Installer.Download)
	})
	group.Go(func() error {
		return b.step(groupCtx, jnl, run, "prepare-workspace", func(context.Context) error {
			for _, dir := range b.config.WorkspaceDirs {
				if err := fileutil.EnsureDir(dir); err != nil {
					return fmt.Errorf("prepare %s: %w", dir, err)
				}
			}
			return nil
		})
	})
	if err := group.Wait(); err != nil {
		return err
	}

	if err := b.step(ctx, jnl, run, "install-conda", b.deps.Installer.Install); err != nil {
		return err
	}

	for _, env := range b.config.Envs {
		createStep := "create-env-" + env.Name
		if err := b.step(ctx, jnl, run, createStep, func(ctx context.Context) error {
			return b.deps.Envs.Create(ctx, env)
		}); err != nil {
			return err
		}

		installStep := "install-packages-" + env.Name
		if err := b.step(ctx, jnl, run, installStep, func(ctx context.Context) error {
			return b.deps.Envs.InstallPackages(ctx, env)
		}); err != nil {
			return err
		}
	}

	return nil
}

// step journals one named step around fn. Journal write failures are logged
// but do not fail the bootstrap; the step outcome itself always wins.
func (b *Bootstrapper) step(ctx context.Context, jnl *journal.Journal, run, name string, fn func(context.Context) error) error {
	id, err := jnl.StepStarted(ctx, run, name)
	if err != nil {
		b.logger.Warn("journal step start", "step", name, "error", err)
	}

	b.logger.Info("step started", "step", name)
	start := time.Now()

	stepErr := fn(ctx)

	if id != 0 {
		if finErr := jnl.StepFinished(ctx, id, stepErr); finErr != nil {
			b.logger.Warn("journal step finish", "step", name, "error", finErr)
		}
	}

	if stepErr != nil {
		b.logger.Error("step failed", "step", name, "elapsed", time.Since(start), "error", stepErr)
		return fmt.Errorf("step %s: %w", name, stepErr)
	}

	b.logger.Info("step finished", "step", name, "elapsed", time.Since(start))
	return nil
}

// Detach launches the configured worker command as a session-detached
// process logging to SetupLogPath and returns its PID without waiting. The
// worker re-enters Run in the child; the bootstrap lock arbitrates if two
// detached workers ever race.
//
// A pending status record is written before the worker starts, so the
// window between the lifecycle hook returning and the worker's first write
// is observable instead of reading as "never attempted".
func (b *Bootstrapper) Detach(_ context.Context) (int, error) {
	if len(b.config.DetachCommand) == 0 {
		return 0, errors.New("detach command not configured")
	}
	if b.config.SetupLogPath == "" {
		return 0, errors.New("setup log path not configured")
	}
	if err := fileutil.EnsureDirForFile(b.config.LockPath); err != nil {
		return 0, fmt.Errorf("prepare workspace: %w", err)
	}

	hash := b.SpecHash()

	// A completed record for this spec stays untouched: the worker will
	// re-check and no-op, and downgrading it to pending would misreport a
	// finished bootstrap until then.
	writePending := true
	rec, err := b.deps.Store.Read()
	switch {
	case errors.Is(err, status.ErrNoRecord):
	case err != nil:
		return 0, fmt.Errorf("read bootstrap status: %w", err)
	case rec.State == status.StateSucceeded && rec.SpecHash == hash:
		writePending = false
	}
	if writePending {
		if err := b.deps.Store.Write(status.Record{
			State:     status.StatePending,
			StartedAt: time.Now().UTC(),
			SpecHash:  hash,
		}); err != nil {
			return 0, fmt.Errorf("record pending bootstrap: %w", err)
		}
	}

	// Plain exec.Command on purpose: the child must outlive the caller and
	// its context, otherwise cancellation of the lifecycle hook would kill
	// the worker it just handed the bootstrap to.
	cmd := exec.Command(b.config.DetachCommand[0], b.config.DetachCommand[1:]...)
	pid, err := process.StartDetached(cmd, b.config.SetupLogPath)
	if err != nil {
		return 0, fmt.Errorf("detach bootstrap worker: %w", err)
	}

	b.logger.Info("bootstrap worker detached", "pid", pid, "log", b.config.SetupLogPath)
	return pid, nil
}
