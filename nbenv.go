package nbenv

import (
	"context"
	"fmt"
	"time"

	"github.com/giantswarm/nbenv/internal/conda"
	"github.com/giantswarm/nbenv/internal/fileutil"
	"github.com/giantswarm/nbenv/internal/journal"
	"github.com/giantswarm/nbenv/internal/kernels"
	"github.com/giantswarm/nbenv/internal/lifecycle"
	"github.com/giantswarm/nbenv/internal/netutil"
	"github.com/giantswarm/nbenv/internal/restart"
	"github.com/giantswarm/nbenv/internal/status"
	"github.com/giantswarm/nbenv/internal/template"
)

// Compile-time interface satisfaction checks.
var (
	_ Bootstrapper = (*lifecycle.Bootstrapper)(nil)
	_ Activator    = (*activatorWrapper)(nil)
)

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func newStore(cfg config) *status.FileStore {
	return status.NewFileStore(cfg.statusPath(), cfg.markerPath())
}

// NewBootstrapper assembles a Bootstrapper from the configured options.
// It performs no I/O; all side effects happen in Run or in the worker
// launched by Detach.
func NewBootstrapper(opts ...Option) (Bootstrapper, error) {
	cfg := applyOptions(opts)

	installer, err := conda.NewInstaller(conda.InstallerConfig{
		URL:         cfg.InstallerURL,
		PayloadPath: cfg.payloadPath(),
		Prefix:      cfg.condaPrefix(),
		DataDir:     cfg.logDir(),
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build installer: %w", err)
	}

	envs, err := conda.NewEnvManager(conda.EnvManagerConfig{
		CondaBin: cfg.condaBinPath(),
		EnvsRoot: cfg.envsRoot(),
		DataDir:  cfg.logDir(),
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build env manager: %w", err)
	}

	b, err := lifecycle.NewBootstrapper(
		lifecycle.BootstrapperConfig{
			LockPath:     cfg.lockPath(),
			JournalPath:  cfg.journalPath(),
			InstallerURL: cfg.InstallerURL,
			WorkspaceDirs: []string{
				cfg.stateDir(),
				cfg.logDir(),
				cfg.KernelsRoot,
			},
			Envs:          cfg.Envs,
			DetachCommand: []string{cfg.AgentPath, "on-create", "--foreground"},
			SetupLogPath:  cfg.SetupLogPath,
			Logger:        cfg.Logger,
		},
		lifecycle.BootstrapperDeps{
			Store:     newStore(cfg),
			Installer: installer,
			Envs:      envs,
		},
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// tcpProbe adapts netutil.WaitListening to the activator's probe hook.
type tcpProbe struct {
	port     int
	interval time.Duration
	timeout  time.Duration
	cfg      config
}

func (p tcpProbe) Wait(ctx context.Context) error {
	return netutil.WaitListening(ctx, "127.0.0.1", p.port, p.interval, p.timeout, p.cfg.Logger)
}

// activatorWrapper narrows *lifecycle.Activator to the public Activator
// interface.
type activatorWrapper struct {
	a *lifecycle.Activator
}

func (w *activatorWrapper) Run(ctx context.Context) (ActivationResult, error) {
	return w.a.Run(ctx)
}

// NewActivator assembles an Activator from the configured options. It
// performs no I/O until Run.
func NewActivator(opts ...Option) (Activator, error) {
	cfg := applyOptions(opts)

	envs, err := conda.NewEnvManager(conda.EnvManagerConfig{
		CondaBin: cfg.condaBinPath(),
		EnvsRoot: cfg.envsRoot(),
		DataDir:  cfg.logDir(),
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build env manager: %w", err)
	}

	registrar, err := kernels.NewRegistrar(kernels.RegistrarConfig{
		KernelsRoot: cfg.KernelsRoot,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build kernel registrar: %w", err)
	}

	restarter, err := restart.New(restart.Config{
		Service:  cfg.Service,
		Strategy: cfg.RestartStrategy,
		DataDir:  cfg.logDir(),
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build service restarter: %w", err)
	}

	deps := lifecycle.ActivatorDeps{
		Store:     newStore(cfg),
		Envs:      envs,
		Registrar: registrar,
		Restarter: restarter,
	}
	if cfg.ProbeEnabled {
		deps.Probe = tcpProbe{
			port:     cfg.ProbePort,
			interval: cfg.ProbeInterval,
			timeout:  cfg.ProbeTimeout,
			cfg:      cfg,
		}
	}

	a, err := lifecycle.NewActivator(
		lifecycle.ActivatorConfig{
			Logger: cfg.Logger,
		},
		deps,
	)
	if err != nil {
		return nil, err
	}
	return &activatorWrapper{a: a}, nil
}

// StatusReport is the combined bootstrap state shown by the status command.
type StatusReport struct {
	// Record is the current status record.
	Record status.Record
	// Steps are the journaled steps of the record's bootstrap run, oldest
	// first. Empty when no journal exists yet.
	Steps []journal.Step
}

// Status reads the bootstrap status record and its journaled steps.
// Returns ErrNoStatus when no bootstrap has ever been attempted.
func Status(ctx context.Context, opts ...Option) (StatusReport, error) {
	cfg := applyOptions(opts)

	rec, err := newStore(cfg).Read()
	if err != nil {
		return StatusReport{}, err
	}
	report := StatusReport{Record: rec}

	// Legacy-marker instances have no journal; report the record alone
	// instead of creating an empty database as a side effect of reading.
	hasJournal, err := fileutil.Exists(cfg.journalPath())
	if err != nil {
		return report, fmt.Errorf("check journal: %w", err)
	}
	if !hasJournal {
		return report, nil
	}

	jnl, err := journal.Open(ctx, cfg.journalPath())
	if err != nil {
		return report, fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = jnl.Close() }()

	steps, err := jnl.Steps(ctx, rec.SpecHash)
	if err != nil {
		return report, fmt.Errorf("read journal: %w", err)
	}
	report.Steps = steps
	return report, nil
}

// Environments lists the names of the conda environments present under the
// environments root, whether or not they are in the configured spec. A
// missing environments root yields an empty list.
func Environments(opts ...Option) ([]string, error) {
	cfg := applyOptions(opts)

	envs, err := conda.NewEnvManager(conda.EnvManagerConfig{
		CondaBin: cfg.condaBinPath(),
		EnvsRoot: cfg.envsRoot(),
		DataDir:  cfg.logDir(),
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build env manager: %w", err)
	}
	return envs.List()
}

// RegisteredKernels lists the custom kernels currently present under the
// kernels root. Builtin kernels are excluded.
func RegisteredKernels(opts ...Option) ([]string, error) {
	cfg := applyOptions(opts)

	registrar, err := kernels.NewRegistrar(kernels.RegistrarConfig{
		KernelsRoot: cfg.KernelsRoot,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build kernel registrar: %w", err)
	}

	names, err := registrar.List()
	if err != nil {
		return nil, err
	}
	custom := names[:0]
	for _, name := range names {
		if !kernels.IsBuiltinKernel(name) {
			custom = append(custom, name)
		}
	}
	return custom, nil
}

// BootstrapState is re-exported so Status consumers can switch on
// Record.State without importing internal packages.
type BootstrapState = status.State

// Bootstrap states reported in a StatusReport.
const (
	StatePending   = status.StatePending
	StateRunning   = status.StateRunning
	StateSucceeded = status.StateSucceeded
	StateFailed    = status.StateFailed
)

// RenderTemplate renders the provisioning template (role, KMS key,
// lifecycle configuration, notebook instance) as CloudFormation YAML. The
// embedded lifecycle hooks invoke the agent binary at the configured agent
// path.
func RenderTemplate(opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	doc, err := template.Render(template.Config{
		StackName:           DefaultStackName,
		InstanceNameDefault: DefaultInstanceName,
		RepositoryDefault:   DefaultRepository,
		InstanceType:        DefaultInstanceType,
		VolumeSizeGB:        DefaultVolumeSizeGB,
		Scripts: template.ScriptParams{
			AgentPath:    cfg.AgentPath,
			SetupLogPath: cfg.SetupLogPath,
		},
	})
	if err != nil {
		return nil, err
	}
	return doc.Marshal()
}
