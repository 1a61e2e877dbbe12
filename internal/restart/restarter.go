package restart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/giantswarm/nbenv/internal/process"
	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrEmptyService is returned when a restarter is configured without a
// service name.
const ErrEmptyService = sentinel.Error("service name must not be empty")

// ErrInvalidStrategy is returned when a restarter is configured with an
// undefined strategy value.
const ErrInvalidStrategy = sentinel.Error("invalid restart strategy")

// Restarter restarts a system service.
type Restarter interface {
	Restart(ctx context.Context) error
}

// CommandRunner executes a restart command to completion. Tests substitute
// a fake; production uses execRunner.
type CommandRunner interface {
	Run(ctx context.Context, cmd *exec.Cmd, dataDir, name string) error
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, cmd *exec.Cmd, dataDir, name string) error {
	return process.Run(ctx, cmd, dataDir, name, r.logger)
}

// Config configures a service restarter.
type Config struct {
	// Service is the init-system service name, e.g. "jupyter-server".
	Service string
	// Strategy selects the init system. StrategyAuto detects at runtime.
	Strategy Strategy
	// DataDir holds the restart command's logs.
	DataDir string

	// Runner executes restart commands (optional, defaults to the process
	// package).
	Runner CommandRunner
	// Logger (optional, defaults to slog.Default()).
	Logger *slog.Logger
}

func (c Config) validate() error {
	if c.Service == "" {
		return ErrEmptyService
	}
	if !c.Strategy.IsValid() {
		return ErrInvalidStrategy
	}
	if c.DataDir == "" {
		return errors.New("data dir must not be empty")
	}
	return nil
}

// ServiceRestarter restarts a named service through the configured (or
// detected) init system.
type ServiceRestarter struct {
	config Config
	runner CommandRunner
	logger *slog.Logger

	// detect is swapped in tests.
	detect func() Strategy
}

// New creates a ServiceRestarter. It performs no I/O; init-system detection
// for StrategyAuto happens on the first Restart call.
func New(cfg Config) (*ServiceRestarter, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid restarter config: %w", err)
	}
	r := &ServiceRestarter{
		config: cfg,
		runner: cfg.Runner,
		logger: cfg.Logger,
		detect: detectStrategy,
	}
	if r.runner == nil {
		r.runner = execRunner{logger: cfg.Logger}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Restart issues the restart command for the configured service.
func (r *ServiceRestarter) Restart(ctx context.Context) error {
	strategy := r.config.Strategy
	if strategy == StrategyAuto {
		strategy = r.detect()
		r.logger.Debug("detected init system", "strategy", strategy)
	}

	var cmd *exec.Cmd
	switch strategy {
	case StrategySystemd:
		cmd = exec.CommandContext(ctx, "systemctl", "restart", r.config.Service)
	case StrategyUpstart:
		cmd = exec.CommandContext(ctx, "initctl", "restart", r.config.Service)
	case StrategySysV:
		cmd = exec.CommandContext(ctx, "service", r.config.Service, "restart")
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStrategy, strategy)
	}

	r.logger.Info("restarting service", "service", r.config.Service, "strategy", strategy)

	if err := r.runner.Run(ctx, cmd, r.config.DataDir, "restart-"+r.config.Service); err != nil {
		return fmt.Errorf("restart %s via %s: %w", r.config.Service, strategy, err)
	}
	return nil
}

// detectStrategy picks the init system of the running host. The systemd
// runtime directory only exists when systemd is PID 1; initctl only
// resolves on upstart hosts. Everything else falls back to the service
// wrapper, which is present on all supported AMIs.
func detectStrategy() Strategy {
	if info, err := os.Stat("/run/systemd/system"); err == nil && info.IsDir() {
		return StrategySystemd
	}
	if _, err := exec.LookPath("initctl"); err == nil {
		return StrategyUpstart
	}
	return StrategySysV
}
