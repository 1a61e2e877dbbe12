package nbenv

import (
	"fmt"
	"log/slog"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("nbenv: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("nbenv: %s must not be empty", name))
	}
}

// Option configures the agent during construction via NewBootstrapper and
// NewActivator. Each With* function returns an Option that sets a specific
// field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations). These panics are intentional: option values are typically
// compile-time constants or configuration loaded before construction, so an
// invalid value indicates a programmer error rather than a runtime
// condition. The pattern mirrors [regexp.MustCompile]: fail fast during
// initialization instead of returning errors that would be universally
// fatal anyway.
type Option func(*config)

// WithWorkDir sets the workspace root on the persistent volume. The conda
// prefix, status record, journal, and bootstrap lock are all derived from
// it.
//
// Default: DefaultWorkDir.
//
// Panics if dir is empty.
func WithWorkDir(dir string) Option {
	requireNonEmpty("work directory", dir)
	return func(c *config) {
		c.WorkDir = dir
	}
}

// WithInstallerURL sets the Miniconda installer URL. Changing it changes
// the spec hash, triggering a fresh bootstrap on instances that completed
// with the old URL.
//
// Default: DefaultInstallerURL.
//
// Panics if url is empty.
func WithInstallerURL(url string) Option {
	requireNonEmpty("installer URL", url)
	return func(c *config) {
		c.InstallerURL = url
	}
}

// WithEnvs replaces the set of environments to provision.
//
// Default: DefaultEnvs().
//
// Panics if envs is empty.
func WithEnvs(envs []EnvSpec) Option {
	if len(envs) == 0 {
		panic("nbenv: at least one environment must be configured")
	}
	return func(c *config) {
		c.Envs = envs
	}
}

// WithKernelsRoot sets the Jupyter kernels directory kernelspecs are
// written under.
//
// Default: DefaultKernelsRoot.
//
// Panics if dir is empty.
func WithKernelsRoot(dir string) Option {
	requireNonEmpty("kernels root", dir)
	return func(c *config) {
		c.KernelsRoot = dir
	}
}

// WithSetupLogPath sets the log file receiving the detached bootstrap
// worker's output.
//
// Default: DefaultSetupLogPath.
//
// Panics if path is empty.
func WithSetupLogPath(path string) Option {
	requireNonEmpty("setup log path", path)
	return func(c *config) {
		c.SetupLogPath = path
	}
}

// WithAgentPath sets the installed location of the agent binary, used to
// build the detach command and the rendered lifecycle hooks.
//
// Default: DefaultAgentPath.
//
// Panics if path is empty.
func WithAgentPath(path string) Option {
	requireNonEmpty("agent path", path)
	return func(c *config) {
		c.AgentPath = path
	}
}

// WithService sets the init-system name of the notebook server service.
//
// Default: DefaultService.
//
// Panics if name is empty.
func WithService(name string) Option {
	requireNonEmpty("service name", name)
	return func(c *config) {
		c.Service = name
	}
}

// WithRestartStrategy pins the init system used to restart the notebook
// service instead of detecting it at runtime.
//
// Default: RestartAuto.
//
// Panics if strategy is not a defined value.
func WithRestartStrategy(strategy RestartStrategy) Option {
	if !strategy.IsValid() {
		panic(fmt.Sprintf("nbenv: invalid restart strategy %v", strategy))
	}
	return func(c *config) {
		c.RestartStrategy = strategy
	}
}

// WithServicePort sets the local port probed after a service restart.
//
// Default: DefaultServicePort.
//
// Panics if port <= 0.
func WithServicePort(port int) Option {
	requirePositive("service port", port)
	return func(c *config) {
		c.ProbePort = port
	}
}

// WithProbeTimeout sets the total budget for the post-restart service
// probe.
//
// Default: DefaultProbeTimeout.
//
// Panics if d <= 0.
func WithProbeTimeout(d time.Duration) Option {
	requirePositive("probe timeout", d)
	return func(c *config) {
		c.ProbeTimeout = d
	}
}

// WithoutProbe disables the post-restart service probe. Activation then
// reports success as soon as the restart command returns.
func WithoutProbe() Option {
	return func(c *config) {
		c.ProbeEnabled = false
	}
}

// WithLogger sets the logger used by the constructed bootstrapper or
// activator, overriding the package-level logger configured via SetLogger.
//
// Panics if l is nil; use SetLogger(nil) to reset the package logger
// instead.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("nbenv: logger must not be nil")
	}
	return func(c *config) {
		c.Logger = l
	}
}
