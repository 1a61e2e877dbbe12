package nbenv

import (
	"log/slog"
	"time"
)

// ConfigSnapshot holds a copy of config fields for test assertions.
// Exported only via export_test.go so tests can verify option closures
// actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	WorkDir         string
	InstallerURL    string
	Envs            []EnvSpec
	KernelsRoot     string
	SetupLogPath    string
	AgentPath       string
	Service         string
	RestartStrategy RestartStrategy
	ProbeEnabled    bool
	ProbePort       int
	ProbeInterval   time.Duration
	ProbeTimeout    time.Duration
	Logger          *slog.Logger

	StatusPath  string
	MarkerPath  string
	JournalPath string
	LockPath    string
	CondaPrefix string
	EnvsRoot    string
}

// ApplyOptionsForTesting creates a default config, applies the given
// options, and returns a ConfigSnapshot of the result. This tests the
// option closures directly without constructing collaborators.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := applyOptions(opts)

	return ConfigSnapshot{
		WorkDir:         cfg.WorkDir,
		InstallerURL:    cfg.InstallerURL,
		Envs:            cfg.Envs,
		KernelsRoot:     cfg.KernelsRoot,
		SetupLogPath:    cfg.SetupLogPath,
		AgentPath:       cfg.AgentPath,
		Service:         cfg.Service,
		RestartStrategy: cfg.RestartStrategy,
		ProbeEnabled:    cfg.ProbeEnabled,
		ProbePort:       cfg.ProbePort,
		ProbeInterval:   cfg.ProbeInterval,
		ProbeTimeout:    cfg.ProbeTimeout,
		Logger:          cfg.Logger,

		StatusPath:  cfg.statusPath(),
		MarkerPath:  cfg.markerPath(),
		JournalPath: cfg.journalPath(),
		LockPath:    cfg.lockPath(),
		CondaPrefix: cfg.condaPrefix(),
		EnvsRoot:    cfg.envsRoot(),
	}
}
