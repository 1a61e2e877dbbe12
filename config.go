package nbenv

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/giantswarm/nbenv/internal/conda"
)

// EnvSpec describes one conda environment to provision: its name (which
// becomes the kernel name), Python version, and pip packages.
type EnvSpec = conda.EnvSpec

// config collects everything the constructors need. All fields are set via
// Option values; defaults come from defaultConfig.
type config struct {
	WorkDir      string
	InstallerURL string
	Envs         []EnvSpec
	KernelsRoot  string
	SetupLogPath string
	AgentPath    string

	Service         string
	RestartStrategy RestartStrategy

	ProbeEnabled  bool
	ProbePort     int
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration

	Logger *slog.Logger
}

// defaultConfig returns a config populated with all default values. Both
// the constructors and test helpers use this to avoid duplicating the
// default field assignments.
func defaultConfig() config {
	return config{
		WorkDir:         DefaultWorkDir,
		InstallerURL:    DefaultInstallerURL,
		Envs:            DefaultEnvs(),
		KernelsRoot:     DefaultKernelsRoot,
		SetupLogPath:    DefaultSetupLogPath,
		AgentPath:       DefaultAgentPath,
		Service:         DefaultService,
		RestartStrategy: RestartAuto,
		ProbeEnabled:    true,
		ProbePort:       DefaultServicePort,
		ProbeInterval:   DefaultProbeInterval,
		ProbeTimeout:    DefaultProbeTimeout,
	}
}

// Workspace paths derived from WorkDir. The .nbenv directory holds the
// agent's bookkeeping; everything else under WorkDir belongs to conda.

func (c config) stateDir() string     { return filepath.Join(c.WorkDir, ".nbenv") }
func (c config) statusPath() string   { return filepath.Join(c.stateDir(), "status.json") }
func (c config) markerPath() string   { return filepath.Join(c.stateDir(), "setup-complete") }
func (c config) journalPath() string  { return filepath.Join(c.stateDir(), "journal.db") }
func (c config) lockPath() string     { return filepath.Join(c.stateDir(), "bootstrap.lock") }
func (c config) logDir() string       { return filepath.Join(c.stateDir(), "logs") }
func (c config) condaPrefix() string  { return filepath.Join(c.WorkDir, "miniconda") }
func (c config) envsRoot() string     { return filepath.Join(c.condaPrefix(), "envs") }
func (c config) payloadPath() string  { return filepath.Join(c.stateDir(), "miniconda-installer.sh") }
func (c config) condaBinPath() string { return filepath.Join(c.condaPrefix(), "bin", "conda") }
