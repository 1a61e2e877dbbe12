package conda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/giantswarm/nbenv/internal/fileutil"
	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrEmptyEnvName is returned when an environment operation is attempted
// without a name.
const ErrEmptyEnvName = sentinel.Error("environment name must not be empty")

// ErrEmptyPython is returned when an environment spec has no Python version.
const ErrEmptyPython = sentinel.Error("python version must not be empty")

// EnvSpec describes one conda environment to provision.
type EnvSpec struct {
	// Name of the environment, which also becomes the kernel name.
	Name string `mapstructure:"name" yaml:"name"`
	// Python version for the environment, e.g. "3.9".
	Python string `mapstructure:"python" yaml:"python"`
	// Packages are pip requirement strings installed into the environment,
	// e.g. "tensorflow==2.11.0".
	Packages []string `mapstructure:"packages" yaml:"packages"`
}

// Validate checks the spec fields.
func (s EnvSpec) Validate() error {
	if s.Name == "" {
		return ErrEmptyEnvName
	}
	if s.Python == "" {
		return ErrEmptyPython
	}
	return nil
}

// EnvManagerConfig configures an EnvManager.
type EnvManagerConfig struct {
	// CondaBin is the conda executable to drive.
	CondaBin string
	// EnvsRoot is the directory conda creates environments under.
	EnvsRoot string
	// DataDir holds per-command logs.
	DataDir string

	// Runner executes conda commands (optional, defaults to ExecRunner).
	Runner CommandRunner
	// Logger (optional, defaults to slog.Default()).
	Logger *slog.Logger
}

func (c EnvManagerConfig) validate() error {
	if c.CondaBin == "" {
		return errors.New("conda binary path must not be empty")
	}
	if c.EnvsRoot == "" {
		return errors.New("envs root must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data dir must not be empty")
	}
	return nil
}

// EnvManager creates conda environments and installs packages into them.
type EnvManager struct {
	config EnvManagerConfig
	runner CommandRunner
	logger *slog.Logger
}

// NewEnvManager creates an EnvManager. It performs no I/O.
func NewEnvManager(cfg EnvManagerConfig) (*EnvManager, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid env manager config: %w", err)
	}
	m := &EnvManager{
		config: cfg,
		runner: cfg.Runner,
		logger: cfg.Logger,
	}
	if m.runner == nil {
		m.runner = ExecRunner{Logger: cfg.Logger}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// EnvPath returns the directory of a named environment.
func (m *EnvManager) EnvPath(name string) string {
	return filepath.Join(m.config.EnvsRoot, name)
}

// PythonPath returns the python executable of a named environment.
func (m *EnvManager) PythonPath(name string) string {
	return filepath.Join(m.EnvPath(name), "bin", "python")
}

// Exists reports whether the named environment has been created.
func (m *EnvManager) Exists(name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyEnvName
	}
	return fileutil.Exists(m.PythonPath(name))
}

// List returns the names of existing environments in sorted order.
func (m *EnvManager) List() ([]string, error) {
	names, err := fileutil.ListSubdirs(m.config.EnvsRoot)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	return names, nil
}

// Create creates the environment described by spec with its Python version.
// An environment that already exists is left untouched; interrupted
// bootstraps re-run Create and skip ahead to package installation.
func (m *EnvManager) Create(ctx context.Context, spec EnvSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	exists, err := m.Exists(spec.Name)
	if err != nil {
		return fmt.Errorf("check environment %s: %w", spec.Name, err)
	}
	if exists {
		m.logger.Debug("environment already exists", "env", spec.Name)
		return nil
	}

	if err := fileutil.EnsureDir(m.config.DataDir); err != nil {
		return fmt.Errorf("prepare env data dir: %w", err)
	}

	m.logger.Info("creating environment", "env", spec.Name, "python", spec.Python)

	cmd := exec.CommandContext(ctx, m.config.CondaBin,
		"create", "--yes", "--name", spec.Name, "python="+spec.Python)
	if err := m.runner.Run(ctx, cmd, m.config.DataDir, "conda-create-"+spec.Name); err != nil {
		return fmt.Errorf("create environment %s: %w", spec.Name, err)
	}
	return nil
}

// InstallPackages pip-installs the spec's packages into its environment
// using the environment's own interpreter. A spec with no packages is a
// no-op.
func (m *EnvManager) InstallPackages(ctx context.Context, spec EnvSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if len(spec.Packages) == 0 {
		return nil
	}

	if err := fileutil.EnsureDir(m.config.DataDir); err != nil {
		return fmt.Errorf("prepare env data dir: %w", err)
	}

	m.logger.Info("installing packages", "env", spec.Name, "packages", len(spec.Packages))

	args := append([]string{"-m", "pip", "install"}, spec.Packages...)
	cmd := exec.CommandContext(ctx, m.PythonPath(spec.Name), args...)
	if err := m.runner.Run(ctx, cmd, m.config.DataDir, "pip-install-"+spec.Name); err != nil {
		return fmt.Errorf("install packages into %s: %w", spec.Name, err)
	}
	return nil
}
