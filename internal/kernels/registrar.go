package kernels

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/giantswarm/nbenv/internal/fileutil"
	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrEmptyKernelName is returned when registration is attempted without a
// kernel name.
const ErrEmptyKernelName = sentinel.Error("kernel name must not be empty")

// ErrBuiltinKernel is returned when registration would shadow a kernel that
// ships with the notebook server.
const ErrBuiltinKernel = sentinel.Error("kernel name collides with a builtin kernel")

// BuiltinKernelNames are kernelspec names reserved by the stock Jupyter
// installation. Registering over them would hijack the default kernel.
var BuiltinKernelNames = []string{"python3"}

// IsBuiltinKernel reports whether name is reserved by the stock
// installation.
func IsBuiltinKernel(name string) bool {
	return slices.Contains(BuiltinKernelNames, name)
}

// DisplayName returns the kernel display name shown in the notebook UI for
// an environment.
func DisplayName(env string) string {
	return fmt.Sprintf("Custom (%s)", env)
}

// Spec is the kernel.json document of a kernelspec.
type Spec struct {
	Argv        []string `json:"argv"`
	DisplayName string   `json:"display_name"`
	Language    string   `json:"language"`
}

// RegistrarConfig configures a Registrar.
type RegistrarConfig struct {
	// KernelsRoot is the Jupyter kernels directory specs are written under.
	KernelsRoot string
	// Logger (optional, defaults to slog.Default()).
	Logger *slog.Logger
}

func (c RegistrarConfig) validate() error {
	if c.KernelsRoot == "" {
		return errors.New("kernels root must not be empty")
	}
	return nil
}

// Registrar writes kernelspecs.
type Registrar struct {
	config RegistrarConfig
	logger *slog.Logger
}

// NewRegistrar creates a Registrar. It performs no I/O.
func NewRegistrar(cfg RegistrarConfig) (*Registrar, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid registrar config: %w", err)
	}
	r := &Registrar{config: cfg, logger: cfg.Logger}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// SpecPath returns the kernel.json path for a kernel name.
func (r *Registrar) SpecPath(name string) string {
	return filepath.Join(r.config.KernelsRoot, name, "kernel.json")
}

// Register writes the kernelspec for an environment whose interpreter lives
// at pythonPath. Registration is idempotent: re-registering an environment
// rewrites the same spec. Builtin kernel names are rejected.
func (r *Registrar) Register(name, pythonPath string) error {
	if name == "" {
		return ErrEmptyKernelName
	}
	if IsBuiltinKernel(name) {
		return fmt.Errorf("%w: %s", ErrBuiltinKernel, name)
	}
	if pythonPath == "" {
		return errors.New("python path must not be empty")
	}

	spec := Spec{
		Argv:        []string{pythonPath, "-m", "ipykernel_launcher", "-f", "{connection_file}"},
		DisplayName: DisplayName(name),
		Language:    "python",
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode kernelspec %s: %w", name, err)
	}

	if err := fileutil.WriteFileAtomic(r.SpecPath(name), data, 0o644); err != nil {
		return fmt.Errorf("write kernelspec %s: %w", name, err)
	}

	r.logger.Info("kernel registered", "kernel", name, "display_name", spec.DisplayName)
	return nil
}

// Registered reports whether a kernelspec exists for name.
func (r *Registrar) Registered(name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyKernelName
	}
	return fileutil.Exists(r.SpecPath(name))
}

// List returns the names of registered kernelspecs in sorted order,
// including builtins if present under the kernels root.
func (r *Registrar) List() ([]string, error) {
	names, err := fileutil.ListSubdirs(r.config.KernelsRoot)
	if err != nil {
		return nil, fmt.Errorf("list kernelspecs: %w", err)
	}
	return names, nil
}
