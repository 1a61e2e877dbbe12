package lifecycle

import (
	"context"

	"github.com/giantswarm/nbenv/internal/conda"
)

// Installer stages and runs the Miniconda installer.
// Implemented by *conda.Installer; tests substitute fakes.
type Installer interface {
	Download(ctx context.Context) error
	Install(ctx context.Context) error
}

// EnvProvisioner creates conda environments, installs their packages, and
// reports what is present under the environments root.
// Implemented by *conda.EnvManager; tests substitute fakes.
type EnvProvisioner interface {
	Create(ctx context.Context, spec conda.EnvSpec) error
	InstallPackages(ctx context.Context, spec conda.EnvSpec) error
	List() ([]string, error)
	Exists(name string) (bool, error)
	PythonPath(name string) string
}

// KernelRegistrar writes Jupyter kernelspecs for provisioned environments.
// Implemented by *kernels.Registrar; tests substitute fakes.
type KernelRegistrar interface {
	Register(name, pythonPath string) error
}

// ServiceRestarter restarts the notebook service.
// Implemented by *restart.ServiceRestarter; tests substitute fakes.
type ServiceRestarter interface {
	Restart(ctx context.Context) error
}

// ReadinessProbe confirms the notebook service is accepting connections
// after a restart. Implemented via netutil.WaitListening; tests substitute
// fakes.
type ReadinessProbe interface {
	Wait(ctx context.Context) error
}
