package nbenv

import "github.com/giantswarm/nbenv/internal/kernels"

// BuiltinKernelNames are kernelspec names reserved by the stock Jupyter
// installation. Environments must not use these names: registering over
// them would hijack the default kernel.
func BuiltinKernelNames() []string {
	names := make([]string, len(kernels.BuiltinKernelNames))
	copy(names, kernels.BuiltinKernelNames)
	return names
}

// KernelDisplayName returns the display name shown in the notebook UI for
// an environment's kernel, e.g. "Custom (tensorflow2_p39)".
func KernelDisplayName(env string) string {
	return kernels.DisplayName(env)
}
