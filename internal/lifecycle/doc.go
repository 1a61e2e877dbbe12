// Package lifecycle implements the two phases of notebook instance
// provisioning.
//
// The create phase (Bootstrapper) runs once when the instance is first
// provisioned: it downloads and installs Miniconda, creates the configured
// conda environments, installs their packages, and records the outcome in a
// status record plus a step journal. Because the platform kills lifecycle
// hooks that overrun their time limit, the bootstrapper normally runs as a
// detached worker launched via Detach, letting the hook return immediately.
//
// The start phase (Activator) runs on every instance start: it checks the
// bootstrap status, registers a Jupyter kernel per provisioned environment,
// and restarts the notebook service so the kernels appear. When the
// bootstrap has not finished yet, activation defers without error; the next
// start picks the kernels up.
package lifecycle
