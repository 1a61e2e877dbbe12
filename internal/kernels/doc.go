// Package kernels registers Jupyter kernelspecs for provisioned conda
// environments.
//
// A kernelspec is a directory under the Jupyter kernels root containing a
// kernel.json that tells the notebook server how to launch the kernel. The
// registrar writes one spec per environment, named after the environment,
// with a display name of the form "Custom (<env>)".
package kernels
