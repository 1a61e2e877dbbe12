//go:build !linux

package process

import "os/exec"

// configureSysProcAttr is a no-op on non-Linux platforms.
// Pdeathsig is Linux-specific.
func configureSysProcAttr(_ *exec.Cmd) {}

// detachSysProcAttr is a no-op on non-Linux platforms. Session detachment is
// only needed on the notebook instance itself, which is Linux.
func detachSysProcAttr(_ *exec.Cmd) {}
