//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr sets Pdeathsig so the child receives SIGTERM if this
// process dies. This prevents orphaned installer or conda processes if the
// agent crashes mid-step.
func configureSysProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Pdeathsig = syscall.SIGTERM
}

// detachSysProcAttr puts the child in its own session so it survives the
// parent exiting. The opposite of configureSysProcAttr: the detached
// bootstrap worker must keep running after the create-phase CLI returns.
func detachSysProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
}
