package process

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/giantswarm/nbenv/internal/fileutil"
	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrEmptyLogPath is returned when StartDetached is called with an empty log path.
const ErrEmptyLogPath = sentinel.Error("log path must not be empty")

// StartDetached launches cmd in its own session with stdout and stderr
// appended to a single log file, then releases the process handle and
// returns its PID. The caller does not wait for the command: this is the
// hand-off used by the create-phase bootstrapper so the outer provisioning
// call returns promptly while setup continues in the background.
//
// Unlike Run, the child does not receive a parent-death signal: it must
// survive the parent CLI process exiting. Once the parent exits the child
// is reparented to init, so no zombie is left behind.
//
// Failures of the detached command are not reported here; they surface
// through the status record the worker writes, and through the log file.
func StartDetached(cmd *exec.Cmd, logPath string) (int, error) {
	if cmd == nil {
		return 0, ErrNilCmd
	}
	if cmd.Path == "" {
		return 0, ErrEmptyCmdPath
	}
	if logPath == "" {
		return 0, ErrEmptyLogPath
	}

	if err := fileutil.EnsureDirForFile(logPath); err != nil {
		return 0, fmt.Errorf("prepare detach log: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		return 0, fmt.Errorf("open detach log %s: %w", logPath, err)
	}
	// The parent's handle is closed after Start; the child holds its own
	// descriptor, inherited at fork time.
	defer func() { _ = logFile.Close() }()

	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	detachSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start detached command: %w", err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release detached process: %w", err)
	}
	return pid, nil
}
