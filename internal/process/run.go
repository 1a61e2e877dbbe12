package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrNilCmd is returned when Run is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when Run is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// ErrEmptyDataDir is returned when Run is called with an empty data directory.
const ErrEmptyDataDir = sentinel.Error("data directory must not be empty")

// termGracePeriod is the maximum time to wait for a command to exit after
// SIGTERM before escalating to SIGKILL.
const termGracePeriod = 5 * time.Second

// killDrainTimeout is the hard upper bound for waiting on the done channel
// after SIGKILL has been sent (or after the process has already exited).
// SIGKILL cannot be caught, so the process should exit almost immediately.
// This timeout is a safety net against indefinite blocking if cmd.Wait
// never returns (e.g., due to stuck I/O or kernel issues).
const killDrainTimeout = 10 * time.Second

// Run executes cmd to completion with stdout and stderr captured in
// per-command log files under dataDir. The name selects the log file names
// and prefixes error messages.
//
// If ctx is canceled while the command is running, Run sends SIGTERM,
// escalates to SIGKILL after a grace period, and returns ctx's error.
// A command that exits non-zero returns an error referencing the stderr
// log path, since that log is the only diagnostic artifact of a failed
// bootstrap step.
func Run(ctx context.Context, cmd *exec.Cmd, dataDir, name string, logger *slog.Logger) error {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if dataDir == "" {
		return ErrEmptyDataDir
	}
	if logger == nil {
		logger = slog.Default()
	}

	logFiles, err := NewLogFiles(dataDir, name)
	if err != nil {
		return fmt.Errorf("create %s logs: %w", name, err)
	}
	defer logFiles.Close()

	cmd.Stdout = logFiles.stdoutFile
	cmd.Stderr = logFiles.stderrFile
	configureSysProcAttr(cmd)

	start := time.Now()
	logger.Debug("running command", "name", name, "path", cmd.Path)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	// Exactly one goroutine calls cmd.Wait; calling it twice is undefined
	// behavior. The done channel is consumed either by the success path
	// below or by the termination sequence.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case waitErr := <-done:
		if waitErr != nil {
			return fmt.Errorf("%s failed (see %s): %w", name, logFiles.StderrPath(), waitErr)
		}
		logger.Debug("command finished", "name", name, "elapsed", time.Since(start))
		return nil

	case <-ctx.Done():
		if termErr := terminate(cmd, done, name); termErr != nil {
			logger.Warn("command termination after context cancel failed; process may be orphaned",
				"name", name, "error", termErr)
		}
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
}

// drainDone reads from the done channel with the given timeout as a hard
// upper bound. Under normal conditions cmd.Wait returns almost immediately
// after the process exits, so this timeout should never fire.
//
// Returns true and the cmd.Wait error if the channel delivered in time,
// or false and a nil error if the timeout elapsed.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// terminate implements the SIGTERM-then-SIGKILL shutdown sequence using the
// pre-existing done channel that already has a goroutine calling cmd.Wait.
// The done channel must receive the result of exactly one cmd.Wait call.
//
// Shutdown flow:
//  1. Send SIGTERM for graceful shutdown.
//  2. Schedule SIGKILL via time.AfterFunc after a grace period (canceled if
//     the process exits first).
//  3. Wait for process exit, bounded by killDrainTimeout after the kill.
func terminate(cmd *exec.Cmd, done <-chan error, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process already exited; drain the wait goroutine with a hard
		// upper bound to avoid blocking indefinitely.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out draining process after signal failure", name)
		}
		return expectSignalExit(waitErr, name)
	}

	// Schedule SIGKILL after the grace period. If the process exits before
	// the grace period, killTimer.Stop() cancels the escalation. Kill after
	// Wait (process already exited) is a harmless no-op error that we
	// intentionally discard.
	killTimer := time.AfterFunc(termGracePeriod, func() {
		_ = cmd.Process.Kill()
	})
	defer killTimer.Stop()

	ok, waitErr := drainDone(done, termGracePeriod+killDrainTimeout)
	if !ok {
		return fmt.Errorf("%s: timed out waiting for process to exit after SIGKILL", name)
	}
	return expectSignalExit(waitErr, name)
}

// expectSignalExit interprets an error from cmd.Wait after sending a
// termination signal. Exit errors caused by SIGTERM or SIGKILL are expected
// and treated as successful stops.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			sig := status.Signal()
			if sig == syscall.SIGTERM || sig == syscall.SIGKILL {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
