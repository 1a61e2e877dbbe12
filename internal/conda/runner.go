package conda

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/giantswarm/nbenv/internal/process"
)

// CommandRunner executes an external command to completion with its output
// captured under dataDir. The production implementation is ExecRunner;
// tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, cmd *exec.Cmd, dataDir, name string) error
}

// ExecRunner runs commands via the process package, with per-command log
// files and signal-based termination on context cancel.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, cmd *exec.Cmd, dataDir, name string) error {
	return process.Run(ctx, cmd, dataDir, name, r.Logger)
}
