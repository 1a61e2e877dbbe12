// Package process provides utilities for running external commands.
//
// It defines Run for executing a command to completion with per-command log
// files and a SIGTERM-then-SIGKILL termination sequence on context
// cancellation, StartDetached for launching a session-detached worker whose
// output goes to a single append-only log, WaitReady for polling-based
// readiness checks, and LogFiles for managing command stdout/stderr log files.
package process
