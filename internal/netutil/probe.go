package netutil

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/giantswarm/nbenv/internal/process"
	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrInvalidPort is returned when a probe is requested for a port outside
// the valid TCP range.
const ErrInvalidPort = sentinel.Error("port must be between 1 and 65535")

// readinessDialTimeout bounds a single connection attempt. Probes run
// against localhost, so a dial either succeeds or is refused quickly.
const readinessDialTimeout = 1 * time.Second

// WaitListening polls until a TCP listener accepts connections on
// host:port, or the timeout elapses. It is used after a service restart to
// confirm the notebook server came back before reporting success.
func WaitListening(ctx context.Context, host string, port int, interval, timeout time.Duration, logger *slog.Logger) error {
	if port < 1 || port > 65535 {
		return ErrInvalidPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	check := func(ctx context.Context, _ int) (bool, error) {
		dialer := net.Dialer{Timeout: readinessDialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			// Refused or timed out; the listener is not up yet.
			return false, nil
		}
		_ = conn.Close()
		return true, nil
	}

	err := process.WaitReady(ctx, check, process.WaitReadyConfig{
		Interval: interval,
		Timeout:  timeout,
		Name:     addr,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("tcp listener on %s: %w", addr, err)
	}
	return nil
}
