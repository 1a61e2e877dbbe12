package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/nbenv/internal/sentinel"
)

// ErrNilCheck is returned when WaitReady is called with a nil check function.
const ErrNilCheck = sentinel.Error("readiness check must not be nil")

// ErrNonPositiveInterval is returned when WaitReady is configured with a
// non-positive polling interval.
const ErrNonPositiveInterval = sentinel.Error("polling interval must be positive")

// ErrNonPositiveTimeout is returned when WaitReady is configured with a
// non-positive timeout.
const ErrNonPositiveTimeout = sentinel.Error("timeout must be positive")

// ReadinessCheck reports whether the polled resource is ready. A non-nil
// error aborts polling immediately; returning (false, nil) schedules another
// attempt.
type ReadinessCheck func(ctx context.Context, attempt int) (bool, error)

// WaitReadyConfig configures WaitReady polling.
type WaitReadyConfig struct {
	// Interval between readiness checks.
	Interval time.Duration
	// Timeout is the total time budget across all attempts.
	Timeout time.Duration
	// Name identifies the polled resource in errors and logs.
	Name string
	// Logger for per-attempt debug output. Defaults to slog.Default.
	Logger *slog.Logger
}

func (c WaitReadyConfig) validate() error {
	if c.Interval <= 0 {
		return ErrNonPositiveInterval
	}
	if c.Timeout <= 0 {
		return ErrNonPositiveTimeout
	}
	return nil
}

// WaitReady polls check at the configured interval until it reports ready,
// the timeout elapses, or ctx is canceled. The first check runs immediately,
// without waiting for the first tick.
func WaitReady(ctx context.Context, check ReadinessCheck, cfg WaitReadyConfig) error {
	if check == nil {
		return ErrNilCheck
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	start := time.Now()
	for attempt := 1; ; attempt++ {
		ready, err := check(ctx, attempt)
		if err != nil {
			return fmt.Errorf("wait for %s: %w", cfg.Name, err)
		}
		if ready {
			logger.Debug("resource ready", "name", cfg.Name, "attempts", attempt, "elapsed", time.Since(start))
			return nil
		}
		logger.Debug("resource not ready yet", "name", cfg.Name, "attempt", attempt)

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w after %d attempts", cfg.Name, ctx.Err(), attempt)
		case <-ticker.C:
		}
	}
}
