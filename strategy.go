package nbenv

import "github.com/giantswarm/nbenv/internal/restart"

// RestartStrategy selects how the notebook service is restarted after
// kernel registration.
type RestartStrategy = restart.Strategy

// Restart strategies accepted by WithRestartStrategy.
const (
	// RestartAuto detects the init system at runtime. This is the default.
	RestartAuto = restart.StrategyAuto

	// RestartSystemd restarts via systemctl.
	RestartSystemd = restart.StrategySystemd

	// RestartUpstart restarts via initctl.
	RestartUpstart = restart.StrategyUpstart

	// RestartSysV restarts via the service wrapper.
	RestartSysV = restart.StrategySysV
)

// ParseRestartStrategy converts a lowercase strategy name ("auto",
// "systemd", "upstart", "sysv") to its RestartStrategy value.
func ParseRestartStrategy(name string) (RestartStrategy, bool) {
	return restart.ParseStrategy(name)
}
