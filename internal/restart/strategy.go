package restart

// Strategy selects how the notebook service is restarted.
type Strategy int

const (
	// StrategyAuto detects the init system at runtime.
	StrategyAuto Strategy = iota
	// StrategySystemd restarts via systemctl.
	StrategySystemd
	// StrategyUpstart restarts via initctl.
	StrategyUpstart
	// StrategySysV restarts via the service wrapper.
	StrategySysV
)

var strategyNames = map[Strategy]string{
	StrategyAuto:    "auto",
	StrategySystemd: "systemd",
	StrategyUpstart: "upstart",
	StrategySysV:    "sysv",
}

var strategiesByName = map[string]Strategy{
	"auto":    StrategyAuto,
	"systemd": StrategySystemd,
	"upstart": StrategyUpstart,
	"sysv":    StrategySysV,
}

// IsValid reports whether s is one of the defined strategies.
func (s Strategy) IsValid() bool {
	_, ok := strategyNames[s]
	return ok
}

// String returns the lowercase name of the strategy, or "unknown" for
// undefined values.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStrategy converts a lowercase strategy name to its Strategy value.
func ParseStrategy(name string) (Strategy, bool) {
	s, ok := strategiesByName[name]
	return s, ok
}
