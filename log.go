package nbenv

import (
	"log/slog"

	"github.com/giantswarm/nbenv/internal/lifecycle"
)

// SetLogger replaces the package-level logger used by nbenv. If l is nil,
// the logger resets to the default: slog.Default() with a "component"
// attribute, re-derived on the next use.
//
// SetLogger is safe to call concurrently with other nbenv operations. A
// per-instance logger set via WithLogger takes precedence.
func SetLogger(l *slog.Logger) {
	lifecycle.SetLogger(l)
}
