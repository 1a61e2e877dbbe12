package lifecycle

import "github.com/giantswarm/nbenv/internal/sentinel"

// ErrBootstrapInProgress is returned when a bootstrap run is requested
// while another worker holds the bootstrap lock on this instance.
const ErrBootstrapInProgress = sentinel.Error("bootstrap already in progress")

// ErrNoEnvironments is returned when a bootstrap is configured with an
// empty environment list.
const ErrNoEnvironments = sentinel.Error("at least one environment must be configured")
