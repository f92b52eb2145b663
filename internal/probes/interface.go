package probes

import (
	"context"
	"time"

	"netsage/internal/models"
)

// Prober defines the interface for single-port reachability probes
type Prober interface {
	// Name returns the probe name
	Name() string

	// Probe attempts one connection to ip:port within timeout.
	// Every failure is reported through the outcome state, never as an error value.
	Probe(ctx context.Context, ip string, port int, timeout time.Duration) models.ProbeOutcome
}
