package diag

import (
	"context"

	"netsage/internal/models"

	"golang.org/x/sync/errgroup"
)

// ReachabilityChecker samples TCP reachability of infrastructure hosts such
// as the gateway and the configured DNS servers.
type ReachabilityChecker struct {
	sampler *LatencySampler
	targets []string
	port    int
}

// NewReachabilityChecker creates a checker connecting to port on every target
func NewReachabilityChecker(sampler *LatencySampler, targets []string, port int) *ReachabilityChecker {
	return &ReachabilityChecker{
		sampler: sampler,
		targets: targets,
		port:    port,
	}
}

// Run samples every target concurrently; results keep the target order
func (r *ReachabilityChecker) Run(ctx context.Context) []models.LatencyStats {
	results := make([]models.LatencyStats, len(r.targets))

	var g errgroup.Group
	for i, target := range r.targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = r.sampler.Sample(ctx, target, r.port)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
