package diag

import (
	"context"
	"fmt"
	"time"

	"netsage/internal/config"
	"netsage/internal/models"
	"netsage/internal/probes"
	"netsage/internal/scanner"

	"go.uber.org/zap"
)

// LatencySampler measures round-trip latency with repeated TCP connects.
// A refused connection still counts as an answered sample.
type LatencySampler struct {
	prober   probes.Prober
	resolver Resolver
	samples  int
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewLatencySampler creates a sampler from the latency configuration.
// A nil resolver falls back to net.DefaultResolver.
func NewLatencySampler(prober probes.Prober, resolver Resolver, cfg config.LatencyConfig, logger *zap.Logger) *LatencySampler {
	return &LatencySampler{
		prober:   prober,
		resolver: resolver,
		samples:  cfg.Samples,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Sample resolves host once, then connects to the address up to the
// configured number of times. Lookup time is not part of any sample.
func (s *LatencySampler) Sample(ctx context.Context, host string, port int) models.LatencyStats {
	stats := models.LatencyStats{Target: host, Port: port}

	address, err := scanner.ResolveTarget(ctx, s.resolver, host)
	if err != nil {
		stats.Error = fmt.Sprintf("could not resolve %s: %s", host, lookupError(err))
		s.logger.Debug("Latency target resolution failed",
			zap.String("host", host),
			zap.Error(err),
		)
		return stats
	}
	stats.Address = address

	var delays []float64
loop:
	for i := 0; i < s.samples; i++ {
		if i > 0 {
			select {
			case <-time.After(s.interval):
			case <-ctx.Done():
				break loop
			}
		}

		stats.Sent++
		outcome := s.prober.Probe(ctx, address, port, s.timeout)
		switch outcome.State {
		case models.PortStateOpen, models.PortStateClosed:
			delays = append(delays, float64(outcome.RTT.Microseconds())/1000)
		default:
			s.logger.Debug("Latency sample lost",
				zap.String("host", host),
				zap.Int("port", port),
				zap.String("reason", outcome.Reason),
			)
		}
	}

	if len(delays) == 0 {
		stats.Error = fmt.Sprintf("could not measure latency to %s", host)
		if stats.Sent > 0 {
			stats.PacketLoss = 100
		}
		return stats
	}

	minDelay, maxDelay, sum := delays[0], delays[0], 0.0
	for _, d := range delays {
		sum += d
		if d < minDelay {
			minDelay = d
		}
		if d > maxDelay {
			maxDelay = d
		}
	}

	stats.Samples = len(delays)
	stats.AverageMS = round(sum/float64(len(delays)), 2)
	stats.MinimumMS = round(minDelay, 2)
	stats.MaximumMS = round(maxDelay, 2)
	stats.PacketLoss = round(float64(stats.Sent-stats.Samples)/float64(stats.Sent)*100, 1)
	return stats
}
