// Package diag runs the network diagnostics that surround a port scan:
// host information, reachability, DNS resolution, latency sampling and
// DNS server benchmarking.
package diag

import (
	"context"
	"fmt"
	"time"

	"netsage/internal/config"
	"netsage/internal/models"
	"netsage/internal/report"
	"netsage/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PortScanner defines the methods needed for port scanning
type PortScanner interface {
	Scan(ctx context.Context, target string, cfg config.ScanConfig) (models.ScanReport, error)
}

// Checks holds the optional diagnostics; a nil field skips that check
type Checks struct {
	Host         *HostInspector
	Reachability *ReachabilityChecker
	Latency      *LatencySampler
	DNSBenchmark *DNSBenchmarker
}

// Runner executes every enabled diagnostic against one target
type Runner struct {
	cfg      *config.Config
	scanner  PortScanner
	resolver Resolver
	checks   Checks
	labels   report.Labeler
	logger   *zap.Logger
}

// NewRunner creates a diagnostics runner. A nil resolver skips the DNS lookup.
func NewRunner(
	cfg *config.Config,
	scanner PortScanner,
	resolver Resolver,
	checks Checks,
	labels report.Labeler,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:      cfg,
		scanner:  scanner,
		resolver: resolver,
		checks:   checks,
		labels:   labels,
		logger:   logger,
	}
}

// Run executes the diagnostics concurrently and aggregates them into one report.
// Only an invalid scan request is returned as an error.
func (r *Runner) Run(ctx context.Context, target string) (models.DiagnosticReport, error) {
	ctx, scanID, log := logger.WithScanID(ctx, r.logger)

	scanCfg, err := r.cfg.ScanConfig()
	if err != nil {
		return models.DiagnosticReport{}, fmt.Errorf("invalid scan configuration: %w", err)
	}

	result := models.DiagnosticReport{
		ScanID:    scanID,
		Target:    target,
		StartedAt: time.Now(),
	}

	log.Info("Starting diagnostics",
		zap.String("target", target),
		zap.Bool("host", r.checks.Host != nil),
		zap.Bool("dns", r.cfg.DNS.Enabled && r.resolver != nil),
		zap.Bool("reachability", r.checks.Reachability != nil),
		zap.Bool("latency", r.checks.Latency != nil),
		zap.Bool("dns_benchmark", r.checks.DNSBenchmark != nil),
	)

	g, gctx := errgroup.WithContext(ctx)

	if r.checks.Host != nil {
		g.Go(func() error {
			host := r.checks.Host.Inspect(gctx)
			result.Host = &host
			return nil
		})
	}

	if r.cfg.DNS.Enabled && r.resolver != nil {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, r.cfg.DNS.Timeout)
			defer cancel()
			dns := LookupHost(lookupCtx, r.resolver, target)
			result.DNS = &dns
			return nil
		})
	}

	if r.checks.Reachability != nil {
		g.Go(func() error {
			result.Reachability = r.checks.Reachability.Run(gctx)
			return nil
		})
	}

	if r.checks.Latency != nil {
		g.Go(func() error {
			stats := r.checks.Latency.Sample(gctx, target, r.cfg.Latency.Port)
			result.Latency = &stats
			return nil
		})
	}

	if r.checks.DNSBenchmark != nil {
		g.Go(func() error {
			result.DNSServers = r.checks.DNSBenchmark.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		scan, err := r.scanner.Scan(gctx, target, scanCfg)
		if err != nil {
			return err
		}
		ports := report.Assemble(scan, r.labels)
		result.Ports = &ports
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Diagnostics failed", zap.Error(err))
		return models.DiagnosticReport{}, err
	}

	log.Info("Diagnostics completed",
		zap.Duration("duration", time.Since(result.StartedAt)),
	)

	return result, nil
}
