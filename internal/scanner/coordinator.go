package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"netsage/internal/config"
	"netsage/internal/models"
	"netsage/internal/ports"
	"netsage/internal/probes"
	"netsage/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultProbeTimeout   = 1 * time.Second
	DefaultMaxConcurrency = 100
)

// Resolver resolves host names; *net.Resolver satisfies it
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Coordinator fans port probes out against a single target
type Coordinator struct {
	prober   probes.Prober
	resolver Resolver
	logger   *zap.Logger
}

// NewCoordinator creates a new scan coordinator.
// A nil resolver falls back to net.DefaultResolver.
func NewCoordinator(prober probes.Prober, resolver Resolver, logger *zap.Logger) *Coordinator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Coordinator{
		prober:   prober,
		resolver: resolver,
		logger:   logger,
	}
}

// Scan probes every distinct port of cfg against target and returns the outcomes
// ascending by port. Only invalid input is returned as an error; resolution
// failures, probe failures and the deadline are reported as port outcomes.
func (c *Coordinator) Scan(ctx context.Context, target string, cfg config.ScanConfig) (models.ScanReport, error) {
	startTime := time.Now()

	target = strings.TrimSpace(target)
	portList, cfg, err := normalize(target, cfg)
	if err != nil {
		return models.ScanReport{}, fmt.Errorf("invalid scan request: %w", err)
	}

	scanID, ok := logger.ScanIDFromContext(ctx)
	if !ok {
		scanID = uuid.New()
	}
	log := c.logger.With(
		zap.String("scan_id", scanID.String()),
		zap.String("target", target),
	)

	scanCtx, cancel := context.WithTimeout(ctx, cfg.Deadline)
	defer cancel()

	log.Info("Starting port scan",
		zap.Int("ports", len(portList)),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Duration("probe_timeout", cfg.ProbeTimeout),
		zap.Duration("deadline", cfg.Deadline),
	)

	report := models.ScanReport{
		ScanID:    scanID,
		Target:    target,
		StartedAt: startTime,
	}

	address, err := ResolveTarget(scanCtx, c.resolver, target)
	if err != nil {
		// the caller gave up while resolving; the host itself was not judged
		if ctx.Err() != nil {
			log.Warn("Scan stopped during target resolution", zap.Error(ctx.Err()))
			report.Outcomes = newCollector(portList).seal(missingReason(ctx))
			report.Duration = time.Since(startTime)
			return report, nil
		}
		log.Warn("Target resolution failed, skipping probes", zap.Error(err))
		report.Outcomes = unreachable(portList)
		report.Duration = time.Since(startTime)
		return report, nil
	}
	report.Address = address

	outcomes := newCollector(portList)
	c.dispatch(scanCtx, address, cfg, outcomes, log)

	missing := missingReason(ctx)
	report.Outcomes = outcomes.seal(missing)
	report.Duration = time.Since(startTime)

	if pending := outcomes.pending(); pending > 0 {
		log.Warn("Scan ended with unprobed ports",
			zap.Int("pending", pending),
			zap.String("reason", missing),
		)
	}

	log.Info("Port scan completed",
		zap.String("address", address),
		zap.Int("ports", len(report.Outcomes)),
		zap.Int("open_ports", countState(report.Outcomes, models.PortStateOpen)),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

// dispatch runs probes with at most cfg.MaxConcurrency in flight and returns
// once every probe finished or scanCtx is done, whichever comes first.
// Probes still running after that are abandoned; the sealed collector drops their outcomes.
func (c *Coordinator) dispatch(scanCtx context.Context, address string, cfg config.ScanConfig, outcomes *collector, log *zap.Logger) {
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrency))

	dispatchCtx, stopDispatch := context.WithCancel(scanCtx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer stopDispatch()

		var wg sync.WaitGroup
		for i, port := range outcomes.ports {
			if err := sem.Acquire(dispatchCtx, 1); err != nil {
				break
			}
			// Acquire may succeed on a done context
			if dispatchCtx.Err() != nil {
				sem.Release(1)
				break
			}

			wg.Add(1)
			go func(i, port int) {
				defer wg.Done()
				defer sem.Release(1)

				outcome := c.probe(scanCtx, address, port, cfg.ProbeTimeout, log)
				if outcomes.record(i, outcome) && outcome.HostUnreachable {
					log.Warn("Host unreachable, stopping dispatch",
						zap.Int("port", port),
						zap.String("reason", outcome.Reason),
					)
					stopDispatch()
				}
			}(i, port)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-scanCtx.Done():
		log.Debug("Scan deadline reached while probes pending", zap.Error(scanCtx.Err()))
	}
}

// probe runs a single probe and guarantees a classified outcome for port
func (c *Coordinator) probe(ctx context.Context, address string, port int, timeout time.Duration, log *zap.Logger) (outcome models.ProbeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Probe panicked",
				zap.String("probe", c.prober.Name()),
				zap.Int("port", port),
				zap.Any("panic", r),
			)
			outcome = models.ProbeOutcome{
				Port:   port,
				State:  models.PortStateError,
				Reason: fmt.Sprintf("probe panic: %v", r),
			}
		}
	}()

	outcome = c.prober.Probe(ctx, address, port, timeout)
	outcome.Port = port
	if !outcome.State.Valid() {
		outcome.State = models.PortStateError
		outcome.Reason = "unclassified probe outcome"
	}
	return outcome
}

// ResolveTarget returns the address to connect to for target, preferring IPv4.
// IP literals, bracketed or not, are returned without a lookup.
func ResolveTarget(ctx context.Context, resolver Resolver, target string) (string, error) {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(target), "["), "]")
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	ips, err := resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	if len(ips) > 0 {
		return ips[0].String(), nil
	}
	return "", fmt.Errorf("no addresses found for host %s", host)
}

// normalize validates the request, deduplicates ports and fills defaults
func normalize(target string, cfg config.ScanConfig) ([]int, config.ScanConfig, error) {
	if target == "" {
		return nil, cfg, &ValidationError{Field: "target", Msg: "target cannot be empty"}
	}
	if len(cfg.Ports) == 0 {
		return nil, cfg, &ValidationError{Field: "ports", Msg: "port set cannot be empty"}
	}
	for _, p := range cfg.Ports {
		if !ports.Valid(p) {
			return nil, cfg, &ValidationError{
				Field: "ports",
				Msg:   fmt.Sprintf("port %d outside %d..%d", p, ports.MinPort, ports.MaxPort),
			}
		}
	}
	if cfg.ProbeTimeout < 0 {
		return nil, cfg, &ValidationError{Field: "probe_timeout", Msg: "probe timeout cannot be negative"}
	}
	if cfg.MaxConcurrency < 0 {
		return nil, cfg, &ValidationError{Field: "max_concurrency", Msg: "max concurrency cannot be negative"}
	}
	if cfg.Deadline < 0 {
		return nil, cfg, &ValidationError{Field: "deadline", Msg: "deadline cannot be negative"}
	}

	portList := ports.Dedupe(cfg.Ports)

	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxConcurrency > len(portList) {
		cfg.MaxConcurrency = len(portList)
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = DefaultDeadline(len(portList), cfg.MaxConcurrency, cfg.ProbeTimeout)
	}
	cfg.Ports = portList

	return portList, cfg, nil
}

// missingReason is the reason given to ports left without an outcome
func missingReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return models.ReasonCancelled
	}
	return models.ReasonDeadlineExceeded
}

// DefaultDeadline is the scan budget used when none is configured:
// one probe timeout per dispatch wave plus one spare for resolution.
func DefaultDeadline(ports, concurrency int, timeout time.Duration) time.Duration {
	if concurrency <= 0 {
		concurrency = 1
	}
	waves := (ports + concurrency - 1) / concurrency
	return time.Duration(waves+1) * timeout
}

func unreachable(portList []int) []models.ProbeOutcome {
	out := make([]models.ProbeOutcome, len(portList))
	for i, port := range portList {
		out[i] = models.ProbeOutcome{
			Port:            port,
			State:           models.PortStateError,
			Reason:          models.ReasonHostUnreachable,
			HostUnreachable: true,
		}
	}
	return out
}

func countState(outcomes []models.ProbeOutcome, state models.PortState) int {
	n := 0
	for _, o := range outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}
