package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"netsage/internal/catalog"
	"netsage/internal/config"
	"netsage/internal/diag"
	"netsage/internal/probes"
	"netsage/internal/report"
	"netsage/internal/scanner"
	"netsage/pkg/logger"

	"go.uber.org/zap"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Load configuration
	cfg := config.Load()

	target, err := parseFlags(cfg, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitValidation
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitValidation
	}

	// Initialize logger
	log, err := logger.New(cfg.Logging, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	runner, err := buildRunner(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	result, err := runner.Run(ctx, target)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, scanner.ErrValidation) {
			return exitValidation
		}
		return exitFailure
	}

	if cfg.Output.JSON {
		err = report.WriteJSON(stdout, result)
	} else {
		err = report.NewPrinter(stdout, cfg.Output.Color).PrintDiagnostics(result)
	}
	if err != nil {
		log.Error("Failed to write report", zap.Error(err))
		return exitFailure
	}
	return exitOK
}

// parseFlags applies command line overrides on top of the environment
// configuration and returns the scan target.
func parseFlags(cfg *config.Config, args []string, stderr io.Writer) (string, error) {
	fs := flag.NewFlagSet("netsage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: netsage [flags] <target>")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.Scan.Ports, "ports", cfg.Scan.Ports, "ports to scan, e.g. 22,80,443 or 1-1024")
	fs.DurationVar(&cfg.Scan.ProbeTimeout, "timeout", cfg.Scan.ProbeTimeout, "per-port connection timeout")
	fs.IntVar(&cfg.Scan.MaxConcurrency, "concurrency", cfg.Scan.MaxConcurrency, "maximum probes in flight")
	fs.DurationVar(&cfg.Scan.Deadline, "deadline", cfg.Scan.Deadline, "overall scan deadline (0 derives one from the port count)")
	fs.BoolVar(&cfg.Output.JSON, "json", cfg.Output.JSON, "write the report as JSON")
	noColor := fs.Bool("no-color", !cfg.Output.Color, "disable colored output")
	fs.StringVar(&cfg.Catalog.ServicesFile, "services", cfg.Catalog.ServicesFile, "file with port=label service overrides")
	skipLatency := fs.Bool("skip-latency", !cfg.Latency.Enabled, "skip latency sampling")
	skipDNS := fs.Bool("skip-dns", !cfg.DNS.Enabled, "skip DNS resolution and benchmarking")
	skipHost := fs.Bool("skip-host", !cfg.Host.Enabled, "skip local host and adapter details")
	skipReach := fs.Bool("skip-reachability", !cfg.Reachability.Enabled, "skip gateway and DNS server reachability checks")
	fs.StringVar(&cfg.Reachability.Gateway, "gateway", cfg.Reachability.Gateway, "gateway address to include in reachability checks")

	if err := fs.Parse(args); err != nil {
		return "", err
	}

	cfg.Output.Color = !*noColor
	cfg.Latency.Enabled = !*skipLatency
	cfg.DNS.Enabled = !*skipDNS
	cfg.Host.Enabled = !*skipHost
	cfg.Reachability.Enabled = !*skipReach

	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("expected exactly one target, got %d", fs.NArg())
	}
	return fs.Arg(0), nil
}

func buildRunner(cfg *config.Config, log *zap.Logger) (*diag.Runner, error) {
	labels := catalog.Default()
	if cfg.Catalog.ServicesFile != "" {
		overrides, err := catalog.LoadOverrides(cfg.Catalog.ServicesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load service overrides: %w", err)
		}
		labels = catalog.New(overrides)
		log.Debug("Loaded service overrides",
			zap.String("file", cfg.Catalog.ServicesFile),
			zap.Int("overrides", len(overrides)),
			zap.Int("catalog_size", labels.Len()),
		)
	}

	prober := probes.NewTCPProbe(log)
	coordinator := scanner.NewCoordinator(prober, net.DefaultResolver, log)
	sampler := diag.NewLatencySampler(prober, net.DefaultResolver, cfg.Latency, log)

	var checks diag.Checks
	if cfg.Host.Enabled {
		checks.Host = diag.NewHostInspector(cfg.Host.RouteProbe, log)
	}
	if cfg.Reachability.Enabled {
		if hosts := cfg.Reachability.Hosts(); len(hosts) > 0 {
			checks.Reachability = diag.NewReachabilityChecker(sampler, hosts, cfg.Reachability.Port)
		}
	}
	if cfg.Latency.Enabled {
		checks.Latency = sampler
	}

	var resolver diag.Resolver
	if cfg.DNS.Enabled {
		resolver = net.DefaultResolver
		if len(cfg.DNS.Servers) > 0 {
			checks.DNSBenchmark = diag.NewDNSBenchmarker(cfg.DNS.Servers, cfg.DNS.BenchmarkHost, cfg.DNS.Timeout, diag.ServerResolver, log)
		}
	}

	return diag.NewRunner(cfg, coordinator, resolver, checks, labels, log), nil
}
