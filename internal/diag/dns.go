package diag

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"netsage/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver resolves host names; *net.Resolver satisfies it
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// LookupHost resolves host and measures how long the lookup took
func LookupHost(ctx context.Context, resolver Resolver, host string) models.DNSResult {
	result := models.DNSResult{Host: host}

	startTime := time.Now()
	ips, err := resolver.LookupIP(ctx, "ip", host)
	result.LatencyMS = round(msSince(startTime), 2)
	if err != nil {
		result.Error = lookupError(err)
		return result
	}

	for _, ip := range ips {
		result.Addresses = append(result.Addresses, ip.String())
	}
	if len(result.Addresses) == 0 {
		result.Error = "no addresses found"
	}
	return result
}

// ResolverFactory builds a resolver that queries a specific DNS server
type ResolverFactory func(server string, timeout time.Duration) Resolver

// ServerResolver returns a resolver sending every query to server:53
func ServerResolver(server string, timeout time.Duration) Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}
}

// DNSBenchmarker measures lookup latency through a set of DNS servers
type DNSBenchmarker struct {
	servers     []string
	host        string
	timeout     time.Duration
	newResolver ResolverFactory
	logger      *zap.Logger
}

// NewDNSBenchmarker creates a benchmarker; a nil factory uses ServerResolver
func NewDNSBenchmarker(servers []string, host string, timeout time.Duration, factory ResolverFactory, logger *zap.Logger) *DNSBenchmarker {
	if factory == nil {
		factory = ServerResolver
	}
	return &DNSBenchmarker{
		servers:     servers,
		host:        host,
		timeout:     timeout,
		newResolver: factory,
		logger:      logger,
	}
}

// Run queries every server concurrently; results keep the server order
func (b *DNSBenchmarker) Run(ctx context.Context) []models.DNSBenchmark {
	results := make([]models.DNSBenchmark, len(b.servers))

	var g errgroup.Group
	for i, server := range b.servers {
		i, server := i, server
		g.Go(func() error {
			results[i] = b.query(ctx, server)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (b *DNSBenchmarker) query(ctx context.Context, server string) models.DNSBenchmark {
	res := models.DNSBenchmark{Server: server}

	queryCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	startTime := time.Now()
	_, err := b.newResolver(server, b.timeout).LookupIP(queryCtx, "ip", b.host)
	elapsed := msSince(startTime)

	if err != nil {
		var dnsErr *net.DNSError
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &dnsErr) && dnsErr.IsTimeout) {
			res.Timeout = true
		} else {
			res.Error = lookupError(err)
		}
		b.logger.Debug("DNS benchmark query failed",
			zap.String("server", server),
			zap.String("host", b.host),
			zap.Error(err),
		)
		return res
	}

	res.LatencyMS = round(elapsed, 2)
	return res
}

func lookupError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Err
	}
	return err.Error()
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
