package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"netsage/internal/ports"
)

// Config holds all configuration for the application
type Config struct {
	Scan         ScanSettings       `json:"scan"`
	Host         HostConfig         `json:"host"`
	Reachability ReachabilityConfig `json:"reachability"`
	Latency      LatencyConfig      `json:"latency"`
	DNS          DNSConfig          `json:"dns"`
	Catalog      CatalogConfig      `json:"catalog"`
	Logging      LoggingConfig      `json:"logging"`
	Output       OutputConfig       `json:"output"`
}

// ScanSettings holds the raw port scan settings as read from the environment
type ScanSettings struct {
	Ports          string        `json:"ports"`           // e.g. "22,80,443" or "1-1024"
	ProbeTimeout   time.Duration `json:"probe_timeout"`   // per-probe budget
	MaxConcurrency int           `json:"max_concurrency"` // probes in flight
	Deadline       time.Duration `json:"deadline"`        // whole scan budget, 0 = derived
}

// ScanConfig is the explicit configuration handed to the scan coordinator
type ScanConfig struct {
	Ports          []int
	ProbeTimeout   time.Duration
	MaxConcurrency int
	Deadline       time.Duration
}

// HostConfig holds local host inspection configuration
type HostConfig struct {
	Enabled    bool   `json:"enabled"`
	RouteProbe string `json:"route_probe"` // UDP address used to pick the outbound interface
}

// ReachabilityConfig holds gateway and DNS server reachability configuration.
// Samples, interval and timeout are shared with LatencyConfig.
type ReachabilityConfig struct {
	Enabled bool     `json:"enabled"`
	Gateway string   `json:"gateway"`
	Targets []string `json:"targets"`
	Port    int      `json:"port"`
}

// Hosts returns the gateway, if set, followed by the other targets
func (r ReachabilityConfig) Hosts() []string {
	hosts := make([]string, 0, len(r.Targets)+1)
	if r.Gateway != "" {
		hosts = append(hosts, r.Gateway)
	}
	for _, t := range r.Targets {
		if t != r.Gateway {
			hosts = append(hosts, t)
		}
	}
	return hosts
}

// LatencyConfig holds latency sampling configuration
type LatencyConfig struct {
	Enabled  bool          `json:"enabled"`
	Samples  int           `json:"samples"`
	Interval time.Duration `json:"interval"`
	Port     int           `json:"port"`
	Timeout  time.Duration `json:"timeout"`
}

// DNSConfig holds DNS check configuration
type DNSConfig struct {
	Enabled       bool          `json:"enabled"`
	Servers       []string      `json:"servers"`
	BenchmarkHost string        `json:"benchmark_host"`
	Timeout       time.Duration `json:"timeout"`
}

// CatalogConfig holds port catalog configuration
type CatalogConfig struct {
	ServicesFile string `json:"services_file"` // optional port=label overrides
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, console
}

// OutputConfig holds report rendering configuration
type OutputConfig struct {
	JSON  bool `json:"json"`
	Color bool `json:"color"`
}

// DefaultPorts is the port list scanned when none is configured
const DefaultPorts = "21,22,80,443,3389"

var defaultDNSServers = []string{"8.8.8.8", "1.1.1.1", "9.9.9.9"}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Scan: ScanSettings{
			Ports:          getEnv("NETSAGE_PORTS", DefaultPorts),
			ProbeTimeout:   getDurationEnv("NETSAGE_PROBE_TIMEOUT", 1*time.Second),
			MaxConcurrency: getIntEnv("NETSAGE_MAX_CONCURRENCY", 100),
			Deadline:       getDurationEnv("NETSAGE_SCAN_DEADLINE", 0),
		},
		Host: HostConfig{
			Enabled:    getBoolEnv("NETSAGE_HOST_INFO", true),
			RouteProbe: getEnv("NETSAGE_ROUTE_PROBE", "8.8.8.8:80"),
		},
		Reachability: ReachabilityConfig{
			Enabled: getBoolEnv("NETSAGE_REACHABILITY", true),
			Gateway: getEnv("NETSAGE_GATEWAY", ""),
			Targets: getListEnv("NETSAGE_REACHABILITY_TARGETS", defaultDNSServers),
			Port:    getIntEnv("NETSAGE_REACHABILITY_PORT", 53),
		},
		Latency: LatencyConfig{
			Enabled:  getBoolEnv("NETSAGE_LATENCY", true),
			Samples:  getIntEnv("NETSAGE_LATENCY_SAMPLES", 5),
			Interval: getDurationEnv("NETSAGE_LATENCY_INTERVAL", 500*time.Millisecond),
			Port:     getIntEnv("NETSAGE_LATENCY_PORT", 443),
			Timeout:  getDurationEnv("NETSAGE_LATENCY_TIMEOUT", 2*time.Second),
		},
		DNS: DNSConfig{
			Enabled:       getBoolEnv("NETSAGE_DNS", true),
			Servers:       getListEnv("NETSAGE_DNS_SERVERS", defaultDNSServers),
			BenchmarkHost: getEnv("NETSAGE_DNS_BENCHMARK_HOST", "example.com"),
			Timeout:       getDurationEnv("NETSAGE_DNS_TIMEOUT", 2*time.Second),
		},
		Catalog: CatalogConfig{
			ServicesFile: getEnv("NETSAGE_SERVICES_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Output: OutputConfig{
			JSON:  getBoolEnv("NETSAGE_JSON", false),
			Color: getBoolEnv("NETSAGE_COLOR", true),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate scan config
	if _, err := ports.Parse(c.Scan.Ports); err != nil {
		return fmt.Errorf("invalid port list: %w", err)
	}
	if c.Scan.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be greater than 0")
	}
	if c.Scan.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be greater than 0")
	}
	if c.Scan.Deadline < 0 {
		return fmt.Errorf("scan deadline cannot be negative")
	}

	// Validate latency config, shared with reachability sampling
	if c.Latency.Enabled || c.Reachability.Enabled {
		if c.Latency.Samples <= 0 {
			return fmt.Errorf("latency samples must be greater than 0")
		}
		if c.Latency.Timeout <= 0 {
			return fmt.Errorf("latency timeout must be greater than 0")
		}
		if c.Latency.Interval < 0 {
			return fmt.Errorf("latency interval cannot be negative")
		}
	}
	if c.Latency.Enabled && !ports.Valid(c.Latency.Port) {
		return fmt.Errorf("latency port must be in %d..%d", ports.MinPort, ports.MaxPort)
	}
	if c.Reachability.Enabled && !ports.Valid(c.Reachability.Port) {
		return fmt.Errorf("reachability port must be in %d..%d", ports.MinPort, ports.MaxPort)
	}

	// Validate DNS config
	if c.DNS.Enabled && c.DNS.Timeout <= 0 {
		return fmt.Errorf("dns timeout must be greater than 0")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// ScanConfig builds the coordinator configuration from the scan settings
func (c *Config) ScanConfig() (ScanConfig, error) {
	list, err := ports.Parse(c.Scan.Ports)
	if err != nil {
		return ScanConfig{}, err
	}
	return ScanConfig{
		Ports:          list,
		ProbeTimeout:   c.Scan.ProbeTimeout,
		MaxConcurrency: c.Scan.MaxConcurrency,
		Deadline:       c.Scan.Deadline,
	}, nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return getEnv("ENV", "development") == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
