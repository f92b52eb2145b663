package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultPorts, cfg.Scan.Ports)
	assert.Equal(t, time.Second, cfg.Scan.ProbeTimeout)
	assert.Equal(t, 100, cfg.Scan.MaxConcurrency)
	assert.Zero(t, cfg.Scan.Deadline)
	assert.True(t, cfg.Latency.Enabled)
	assert.Equal(t, 5, cfg.Latency.Samples)
	assert.Equal(t, []string{"8.8.8.8", "1.1.1.1", "9.9.9.9"}, cfg.DNS.Servers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Host.Enabled)
	assert.True(t, cfg.Reachability.Enabled)
	assert.Equal(t, 53, cfg.Reachability.Port)
	assert.Equal(t, 2*time.Second, cfg.Latency.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("NETSAGE_PORTS", "1-10")
	t.Setenv("NETSAGE_PROBE_TIMEOUT", "250ms")
	t.Setenv("NETSAGE_MAX_CONCURRENCY", "7")
	t.Setenv("NETSAGE_SCAN_DEADLINE", "3s")
	t.Setenv("NETSAGE_LATENCY", "false")
	t.Setenv("NETSAGE_DNS_SERVERS", " 10.0.0.1 ,, 10.0.0.2")
	t.Setenv("NETSAGE_JSON", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "1-10", cfg.Scan.Ports)
	assert.Equal(t, 250*time.Millisecond, cfg.Scan.ProbeTimeout)
	assert.Equal(t, 7, cfg.Scan.MaxConcurrency)
	assert.Equal(t, 3*time.Second, cfg.Scan.Deadline)
	assert.False(t, cfg.Latency.Enabled)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.DNS.Servers)
	assert.True(t, cfg.Output.JSON)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("NETSAGE_MAX_CONCURRENCY", "lots")
	t.Setenv("NETSAGE_PROBE_TIMEOUT", "soon")
	t.Setenv("NETSAGE_COLOR", "maybe")

	cfg := Load()
	assert.Equal(t, 100, cfg.Scan.MaxConcurrency)
	assert.Equal(t, time.Second, cfg.Scan.ProbeTimeout)
	assert.True(t, cfg.Output.Color)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ports", func(c *Config) { c.Scan.Ports = "0" }},
		{"empty ports", func(c *Config) { c.Scan.Ports = "" }},
		{"zero timeout", func(c *Config) { c.Scan.ProbeTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Scan.MaxConcurrency = 0 }},
		{"negative deadline", func(c *Config) { c.Scan.Deadline = -time.Second }},
		{"zero samples", func(c *Config) { c.Latency.Samples = 0 }},
		{"latency port", func(c *Config) { c.Latency.Port = 65536 }},
		{"zero latency timeout", func(c *Config) { c.Latency.Timeout = 0 }},
		{"negative latency interval", func(c *Config) { c.Latency.Interval = -time.Millisecond }},
		{"reachability port", func(c *Config) { c.Reachability.Port = 0 }},
		{"dns timeout", func(c *Config) { c.DNS.Timeout = 0 }},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := Load()
	cfg.Latency.Enabled = false
	cfg.Latency.Samples = 0
	cfg.Latency.Timeout = 0
	cfg.Reachability.Enabled = false
	cfg.Reachability.Port = 0
	cfg.DNS.Enabled = false
	cfg.DNS.Timeout = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReachabilityUsesLatencySettings(t *testing.T) {
	t.Setenv("NETSAGE_LATENCY_TIMEOUT", "0s")

	cfg := Load()
	cfg.Latency.Enabled = false
	require.True(t, cfg.Reachability.Enabled)
	assert.ErrorContains(t, cfg.Validate(), "latency timeout")

	cfg.Reachability.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestReachabilityConfig_Hosts(t *testing.T) {
	r := ReachabilityConfig{Gateway: "192.168.1.1", Targets: []string{"8.8.8.8", "192.168.1.1", "1.1.1.1"}}
	assert.Equal(t, []string{"192.168.1.1", "8.8.8.8", "1.1.1.1"}, r.Hosts())

	r.Gateway = ""
	assert.Equal(t, []string{"8.8.8.8", "192.168.1.1", "1.1.1.1"}, r.Hosts())
}

func TestLoad_DefaultListsAreIndependent(t *testing.T) {
	cfg := Load()
	cfg.DNS.Servers[0] = "10.9.9.9"
	assert.Equal(t, "8.8.8.8", cfg.Reachability.Targets[0])
	assert.Equal(t, "8.8.8.8", Load().DNS.Servers[0])
}

func TestScanConfig(t *testing.T) {
	cfg := Load()
	cfg.Scan.Ports = "443,22,80-82,22"

	sc, err := cfg.ScanConfig()
	require.NoError(t, err)
	assert.Equal(t, []int{22, 80, 81, 82, 443}, sc.Ports)
	assert.Equal(t, cfg.Scan.ProbeTimeout, sc.ProbeTimeout)
	assert.Equal(t, cfg.Scan.MaxConcurrency, sc.MaxConcurrency)
}
