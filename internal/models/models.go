package models

import (
	"time"

	"github.com/google/uuid"
)

// PortState represents the classified state of a probed port
type PortState string

const (
	PortStateOpen     PortState = "open"
	PortStateClosed   PortState = "closed"
	PortStateFiltered PortState = "filtered"
	PortStateError    PortState = "error"
)

// Valid reports whether s is one of the known port states
func (s PortState) Valid() bool {
	switch s {
	case PortStateOpen, PortStateClosed, PortStateFiltered, PortStateError:
		return true
	}
	return false
}

// Reasons shared between the probe and the coordinator
const (
	ReasonTimeout          = "timeout"
	ReasonConnectionReset  = "connection reset"
	ReasonHostUnreachable  = "host unreachable"
	ReasonDeadlineExceeded = "scan deadline exceeded"
	ReasonCancelled        = "scan cancelled"
)

// ProbeOutcome is the result of a single connection attempt against one port
type ProbeOutcome struct {
	Port   int           `json:"port"`
	State  PortState     `json:"state"`
	Reason string        `json:"reason,omitempty"`
	RTT    time.Duration `json:"rtt"`

	// HostUnreachable marks an error that applies to the whole host rather than the port.
	HostUnreachable bool `json:"-"`
}

// ScanReport holds every outcome of one scan, ascending by port
type ScanReport struct {
	ScanID    uuid.UUID      `json:"scan_id"`
	Target    string         `json:"target"`
	Address   string         `json:"address,omitempty"`
	Outcomes  []ProbeOutcome `json:"outcomes"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// PortEntry is one presentable row of a port report
type PortEntry struct {
	Port   int       `json:"port"`
	State  PortState `json:"state"`
	Label  string    `json:"label"`
	Reason string    `json:"reason,omitempty"`
}

// Summary contains port report statistics
type Summary struct {
	TotalPorts    int `json:"total_ports"`
	OpenPorts     int `json:"open_ports"`
	ClosedPorts   int `json:"closed_ports"`
	FilteredPorts int `json:"filtered_ports"`
	Errors        int `json:"errors"`
	Duration      int `json:"duration_ms"`
}

// PresentableReport is a ScanReport with service labels attached
type PresentableReport struct {
	ScanID  uuid.UUID   `json:"scan_id"`
	Target  string      `json:"target"`
	Address string      `json:"address,omitempty"`
	Ports   []PortEntry `json:"ports"`
	Summary Summary     `json:"summary"`
}

// DNSResult holds the outcome of resolving a host name
type DNSResult struct {
	Host      string   `json:"host"`
	Addresses []string `json:"addresses,omitempty"`
	LatencyMS float64  `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
}

// LatencyStats summarizes connection latency samples against a host
type LatencyStats struct {
	Target     string  `json:"target"`
	Address    string  `json:"address,omitempty"`
	Port       int     `json:"port"`
	Sent       int     `json:"sent"`
	Samples    int     `json:"samples"`
	AverageMS  float64 `json:"average_ms"`
	MinimumMS  float64 `json:"minimum_ms"`
	MaximumMS  float64 `json:"maximum_ms"`
	PacketLoss float64 `json:"packet_loss_pct"`
	Error      string  `json:"error,omitempty"`
}

// DNSBenchmark is the lookup latency measured through one DNS server
type DNSBenchmark struct {
	Server    string  `json:"server"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
	Timeout   bool    `json:"timeout,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// DiagnosticReport aggregates every diagnostic run against a target
type DiagnosticReport struct {
	ScanID       uuid.UUID          `json:"scan_id"`
	Target       string             `json:"target"`
	StartedAt    time.Time          `json:"started_at"`
	Host         *HostInfo          `json:"host,omitempty"`
	DNS          *DNSResult         `json:"dns,omitempty"`
	Reachability []LatencyStats     `json:"reachability,omitempty"`
	Latency      *LatencyStats      `json:"latency,omitempty"`
	DNSServers   []DNSBenchmark     `json:"dns_servers,omitempty"`
	Ports        *PresentableReport `json:"ports,omitempty"`
}

// HostInfo describes the machine running the diagnostics
type HostInfo struct {
	Hostname string    `json:"hostname"`
	Platform string    `json:"platform"`
	LocalIP  string    `json:"local_ip"`
	Adapters []Adapter `json:"adapters,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Adapter holds the addressing of one network interface
type Adapter struct {
	Name    string   `json:"name"`
	Up      bool     `json:"up"`
	MTU     int      `json:"mtu"`
	MAC     string   `json:"mac,omitempty"`
	IPv4    string   `json:"ipv4,omitempty"`
	Netmask string   `json:"netmask,omitempty"`
	IPv6    []string `json:"ipv6,omitempty"`
}
