package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"netsage/internal/models"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorBlue   = "\033[94m"
	colorCyan   = "\033[96m"
)

// Printer renders diagnostic reports as text
type Printer struct {
	w        io.Writer
	colorize bool
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, colorize bool) *Printer {
	return &Printer{w: w, colorize: colorize}
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintDiagnostics renders every section present in r
func (p *Printer) PrintDiagnostics(r models.DiagnosticReport) error {
	p.header(fmt.Sprintf("Network Diagnostics: %s", r.Target))
	p.info(fmt.Sprintf("Scan ID: %s", r.ScanID))
	p.info(fmt.Sprintf("Started: %s", r.StartedAt.Format("2006-01-02 15:04:05")))

	if r.Host != nil {
		p.info(fmt.Sprintf("Running on: %s", r.Host.Platform))
		if r.Host.Hostname != "" {
			p.info(fmt.Sprintf("Hostname: %s", r.Host.Hostname))
		}
		p.info(fmt.Sprintf("Local IP Address: %s", r.Host.LocalIP))
	}

	if len(r.Reachability) > 0 {
		p.section("Basic Connectivity")
		if err := p.printReachability(r.Reachability); err != nil {
			return err
		}
	}

	if r.DNS != nil {
		p.section("DNS Check")
		if r.DNS.Error != "" {
			p.line(colorRed, fmt.Sprintf("✗ DNS lookup failed for %s: %s", r.DNS.Host, r.DNS.Error))
		} else {
			p.line(colorGreen, fmt.Sprintf("✓ DNS resolution for %s: %s (%.2f ms)",
				r.DNS.Host, strings.Join(r.DNS.Addresses, ", "), r.DNS.LatencyMS))
		}
	}

	if r.Latency != nil {
		p.section("Latency")
		p.printLatency(*r.Latency)
	}

	if len(r.DNSServers) > 0 {
		p.section("DNS Server Benchmark")
		tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DNS SERVER\tLATENCY (ms)")
		for _, b := range r.DNSServers {
			switch {
			case b.Timeout:
				fmt.Fprintf(tw, "%s\t%s\n", b.Server, "timeout")
			case b.Error != "":
				fmt.Fprintf(tw, "%s\t%s\n", b.Server, "error: "+b.Error)
			default:
				fmt.Fprintf(tw, "%s\t%.2f\n", b.Server, b.LatencyMS)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if r.Ports != nil {
		p.section("Port Availability")
		if err := p.PrintPorts(*r.Ports); err != nil {
			return err
		}
	}

	if r.Host != nil && (len(r.Host.Adapters) > 0 || r.Host.Error != "") {
		p.section("Network Adapter Details")
		if r.Host.Error != "" {
			p.line(colorRed, "✗ "+r.Host.Error)
		}
		if err := p.printAdapters(r.Host.Adapters); err != nil {
			return err
		}
	}

	return nil
}

// PrintPorts renders the port table and summary. Every entry is printed,
// failed and filtered ports included.
func (p *Printer) PrintPorts(r models.PresentableReport) error {
	if r.Address != "" && r.Address != r.Target {
		p.info(fmt.Sprintf("Address: %s", r.Address))
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tSTATE\tSERVICE\tREASON")
	for _, e := range r.Ports {
		// pad before coloring so escape codes do not skew column widths
		state := fmt.Sprintf("%-8s", strings.ToUpper(string(e.State)))
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Port, p.paint(stateColor(e.State), state), e.Label, e.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary
	_, err := fmt.Fprintf(p.w, "\n%d ports scanned in %d ms: %d open, %d closed, %d filtered, %d errors\n",
		s.TotalPorts, s.Duration, s.OpenPorts, s.ClosedPorts, s.FilteredPorts, s.Errors)
	return err
}

func (p *Printer) printLatency(l models.LatencyStats) {
	if l.Error != "" {
		p.line(colorRed, "✗ "+l.Error)
		return
	}
	p.line("", fmt.Sprintf("Target: %s:%d", l.Target, l.Port))
	if l.Address != "" && l.Address != l.Target {
		p.line("", fmt.Sprintf("Address: %s", l.Address))
	}
	p.line("", fmt.Sprintf("Samples: %d/%d", l.Samples, l.Sent))
	p.line("", fmt.Sprintf("Average (ms): %.2f", l.AverageMS))
	p.line("", fmt.Sprintf("Minimum (ms): %.2f", l.MinimumMS))
	p.line("", fmt.Sprintf("Maximum (ms): %.2f", l.MaximumMS))
	p.line("", fmt.Sprintf("Packet Loss: %.1f%%", l.PacketLoss))
}

func (p *Printer) printReachability(results []models.LatencyStats) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tSTATUS\tSAMPLES\tAVG (ms)\tLOSS")
	for _, l := range results {
		target := fmt.Sprintf("%s:%d", l.Target, l.Port)
		if l.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\t%d/%d\t-\t%s\n", target, p.paint(colorRed, "unreachable"), l.Samples, l.Sent, l.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.2f\t%.1f%%\n", target, p.paint(colorGreen, "reachable  "), l.Samples, l.Sent, l.AverageMS, l.PacketLoss)
	}
	return tw.Flush()
}

func (p *Printer) printAdapters(adapters []models.Adapter) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INTERFACE\tSTATE\tMAC\tIPV4\tNETMASK\tIPV6\tMTU")
	for _, a := range adapters {
		state := "down"
		if a.Up {
			state = "up"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			a.Name, state, dash(a.MAC), dash(a.IPv4), dash(a.Netmask), dash(strings.Join(a.IPv6, ",")), a.MTU)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (p *Printer) header(text string) {
	p.line(colorBold, fmt.Sprintf("\n=== %s ===\n", text))
}

func (p *Printer) section(text string) {
	p.line(colorBlue+colorBold, fmt.Sprintf("\n» %s", text))
}

func (p *Printer) info(text string) {
	p.line(colorCyan, "• "+text)
}

func (p *Printer) line(color, text string) {
	fmt.Fprintln(p.w, p.paint(color, text))
}

func (p *Printer) paint(color, text string) string {
	if !p.colorize || color == "" {
		return text
	}
	return color + text + colorReset
}

func stateColor(s models.PortState) string {
	switch s {
	case models.PortStateOpen:
		return colorGreen
	case models.PortStateClosed:
		return colorYellow
	default:
		return colorRed
	}
}
