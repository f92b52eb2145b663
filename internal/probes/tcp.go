package probes

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"netsage/internal/models"

	"go.uber.org/zap"
)

// TCPProbe implements a TCP connect probe
type TCPProbe struct {
	logger *zap.Logger
}

// NewTCPProbe creates a new TCP connect probe
func NewTCPProbe(logger *zap.Logger) *TCPProbe {
	return &TCPProbe{logger: logger}
}

func (p *TCPProbe) Name() string {
	return "tcp-connect"
}

// Probe opens and immediately releases a TCP connection to ip:port.
// No data is exchanged with the remote service.
func (p *TCPProbe) Probe(ctx context.Context, ip string, port int, timeout time.Duration) models.ProbeOutcome {
	outcome := models.ProbeOutcome{Port: port}
	address := net.JoinHostPort(ip, strconv.Itoa(port))

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: timeout}
	startTime := time.Now()
	conn, err := dialer.DialContext(probeCtx, "tcp", address)
	outcome.RTT = time.Since(startTime)

	if err == nil {
		_ = conn.Close()
		outcome.State = models.PortStateOpen
		p.logger.Debug("Port open",
			zap.String("address", address),
			zap.Duration("rtt", outcome.RTT),
		)
		return outcome
	}

	// the caller gave up on this probe, not the remote
	if errors.Is(ctx.Err(), context.Canceled) {
		outcome.State = models.PortStateFiltered
		outcome.Reason = models.ReasonCancelled
		return outcome
	}

	outcome.State, outcome.Reason, outcome.HostUnreachable = Classify(err)
	p.logger.Debug("Port probe failed",
		zap.String("address", address),
		zap.String("state", string(outcome.State)),
		zap.String("reason", outcome.Reason),
		zap.Duration("rtt", outcome.RTT),
		zap.Error(err),
	)
	return outcome
}

// Classify maps a dial error to a port state and reason.
// hostLevel is true when the failure applies to every port of the host.
func Classify(err error) (state models.PortState, reason string, hostLevel bool) {
	var dnsErr *net.DNSError

	switch {
	case err == nil:
		return models.PortStateOpen, "", false
	case errors.Is(err, syscall.ECONNREFUSED):
		return models.PortStateClosed, "connection refused", false
	case isTimeout(err):
		return models.PortStateFiltered, models.ReasonTimeout, false
	case errors.Is(err, context.Canceled):
		return models.PortStateFiltered, models.ReasonCancelled, false
	case errors.Is(err, syscall.ECONNRESET):
		// half-open: accepted then dropped, indistinguishable from a filtering middlebox
		return models.PortStateFiltered, models.ReasonConnectionReset, false
	case errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.EHOSTDOWN):
		return models.PortStateError, errnoText(err), true
	case errors.As(err, &dnsErr):
		return models.PortStateError, models.ReasonHostUnreachable, true
	}

	// Windows reports WSAECONNREFUSED, which does not match syscall.ECONNREFUSED
	if strings.Contains(strings.ToLower(err.Error()), "refused") {
		return models.PortStateClosed, "connection refused", false
	}

	return models.PortStateError, err.Error(), false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func errnoText(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return err.Error()
}
