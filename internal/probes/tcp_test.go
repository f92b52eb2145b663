package probes

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
	"testing"
	"time"

	"netsage/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func listenLocal(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func TestTCPProbe_Name(t *testing.T) {
	probe := NewTCPProbe(zaptest.NewLogger(t))
	assert.Equal(t, "tcp-connect", probe.Name())
}

func TestTCPProbe_Open(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
		close(accepted)
	}()

	probe := NewTCPProbe(zaptest.NewLogger(t))
	outcome := probe.Probe(context.Background(), "127.0.0.1", port, time.Second)

	assert.Equal(t, port, outcome.Port)
	assert.Equal(t, models.PortStateOpen, outcome.State)
	assert.Empty(t, outcome.Reason)
	assert.False(t, outcome.HostUnreachable)

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never saw the probe connection")
	}
}

func TestTCPProbe_Closed(t *testing.T) {
	ln, port := listenLocal(t)
	require.NoError(t, ln.Close())

	probe := NewTCPProbe(zaptest.NewLogger(t))
	outcome := probe.Probe(context.Background(), "127.0.0.1", port, time.Second)

	assert.Equal(t, models.PortStateClosed, outcome.State)
	assert.Equal(t, "connection refused", outcome.Reason)
}

func TestTCPProbe_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := NewTCPProbe(zaptest.NewLogger(t))
	outcome := probe.Probe(ctx, "127.0.0.1", 9, time.Second)

	assert.Equal(t, models.PortStateFiltered, outcome.State)
	assert.Equal(t, models.ReasonCancelled, outcome.Reason)
}

func TestTCPProbe_IPv6Literal(t *testing.T) {
	ln, err := net.Listen("tcp", "[::1]:0")
	if err != nil {
		t.Skip("IPv6 loopback not available")
	}
	defer ln.Close()
	go func() {
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	probe := NewTCPProbe(zaptest.NewLogger(t))
	outcome := probe.Probe(context.Background(), "::1", port, time.Second)
	assert.Equal(t, models.PortStateOpen, outcome.State)
}

func dialErr(err error) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: err}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		state     models.PortState
		reason    string
		hostLevel bool
	}{
		{
			name:   "refused",
			err:    dialErr(syscall.ECONNREFUSED),
			state:  models.PortStateClosed,
			reason: "connection refused",
		},
		{
			name:   "i/o timeout",
			err:    &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded},
			state:  models.PortStateFiltered,
			reason: models.ReasonTimeout,
		},
		{
			name:   "context deadline",
			err:    &net.OpError{Op: "dial", Net: "tcp", Err: context.DeadlineExceeded},
			state:  models.PortStateFiltered,
			reason: models.ReasonTimeout,
		},
		{
			name:   "context canceled",
			err:    &net.OpError{Op: "dial", Net: "tcp", Err: context.Canceled},
			state:  models.PortStateFiltered,
			reason: models.ReasonCancelled,
		},
		{
			name:   "reset",
			err:    dialErr(syscall.ECONNRESET),
			state:  models.PortStateFiltered,
			reason: models.ReasonConnectionReset,
		},
		{
			name:      "network unreachable",
			err:       dialErr(syscall.ENETUNREACH),
			state:     models.PortStateError,
			reason:    syscall.ENETUNREACH.Error(),
			hostLevel: true,
		},
		{
			name:      "host unreachable",
			err:       dialErr(syscall.EHOSTUNREACH),
			state:     models.PortStateError,
			reason:    syscall.EHOSTUNREACH.Error(),
			hostLevel: true,
		},
		{
			name:      "dns failure",
			err:       &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "nope.invalid"}},
			state:     models.PortStateError,
			reason:    models.ReasonHostUnreachable,
			hostLevel: true,
		},
		{
			name:   "refused text fallback",
			err:    errors.New("connectex: No connection could be made because the target machine actively refused it."),
			state:  models.PortStateClosed,
			reason: "connection refused",
		},
		{
			name:   "other error stays per port",
			err:    errors.New("too many open files"),
			state:  models.PortStateError,
			reason: "too many open files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, reason, hostLevel := Classify(tt.err)
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.hostLevel, hostLevel)
			assert.True(t, state.Valid())
		})
	}
}
