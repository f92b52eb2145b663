package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"netsage/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no target", []string{"-skip-dns"}, exitValidation},
		{"two targets", []string{"a.test", "b.test"}, exitValidation},
		{"unknown flag", []string{"-bogus", "a.test"}, exitValidation},
		{"port zero", []string{"-ports", "0", "a.test"}, exitValidation},
		{"port too large", []string{"-ports", "70000", "a.test"}, exitValidation},
		{"negative timeout", []string{"-timeout", "-1s", "a.test"}, exitValidation},
		{"help", []string{"-h"}, exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRun_ZeroLatencyTimeout(t *testing.T) {
	t.Setenv("NETSAGE_LATENCY_TIMEOUT", "0s")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitValidation, run(context.Background(), []string{"-skip-dns", "a.test"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "latency timeout")
}

func TestRun_ServicesFileLabels(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	open := listener.Addr().(*net.TCPAddr).Port

	path := filepath.Join(t.TempDir(), "services")
	require.NoError(t, os.WriteFile(path, []byte("# local\n"+strconv.Itoa(open)+"=test-daemon\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-json", "-skip-dns", "-skip-latency", "-skip-reachability", "-skip-host", "-services", path, "-ports", strconv.Itoa(open), "127.0.0.1"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var result models.DiagnosticReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	require.NotNil(t, result.Ports)
	require.Len(t, result.Ports.Ports, 1)
	assert.Equal(t, "test-daemon", result.Ports.Ports[0].Label)
}

func TestRun_MissingServicesFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-skip-dns", "-skip-latency", "-skip-reachability", "-skip-host", "-services", "/nonexistent/services", "127.0.0.1"}, &stdout, &stderr)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "service overrides")
}

func TestRun_LocalScanJSON(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	open := listener.Addr().(*net.TCPAddr).Port

	closedListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closed := closedListener.Addr().(*net.TCPAddr).Port
	closedListener.Close()

	ports := strconv.Itoa(open) + "," + strconv.Itoa(closed) + "," + strconv.Itoa(open)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-json", "-skip-dns", "-skip-latency", "-skip-reachability", "-skip-host", "-ports", ports, "127.0.0.1"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var result models.DiagnosticReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))

	assert.Nil(t, result.DNS)
	assert.Nil(t, result.Latency)
	require.NotNil(t, result.Ports)
	require.Len(t, result.Ports.Ports, 2)

	states := map[int]models.PortState{}
	for _, p := range result.Ports.Ports {
		states[p.Port] = p.State
	}
	assert.Equal(t, models.PortStateOpen, states[open])
	assert.Equal(t, models.PortStateClosed, states[closed])
	assert.Equal(t, 1, result.Ports.Summary.OpenPorts)
	assert.Equal(t, 1, result.Ports.Summary.ClosedPorts)
}

func TestRun_LocalScanText(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	open := listener.Addr().(*net.TCPAddr).Port

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-no-color", "-skip-dns", "-skip-latency", "-skip-reachability", "-skip-host", "-ports", strconv.Itoa(open), "127.0.0.1"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Contains(t, stdout.String(), "Port Availability")
	assert.Contains(t, stdout.String(), "OPEN")
	assert.NotContains(t, stdout.String(), "\033[")
}
