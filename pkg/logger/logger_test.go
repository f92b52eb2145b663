package logger

import (
	"context"
	"testing"

	"netsage/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "debug", Format: "json"}, false)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(config.LoggingConfig{Level: "error", Format: "console"}, true)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestWithScanID(t *testing.T) {
	ctx, scanID, log := WithScanID(context.Background(), zap.NewNop())
	require.NotNil(t, log)
	assert.NotEqual(t, uuid.Nil, scanID)

	got, ok := ScanIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, scanID, got)

	_, ok = ScanIDFromContext(context.Background())
	assert.False(t, ok)
}
