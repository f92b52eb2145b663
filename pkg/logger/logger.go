package logger

import (
	"context"
	"fmt"

	"netsage/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const ScanIDKey contextKey = "scan_id"

// New builds a structured logger from the logging configuration.
// Production uses JSON on stderr, development a console encoder.
func New(cfg config.LoggingConfig, production bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	if production {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	switch cfg.Format {
	case "json":
		zcfg.Encoding = "json"
	case "console", "text":
		zcfg.Encoding = "console"
	}
	// reports own stdout
	zcfg.OutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// WithScanID assigns a new scan ID to the context and returns a logger tagged with it
func WithScanID(ctx context.Context, log *zap.Logger) (context.Context, uuid.UUID, *zap.Logger) {
	scanID := uuid.New()
	ctxWithID := context.WithValue(ctx, ScanIDKey, scanID)
	return ctxWithID, scanID, log.With(zap.String("scan_id", scanID.String()))
}

// ScanIDFromContext extracts the scan ID from the context
func ScanIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	scanID, ok := ctx.Value(ScanIDKey).(uuid.UUID)
	return scanID, ok
}
