package observability

import (
	"context"
	"testing"

	"github.com/georgemunganga/stockroom/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(config.LogConfig{Level: "warn"}, "stockroom")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(config.LogConfig{Level: "chatty"}, "stockroom")
	assert.Error(t, err)
}

func TestSetupTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), config.TelemetryConfig{ServiceName: "stockroom"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
