package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/complaint-service/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		infoOn  bool
	}{
		{level: "debug", debugOn: true, infoOn: true},
		{level: "WARN"},
		{level: "nonsense", infoOn: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(config.LoggerConfig{Level: tt.level})
			require.NoError(t, err)
			assert.Equal(t, tt.debugOn, logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.infoOn, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestLoggerStampsServiceAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	logger, err := buildLogger(config.LoggerConfig{
		Level:       "info",
		Service:     "complaint-service",
		Environment: "staging",
	}, []string{path})
	require.NoError(t, err)

	logger.Info("escalation pass finished", zap.Int("escalated", 2))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(raw, &line))
	assert.Equal(t, "complaint-service", line["service"])
	assert.Equal(t, "staging", line["env"])
	assert.Equal(t, "escalation pass finished", line["message"])
	assert.EqualValues(t, 2, line["escalated"])
}
