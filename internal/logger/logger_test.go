package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mindful-finance-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		raw      string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.raw))
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	cfg := &config.Config{Logging: config.LoggingConfig{Level: "warn"}}

	logger := NewLogger(cfg)
	require.NotNil(t, logger)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewLogger_WritesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		Application: config.ApplicationConfig{Name: "finance-ledger", Env: "test"},
		Logging:     config.LoggingConfig{Level: "debug"},
	}

	logger := newLogger(cfg, &buf)
	buf.Reset()
	logger.Debug("hello", "owner_id", "user-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "finance-ledger", record["app"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "user-1", record["owner_id"])
	assert.Contains(t, record, "source", "debug level adds source locations")
}
