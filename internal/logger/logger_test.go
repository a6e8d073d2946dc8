package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name              string
		logLevel          string
		expectedSlogLevel slog.Level
	}{
		{"DebugLevel", "debug", slog.LevelDebug},
		{"InfoLevel", "info", slog.LevelInfo},
		{"WarnLevel", "warn", slog.LevelWarn},
		{"WarningAlias", "WARNING", slog.LevelWarn},
		{"ErrorLevel", "error", slog.LevelError},
		{"DefaultToInfo", "unknown", slog.LevelInfo},
		{"EmptyToInfo", "", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{Logging: config.LoggingConfig{Level: tc.logLevel}}

			logger := NewLogger(cfg)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expectedSlogLevel))
			if tc.expectedSlogLevel > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), tc.expectedSlogLevel-4))
			}
		})
	}
}

func TestNewLogger_TagsApplication(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		Application: config.ApplicationConfig{Name: "kiosk-gateway", Env: "test"},
		Logging:     config.LoggingConfig{Level: "info"},
	}

	logger := newLogger(cfg, &buf)
	logger.Info("journey opened", "journey_id", 7)

	out := buf.String()
	assert.Contains(t, out, `"msg":"logger initialized"`)
	assert.Contains(t, out, `"msg":"journey opened"`)
	assert.Contains(t, out, `"app":"kiosk-gateway"`)
	assert.Contains(t, out, `"env":"test"`)
	assert.Contains(t, out, `"journey_id":7`)
}
