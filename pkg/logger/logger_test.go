package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/pkg/logger"
)

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("app", "chatd")),
	)

	log.Info("hello", logger.Component("test"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "chatd", record["app"])
	assert.Equal(t, "test", record["component"])
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelWarn),
	)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	log := logger.NewFromConfig(logger.Config{Level: "debug", Format: logger.FormatText, App: "chatd"})
	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))

	log = logger.NewFromConfig(logger.Config{Level: "error", Format: logger.FormatJSON})
	assert.False(t, log.Enabled(t.Context(), slog.LevelInfo))
}
