package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
)

func bufferedLogger(t *testing.T, cfg config.LoggingConfig, service string) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := newLogger(cfg, service, zapcore.AddSync(&buf))
	require.NoError(t, err)
	return logger, &buf
}

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry), "line %q", sc.Text())
		out = append(out, entry)
	}
	return out
}

func TestNewLogger_JSONCarriesService(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "info", Format: "json"}, "skirmish-dev")
	logger.Info("combat started", zap.String("session_id", "s-1"))

	lines := jsonLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "skirmish-dev", lines[0]["service"])
	assert.Equal(t, "s-1", lines[0]["session_id"])
	assert.Equal(t, "combat started", lines[0]["msg"])
}

func TestNewLogger_EmptyServiceOmitsField(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "info", Format: "json"}, "")
	logger.Info("hello")

	lines := jsonLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "service")
}

func TestNewLogger_LevelFilters(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "warn", Format: "json"}, "svc")
	logger.Debug("roll")
	logger.Info("combat ended")
	logger.Warn("drop table references unknown item")

	lines := jsonLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestNewLogger_SamplingThinsRepeatedRolls(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Sampling: config.SamplingConfig{Initial: 3, Thereafter: 0},
	}
	logger, buf := bufferedLogger(t, cfg, "svc")
	for i := 0; i < 10; i++ {
		logger.Debug("roll", zap.String("label", "player_hit"))
	}
	logger.Info("combat ended")

	lines := jsonLines(t, buf)
	require.Len(t, lines, 4, "three rolls plus the distinct message")
	assert.Equal(t, "combat ended", lines[3]["msg"])
}

func TestNewLogger_NoSamplingKeepsEverything(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "debug", Format: "json"}, "svc")
	for i := 0; i < 10; i++ {
		logger.Debug("roll")
	}
	assert.Len(t, jsonLines(t, buf), 10)
}

func TestNewLogger_Console(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "debug", Format: "console"}, "svc")
	logger.Debug("roll", zap.String("label", "run"))

	out := buf.String()
	assert.Contains(t, out, "roll")
	assert.Contains(t, out, `"service": "svc"`)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	for name, cfg := range map[string]config.LoggingConfig{
		"level":    {Level: "trace", Format: "json"},
		"format":   {Level: "info", Format: "xml"},
		"sampling": {Level: "info", Format: "json", Sampling: config.SamplingConfig{Thereafter: -1}},
	} {
		_, err := NewLogger(cfg, "svc")
		assert.Error(t, err, name)
	}
}
