package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "cratecheck", configBaseName)
	assert.Equal(t, "cratecheck.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "dir", dirFlagName)
	assert.Equal(t, "oid", oidFlagName)
	assert.Equal(t, "report.summary", summaryConfigKey)
	assert.Equal(t, "report.diff", diffConfigKey)
	assert.Equal(t, ".", defaultDir)
	assert.Equal(t, "", defaultOid)
	assert.Equal(t, "CRATECHECK", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  slog.Level
	}{
		{"empty uses default", "", slog.LevelWarn},
		{"debug", "debug", slog.LevelDebug},
		{"info upper case", "INFO", slog.LevelInfo},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", " error ", slog.LevelError},
		{"numeric", "-4", slog.LevelDebug},
		{"garbage uses default", "loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}

func TestConfigureLogger_Verbose(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	configureLogger("", true)

	require.NotNil(t, globalLogger)
	assert.True(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))
}

func TestConfigureLogger_File(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logPath := filepath.Join(t.TempDir(), "cratecheck.log")
	viper.Set(logLevelKey, "error")
	t.Cleanup(func() { viper.Set(logLevelKey, defaultLogLevel) })

	configureLogger(logPath, false)

	require.NotNil(t, globalLogger)
	assert.False(t, globalLogger.Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, globalLogger.Enabled(t.Context(), slog.LevelError))
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, defaultLogMaxSize, viper.GetInt(logMaxSizeKey))
	assert.Equal(t, defaultLogCompress, viper.GetBool(logCompressKey))
}

func TestLogWriterFor(t *testing.T) {
	t.Run("stderr without a file", func(t *testing.T) {
		assert.Equal(t, os.Stderr, logWriterFor(""))
	})

	t.Run("rotating file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "cratecheck.log")

		writer, ok := logWriterFor(logPath).(*lumberjack.Logger)
		require.True(t, ok)
		assert.Equal(t, logPath, writer.Filename)
		assert.Equal(t, defaultLogMaxBackups, writer.MaxBackups)
	})
}

func TestLogLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevelFor(true))
}
