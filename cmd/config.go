package cmd

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "cratecheck"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	dirFlagName     = "dir"
	oidFlagName     = "oid"
	summaryFlagName = "summary"
	diffFlagName    = "diff"
	verboseFlagName = "verbose"
	logFileFlagName = "log-file"

	dirConfigKey     = "dir"
	oidConfigKey     = "oid"
	summaryConfigKey = "report.summary"
	diffConfigKey    = "report.diff"

	defaultDir     = "."
	defaultOid     = ""
	defaultSummary = false
	defaultDiff    = false

	envPrefix = "CRATECHECK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ""
	defaultLogLevel      = "warn"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

// namedLevels maps the level names accepted in config and env to slog levels.
var namedLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()
	readConfigFile()
}

func setConfigDefaults() {
	defaults := map[string]any{
		configVersionKey: currentConfigVersion,
		dirConfigKey:     defaultDir,
		oidConfigKey:     defaultOid,
		summaryConfigKey: defaultSummary,
		diffConfigKey:    defaultDiff,

		logFilenameKey:   defaultLogFilename,
		logLevelKey:      defaultLogLevel,
		logVerboseKey:    defaultLogVerbose,
		logMaxSizeKey:    defaultLogMaxSize,
		logMaxBackupsKey: defaultLogMaxBackups,
		logMaxAgeKey:     defaultLogMaxAge,
		logCompressKey:   defaultLogCompress,
	}

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// readConfigFile loads cratecheck.yaml when present. A missing file is normal.
func readConfigFile() {
	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return
	}

	slog.Warn("failed to read config file", "file", configFileName, "error", err)
}

// parseSlogLevel accepts a level name or a raw slog number such as -4.
func parseSlogLevel(value string, fallback slog.Level) slog.Level {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return fallback
	}

	if level, ok := namedLevels[name]; ok {
		return level
	}

	n, err := strconv.Atoi(name)
	if err != nil {
		return fallback
	}

	return slog.Level(n)
}

func logLevelFor(verbose bool) slog.Level {
	if verbose || viper.GetBool(logVerboseKey) {
		return slog.LevelDebug
	}

	return parseSlogLevel(viper.GetString(logLevelKey), slog.LevelWarn)
}

// logWriterFor returns a rotating file writer for logPath, or stderr when no
// file is configured.
func logWriterFor(logPath string) io.Writer {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}
}

// configureLogger installs the process-wide slog logger. Source locations are
// only attached at debug level.
func configureLogger(logPath string, verbose bool) {
	level := logLevelFor(verbose)

	globalLogger = slog.New(slog.NewTextHandler(logWriterFor(logPath), &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	}))
	slog.SetDefault(globalLogger)
}
