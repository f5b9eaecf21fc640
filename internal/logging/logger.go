package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelEnv names the environment variable holding the log level.
const LevelEnv = "STITCHY_LOG_LEVEL"

// Rotation limits for the optional log file.
const (
	maxLogSizeMB  = 20
	maxLogBackups = 3
	maxLogAgeDays = 14
)

// Init configures the global logger. STITCHY_LOG_LEVEL selects debug, info,
// warn or error (default info). Output goes to stderr in console form; when
// logFile is set, JSON lines are also written there with size-based
// rotation.
func Init(logFile string) {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv(LevelEnv)))

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if logFile != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
