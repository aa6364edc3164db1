package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process wide logger. Packages log through it directly.
var Log = logrus.New()

type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init configures Log. Output always goes to stdout; when File is set it is
// also written to a size rotated log file.
func Init(cfg Config) {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(ParseLevel(cfg.Level))

	if cfg.File == "" {
		Log.SetOutput(os.Stdout)
		return
	}

	maxAge := cfg.MaxAgeDays
	if maxAge == 0 {
		maxAge = 28
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     maxAge, //days
		Compress:   cfg.Compress,
	}))
}

// ParseLevel maps a config level name onto a logrus level. Unknown names
// fall back to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard silences Log. Used by tests.
func Discard() {
	Log.SetOutput(io.Discard)
}
