// Package logging configures the process-wide zerolog logger
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, console
	Output string // stdout, file, both

	// File rotation, used when Output is file or both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool

	Caller bool
}

// Init configures the global logger and returns the writer it logs to,
// so other components (the HTTP access log) can share it.
func Init(cfg Config) io.Writer {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := buildWriter(cfg)

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	return out
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func buildWriter(cfg Config) io.Writer {
	var console io.Writer = os.Stdout
	if strings.EqualFold(cfg.Format, "console") {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		if cfg.FilePath == "" {
			return console
		}
		return newRotatingFile(cfg)
	case "both":
		if cfg.FilePath == "" {
			return console
		}
		return zerolog.MultiLevelWriter(console, newRotatingFile(cfg))
	default:
		return console
	}
}

func newRotatingFile(cfg Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}
