// Package logging configures the process loggers: the global zerolog logger
// used by the shell and a slog logger handed to the window runtime.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
)

// Loggers is the result of Setup.
type Loggers struct {
	// Slog is passed to the window runtime. It writes to the same sinks as
	// the global zerolog logger.
	Slog  *slog.Logger
	Level zerolog.Level

	closers []io.Closer
}

// Close flushes and closes the log file, if any.
func (l *Loggers) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.closers = nil
	return first
}

// Setup configures the global zerolog logger from cfg. verbose forces debug
// level and console output.
func Setup(cfg config.LoggingConfig, verbose bool) (*Loggers, error) {
	return setup(cfg, verbose, os.Stderr)
}

func setup(cfg config.LoggingConfig, verbose bool, stderr io.Writer) (*Loggers, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = stderr
	if cfg.Format == "console" || verbose {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	}

	out := &Loggers{Level: level}
	writers := []io.Writer{console}
	slogOut := stderr

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		// The file always gets JSON lines.
		writers = append(writers, rotator)
		slogOut = io.MultiWriter(stderr, rotator)
		out.closers = append(out.closers, rotator)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	out.Slog = slog.New(tint.NewHandler(slogOut, &tint.Options{
		Level:      SlogLevel(level),
		TimeFormat: time.Kitchen,
		NoColor:    cfg.File != "",
	}))
	return out, nil
}

// SlogLevel maps a zerolog level to the nearest slog level.
func SlogLevel(level zerolog.Level) slog.Level {
	switch {
	case level <= zerolog.DebugLevel:
		return slog.LevelDebug
	case level == zerolog.InfoLevel:
		return slog.LevelInfo
	case level == zerolog.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
