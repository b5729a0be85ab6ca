package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestSetup_Level(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{"info", "info", false, zerolog.InfoLevel},
		{"upper case", "WARN", false, zerolog.WarnLevel},
		{"invalid falls back", "loud", false, zerolog.InfoLevel},
		{"verbose wins", "error", true, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreGlobals(t)
			var buf bytes.Buffer
			l, err := setup(config.LoggingConfig{Level: tt.level, Format: "json"}, tt.verbose, &buf)
			if err != nil {
				t.Fatalf("setup() error = %v", err)
			}
			defer l.Close()

			if l.Level != tt.want {
				t.Errorf("Level = %s, want %s", l.Level, tt.want)
			}
			if zerolog.GlobalLevel() != tt.want {
				t.Errorf("GlobalLevel = %s, want %s", zerolog.GlobalLevel(), tt.want)
			}
		})
	}
}

func TestSetup_JSONToStderr(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	l, err := setup(config.LoggingConfig{Level: "info", Format: "json"}, false, &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	log.Info().Str("window", "primary").Msg("hello")
	log.Debug().Msg("hidden")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("output is not one JSON line: %q", buf.String())
	}
	if line["message"] != "hello" || line["window"] != "primary" {
		t.Errorf("line = %v", line)
	}
}

func TestSetup_File(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "logs", "ezgbp.log")

	var buf bytes.Buffer
	l, err := setup(config.LoggingConfig{
		Level:     "debug",
		Format:    "console",
		File:      path,
		MaxSizeMB: 1,
	}, false, &buf)
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}

	log.Info().Msg("to file")
	l.Slog.Info("from runtime", slog.String("k", "v"))
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"message":"to file"`) {
		t.Errorf("file should hold JSON lines, got %q", data)
	}
	if !strings.Contains(string(data), "from runtime") {
		t.Errorf("slog output missing from file: %q", data)
	}
	if !strings.Contains(buf.String(), "to file") {
		t.Errorf("console output missing: %q", buf.String())
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   zerolog.Level
		want slog.Level
	}{
		{zerolog.TraceLevel, slog.LevelDebug},
		{zerolog.DebugLevel, slog.LevelDebug},
		{zerolog.InfoLevel, slog.LevelInfo},
		{zerolog.WarnLevel, slog.LevelWarn},
		{zerolog.ErrorLevel, slog.LevelError},
		{zerolog.FatalLevel, slog.LevelError},
	}
	for _, tt := range tests {
		if got := SlogLevel(tt.in); got != tt.want {
			t.Errorf("SlogLevel(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
