package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/testutil"
)

func TestWatcher_PublishesOnceForBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := testutil.NewRecorder()
	w := NewWatcher(path, rec, 50*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if !w.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a: 2\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if !rec.WaitFor(1, 2*time.Second) {
		t.Fatal("no config_changed event")
	}
	time.Sleep(150 * time.Millisecond)

	if got := rec.Count(); got != 1 {
		t.Errorf("got %d events, want 1 for a burst of writes", got)
	}
	e := rec.Events()[0]
	if e.Type() != events.EventTypeConfigChanged {
		t.Errorf("Type() = %s", e.Type())
	}
	if p := e.(*events.BaseEvent).Payload.(events.ConfigChangedPayload); p.Path != path {
		t.Errorf("Path = %s, want %s", p.Path, path)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	rec := testutil.NewRecorder()
	w := NewWatcher(path, rec, 20*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if rec.WaitFor(1, 200*time.Millisecond) {
		t.Error("unexpected event for an unrelated file")
	}
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(filepath.Join(dir, "config.yaml"), testutil.NewRecorder(), 0)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "config.yaml"), testutil.NewRecorder(), 0)
	if err := w.Start(context.Background()); err == nil {
		_ = w.Stop()
		t.Error("Start() should fail when the directory does not exist")
	}
}
