package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/ports"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
)

// DefaultWatchDelay collapses editor save bursts into one change event.
const DefaultWatchDelay = 300 * time.Millisecond

// Watcher publishes config_changed when the config file is written. The
// running shell does not reload: the allow-list is fixed for the process
// lifetime, so a change only means a restart is required.
type Watcher struct {
	path  string
	pub   ports.Publisher
	delay time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, pub ports.Publisher, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	return &Watcher{path: path, pub: pub, delay: delay}
}

// Start begins watching. The directory is watched rather than the file so
// editors that save by rename are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.watcher = fw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.eventLoop(watchCtx, fw, w.done)

	log.Info().Str("path", w.path).Msg("config watcher started")
	return nil
}

// Stop terminates watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	err := w.watcher.Close()
	done := w.done
	w.mu.Unlock()

	<-done
	log.Info().Msg("config watcher stopped")
	return err
}

// IsRunning returns whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) eventLoop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	debounced := debounce.New(w.delay)
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			debounced(func() {
				log.Warn().Str("path", w.path).Msg("config file changed, restart required to apply")
				w.pub.Publish(events.NewConfigChangedEvent(w.path))
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

var _ ports.ConfigWatcher = (*Watcher)(nil)
