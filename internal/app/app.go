// Package app orchestrates all components of the desktop shell.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/download"
	"github.com/theezgbp/ezgbp-desktop/internal/gate"
	"github.com/theezgbp/ezgbp-desktop/internal/hub"
	"github.com/theezgbp/ezgbp-desktop/internal/navigation"
	"github.com/theezgbp/ezgbp-desktop/internal/notify"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

// Shell is the native side of the application: windows, the system browser,
// page messaging, dialogs and process exit. Its methods may be called from
// any goroutine.
type Shell interface {
	NewPrimaryWindow(url string) (navigation.Window, error)
	NewPopupWindow(parentID, url string) (navigation.Window, error)
	OpenExternal(url string) error
	Quit()

	// SendDeepLink delivers a deep link to the page loaded in windowID.
	SendDeepLink(windowID, payload string) error
	ShowInfo(title, message string)
	ShowError(title, message string)
}

// Deps are the platform services the App runs on.
type Deps struct {
	Shell     Shell
	Notifier  notify.Backend   // nil: notifications unsupported
	Installer updater.Installer // nil: updater.BinaryInstaller
}

// App is the main application struct that orchestrates all components.
type App struct {
	cfg     *config.Config
	version string
	shell   Shell

	// Core components
	hub        *hub.Hub
	gate       *gate.AllowList
	controller *navigation.Controller
	inbox      *deeplink.Inbox
	notifier   *notify.Service
	updater    *updater.Updater
	downloads  *download.Manager
	watcher    *config.Watcher

	// installing is set once an update install has been triggered.
	installing atomic.Bool

	// Lifecycle
	mu           sync.Mutex
	running      bool
	ctx          context.Context
	cancel       context.CancelFunc
	installTimer *time.Timer
}

// New creates a new App instance. No window exists until Start.
func New(cfg *config.Config, version string, deps Deps) (*App, error) {
	if deps.Shell == nil {
		return nil, fmt.Errorf("app: no shell")
	}

	allow, err := gate.New(cfg.App.StartURL, cfg.Navigation.TrustedDomains)
	if err != nil {
		return nil, fmt.Errorf("failed to build domain gate: %w", err)
	}

	a := &App{
		cfg:     cfg,
		version: version,
		shell:   deps.Shell,
		hub:     hub.New(),
		gate:    allow,
	}

	a.notifier = notify.NewService(deps.Notifier, notify.Options{
		Enabled: cfg.Notifications.Enabled,
		Title:   cfg.App.Name,
		Icon:    cfg.App.Icon,
	})

	a.downloads = download.NewManager(download.Options{
		Dir:       cfg.Downloads.Dir,
		RetryMax:  cfg.Downloads.RetryMax,
		Timeout:   cfg.Downloads.Timeout,
		UserAgent: a.userAgent(),
	}, a.onDownloadDone)

	a.controller = navigation.New(
		allow,
		download.NewDetector(cfg.DownloadRules()),
		shellPlatform{Shell: deps.Shell, app: a},
		navigation.Options{
			StartURL:         cfg.App.StartURL,
			QuitOnLastClosed: cfg.Window.QuitOnLastClosed,
		},
	)
	a.inbox = deeplink.NewInbox(deeplink.SenderFunc(deps.Shell.SendDeepLink))
	a.controller.OnPrimaryLoad = func(string) { a.inbox.Reset() }

	installer := deps.Installer
	if installer == nil {
		installer = updater.BinaryInstaller{}
	}
	a.updater = updater.New(updater.Options{
		Enabled:        cfg.Updater.Enabled,
		FeedURL:        cfg.Updater.FeedURL,
		Channel:        cfg.Updater.Channel,
		CurrentVersion: version,
		InitialDelay:   cfg.Updater.InitialDelay,
		Interval:       cfg.Updater.Interval,
		AutoDownload:   cfg.Updater.AutoDownload,
		Timeout:        cfg.Updater.Timeout,
		UserAgent:      a.userAgent(),
	}, a.hub, installer)

	if cfg.File != "" {
		a.watcher = config.NewWatcher(cfg.File, a.hub, 0)
	}

	a.registerHandlers()
	return a, nil
}

// Start starts the hub, opens the primary window, queues a deep link found
// in args and starts the background workers. It returns immediately.
func (a *App) Start(ctx context.Context, args []string) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("application is already running")
	}
	a.running = true
	ctx, a.cancel = context.WithCancel(ctx)
	a.ctx = ctx
	a.mu.Unlock()

	if err := a.hub.Start(); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}

	log.Info().
		Str("version", a.version).
		Str("start_url", a.cfg.App.StartURL).
		Strs("trusted_domains", a.gate.TrustedDomains()).
		Msg("starting shell")

	a.hub.Publish(events.NewEvent(events.EventTypeShowWindow, nil))
	if link, ok := deeplink.Find(args, a.cfg.App.Scheme); ok {
		a.hub.Publish(events.NewDeepLinkEvent(link, "argv"))
	}

	go a.updater.Run(ctx)
	a.startPartialCleanup(ctx)

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("config watcher not started")
		}
	}

	return nil
}

// Stop cancels background work, waits for transfers to report and stops
// the hub. It is safe to call more than once.
func (a *App) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.cancel()
	if a.installTimer != nil {
		a.installTimer.Stop()
		a.installTimer = nil
	}
	a.mu.Unlock()

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			log.Warn().Err(err).Msg("config watcher stop failed")
		}
	}
	a.downloads.Wait()

	if err := a.hub.Stop(); err != nil {
		return err
	}
	log.Info().Msg("shell stopped")
	return nil
}

// IsRunning reports whether Start has been called without Stop.
func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Publish queues an event from the native side.
func (a *App) Publish(e events.Event) {
	a.hub.Publish(e)
}

// Notifier returns the notification service shared with hosted content.
func (a *App) Notifier() *notify.Service {
	return a.notifier
}

// Gate returns the domain allow-list.
func (a *App) Gate() *gate.AllowList {
	return a.gate
}

// Updater returns the self-updater.
func (a *App) Updater() *updater.Updater {
	return a.updater
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Version returns the running version.
func (a *App) Version() string {
	return a.version
}

// context returns the context of the running App.
func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) userAgent() string {
	return fmt.Sprintf("EzGBP-Desktop/%s", a.version)
}

// shellPlatform adapts a Shell to navigation.Platform, routing downloads
// into the App's download manager.
type shellPlatform struct {
	Shell
	app *App
}

func (p shellPlatform) Download(url string) error {
	p.app.startDownload(url)
	return nil
}
