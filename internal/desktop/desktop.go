// Package desktop runs the shell on Wails v3: native windows, the tray, the
// application menu, single-instance forwarding, notifications and dialogs.
package desktop

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"
	"github.com/wailsapp/wails/v3/pkg/services/notifications"

	"github.com/theezgbp/ezgbp-desktop/internal/app"
	"github.com/theezgbp/ezgbp-desktop/internal/bridge"
	"github.com/theezgbp/ezgbp-desktop/internal/config"
	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

//go:embed icons/icon.png
var defaultIcon []byte

// Options configures Run.
type Options struct {
	Config    *config.Config
	Version   string
	Args      []string // process arguments, checked for a deep link
	Logger    *slog.Logger
	Installer updater.Installer
}

// Desktop wraps the core App with the Wails runtime. It implements
// app.Shell.
type Desktop struct {
	cfg   *config.Config
	wails *application.App
	core  *app.App
	pages *bridge.Service
	icon  []byte

	// sink receives native events once the core exists.
	sink func(domainevents.Event)

	mu        sync.RWMutex
	windows   map[string]*window
	primaryID string

	quitting atomic.Bool
}

// Run builds the desktop application and blocks until it quits. A second
// launch never gets here: Wails forwards its arguments to the running
// instance and exits.
func Run(opts Options) error {
	cfg := opts.Config
	d := &Desktop{
		cfg:     cfg,
		windows: make(map[string]*window),
		icon:    loadIcon(cfg.App.Icon),
	}

	notifier := notifications.New()

	d.wails = application.New(application.Options{
		Name:        cfg.App.Name,
		Description: "Desktop shell for " + cfg.App.Name,
		Icon:        d.icon,
		Logger:      opts.Logger,
		Services: []application.Service{
			application.NewService(notifier),
		},
		// The navigation controller owns the quit-on-last-window policy.
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
		Windows: application.WindowsOptions{
			DisableQuitOnLastWindowClosed: true,
		},
		Linux: application.LinuxOptions{
			DisableQuitOnLastWindowClosed: true,
			ProgramName:                   "ezgbp",
		},
		SingleInstance: &application.SingleInstanceOptions{
			UniqueID: cfg.App.ID,
			OnSecondInstanceLaunch: func(data application.SecondInstanceData) {
				d.publish(domainevents.NewSecondLaunchEvent(data.Args, data.WorkingDir))
			},
		},
		RawMessageHandler: func(w application.Window, message string) {
			d.onRawMessage(w, message)
		},
		OnShutdown: func() {
			if d.core != nil {
				if err := d.core.Stop(); err != nil {
					log.Warn().Err(err).Msg("shutdown failed")
				}
			}
		},
	})

	core, err := app.New(cfg, opts.Version, app.Deps{
		Shell:     d,
		Notifier:  newNotifier(notifier, cfg.App.Name, d.publish),
		Installer: opts.Installer,
	})
	if err != nil {
		return err
	}
	d.core = core
	d.sink = core.Publish
	d.pages = bridge.NewService(d.wails.Clipboard, core.Notifier())

	d.registerAppEvents(opts.Args)
	d.setupMenu()
	d.setupTray()
	if cfg.App.RegisterScheme {
		go registerScheme(cfg)
	}

	if err := d.wails.Run(); err != nil {
		return fmt.Errorf("desktop runtime: %w", err)
	}
	return nil
}

func (d *Desktop) registerAppEvents(args []string) {
	d.wails.Event.OnApplicationEvent(events.Common.ApplicationStarted, func(*application.ApplicationEvent) {
		if err := d.core.Start(context.Background(), args); err != nil {
			log.Error().Err(err).Msg("failed to start shell")
			d.Quit()
		}
	})

	// macOS delivers scheme URLs as an open-url event rather than argv.
	d.wails.Event.OnApplicationEvent(events.Common.ApplicationLaunchedWithUrl, func(e *application.ApplicationEvent) {
		url := e.Context().URL()
		if url == "" {
			return
		}
		d.publish(domainevents.NewDeepLinkEvent(url, "open-url"))
	})

	d.wails.Event.OnApplicationEvent(events.Mac.ApplicationShouldHandleReopen, func(*application.ApplicationEvent) {
		d.publish(domainevents.NewEvent(domainevents.EventTypeAppActivated, nil))
	})
}

// publish forwards a native event to the core once it exists.
func (d *Desktop) publish(e domainevents.Event) {
	if d.sink == nil {
		log.Debug().Str("event_type", string(e.Type())).Msg("event before startup dropped")
		return
	}
	d.sink(e)
}

// --- app.Shell ---

func (d *Desktop) OpenExternal(url string) error {
	return d.wails.Browser.OpenURL(url)
}

// Quit exits the process. Safe to call more than once.
func (d *Desktop) Quit() {
	if !d.quitting.CompareAndSwap(false, true) {
		return
	}
	log.Info().Msg("quitting")
	d.wails.Quit()
}

func (d *Desktop) SendDeepLink(windowID, payload string) error {
	return d.deliver(windowID, bridge.EventDeepLink, payload)
}

func (d *Desktop) ShowInfo(title, message string) {
	d.wails.Dialog.Info().SetTitle(title).SetMessage(message).Show()
}

func (d *Desktop) ShowError(title, message string) {
	d.wails.Dialog.Error().SetTitle(title).SetMessage(message).Show()
}

var _ app.Shell = (*Desktop)(nil)

// registerScheme makes this binary the handler of the deep link scheme so
// links open the app even before an installer has run.
func registerScheme(cfg *config.Config) {
	exe, err := os.Executable()
	if err != nil {
		log.Warn().Err(err).Msg("cannot locate executable for scheme registration")
		return
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	err = deeplink.Register(deeplink.Handler{Scheme: cfg.App.Scheme, Exe: exe, AppName: cfg.App.Name})
	if err != nil && !errors.Is(err, deeplink.ErrUnsupported) {
		log.Warn().Err(err).Str("scheme", cfg.App.Scheme).Msg("deep link scheme not registered")
	}
}

// loadIcon reads the configured icon, falling back to the built-in one.
// A broken icon is logged and never fatal.
func loadIcon(path string) []byte {
	if path == "" {
		return defaultIcon
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		log.Warn().Err(err).Str("path", path).Msg("icon unavailable, using built-in icon")
		return defaultIcon
	}
	return data
}
