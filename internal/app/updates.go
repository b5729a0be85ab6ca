package app

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

// User-facing update texts.
const (
	updateCheckTitle    = "Update Check"
	updateCheckFailed   = "Unable to check for updates. Please try again later."
	updateDialogTitle   = "Check for Updates"
	updateNotConfigured = "Automatic updates are not configured for this build."
)

// onUpdateCheckRequested runs a check off the hub goroutine. A manual check
// joins one already in flight.
func (a *App) onUpdateCheckRequested(e events.Event) {
	p, _ := payloadOf[events.UpdatePayload](e)

	if !a.updater.Enabled() {
		if p.Manual {
			a.shell.ShowInfo(updateDialogTitle, updateNotConfigured)
		}
		return
	}

	ctx := a.context()
	go func() {
		if _, err := a.updater.Check(ctx, p.Manual); err != nil && !errors.Is(err, updater.ErrDisabled) {
			log.Debug().Err(err).Bool("manual", p.Manual).Msg("update check finished with error")
		}
	}()
}

func (a *App) onUpdateAvailable(e events.Event) {
	p, ok := payloadOf[events.UpdatePayload](e)
	if !ok {
		return
	}
	body := "Version " + p.Version + " is available."
	if a.cfg.Updater.AutoDownload {
		body = "Downloading version " + p.Version + "..."
	}
	a.notify("Update Available", body, map[string]string{dataAction: actionShow, dataVersion: p.Version})
}

func (a *App) onUpdateNotAvailable(e events.Event) {
	p, _ := payloadOf[events.UpdatePayload](e)
	if p.Manual {
		a.shell.ShowInfo(updateDialogTitle, a.upToDate())
	}
}

// onUpdateDownloaded announces the update and installs it when the user
// clicks the notification or after the auto-install delay, whichever comes
// first.
func (a *App) onUpdateDownloaded(e events.Event) {
	p, ok := payloadOf[events.UpdatePayload](e)
	if !ok {
		return
	}
	a.notify("Update Ready",
		"Version "+p.Version+" is ready. The app will restart to install the update.",
		map[string]string{dataAction: actionInstall, dataVersion: p.Version})

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	if a.installTimer != nil {
		a.installTimer.Stop()
	}
	a.installTimer = time.AfterFunc(a.cfg.Updater.AutoInstallDelay, func() {
		a.hub.Publish(events.NewEvent(events.EventTypeUpdateInstall, nil))
	})
}

func (a *App) onUpdateError(e events.Event) {
	p, ok := payloadOf[events.UpdatePayload](e)
	if !ok {
		return
	}

	switch {
	case p.Manual && p.Visible:
		if !a.notify(updateCheckTitle, updateCheckFailed, nil) {
			a.shell.ShowError(updateCheckTitle, updateCheckFailed)
		}
	case p.Manual:
		// No published release or none for this platform.
		a.shell.ShowInfo(updateDialogTitle, a.upToDate())
	case p.Visible && a.cfg.Updater.NotifyErrors:
		a.notify(updateCheckTitle, updateCheckFailed, nil)
	}
}

// onUpdateInstall installs the downloaded update once, then quits.
func (a *App) onUpdateInstall(events.Event) {
	if a.updater.Downloaded() == "" {
		log.Debug().Msg("install requested with nothing downloaded")
		return
	}
	if !a.installing.CompareAndSwap(false, true) {
		return
	}

	a.mu.Lock()
	if a.installTimer != nil {
		a.installTimer.Stop()
		a.installTimer = nil
	}
	a.mu.Unlock()

	go func() {
		if err := a.updater.Install(); err != nil {
			a.installing.Store(false)
			log.Error().Err(err).Msg("update install failed")
			a.shell.ShowError("Update Failed", "The update could not be installed: "+err.Error())
			return
		}
		a.hub.Publish(events.NewEvent(events.EventTypeQuitRequested, nil))
	}()
}

func (a *App) upToDate() string {
	return "You are running the latest version of " + a.cfg.App.Name + " (" + a.version + ")."
}
