package app

import (
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/download"
	"github.com/theezgbp/ezgbp-desktop/internal/navigation"
)

// Notification data keys and actions.
const (
	dataAction    = "action"
	dataVersion   = "version"
	dataPath      = "path"
	actionInstall = "install"
	actionShow    = "show"
)

// registerHandlers wires hub events to the components. Every handler runs
// on the hub goroutine, which is the only goroutine that touches the
// controller and the inbox.
func (a *App) registerHandlers() {
	h := a.hub

	h.Handle(events.EventTypeWillNavigate, a.onWillNavigate)
	h.Handle(events.EventTypeDidNavigate, a.onDidNavigate)
	h.Handle(events.EventTypeNewWindow, a.onNewWindow)
	h.Handle(events.EventTypeWindowReady, a.onWindowReady)
	h.Handle(events.EventTypeWindowClosed, a.onWindowClosed)
	h.Handle(events.EventTypeAppActivated, a.onActivate)
	h.Handle(events.EventTypeShowWindow, a.onActivate)
	h.Handle(events.EventTypeDeepLink, a.onDeepLink)
	h.Handle(events.EventTypeSecondLaunch, a.onSecondLaunch)
	h.Handle(events.EventTypeQuitRequested, a.onQuit)

	h.Handle(events.EventTypeUpdateCheckRequested, a.onUpdateCheckRequested)
	h.Handle(events.EventTypeUpdateAvailable, a.onUpdateAvailable)
	h.Handle(events.EventTypeUpdateNotAvailable, a.onUpdateNotAvailable)
	h.Handle(events.EventTypeUpdateDownloaded, a.onUpdateDownloaded)
	h.Handle(events.EventTypeUpdateError, a.onUpdateError)
	h.Handle(events.EventTypeUpdateInstall, a.onUpdateInstall)

	h.Handle(events.EventTypeDownloadCompleted, a.onDownloadCompleted)
	h.Handle(events.EventTypeDownloadFailed, a.onDownloadFailed)
	h.Handle(events.EventTypeNotificationClicked, a.onNotificationClicked)
	h.Handle(events.EventTypeConfigChanged, a.onConfigChanged)
}

// payloadOf extracts a typed payload from a BaseEvent.
func payloadOf[T any](e events.Event) (T, bool) {
	var zero T
	be, ok := e.(*events.BaseEvent)
	if !ok {
		return zero, false
	}
	p, ok := be.Payload.(T)
	return p, ok
}

// --- Navigation ---

func (a *App) onWillNavigate(e events.Event) {
	p, ok := payloadOf[events.NavigationPayload](e)
	if !ok {
		return
	}
	d := a.controller.OnWillNavigate(e.GetWindowID(), p.URL)
	log.Debug().Str("window", e.GetWindowID()).Str("url", p.URL).Stringer("decision", d).Msg("will-navigate")
}

func (a *App) onDidNavigate(e events.Event) {
	p, ok := payloadOf[events.NavigationPayload](e)
	if !ok {
		return
	}
	a.controller.OnDidNavigate(e.GetWindowID(), p.URL)
}

func (a *App) onNewWindow(e events.Event) {
	p, ok := payloadOf[events.NavigationPayload](e)
	if !ok {
		return
	}
	d := a.controller.OnNewWindowRequest(navigation.Request{
		WindowID:    e.GetWindowID(),
		URL:         p.URL,
		Disposition: string(p.Disposition),
		ContentType: p.ContentType,
		Download:    p.Download,
	})
	log.Debug().Str("window", e.GetWindowID()).Str("url", p.URL).Stringer("decision", d).Msg("new-window")
}

func (a *App) onWindowReady(e events.Event) {
	p, _ := payloadOf[events.NavigationPayload](e)
	id := e.GetWindowID()
	a.controller.OnWindowReady(id, p.URL)
	if a.controller.IsPrimary(id) {
		a.inbox.Ready(id)
	}
}

func (a *App) onWindowClosed(e events.Event) {
	id := e.GetWindowID()
	wasPrimary := a.controller.IsPrimary(id)
	a.controller.OnWindowClosed(id)
	if wasPrimary {
		a.inbox.Reset()
	}
}

func (a *App) onActivate(events.Event) {
	a.controller.OnActivate()
}

func (a *App) onQuit(events.Event) {
	log.Info().Msg("quit requested")
	a.shell.Quit()
}

// --- Deep links ---

func (a *App) onDeepLink(e events.Event) {
	p, ok := payloadOf[events.DeepLinkPayload](e)
	if !ok {
		return
	}
	a.receiveDeepLink(p.URL, p.Source)
}

func (a *App) onSecondLaunch(e events.Event) {
	p, ok := payloadOf[events.SecondLaunchPayload](e)
	if !ok {
		return
	}
	log.Info().Strs("args", p.Args).Msg("second instance launched")

	if link, ok := deeplink.Find(p.Args, a.cfg.App.Scheme); ok {
		a.receiveDeepLink(link, "second-instance")
		return
	}
	a.controller.OnActivate()
}

func (a *App) receiveDeepLink(url, source string) {
	if !deeplink.Is(url, a.cfg.App.Scheme) {
		log.Warn().Str("url", url).Str("source", source).Msg("ignoring link with foreign scheme")
		return
	}
	log.Info().Str("url", url).Str("source", source).Msg("deep link received")

	if err := a.controller.ShowPrimary(); err != nil {
		log.Error().Err(err).Msg("no window for deep link, keeping it queued")
	}
	a.inbox.Receive(url)
}

// --- Downloads ---

func (a *App) startDownload(url string) {
	id := a.downloads.Start(a.context(), url)
	a.hub.Publish(events.NewDownloadEvent(events.EventTypeDownloadStarted, events.DownloadPayload{ID: id, URL: url}))
}

// onDownloadDone runs on the transfer goroutine and hands the result to
// the hub.
func (a *App) onDownloadDone(r download.Result) {
	p := events.DownloadPayload{ID: r.ID, URL: r.URL, Path: r.Path, Size: r.Size}
	if !r.OK() {
		p.Error = r.Err.Error()
		a.hub.Publish(events.NewDownloadEvent(events.EventTypeDownloadFailed, p))
		return
	}
	a.hub.Publish(events.NewDownloadEvent(events.EventTypeDownloadCompleted, p))
}

func (a *App) onDownloadCompleted(e events.Event) {
	p, ok := payloadOf[events.DownloadPayload](e)
	if !ok {
		return
	}
	a.notify("Download Complete", filepath.Base(p.Path)+" was saved to "+filepath.Dir(p.Path),
		map[string]string{dataAction: actionShow, dataPath: p.Path})
}

func (a *App) onDownloadFailed(e events.Event) {
	p, ok := payloadOf[events.DownloadPayload](e)
	if !ok {
		return
	}
	a.notify("Download Failed", "Could not download "+download.FileName("", p.URL)+".",
		map[string]string{dataAction: actionShow})
}

// --- Notifications and config ---

func (a *App) onNotificationClicked(e events.Event) {
	p, ok := payloadOf[events.NotificationClickedPayload](e)
	if !ok {
		return
	}
	if p.Data[dataAction] == actionInstall {
		a.hub.Publish(events.NewEvent(events.EventTypeUpdateInstall, nil))
		return
	}
	a.controller.OnActivate()
}

func (a *App) onConfigChanged(events.Event) {
	a.notify("Settings Changed", "Restart "+a.cfg.App.Name+" to apply the new settings.", nil)
}

// notify shows a shell notification and logs a failure.
func (a *App) notify(title, body string, data map[string]string) bool {
	if _, err := a.notifier.Notify(title, body, data); err != nil {
		log.Debug().Err(err).Str("title", title).Msg("notification not shown")
		return false
	}
	return true
}
