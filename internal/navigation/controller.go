// Package navigation holds the window/navigation controller: the single owner
// of the primary window reference and its auth popups.
//
// The controller is not safe for concurrent use. It is driven exclusively from
// the serial event hub, so every method runs to completion before the next
// event is looked at. The primary reference can become nil between any two
// events and is checked before every use.
package navigation

import (
	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/domain"
	"github.com/theezgbp/ezgbp-desktop/internal/gate"
)

// Classifier is the Domain Gate.
type Classifier interface {
	Classify(raw string) gate.Class
	IsPrimary(raw string) bool
}

// DownloadMatcher is the download heuristic.
type DownloadMatcher interface {
	Match(rawURL, contentType string) bool
}

// NavDecision is the outcome of a will-navigate event.
type NavDecision int

const (
	// NavIgnored means the source window was closing, closed or unknown.
	NavIgnored NavDecision = iota
	// NavAllow loaded the URL in place.
	NavAllow
	// NavDownload handed the URL to the download pipeline.
	NavDownload
	// NavCancel handed the URL to the system browser.
	NavCancel
	// NavIntercepted redirected an auth callback into the primary window
	// and closed the popup.
	NavIntercepted
)

func (d NavDecision) String() string {
	switch d {
	case NavAllow:
		return "allow"
	case NavDownload:
		return "download"
	case NavCancel:
		return "cancel"
	case NavIntercepted:
		return "intercepted"
	default:
		return "ignored"
	}
}

// OpenDecision is the outcome of a new-window request. A platform default
// window is never created, whatever the decision.
type OpenDecision int

const (
	OpenIgnored OpenDecision = iota
	OpenDownload
	OpenPopup
	OpenExternal
)

func (d OpenDecision) String() string {
	switch d {
	case OpenDownload:
		return "download"
	case OpenPopup:
		return "popup"
	case OpenExternal:
		return "external"
	default:
		return "ignored"
	}
}

// Request is a new-window request from hosted content.
type Request struct {
	WindowID    string
	URL         string
	Disposition string
	ContentType string
	// Download is set for links the page marked with the download attribute.
	Download bool
}

// Options configures the controller.
type Options struct {
	StartURL string
	// QuitOnLastClosed quits the process when the primary window closes.
	// When false the process stays alive with zero windows until activated.
	QuitOnLastClosed bool
}

// Controller applies the Domain Gate to navigation and window events.
type Controller struct {
	gate      Classifier
	downloads DownloadMatcher
	platform  Platform
	opts      Options

	primary *handle
	popups  map[string]*handle

	// OnPrimaryLoad fires whenever the primary window starts loading a new
	// document, including its creation.
	OnPrimaryLoad func(windowID string)
}

// New creates a controller. No window exists until Start.
func New(g Classifier, d DownloadMatcher, p Platform, opts Options) *Controller {
	return &Controller{
		gate:      g,
		downloads: d,
		platform:  p,
		opts:      opts,
		popups:    make(map[string]*handle),
	}
}

// Start creates the primary window on the start URL.
func (c *Controller) Start() error {
	_, _, err := c.EnsurePrimary()
	return err
}

// EnsurePrimary returns the primary window, creating it when there is none.
func (c *Controller) EnsurePrimary() (Window, bool, error) {
	if c.primary != nil {
		return c.primary.window, false, nil
	}

	w, err := c.platform.NewPrimaryWindow(c.opts.StartURL)
	if err != nil {
		log.Error().Err(err).Str("url", c.opts.StartURL).Msg("failed to create primary window")
		return nil, false, err
	}

	h := &handle{window: w, role: Primary, state: Created, url: c.opts.StartURL}
	c.primary = h
	log.Info().Str("window", h.id()).Str("url", h.url).Msg("primary window created")

	c.primaryLoading(h)
	w.Show()
	h.state = Visible
	return w, true, nil
}

// ShowPrimary brings the primary window to the front, creating it if needed.
func (c *Controller) ShowPrimary() error {
	w, _, err := c.EnsurePrimary()
	if err != nil {
		return err
	}
	w.Show()
	w.Focus()
	return nil
}

// Primary returns the primary window or nil.
func (c *Controller) Primary() Window {
	if c.primary == nil {
		return nil
	}
	return c.primary.window
}

// IsPrimary reports whether windowID is the live primary window.
func (c *Controller) IsPrimary(windowID string) bool {
	return c.primary != nil && c.primary.id() == windowID
}

// PopupCount returns the number of live auth popups.
func (c *Controller) PopupCount() int {
	return len(c.popups)
}

// State returns the lifecycle state of a live window.
func (c *Controller) State(windowID string) (State, bool) {
	h := c.lookup(windowID)
	if h == nil {
		return Closed, false
	}
	return h.state, true
}

// OnNewWindowRequest decides what happens to a window.open or target=_blank
// request. Requests from a closing, closed or unknown window are ignored; an
// empty WindowID marks a request that did not come from hosted content.
func (c *Controller) OnNewWindowRequest(req Request) OpenDecision {
	if req.WindowID != "" {
		if src := c.lookup(req.WindowID); src == nil || src.inert() {
			return OpenIgnored
		}
	}

	logger := log.With().Str("window", req.WindowID).Str("url", req.URL).Logger()

	if req.Download || c.downloads.Match(req.URL, req.ContentType) {
		if err := c.platform.Download(req.URL); err != nil {
			logger.Warn().Err(err).Msg("download hand-off failed")
		}
		return OpenDownload
	}

	if c.gate.Classify(req.URL) == gate.External {
		c.openExternal(req.URL)
		return OpenExternal
	}

	parent, _, err := c.EnsurePrimary()
	if err != nil {
		logger.Error().Err(err).Msg("no primary window for auth popup")
		return OpenIgnored
	}

	w, err := c.platform.NewPopupWindow(parent.ID(), req.URL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create auth popup")
		return OpenIgnored
	}

	h := &handle{window: w, role: AuthPopup, state: Created, parentID: parent.ID(), url: req.URL}
	c.popups[h.id()] = h
	w.Show()
	h.state = Visible

	logger.Info().Str("popup", h.id()).Msg("auth popup opened")
	return OpenPopup
}

// OnWillNavigate decides an in-place navigation attempt.
func (c *Controller) OnWillNavigate(windowID, url string) NavDecision {
	h := c.lookup(windowID)
	if h == nil || h.inert() {
		return NavIgnored
	}

	if c.downloads.Match(url, "") {
		if err := c.platform.Download(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("download hand-off failed")
		}
		return NavDownload
	}

	if c.gate.Classify(url) == gate.External {
		c.openExternal(url)
		return NavCancel
	}

	if h.role == AuthPopup && c.gate.IsPrimary(url) {
		c.intercept(h, url)
		return NavIntercepted
	}

	if err := h.window.Load(url); err != nil {
		log.Warn().Err(err).Str("window", windowID).Str("url", url).Msg("load failed")
		return NavAllow
	}
	h.state = Navigating
	h.url = url
	if h.role == Primary {
		c.primaryLoading(h)
	}
	return NavAllow
}

// OnDidNavigate observes a completed navigation. It repeats the callback
// interception for navigations the will-navigate hook missed, and pulls any
// window that ended up on an external page back to where it was.
func (c *Controller) OnDidNavigate(windowID, url string) {
	h := c.lookup(windowID)
	if h == nil || h.inert() {
		return
	}

	if h.role == AuthPopup && c.gate.IsPrimary(url) {
		c.intercept(h, url)
		return
	}

	if c.gate.Classify(url) == gate.External {
		c.openExternal(url)
		if h.url != "" && h.url != url {
			if err := h.window.Load(h.url); err != nil {
				log.Warn().Err(err).Str("window", windowID).Msg("restore failed")
			}
		}
		return
	}

	h.state = Navigating
	if h.url != url {
		h.url = url
		if h.role == Primary {
			c.primaryLoading(h)
		}
	}
}

// OnWindowReady marks a window's document as ready.
func (c *Controller) OnWindowReady(windowID, url string) {
	h := c.lookup(windowID)
	if h == nil || h.inert() {
		return
	}
	h.state = Visible
	if url != "" {
		h.url = url
	}
}

// OnWindowClosed routes a platform close notification to the right handler.
func (c *Controller) OnWindowClosed(windowID string) {
	if c.IsPrimary(windowID) {
		c.OnPrimaryClosed(windowID)
		return
	}
	c.OnPopupClosed(windowID)
}

// OnPopupClosed releases an auth popup and focuses the primary window.
func (c *Controller) OnPopupClosed(windowID string) {
	h, ok := c.popups[windowID]
	if !ok || h.state == Closed {
		return
	}
	h.state = Closed
	delete(c.popups, windowID)
	log.Debug().Str("popup", windowID).Msg("auth popup released")

	if c.primary != nil {
		c.primary.window.Focus()
	}
}

// OnPrimaryClosed drops the primary reference, closes its popups and quits
// when the lifecycle policy says so.
func (c *Controller) OnPrimaryClosed(windowID string) {
	if !c.IsPrimary(windowID) {
		return
	}
	c.primary.state = Closed
	c.primary = nil
	log.Info().Str("window", windowID).Msg("primary window closed")

	for id, h := range c.popups {
		delete(c.popups, id)
		if h.inert() {
			continue
		}
		h.state = Closed
		h.window.Close()
	}

	if c.opts.QuitOnLastClosed {
		c.platform.Quit()
	}
}

// OnActivate handles desktop activation: recreate the primary window when
// there is none, otherwise bring it forward.
func (c *Controller) OnActivate() {
	if err := c.ShowPrimary(); err != nil {
		log.Error().Err(err).Msg("activation failed")
	}
}

// Load navigates the primary window, creating it first when needed.
func (c *Controller) Load(url string) error {
	w, created, err := c.EnsurePrimary()
	if err != nil {
		return err
	}
	if created && url == c.opts.StartURL {
		return nil
	}
	if err := w.Load(url); err != nil {
		return err
	}
	c.primary.state = Navigating
	c.primary.url = url
	c.primaryLoading(c.primary)
	return nil
}

// intercept moves an auth callback from a popup to the primary window and
// closes the popup. The popup is marked closing before anything else so a
// second observation of the same callback is ignored.
func (c *Controller) intercept(popup *handle, url string) {
	popup.state = Closing
	log.Info().Str("popup", popup.id()).Str("url", url).Msg("auth callback intercepted")

	if c.primary == nil {
		log.Warn().Err(domain.ErrNoPrimaryWindow).Msg("recreating primary window for callback")
	}
	if err := c.Load(url); err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to load callback in primary window")
	}

	popup.window.Close()
}

func (c *Controller) openExternal(url string) {
	if err := c.platform.OpenExternal(url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to open external browser")
		return
	}
	log.Debug().Str("url", url).Msg("opened in external browser")
}

func (c *Controller) primaryLoading(h *handle) {
	if c.OnPrimaryLoad != nil {
		c.OnPrimaryLoad(h.id())
	}
}

func (c *Controller) lookup(windowID string) *handle {
	if c.primary != nil && c.primary.id() == windowID {
		return c.primary
	}
	return c.popups[windowID]
}
