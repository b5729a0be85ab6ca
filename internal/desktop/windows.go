package desktop

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/theezgbp/ezgbp-desktop/internal/bridge"
	"github.com/theezgbp/ezgbp-desktop/internal/domain"
	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/navigation"
)

// window is a Wails webview window seen through navigation.Window. Its ID
// doubles as the Wails window name, which is what page events carry as
// their sender.
type window struct {
	id     string
	ww     *application.WebviewWindow
	closed atomic.Bool
	onGone func(id string)
}

func (w *window) ID() string { return w.id }

func (w *window) Load(url string) error {
	if w.closed.Load() {
		return domain.ErrWindowClosed
	}
	w.ww.SetURL(url)
	return nil
}

func (w *window) Show() {
	if !w.closed.Load() {
		w.ww.Show()
	}
}

func (w *window) Focus() {
	if !w.closed.Load() {
		w.ww.Focus()
	}
}

// Close closes the native window. The closed event is reported whether or
// not the runtime also fires its closing hook.
func (w *window) Close() {
	if w.closed.Load() {
		return
	}
	w.ww.Close()
	w.gone()
}

func (w *window) gone() {
	if w.closed.CompareAndSwap(false, true) && w.onGone != nil {
		w.onGone(w.id)
	}
}

func (w *window) exec(js string) error {
	if w.closed.Load() {
		return domain.ErrWindowClosed
	}
	w.ww.ExecJS(js)
	return nil
}

var _ navigation.Window = (*window)(nil)

// windowName builds a unique window name for role.
func windowName(role navigation.Role) string {
	return role.String() + "-" + uuid.NewString()
}

func (d *Desktop) NewPrimaryWindow(url string) (navigation.Window, error) {
	w := d.newWindow(navigation.Primary, url, application.WebviewWindowOptions{
		Title:     d.cfg.Window.Title,
		Width:     d.cfg.Window.Width,
		Height:    d.cfg.Window.Height,
		MinWidth:  d.cfg.Window.MinWidth,
		MinHeight: d.cfg.Window.MinHeight,
	})

	d.mu.Lock()
	d.primaryID = w.id
	d.mu.Unlock()
	return w, nil
}

func (d *Desktop) NewPopupWindow(parentID, url string) (navigation.Window, error) {
	if d.window(parentID) == nil {
		return nil, domain.ErrNoPrimaryWindow
	}
	return d.newWindow(navigation.AuthPopup, url, application.WebviewWindowOptions{
		Title:  d.cfg.Window.Title,
		Width:  d.cfg.Window.PopupWidth,
		Height: d.cfg.Window.PopupHeight,
	}), nil
}

func (d *Desktop) newWindow(role navigation.Role, url string, opts application.WebviewWindowOptions) *window {
	name := windowName(role)
	opts.Name = name
	opts.URL = url
	opts.JS = bridge.Script(name)
	opts.DevToolsEnabled = d.cfg.Window.DevTools

	w := &window{id: name, onGone: d.windowGone}
	w.ww = d.wails.Window.NewWithOptions(opts)
	w.ww.OnWindowEvent(events.Common.WindowClosing, func(*application.WindowEvent) {
		w.gone()
	})
	// WebView2 only runs opts.JS for inline HTML, so remote pages get the
	// script after every navigation. The script ignores a second injection.
	w.ww.OnWindowEvent(events.Windows.WebViewNavigationCompleted, func(*application.WindowEvent) {
		if err := w.exec(opts.JS); err != nil {
			log.Debug().Err(err).Str("window", name).Msg("page script not injected")
		}
	})

	d.mu.Lock()
	d.windows[name] = w
	d.mu.Unlock()

	log.Debug().Str("window", name).Str("role", role.String()).Str("url", url).Msg("native window created")
	return w
}

// windowGone forgets a closed window and tells the core.
func (d *Desktop) windowGone(id string) {
	d.mu.Lock()
	delete(d.windows, id)
	if d.primaryID == id {
		d.primaryID = ""
	}
	d.mu.Unlock()

	d.publish(domainevents.NewWindowClosedEvent(id))
}

func (d *Desktop) window(id string) *window {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.windows[id]
}

func (d *Desktop) primary() *window {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.windows[d.primaryID]
}

// deliver hands a shell message to the page script of one window.
func (d *Desktop) deliver(windowID, name string, data any) error {
	w := d.window(windowID)
	if w == nil {
		return domain.ErrUnknownWindow
	}
	js, err := bridge.DeliverJS(name, data)
	if err != nil {
		return err
	}
	return w.exec(js)
}
