package desktop

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/theezgbp/ezgbp-desktop/internal/bridge"
	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
)

// setupMenu installs the application menu: File, Edit, View, Window and
// Help, plus the application menu on macOS.
func (d *Desktop) setupMenu() {
	menu := application.NewMenu()

	if runtime.GOOS == "darwin" {
		menu.AddRole(application.AppMenu)
	}

	file := menu.AddSubmenu("File")
	file.Add("Check for Updates").OnClick(func(*application.Context) {
		d.publish(domainevents.NewUpdateCheckRequestedEvent(true))
	})
	file.AddSeparator()
	file.Add("Quit").SetAccelerator("CmdOrCtrl+Q").OnClick(func(*application.Context) {
		d.publish(domainevents.NewEvent(domainevents.EventTypeQuitRequested, nil))
	})

	menu.AddRole(application.EditMenu)

	view := menu.AddSubmenu("View")
	view.AddRole(application.Reload)
	view.AddRole(application.ForceReload)
	if d.cfg.Window.DevTools {
		view.AddRole(application.OpenDevTools)
	}
	view.AddSeparator()
	view.AddRole(application.ResetZoom)
	view.AddRole(application.ZoomIn)
	view.AddRole(application.ZoomOut)
	view.AddSeparator()
	view.AddRole(application.ToggleFullscreen)

	menu.AddRole(application.WindowMenu)

	help := menu.AddSubmenu("Help")
	help.Add("About " + d.cfg.App.Name).OnClick(func(*application.Context) {
		d.showAbout()
	})

	d.wails.Menu.Set(menu)
}

// showAbout asks the hosted app to show its about screen.
func (d *Desktop) showAbout() {
	w := d.primary()
	if w == nil {
		log.Debug().Msg("about requested without a primary window")
		return
	}
	if err := d.deliver(w.id, bridge.EventShowAbout, nil); err != nil {
		log.Warn().Err(err).Msg("about request not delivered")
	}
}
