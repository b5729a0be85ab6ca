package desktop

import (
	"github.com/wailsapp/wails/v3/pkg/application"

	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
)

// setupTray creates the tray icon and its menu.
func (d *Desktop) setupTray() {
	if !d.cfg.Tray.Enabled {
		return
	}

	tray := d.wails.SystemTray.New()
	tray.SetIcon(d.icon)
	tray.SetTooltip(d.cfg.Tray.Tooltip)

	show := func() {
		d.publish(domainevents.NewEvent(domainevents.EventTypeShowWindow, nil))
	}

	menu := application.NewMenu()
	menu.Add("Open " + d.cfg.App.Name).OnClick(func(*application.Context) { show() })
	menu.Add("Check for Updates").OnClick(func(*application.Context) {
		d.publish(domainevents.NewUpdateCheckRequestedEvent(true))
	})
	menu.AddSeparator()
	menu.Add("Quit").OnClick(func(*application.Context) {
		d.publish(domainevents.NewEvent(domainevents.EventTypeQuitRequested, nil))
	})

	tray.SetMenu(menu)
	tray.OnClick(show)
}
