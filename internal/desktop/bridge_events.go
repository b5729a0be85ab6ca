package desktop

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/theezgbp/ezgbp-desktop/internal/bridge"
)

// onRawMessage receives every webview message the runtime does not handle
// itself.
func (d *Desktop) onRawMessage(w application.Window, message string) {
	d.handlePageMessage(w.Name(), message)
}

// handlePageMessage turns a page script message into a hub event or
// answers a bridge call.
func (d *Desktop) handlePageMessage(windowName, raw string) {
	msg, err := bridge.ParseMessage(d.sender(windowName), raw)
	if errors.Is(err, bridge.ErrForeignMessage) {
		log.Trace().Str("sender", windowName).Msg("ignoring raw webview message")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("sender", windowName).Msg("dropping page message")
		return
	}

	if msg.Event != nil {
		d.publish(msg.Event)
		return
	}
	if d.pages == nil {
		return
	}

	// Notifications may block on the platform; keep the UI thread free.
	call := *msg.Call
	go func() {
		reply := d.pages.Invoke(call)
		if err := d.deliver(call.WindowID, bridge.EventReply, reply); err != nil {
			log.Debug().Err(err).Str("window", call.WindowID).Str("method", call.Method).Msg("bridge reply not delivered")
		}
	}()
}

// sender returns name when it is one of our windows.
func (d *Desktop) sender(name string) string {
	if name != "" && d.window(name) != nil {
		return name
	}
	return ""
}
