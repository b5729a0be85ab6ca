//go:build !linux

package desktop

import (
	domainevents "github.com/theezgbp/ezgbp-desktop/internal/domain/events"
)

// newIconSender returns nil: macOS and Windows show the application icon on
// every notification.
func newIconSender(string, func(domainevents.Event)) iconSender {
	return nil
}
