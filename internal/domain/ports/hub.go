package ports

import (
	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
)

// Handler processes a single event. Handlers run on the hub goroutine, one at
// a time, in publish order.
type Handler func(event events.Event)

// Publisher accepts events for later serial delivery.
type Publisher interface {
	// Publish queues an event. It never runs handlers inline.
	Publish(event events.Event)
}

// EventHub defines the contract for serial event distribution.
type EventHub interface {
	Publisher

	// Start begins the event loop.
	Start() error

	// Stop gracefully stops the hub.
	Stop() error

	// Handle registers a handler for an event type.
	Handle(eventType events.EventType, handler Handler)

	// HandlerCount returns the number of registered handlers.
	HandlerCount() int
}
