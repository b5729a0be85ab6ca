// Package hub implements the serial event loop of the desktop shell.
//
// Every window, navigation, update and download event is published to the hub
// and delivered to its handlers on a single goroutine, so handlers never run
// concurrently and need no locking of the state they share.
package hub

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/ports"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
)

// DefaultBufferSize is the initial queue capacity used by New. The queue grows
// past it, so Publish never blocks.
const DefaultBufferSize = 256

// Hub is the central event dispatcher that delivers events to handlers one at a time.
type Hub struct {
	// handlers holds registered handlers per event type
	handlers map[events.EventType][]ports.Handler

	// queue holds events waiting to be dispatched, oldest first
	queue []events.Event

	// qmu protects queue
	qmu sync.Mutex

	// wake is signalled when queue goes from empty to non-empty
	wake chan struct{}

	// mu protects handlers and running
	mu sync.RWMutex

	// done signals when the hub should stop
	done chan struct{}

	// stopped is closed once the loop has exited
	stopped chan struct{}

	// running indicates if the hub is running
	running bool
}

// New creates a new Hub.
func New() *Hub {
	return NewWithBuffer(DefaultBufferSize)
}

// NewWithBuffer creates a new Hub with a custom initial queue capacity.
func NewWithBuffer(size int) *Hub {
	if size < 1 {
		size = 1
	}
	return &Hub{
		handlers: make(map[events.EventType][]ports.Handler),
		queue:    make([]events.Event, 0, size),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Handle registers a handler for an event type. Handlers registered for the
// same type run in registration order.
func (h *Hub) Handle(eventType events.EventType, handler ports.Handler) {
	if handler == nil {
		return
	}
	h.mu.Lock()
	h.handlers[eventType] = append(h.handlers[eventType], handler)
	h.mu.Unlock()
}

// Start begins the hub's main loop.
func (h *Hub) Start() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	log.Debug().Msg("event hub started")

	go h.run()
	return nil
}

// Stop gracefully stops the hub. Events still queued are discarded.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	h.mu.Unlock()

	close(h.done)
	<-h.stopped

	log.Debug().Msg("event hub stopped")
	return nil
}

// run is the main event loop.
func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			return
		case <-h.wake:
		}

		for _, event := range h.take() {
			select {
			case <-h.done:
				return
			default:
			}
			h.dispatch(event)
		}
	}
}

// take removes and returns everything queued so far.
func (h *Hub) take() []events.Event {
	h.qmu.Lock()
	defer h.qmu.Unlock()
	batch := h.queue
	h.queue = nil
	return batch
}

func (h *Hub) dispatch(event events.Event) {
	h.mu.RLock()
	handlers := h.handlers[event.Type()]
	h.mu.RUnlock()

	if len(handlers) == 0 {
		log.Trace().
			Str("event_type", string(event.Type())).
			Msg("event has no handlers")
		return
	}

	for _, handler := range handlers {
		h.invoke(handler, event)
	}
}

// invoke runs one handler, isolating the loop from its panics.
func (h *Hub) invoke(handler ports.Handler, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("event_type", string(event.Type())).
				Str("window_id", event.GetWindowID()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("event handler panicked")
		}
	}()
	handler(event)
}

// Publish queues an event for delivery and never blocks, so handlers may
// publish from the hub goroutine. Events published after Stop are dropped.
func (h *Hub) Publish(event events.Event) {
	if event == nil {
		return
	}
	select {
	case <-h.done:
		log.Debug().
			Str("event_type", string(event.Type())).
			Msg("event dropped: hub stopped")
		return
	default:
	}

	h.qmu.Lock()
	h.queue = append(h.queue, event)
	h.qmu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
	log.Trace().
		Str("event_type", string(event.Type())).
		Msg("event published")
}

// Pending returns the number of events waiting for dispatch.
func (h *Hub) Pending() int {
	h.qmu.Lock()
	defer h.qmu.Unlock()
	return len(h.queue)
}

// HandlerCount returns the number of registered handlers.
func (h *Hub) HandlerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, hs := range h.handlers {
		n += len(hs)
	}
	return n
}

// IsRunning returns true if the hub is running.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

var _ ports.EventHub = (*Hub)(nil)
