// Package events defines all event types delivered through the shell's event hub.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Navigation events
	EventTypeWillNavigate  EventType = "will_navigate"
	EventTypeDidNavigate   EventType = "did_navigate"
	EventTypeNewWindow     EventType = "new_window"
	EventTypeWindowReady   EventType = "window_ready"
	EventTypeWindowClosed  EventType = "window_closed"
	EventTypeAppActivated  EventType = "app_activated"
	EventTypeShowWindow    EventType = "show_window"
	EventTypeDeepLink      EventType = "deep_link"
	EventTypeSecondLaunch  EventType = "second_instance"
	EventTypeQuitRequested EventType = "quit_requested"

	// Update events
	EventTypeUpdateCheckRequested EventType = "update_check_requested"
	EventTypeUpdateChecking       EventType = "update_checking"
	EventTypeUpdateAvailable      EventType = "update_available"
	EventTypeUpdateNotAvailable   EventType = "update_not_available"
	EventTypeUpdateProgress       EventType = "update_progress"
	EventTypeUpdateDownloaded     EventType = "update_downloaded"
	EventTypeUpdateError          EventType = "update_error"
	EventTypeUpdateInstall        EventType = "update_install"

	// Download events
	EventTypeDownloadStarted   EventType = "download_started"
	EventTypeDownloadCompleted EventType = "download_completed"
	EventTypeDownloadFailed    EventType = "download_failed"

	// Notification events
	EventTypeNotificationClicked EventType = "notification_clicked"

	// Configuration events
	EventTypeConfigChanged EventType = "config_changed"
)

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)

	// GetWindowID returns the originating window ID (may be empty).
	GetWindowID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType EventType   `json:"event"`
	EventTime time.Time   `json:"timestamp"`
	WindowID  string      `json:"window_id,omitempty"`
	Payload   interface{} `json:"payload"`
}

// GetWindowID returns the originating window ID.
func (e *BaseEvent) GetWindowID() string {
	return e.WindowID
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new base event with the given type and payload.
func NewEvent(eventType EventType, payload interface{}) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewWindowEvent creates a new event bound to a window.
func NewWindowEvent(eventType EventType, windowID string, payload interface{}) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		WindowID:  windowID,
		Payload:   payload,
	}
}
