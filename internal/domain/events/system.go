package events

// --- Update Event Payloads ---

// UpdatePayload represents the payload for update_* events.
type UpdatePayload struct {
	Version string  `json:"version,omitempty"`
	Manual  bool    `json:"manual"`
	Percent float64 `json:"percent,omitempty"`
	Kind    string  `json:"kind,omitempty"`  // error kind for update_error
	Error   string  `json:"error,omitempty"` // error message for update_error
	Visible bool    `json:"visible"`         // update_error: should the user be told
}

// NewUpdateEvent creates a new update event of the given type.
func NewUpdateEvent(eventType EventType, payload UpdatePayload) *BaseEvent {
	return NewEvent(eventType, payload)
}

// NewUpdateCheckRequestedEvent creates a new update_check_requested event.
func NewUpdateCheckRequestedEvent(manual bool) *BaseEvent {
	return NewEvent(EventTypeUpdateCheckRequested, UpdatePayload{Manual: manual})
}

// --- Download Event Payloads ---

// DownloadPayload represents the payload for download_* events.
type DownloadPayload struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Path  string `json:"path,omitempty"`
	Size  int64  `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewDownloadEvent creates a new download event of the given type.
func NewDownloadEvent(eventType EventType, payload DownloadPayload) *BaseEvent {
	return NewEvent(eventType, payload)
}

// --- Notification Event Payloads ---

// NotificationClickedPayload represents the payload for notification_clicked events.
type NotificationClickedPayload struct {
	ID     string            `json:"id"`
	Action string            `json:"action,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// NewNotificationClickedEvent creates a new notification_clicked event.
func NewNotificationClickedEvent(id, action string, data map[string]string) *BaseEvent {
	return NewEvent(EventTypeNotificationClicked, NotificationClickedPayload{
		ID:     id,
		Action: action,
		Data:   data,
	})
}

// --- Configuration Event Payloads ---

// ConfigChangedPayload represents the payload for config_changed events.
type ConfigChangedPayload struct {
	Path string `json:"path"`
}

// NewConfigChangedEvent creates a new config_changed event.
func NewConfigChangedEvent(path string) *BaseEvent {
	return NewEvent(EventTypeConfigChanged, ConfigChangedPayload{Path: path})
}
