package events

// Disposition hints how the hosted page asked for a new window.
type Disposition string

const (
	DispositionDefault    Disposition = "default"
	DispositionForeground Disposition = "foreground-tab"
	DispositionBackground Disposition = "background-tab"
	DispositionNewWindow  Disposition = "new-window"
	DispositionOther      Disposition = "other"
)

// NavigationPayload is the payload for will_navigate, did_navigate and new_window events.
type NavigationPayload struct {
	URL         string      `json:"url"`
	Disposition Disposition `json:"disposition,omitempty"`
	ContentType string      `json:"content_type,omitempty"`

	// Download marks a link the page explicitly asked to download.
	Download bool `json:"download,omitempty"`
}

// NewWillNavigateEvent creates a new will_navigate event.
func NewWillNavigateEvent(windowID, url string) *BaseEvent {
	return NewWindowEvent(EventTypeWillNavigate, windowID, NavigationPayload{URL: url})
}

// NewDidNavigateEvent creates a new did_navigate event.
func NewDidNavigateEvent(windowID, url string) *BaseEvent {
	return NewWindowEvent(EventTypeDidNavigate, windowID, NavigationPayload{URL: url})
}

// NewNewWindowEvent creates a new new_window event.
func NewNewWindowEvent(windowID, url string, disposition Disposition, contentType string) *BaseEvent {
	if disposition == "" {
		disposition = DispositionDefault
	}
	return NewWindowEvent(EventTypeNewWindow, windowID, NavigationPayload{
		URL:         url,
		Disposition: disposition,
		ContentType: contentType,
	})
}

// NewDownloadLinkEvent creates a new_window event for a link carrying the
// download attribute.
func NewDownloadLinkEvent(windowID, url string) *BaseEvent {
	return NewWindowEvent(EventTypeNewWindow, windowID, NavigationPayload{
		URL:         url,
		Disposition: DispositionOther,
		Download:    true,
	})
}

// NewWindowReadyEvent creates a new window_ready event, sent once the page
// content of a window can receive messages.
func NewWindowReadyEvent(windowID, url string) *BaseEvent {
	return NewWindowEvent(EventTypeWindowReady, windowID, NavigationPayload{URL: url})
}

// NewWindowClosedEvent creates a new window_closed event.
func NewWindowClosedEvent(windowID string) *BaseEvent {
	return NewWindowEvent(EventTypeWindowClosed, windowID, nil)
}

// DeepLinkPayload is the payload for deep_link events.
type DeepLinkPayload struct {
	URL    string `json:"url"`
	Source string `json:"source"` // "open-url", "second-instance" or "argv"
}

// NewDeepLinkEvent creates a new deep_link event.
func NewDeepLinkEvent(url, source string) *BaseEvent {
	return NewEvent(EventTypeDeepLink, DeepLinkPayload{URL: url, Source: source})
}

// SecondLaunchPayload is the payload for second_instance events.
type SecondLaunchPayload struct {
	Args       []string `json:"args"`
	WorkingDir string   `json:"working_dir,omitempty"`
}

// NewSecondLaunchEvent creates a new second_instance event.
func NewSecondLaunchEvent(args []string, workingDir string) *BaseEvent {
	return NewEvent(EventTypeSecondLaunch, SecondLaunchPayload{Args: args, WorkingDir: workingDir})
}
