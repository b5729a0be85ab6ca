package navigation

import "fmt"

// Role distinguishes the primary window from auth popups.
type Role int

const (
	Primary Role = iota
	AuthPopup
)

func (r Role) String() string {
	switch r {
	case Primary:
		return "primary"
	case AuthPopup:
		return "auth_popup"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// State is the lifecycle state of a window handle.
//
//	Created -> Visible -> (Navigating -> Visible)* -> Closing -> Closed
//
// Closing and Closed are terminal for event handling: a handle in either
// state ignores every further event.
type State int

const (
	Created State = iota
	Visible
	Navigating
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Visible:
		return "visible"
	case Navigating:
		return "navigating"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Window is a native window as seen by the controller.
type Window interface {
	ID() string
	Load(url string) error
	Show()
	Focus()
	Close()
}

// Platform creates windows and performs the side effects the controller
// decides on.
type Platform interface {
	NewPrimaryWindow(url string) (Window, error)
	NewPopupWindow(parentID, url string) (Window, error)
	OpenExternal(url string) error
	Download(url string) error
	Quit()
}

// handle tracks one window the controller owns.
type handle struct {
	window   Window
	role     Role
	state    State
	parentID string
	url      string
}

func (h *handle) id() string {
	return h.window.ID()
}

// inert reports whether the handle must ignore events.
func (h *handle) inert() bool {
	return h.state == Closing || h.state == Closed
}
