// Package bridge is the capability surface the desktop shell exposes to the
// hosted web application.
package bridge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/notify"
)

// Event names shared with the injected page script.
const (
	// Shell to page.
	EventDeepLink  = "deeplink"
	EventShowAbout = "show-about"
	EventReply     = "shell:reply"

	// Page to shell.
	EventInvoke       = "shell:invoke"
	EventWillNavigate = "shell:will-navigate"
	EventDidNavigate  = "shell:did-navigate"
	EventNewWindow    = "shell:new-window"
	EventReady        = "shell:ready"
)

// PingReply is the constant liveness answer.
const PingReply = "pong"

// Clipboard reads the system clipboard.
type Clipboard interface {
	Text() (string, bool)
}

// Notifier shows notifications for hosted content.
type Notifier interface {
	Show(req notify.Request) notify.Result
}

// Service answers bridge calls.
type Service struct {
	clipboard Clipboard
	notifier  Notifier
}

// NewService creates a bridge Service.
func NewService(clipboard Clipboard, notifier Notifier) *Service {
	return &Service{clipboard: clipboard, notifier: notifier}
}

// Ping returns PingReply.
func (s *Service) Ping() string {
	return PingReply
}

// ReadClipboardText returns the current clipboard text, "" when unavailable.
func (s *Service) ReadClipboardText() string {
	if s.clipboard == nil {
		return ""
	}
	text, ok := s.clipboard.Text()
	if !ok {
		return ""
	}
	return text
}

// ShowNotification shows a desktop notification and reports the outcome.
func (s *Service) ShowNotification(req notify.Request) notify.Result {
	if s.notifier == nil {
		return notify.Result{Success: false, Error: notify.UnsupportedMessage}
	}
	return s.notifier.Show(req)
}

// Call is a request from the page script.
type Call struct {
	ID       string         `mapstructure:"id"`
	Method   string         `mapstructure:"method"`
	Args     map[string]any `mapstructure:"args"`
	WindowID string         `mapstructure:"window_id"`
}

// Reply answers a Call.
type Reply struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Invoke dispatches a Call to the matching method.
func (s *Service) Invoke(call Call) Reply {
	reply := Reply{ID: call.ID}

	switch call.Method {
	case "ping":
		reply.Result = s.Ping()
	case "readClipboardText":
		reply.Result = s.ReadClipboardText()
	case "showNotification":
		var req notify.Request
		if err := mapstructure.Decode(call.Args, &req); err != nil {
			reply.Error = fmt.Sprintf("invalid notification options: %v", err)
			break
		}
		reply.Result = s.ShowNotification(req)
	default:
		reply.Error = fmt.Sprintf("unknown method %q", call.Method)
	}

	if reply.Error != "" {
		log.Warn().Str("method", call.Method).Str("window", call.WindowID).Msg(reply.Error)
	}
	return reply
}

//go:embed inject.js
var script string

// Script returns the page script for the window windowID.
func Script(windowID string) string {
	id, _ := json.Marshal(windowID)
	names, _ := json.Marshal(map[string]string{
		"deeplink":     EventDeepLink,
		"about":        EventShowAbout,
		"reply":        EventReply,
		"invoke":       EventInvoke,
		"willNavigate": EventWillNavigate,
		"didNavigate":  EventDidNavigate,
		"newWindow":    EventNewWindow,
		"ready":        EventReady,
	})

	prefix, _ := json.Marshal(MessagePrefix)

	return strings.NewReplacer(
		"__WINDOW_ID__", string(id),
		"__EVENTS__", string(names),
		"__PREFIX__", string(prefix),
	).Replace(script)
}

// DeliverJS returns the statement that hands a shell message to the page
// script of one window. Messages are delivered per window rather than as
// broadcast runtime events so a popup never sees the primary's traffic.
func DeliverJS(name string, data any) (string, error) {
	n, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	d, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", name, err)
	}
	return fmt.Sprintf("window.ezgbp&&window.ezgbp.__receive&&window.ezgbp.__receive(%s,%s);", n, d), nil
}
