// Package deeplink recognizes custom-scheme URIs and delivers them to the
// primary window once its content can receive them.
package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNotDeepLink is returned when a string does not use the app's scheme.
var ErrNotDeepLink = errors.New("not a deep link")

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*$`)

// ValidateScheme checks that scheme is a syntactically valid URI scheme.
func ValidateScheme(scheme string) error {
	if !schemePattern.MatchString(scheme) {
		return fmt.Errorf("invalid URI scheme %q", scheme)
	}
	return nil
}

// Prefix returns the string every deep link under scheme starts with.
func Prefix(scheme string) string {
	return strings.ToLower(scheme) + "://"
}

// Is reports whether raw starts with the scheme prefix, ignoring case.
func Is(raw, scheme string) bool {
	prefix := Prefix(scheme)
	return len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix)
}

// Find returns the first argument that is a deep link under scheme.
func Find(args []string, scheme string) (string, bool) {
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if Is(arg, scheme) {
			return arg, true
		}
	}
	return "", false
}

// Parse parses raw as a deep link under scheme.
func Parse(raw, scheme string) (*url.URL, error) {
	if !Is(raw, scheme) {
		return nil, fmt.Errorf("%w: %q", ErrNotDeepLink, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDeepLink, err)
	}
	return u, nil
}

// Sender delivers a payload to the page loaded in a window.
type Sender interface {
	SendDeepLink(windowID, payload string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(windowID, payload string) error

func (f SenderFunc) SendDeepLink(windowID, payload string) error {
	return f(windowID, payload)
}

// Inbox holds deep links until the primary window reports ready, then hands
// each one over exactly once, in arrival order.
//
// An Inbox is driven from the serial event hub and is not safe for
// concurrent use.
type Inbox struct {
	sender  Sender
	pending []string
	readyID string
}

// NewInbox creates an Inbox delivering through sender.
func NewInbox(sender Sender) *Inbox {
	return &Inbox{sender: sender}
}

// Receive accepts a payload. It is delivered at once when a window is ready,
// otherwise on the next Ready.
func (i *Inbox) Receive(payload string) {
	i.pending = append(i.pending, payload)
	if i.readyID != "" {
		i.flush()
	}
}

// Ready marks windowID as able to receive payloads and flushes the queue.
func (i *Inbox) Ready(windowID string) {
	i.readyID = windowID
	i.flush()
}

// Reset marks the target as not ready, e.g. while the primary window loads
// a new document or after it closed.
func (i *Inbox) Reset() {
	i.readyID = ""
}

// Pending returns the number of undelivered payloads.
func (i *Inbox) Pending() int {
	return len(i.pending)
}

func (i *Inbox) flush() {
	for len(i.pending) > 0 && i.readyID != "" {
		payload := i.pending[0]
		if err := i.sender.SendDeepLink(i.readyID, payload); err != nil {
			log.Warn().Err(err).Str("window", i.readyID).Msg("deep link delivery failed, will retry when ready")
			i.readyID = ""
			return
		}
		i.pending = i.pending[1:]
		log.Info().Str("url", payload).Msg("deep link delivered")
	}
}
