package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/theezgbp/ezgbp-desktop/internal/domain"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
)

// PageMessage is the payload the page script sends with navigation events.
type PageMessage struct {
	WindowID    string `mapstructure:"window_id"`
	URL         string `mapstructure:"url"`
	Disposition string `mapstructure:"disposition"`
	ContentType string `mapstructure:"content_type"`
	Download    bool   `mapstructure:"download"`
}

// MessagePrefix marks the raw webview messages the page script posts.
const MessagePrefix = "ezgbp:"

// ErrForeignMessage is returned by ParseMessage for raw messages the page
// script did not send.
var ErrForeignMessage = errors.New("not a bridge message")

// Message is a decoded page script message: either a navigation report or
// a bridge call.
type Message struct {
	Event events.Event
	Call  *Call
}

type envelope struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// ParseMessage decodes a raw webview message posted by the page script of
// window sender. The sender overrides any window ID the page reports.
func ParseMessage(sender, raw string) (Message, error) {
	body, ok := strings.CutPrefix(raw, MessagePrefix)
	if !ok {
		return Message{}, ErrForeignMessage
	}
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	if env.Name == EventInvoke {
		call, err := DecodeCall(env.Data)
		if err != nil {
			return Message{}, err
		}
		if sender != "" {
			call.WindowID = sender
		}
		return Message{Call: &call}, nil
	}

	ev, err := ToEvent(env.Name, sender, env.Data)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: ev}, nil
}

// Decode converts a loosely typed event payload into out.
func Decode(data any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

// ToEvent translates a page-script event into a hub event. sender is the
// window the platform says the message came from; it wins over the ID the
// script reports.
func ToEvent(name, sender string, data any) (events.Event, error) {
	var msg PageMessage
	if err := Decode(data, &msg); err != nil {
		return nil, err
	}
	windowID := sender
	if windowID == "" {
		windowID = msg.WindowID
	}
	if windowID == "" {
		return nil, fmt.Errorf("%w: %s without window", domain.ErrInvalidPayload, name)
	}

	switch name {
	case EventWillNavigate:
		if msg.URL == "" {
			return nil, fmt.Errorf("%w: %s without url", domain.ErrInvalidPayload, name)
		}
		return events.NewWillNavigateEvent(windowID, msg.URL), nil
	case EventDidNavigate:
		return events.NewDidNavigateEvent(windowID, msg.URL), nil
	case EventNewWindow:
		if msg.URL == "" {
			return nil, fmt.Errorf("%w: %s without url", domain.ErrInvalidPayload, name)
		}
		if msg.Download {
			return events.NewDownloadLinkEvent(windowID, msg.URL), nil
		}
		return events.NewNewWindowEvent(windowID, msg.URL, events.Disposition(msg.Disposition), msg.ContentType), nil
	case EventReady:
		return events.NewWindowReadyEvent(windowID, msg.URL), nil
	default:
		return nil, fmt.Errorf("%w: unknown page event %q", domain.ErrInvalidPayload, name)
	}
}

// DecodeCall converts a shell:invoke payload into a Call.
func DecodeCall(data any) (Call, error) {
	var call Call
	if err := Decode(data, &call); err != nil {
		return Call{}, err
	}
	if call.ID == "" || call.Method == "" {
		return Call{}, fmt.Errorf("%w: call without id or method", domain.ErrInvalidPayload)
	}
	return call, nil
}
