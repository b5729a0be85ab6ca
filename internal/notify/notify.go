// Package notify shows desktop notifications on behalf of hosted content and
// of the shell itself.
package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrUnsupported is returned when the platform cannot show notifications.
var ErrUnsupported = errors.New("notifications not supported")

// UnsupportedMessage is the error text reported to hosted content.
const UnsupportedMessage = "Notifications not supported"

// DefaultTitle is used when a request has no title.
const DefaultTitle = "The EzGBP"

// Request is a notification request from hosted content.
type Request struct {
	Title string `json:"title" mapstructure:"title"`
	Body  string `json:"body" mapstructure:"body"`
	Icon  string `json:"icon,omitempty" mapstructure:"icon"`
}

// Result reports the outcome of a Request.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Notification is what a Backend displays.
type Notification struct {
	ID    string
	Title string
	Body  string
	Icon  string
	Data  map[string]string
}

// Backend is the platform notification facility.
type Backend interface {
	Supported() bool
	Send(n Notification) error
}

// Options configures a Service.
type Options struct {
	Enabled bool
	Title   string
	Icon    string
}

// Service validates requests, fills defaults and forwards them to a Backend.
type Service struct {
	backend Backend
	opts    Options
}

// NewService creates a Service. A nil backend behaves as unsupported.
func NewService(backend Backend, opts Options) *Service {
	if backend == nil {
		backend = Unsupported{}
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	return &Service{backend: backend, opts: opts}
}

// Available reports whether notifications can be shown at all.
func (s *Service) Available() bool {
	return s.opts.Enabled && s.backend.Supported()
}

// Show displays a notification requested by hosted content. It never panics;
// failures come back in the Result.
func (s *Service) Show(req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("notification backend panicked")
			res = Result{Success: false, Error: fmt.Sprint(r)}
		}
	}()

	if !s.Available() {
		return Result{Success: false, Error: UnsupportedMessage}
	}

	n := Notification{
		ID:    uuid.NewString(),
		Title: strings.TrimSpace(req.Title),
		Body:  req.Body,
		Icon:  req.Icon,
	}
	if err := s.send(n); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

// Notify shows a shell-originated notification. data travels with the
// notification and comes back on click. It returns the notification ID.
func (s *Service) Notify(title, body string, data map[string]string) (string, error) {
	if !s.Available() {
		return "", ErrUnsupported
	}
	n := Notification{ID: uuid.NewString(), Title: title, Body: body, Data: data}
	if err := s.send(n); err != nil {
		return "", err
	}
	return n.ID, nil
}

func (s *Service) send(n Notification) error {
	if n.Title == "" {
		n.Title = s.opts.Title
	}
	if n.Icon == "" {
		n.Icon = s.opts.Icon
	}

	if err := s.backend.Send(n); err != nil {
		log.Warn().Err(err).Str("title", n.Title).Msg("notification failed")
		return err
	}
	log.Debug().Str("id", n.ID).Str("title", n.Title).Msg("notification shown")
	return nil
}

// Unsupported is a Backend for platforms without notifications.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Send(Notification) error { return ErrUnsupported }
