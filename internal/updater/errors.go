package updater

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a class of update failure.
type Kind string

const (
	KindNoRelease     Kind = "no_release"
	KindNotAcceptable Kind = "not_acceptable"
	KindNetwork       Kind = "network"
	KindAuth          Kind = "auth"
	KindNotFound      Kind = "not_found"
	KindChecksum      Kind = "checksum"
	KindInstall       Kind = "install"
	KindUnknown       Kind = "unknown"
)

var (
	// ErrNoRelease is returned when the feed lists no release.
	ErrNoRelease = errors.New("no release found")
	// ErrDisabled is returned by Check when updates are not configured.
	ErrDisabled = errors.New("updates are disabled")
	// ErrNothingToInstall is returned by Install before a download finished.
	ErrNothingToInstall = errors.New("no downloaded update")
)

// Error is an update failure with a named kind.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("update %s (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("update %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsExpected reports whether the failure is routine and must stay silent.
func (e *Error) IsExpected() bool {
	return e.Kind == KindNoRelease || e.Kind == KindNotAcceptable
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnknown
}

// IsExpected reports whether err is a routine, silent update failure.
func IsExpected(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.IsExpected()
}

// statusError maps an HTTP status to a failure kind.
func statusError(status int, url string) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusNotAcceptable:
		kind = KindNotAcceptable
	case status >= 500:
		kind = KindNetwork
	default:
		kind = KindUnknown
	}
	return &Error{Kind: kind, Status: status, Err: fmt.Errorf("GET %s", url)}
}
