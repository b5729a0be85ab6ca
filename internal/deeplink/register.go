package deeplink

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrUnsupported is returned where the OS has no per-user scheme
	// registration the shell can perform.
	ErrUnsupported = errors.New("scheme registration is not supported on this platform")

	// ErrNotBundled is returned on macOS when the binary does not run from
	// an application bundle, the only place scheme handlers are declared.
	ErrNotBundled = errors.New("not running from an application bundle")
)

// Handler names the program the OS should hand scheme URLs to.
type Handler struct {
	Scheme  string
	Exe     string // absolute path of the binary
	AppName string
}

func (h Handler) validate() error {
	if err := ValidateScheme(h.Scheme); err != nil {
		return err
	}
	if !filepath.IsAbs(h.Exe) {
		return fmt.Errorf("handler executable %q is not an absolute path", h.Exe)
	}
	return nil
}

// Register makes h.Exe the current user's handler for h.Scheme URLs.
func Register(h Handler) error {
	if err := h.validate(); err != nil {
		return err
	}
	return register(h)
}

// Registered reports whether h.Exe is the current user's handler for
// h.Scheme URLs.
func Registered(h Handler) (bool, error) {
	if err := h.validate(); err != nil {
		return false, err
	}
	return registered(h)
}
