// Package gate decides whether a URL belongs inside the application window or
// must be handed to the system browser.
//
// The allow-list is built once from the start URL and a list of trusted
// authentication domains, and never changes for the life of the process.
package gate

import (
	"fmt"
	"net/url"
	"strings"
)

// Class is the verdict for a URL.
type Class int

const (
	// External URLs open in the system's default browser.
	External Class = iota
	// InApp URLs load inside an application window.
	InApp
)

func (c Class) String() string {
	switch c {
	case InApp:
		return "in-app"
	case External:
		return "external"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// DefaultTrustedDomains are the authentication providers that stay in-app.
// A domain matches itself and any subdomain.
var DefaultTrustedDomains = []string{
	"accounts.google.com",
	"oauth2.googleapis.com",
	"www.googleapis.com",
	"google.com",
	"gstatic.com",
	"googleusercontent.com",
	"login.microsoftonline.com",
	"github.com",
	"githubusercontent.com",
	"auth0.com",
}

// AllowList is the immutable domain allow-list.
type AllowList struct {
	primaryHost string
	trusted     []string
}

// New builds an allow-list whose primary host is the host of startURL.
// Trusted domains are lower-cased; blank entries are dropped.
func New(startURL string, trusted []string) (*AllowList, error) {
	u, err := url.Parse(strings.TrimSpace(startURL))
	if err != nil {
		return nil, fmt.Errorf("invalid start url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("start url %q has no host", startURL)
	}

	domains := make([]string, 0, len(trusted))
	for _, d := range trusted {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		domains = append(domains, d)
	}

	return &AllowList{
		primaryHost: strings.ToLower(u.Host),
		trusted:     domains,
	}, nil
}

// PrimaryHost returns the lower-cased host of the start URL, port included.
func (a *AllowList) PrimaryHost() string {
	return a.primaryHost
}

// TrustedDomains returns a copy of the trusted domain list.
func (a *AllowList) TrustedDomains() []string {
	out := make([]string, len(a.trusted))
	copy(out, a.trusted)
	return out
}

// Classify returns InApp for the primary host and trusted domains, External
// for everything else, including URLs that do not parse.
func (a *AllowList) Classify(raw string) Class {
	host, ok := hostOf(raw)
	if !ok {
		return External
	}

	if host == a.primaryHost {
		return InApp
	}

	for _, d := range a.trusted {
		// The dot boundary keeps "evilgoogle.com" from matching "google.com".
		if host == d || strings.HasSuffix(host, "."+d) {
			return InApp
		}
	}

	return External
}

// IsPrimary reports whether raw points at the primary host exactly.
func (a *AllowList) IsPrimary(raw string) bool {
	host, ok := hostOf(raw)
	return ok && host == a.primaryHost
}

// hostOf extracts the lower-cased host[:port] of raw.
func hostOf(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Host), true
}
