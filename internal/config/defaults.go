// Package config provides centralized default configuration values.
package config

import (
	"github.com/theezgbp/ezgbp-desktop/internal/download"
	"github.com/theezgbp/ezgbp-desktop/internal/gate"
)

// Application identity defaults.
const (
	DefaultAppName  = "The EzGBP"
	DefaultAppID    = "com.theezgbp.desktop"
	DefaultStartURL = "https://app.theezgbp.com"
	DefaultScheme   = "ezgbp"
)

// DefaultTrustedDomains returns the authentication providers that stay
// in-app. Users can override via config.yaml: navigation.trusted_domains
func DefaultTrustedDomains() []string {
	return append([]string(nil), gate.DefaultTrustedDomains...)
}

// DefaultDownloadRules returns the built-in download trigger list.
// Users can override via config.yaml: downloads.extensions, downloads.markers
// and downloads.content_types
func DefaultDownloadRules() download.Rules {
	return download.DefaultRules()
}

// DownloadRules returns the configured download trigger list.
func (c *Config) DownloadRules() download.Rules {
	return download.Rules{
		Extensions:   c.Downloads.Extensions,
		Markers:      c.Downloads.Markers,
		ContentTypes: c.Downloads.ContentTypes,
	}
}
