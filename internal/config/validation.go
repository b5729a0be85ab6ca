package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
)

// Validate validates the configuration.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return err
	}

	if err := validateWindow(&cfg.Window); err != nil {
		return err
	}

	if err := validateNavigation(&cfg.Navigation); err != nil {
		return err
	}

	if err := validateDownloads(&cfg.Downloads); err != nil {
		return err
	}

	if err := validateUpdater(&cfg.Updater); err != nil {
		return err
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	return nil
}

func validateApp(cfg *AppConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("app.name must not be empty")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("app.id must not be empty")
	}
	if err := validateHTTPURL(cfg.StartURL, "app.start_url"); err != nil {
		return err
	}
	if err := deeplink.ValidateScheme(cfg.Scheme); err != nil {
		return fmt.Errorf("app.scheme: %w", err)
	}
	if cfg.Scheme == "http" || cfg.Scheme == "https" || cfg.Scheme == "file" {
		return fmt.Errorf("app.scheme %q is reserved", cfg.Scheme)
	}
	return nil
}

func validateWindow(cfg *WindowConfig) error {
	sizes := []struct {
		name  string
		value int
	}{
		{"window.width", cfg.Width},
		{"window.height", cfg.Height},
		{"window.popup_width", cfg.PopupWidth},
		{"window.popup_height", cfg.PopupHeight},
	}
	for _, s := range sizes {
		if s.value < 200 || s.value > 10000 {
			return fmt.Errorf("%s must be between 200 and 10000, got %d", s.name, s.value)
		}
	}
	if cfg.MinWidth < 0 || cfg.MinHeight < 0 {
		return fmt.Errorf("window.min_width and window.min_height must not be negative")
	}
	if cfg.MinWidth > cfg.Width || cfg.MinHeight > cfg.Height {
		return fmt.Errorf("window minimum size %dx%d exceeds window size %dx%d",
			cfg.MinWidth, cfg.MinHeight, cfg.Width, cfg.Height)
	}
	return nil
}

func validateNavigation(cfg *NavigationConfig) error {
	for _, d := range cfg.TrustedDomains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.ContainsAny(d, "/:?#@ ") || strings.HasPrefix(d, ".") {
			return fmt.Errorf("navigation.trusted_domains: %q must be a bare host name", d)
		}
	}
	return nil
}

func validateDownloads(cfg *DownloadsConfig) error {
	if cfg.RetryMax < 0 || cfg.RetryMax > 10 {
		return fmt.Errorf("downloads.retry_max must be between 0 and 10, got %d", cfg.RetryMax)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("downloads.timeout must not be negative")
	}
	return nil
}

func validateUpdater(cfg *UpdaterConfig) error {
	if cfg.FeedURL != "" {
		if err := validateHTTPURL(cfg.FeedURL, "updater.feed_url"); err != nil {
			return err
		}
	}
	if cfg.InitialDelay < 0 {
		return fmt.Errorf("updater.initial_delay must not be negative")
	}
	if cfg.Enabled && cfg.Interval < time.Minute {
		return fmt.Errorf("updater.interval must be at least 1m, got %s", cfg.Interval)
	}
	if cfg.AutoInstallDelay < 0 {
		return fmt.Errorf("updater.auto_install_delay must not be negative")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("updater.timeout must be positive")
	}
	if strings.ContainsAny(cfg.Channel, `/\`) {
		return fmt.Errorf("updater.channel %q must not contain path separators", cfg.Channel)
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err != nil || cfg.Level == "" {
		return fmt.Errorf("logging.level %q is not a valid level", cfg.Level)
	}
	switch cfg.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Format)
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation limits must not be negative")
	}
	return nil
}

func validateHTTPURL(raw, field string) error {
	if raw == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
