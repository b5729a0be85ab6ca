package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty name", func(c *Config) { c.App.Name = " " }, "app.name"},
		{"empty id", func(c *Config) { c.App.ID = "" }, "app.id"},
		{"empty start url", func(c *Config) { c.App.StartURL = "" }, "app.start_url"},
		{"start url without scheme", func(c *Config) { c.App.StartURL = "app.theezgbp.com" }, "app.start_url"},
		{"start url ftp", func(c *Config) { c.App.StartURL = "ftp://x.test" }, "app.start_url"},
		{"start url no host", func(c *Config) { c.App.StartURL = "https://" }, "app.start_url"},
		{"localhost start url", func(c *Config) { c.App.StartURL = "http://localhost:3000" }, ""},
		{"bad scheme", func(c *Config) { c.App.Scheme = "1ezgbp" }, "app.scheme"},
		{"reserved scheme", func(c *Config) { c.App.Scheme = "https" }, "reserved"},
		{"tiny window", func(c *Config) { c.Window.Width = 10 }, "window.width"},
		{"huge popup", func(c *Config) { c.Window.PopupHeight = 20000 }, "window.popup_height"},
		{"min exceeds size", func(c *Config) { c.Window.MinWidth = 2000 }, "minimum size"},
		{"negative min", func(c *Config) { c.Window.MinHeight = -1 }, "must not be negative"},
		{"trusted domain with scheme", func(c *Config) { c.Navigation.TrustedDomains = []string{"https://google.com"} }, "bare host"},
		{"trusted domain with dot", func(c *Config) { c.Navigation.TrustedDomains = []string{".google.com"} }, "bare host"},
		{"blank trusted domain ignored", func(c *Config) { c.Navigation.TrustedDomains = []string{""} }, ""},
		{"retry max", func(c *Config) { c.Downloads.RetryMax = 11 }, "downloads.retry_max"},
		{"download timeout", func(c *Config) { c.Downloads.Timeout = -time.Second }, "downloads.timeout"},
		{"feed url", func(c *Config) { c.Updater.FeedURL = "s3://bucket" }, "updater.feed_url"},
		{"valid feed url", func(c *Config) { c.Updater.FeedURL = "https://dl.theezgbp.com" }, ""},
		{"short interval", func(c *Config) { c.Updater.Interval = time.Second }, "updater.interval"},
		{"short interval disabled", func(c *Config) { c.Updater.Enabled = false; c.Updater.Interval = 0 }, ""},
		{"negative delay", func(c *Config) { c.Updater.InitialDelay = -time.Second }, "updater.initial_delay"},
		{"zero timeout", func(c *Config) { c.Updater.Timeout = 0 }, "updater.timeout"},
		{"channel path", func(c *Config) { c.Updater.Channel = "../x" }, "updater.channel"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative rotation", func(c *Config) { c.Logging.MaxBackups = -1 }, "rotation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
