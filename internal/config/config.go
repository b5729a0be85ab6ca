// Package config handles configuration management for the desktop shell.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/theezgbp/ezgbp-desktop/internal/pathutil"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "EZGBP"

// Config holds all configuration for the application.
type Config struct {
	App           AppConfig           `mapstructure:"app" yaml:"app"`
	Window        WindowConfig        `mapstructure:"window" yaml:"window"`
	Navigation    NavigationConfig    `mapstructure:"navigation" yaml:"navigation"`
	Downloads     DownloadsConfig     `mapstructure:"downloads" yaml:"downloads"`
	Updater       UpdaterConfig       `mapstructure:"updater" yaml:"updater"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Tray          TrayConfig          `mapstructure:"tray" yaml:"tray"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`

	// File is the config file that was read, "" when running on defaults.
	File string `mapstructure:"-" yaml:"-"`
}

// AppConfig holds application identity and the hosted web app location.
type AppConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	ID       string `mapstructure:"id" yaml:"id"` // single-instance key
	StartURL string `mapstructure:"start_url" yaml:"start_url"`
	Scheme   string `mapstructure:"scheme" yaml:"scheme"` // deep-link scheme, without "://"
	Icon     string `mapstructure:"icon" yaml:"icon,omitempty"`
	// RegisterScheme makes this binary the OS handler for Scheme at startup.
	RegisterScheme bool `mapstructure:"register_scheme" yaml:"register_scheme"`
}

// WindowConfig holds window geometry and lifecycle policy.
type WindowConfig struct {
	Title       string `mapstructure:"title" yaml:"title"`
	Width       int    `mapstructure:"width" yaml:"width"`
	Height      int    `mapstructure:"height" yaml:"height"`
	MinWidth    int    `mapstructure:"min_width" yaml:"min_width"`
	MinHeight   int    `mapstructure:"min_height" yaml:"min_height"`
	PopupWidth  int    `mapstructure:"popup_width" yaml:"popup_width"`
	PopupHeight int    `mapstructure:"popup_height" yaml:"popup_height"`
	// QuitOnLastClosed quits when the primary window closes. Defaults to
	// false on macOS, where apps stay alive with no windows.
	QuitOnLastClosed bool `mapstructure:"quit_on_last_closed" yaml:"quit_on_last_closed"`
	DevTools         bool `mapstructure:"devtools" yaml:"devtools"`
}

// NavigationConfig holds the Domain Gate's trusted domains.
type NavigationConfig struct {
	TrustedDomains []string `mapstructure:"trusted_domains" yaml:"trusted_domains"`
}

// DownloadsConfig holds the download heuristic and transfer settings.
type DownloadsConfig struct {
	Dir          string        `mapstructure:"dir" yaml:"dir"` // "" = user's Downloads folder
	Extensions   []string      `mapstructure:"extensions" yaml:"extensions"`
	Markers      []string      `mapstructure:"markers" yaml:"markers"`
	ContentTypes []string      `mapstructure:"content_types" yaml:"content_types"`
	RetryMax     int           `mapstructure:"retry_max" yaml:"retry_max"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// UpdaterConfig holds self-update settings.
type UpdaterConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	FeedURL          string        `mapstructure:"feed_url" yaml:"feed_url"` // "" disables updates
	Channel          string        `mapstructure:"channel" yaml:"channel"`
	InitialDelay     time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	Interval         time.Duration `mapstructure:"interval" yaml:"interval"`
	AutoDownload     bool          `mapstructure:"auto_download" yaml:"auto_download"`
	AutoInstallDelay time.Duration `mapstructure:"auto_install_delay" yaml:"auto_install_delay"`
	NotifyErrors     bool          `mapstructure:"notify_errors" yaml:"notify_errors"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// TrayConfig holds system tray settings.
type TrayConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Tooltip string `mapstructure:"tooltip" yaml:"tooltip"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"` // "" = stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ezgbp")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The start URL keeps its historical variable names.
	_ = v.BindEnv("app.start_url", EnvPrefix+"_START_URL", "ELECTRON_START_URL", EnvPrefix+"_APP_START_URL")

	setDefaults(v)

	// Read config file (optional - not an error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration, as Load would with no file
// and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	_ = postProcess(&cfg)
	return &cfg
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.id", DefaultAppID)
	v.SetDefault("app.start_url", DefaultStartURL)
	v.SetDefault("app.scheme", DefaultScheme)
	v.SetDefault("app.icon", "")
	v.SetDefault("app.register_scheme", true)

	// Window defaults
	v.SetDefault("window.title", DefaultAppName)
	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 800)
	v.SetDefault("window.min_width", 800)
	v.SetDefault("window.min_height", 600)
	v.SetDefault("window.popup_width", 500)
	v.SetDefault("window.popup_height", 600)
	v.SetDefault("window.quit_on_last_closed", runtime.GOOS != "darwin")
	v.SetDefault("window.devtools", false)

	// Navigation defaults
	v.SetDefault("navigation.trusted_domains", DefaultTrustedDomains())

	// Download defaults - uses the built-in trigger list from defaults.go
	rules := DefaultDownloadRules()
	v.SetDefault("downloads.dir", "")
	v.SetDefault("downloads.extensions", rules.Extensions)
	v.SetDefault("downloads.markers", rules.Markers)
	v.SetDefault("downloads.content_types", rules.ContentTypes)
	v.SetDefault("downloads.retry_max", 2)
	v.SetDefault("downloads.timeout", "10m")

	// Updater defaults
	v.SetDefault("updater.enabled", true)
	v.SetDefault("updater.feed_url", "")
	v.SetDefault("updater.channel", "latest")
	v.SetDefault("updater.initial_delay", "3s")
	v.SetDefault("updater.interval", "4h")
	v.SetDefault("updater.auto_download", true)
	v.SetDefault("updater.auto_install_delay", "5s")
	v.SetDefault("updater.notify_errors", false)
	v.SetDefault("updater.timeout", "30s")

	// Notification defaults
	v.SetDefault("notifications.enabled", true)

	// Tray defaults
	v.SetDefault("tray.enabled", true)
	v.SetDefault("tray.tooltip", DefaultAppName)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// postProcess applies post-processing to configuration.
func postProcess(cfg *Config) error {
	cfg.App.StartURL = strings.TrimSpace(cfg.App.StartURL)
	cfg.App.Scheme = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(cfg.App.Scheme), "://"))

	if cfg.Window.Title == "" {
		cfg.Window.Title = cfg.App.Name
	}

	if cfg.Downloads.Dir != "" {
		cfg.Downloads.Dir = pathutil.ExpandHome(cfg.Downloads.Dir)
	}
	if cfg.Logging.File != "" {
		cfg.Logging.File = pathutil.ExpandHome(cfg.Logging.File)
	}
	if cfg.App.Icon != "" {
		cfg.App.Icon = pathutil.ExpandHome(cfg.App.Icon)
	}

	cfg.Updater.FeedURL = strings.TrimRight(strings.TrimSpace(cfg.Updater.FeedURL), "/")

	return nil
}

// YAML renders cfg as a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// GetConfigDir returns the user config directory.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ezgbp"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes the built-in configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	data, err := Default().YAML()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
