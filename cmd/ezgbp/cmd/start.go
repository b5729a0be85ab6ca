package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	"github.com/theezgbp/ezgbp-desktop/internal/desktop"
	"github.com/theezgbp/ezgbp-desktop/internal/logging"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

// defaultRelaunchDelay gives the old process time to exit and release the
// single-instance lock after an update.
const defaultRelaunchDelay = 2 * time.Second

var startURL string

// startCmd opens the app with optional overrides.
var startCmd = &cobra.Command{
	Use:   "start [deep-link]",
	Short: "Open the desktop app",
	Long: `Open the desktop app, optionally against another deployment.

If the app is already running, the running window is focused and any
deep link is handed to it.

Examples:
  ezgbp start
  ezgbp start --url http://localhost:3000
  ezgbp start ezgbp://invoice/42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDesktop,
}

func init() {
	startCmd.Flags().StringVar(&startURL, "url", "", "load this start URL instead of the configured one")
}

func runDesktop(cmd *cobra.Command, args []string) error {
	if relaunchDelay > 0 {
		time.Sleep(relaunchDelay)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if startURL != "" {
		cfg.App.StartURL = startURL
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	loggers, err := logging.Setup(cfg.Logging, verbose)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer loggers.Close()

	log.Info().
		Str("version", version).
		Str("start_url", cfg.App.StartURL).
		Str("config", cfg.File).
		Msg("starting ezgbp")

	return desktop.Run(desktop.Options{
		Config:  cfg,
		Version: version,
		Args:    args,
		Logger:  loggers.Slog,
		Installer: updater.BinaryInstaller{
			Args:  relaunchArgs(os.Args[1:], cfg.App.Scheme),
			Delay: defaultRelaunchDelay,
		},
	})
}

// relaunchArgs returns the arguments to restart with after an update. Deep
// links were already handled and the delay flag is added back by the
// installer.
func relaunchArgs(args []string, scheme string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if deeplink.Is(a, scheme) || strings.HasPrefix(a, "--"+updater.RelaunchDelayFlag) {
			continue
		}
		out = append(out, a)
	}
	return out
}
