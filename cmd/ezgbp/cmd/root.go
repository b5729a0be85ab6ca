// Package cmd contains the CLI commands for the EzGBP desktop shell.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

var (
	// Version info (set from main)
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"

	// Global flags
	cfgFile       string
	verbose       bool
	relaunchDelay time.Duration
)

// rootCmd opens the desktop shell. The operating system launches the binary
// with an ezgbp:// URL as its only argument, so positional arguments are
// accepted here rather than treated as unknown subcommands.
var rootCmd = &cobra.Command{
	Use:   "ezgbp [deep-link]",
	Short: "The EzGBP desktop app",
	Long: `ezgbp hosts The EzGBP web app in a native window.

Sign-in providers open in an in-app popup, every other site opens in your
browser, and ezgbp:// links are forwarded to the running app.

Running ezgbp without a subcommand opens the app.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	// macOS may add its own process arguments.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE:               runDesktop,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information from the main package.
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.ezgbp/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.PersistentFlags().DurationVar(&relaunchDelay, updater.RelaunchDelayFlag, 0, "wait before starting (set by the updater)")
	_ = rootCmd.PersistentFlags().MarkHidden(updater.RelaunchDelayFlag)

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// versionCmd displays version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ezgbp %s\n", version)
		fmt.Printf("  Build time: %s\n", buildTime)
		fmt.Printf("  Git commit: %s\n", gitCommit)
	},
}

// loadConfig loads configuration from the --config flag or the default
// search path.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
