package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/ports"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

var (
	updateDownload bool
	updateJSON     bool
	updateFeedURL  string
	updateChannel  string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Inspect the update feed",
}

var updateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the update feed once",
	Long: `Check the configured update feed once and report what the app would do.

The running app is not affected. With --download the release is fetched
and verified but not installed.

Examples:
  ezgbp update check
  ezgbp update check --channel beta --download
  ezgbp update check --json`,
	RunE: runUpdateCheck,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.AddCommand(updateCheckCmd)

	updateCheckCmd.Flags().BoolVar(&updateDownload, "download", false, "download and verify a newer release")
	updateCheckCmd.Flags().BoolVar(&updateJSON, "json", false, "print update events as JSON lines")
	updateCheckCmd.Flags().StringVar(&updateFeedURL, "feed-url", "", "override updater.feed_url")
	updateCheckCmd.Flags().StringVar(&updateChannel, "channel", "", "override updater.channel")
}

func runUpdateCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	uc := cfg.Updater
	if updateFeedURL != "" {
		uc.FeedURL = updateFeedURL
		uc.Enabled = true
	}
	if updateChannel != "" {
		uc.Channel = updateChannel
	}

	u := updater.New(updater.Options{
		Enabled:        uc.Enabled,
		FeedURL:        uc.FeedURL,
		Channel:        uc.Channel,
		CurrentVersion: version,
		AutoDownload:   updateDownload,
		Timeout:        uc.Timeout,
		UserAgent:      "EzGBP-Desktop/" + version,
	}, &eventPrinter{out: cmd.OutOrStdout(), json: updateJSON}, nil)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	rel, err := u.Check(ctx, true)
	switch {
	case errors.Is(err, updater.ErrDisabled):
		return fmt.Errorf("automatic updates are not configured (set updater.feed_url or pass --feed-url)")
	case err != nil && updater.IsExpected(err):
		fmt.Fprintf(cmd.OutOrStdout(), "no release published on %s\n", u.FeedURL())
		return nil
	case err != nil:
		return fmt.Errorf("update check failed (%s): %w", updater.KindOf(err), err)
	case rel == nil:
		fmt.Fprintf(cmd.OutOrStdout(), "ezgbp %s is up to date\n", version)
	case u.Downloaded() != "":
		fmt.Fprintf(cmd.OutOrStdout(), "version %s downloaded to %s\n", rel.Version, u.Downloaded())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "version %s is available (running %s)\n", rel.Version, version)
	}
	return nil
}

// eventPrinter stands in for the event hub and prints update events.
type eventPrinter struct {
	out  io.Writer
	json bool
}

func (p *eventPrinter) Publish(e events.Event) {
	if p.json {
		data, err := e.ToJSON()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Fprintln(p.out, string(data))
		return
	}
	if e.Type() == events.EventTypeUpdateProgress {
		return
	}
	fmt.Fprintf(p.out, "- %s\n", e.Type())
}

var _ ports.Publisher = (*eventPrinter)(nil)
