package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	"github.com/theezgbp/ezgbp-desktop/internal/download"
	"github.com/theezgbp/ezgbp-desktop/internal/gate"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show how the app treats URLs",
	Long: `Show whether each URL loads in-app, opens in the browser, starts a
download or is a deep link, using the current configuration.

Examples:
  ezgbp classify https://accounts.google.com/o/oauth2/auth
  ezgbp classify https://app.theezgbp.com/reports/export?format=csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	g, err := gate.New(cfg.App.StartURL, cfg.Navigation.TrustedDomains)
	if err != nil {
		return err
	}
	detector := download.NewDetector(cfg.DownloadRules())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, raw := range args {
		fmt.Fprintf(w, "%s\t%s\n", classifyURL(g, detector, cfg.App.Scheme, raw), raw)
	}
	return w.Flush()
}

// classifyURL names what the navigation controller does with raw.
func classifyURL(g *gate.AllowList, d *download.Detector, scheme, raw string) string {
	if deeplink.Is(raw, scheme) {
		return "deep-link"
	}
	if d.Match(raw, "") {
		return "download"
	}
	return g.Classify(raw).String()
}
