package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	"github.com/theezgbp/ezgbp-desktop/internal/download"
	"github.com/theezgbp/ezgbp-desktop/internal/gate"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

var (
	doctorJSON        bool
	doctorStrict      bool
	doctorHTTPTimeout int
)

type doctorStatus string

const (
	doctorStatusOK   doctorStatus = "ok"
	doctorStatusWarn doctorStatus = "warn"
	doctorStatusFail doctorStatus = "fail"
)

type doctorCheck struct {
	ID          string                 `json:"id"`
	Status      doctorStatus           `json:"status"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Remediation string                 `json:"remediation,omitempty"`
}

type doctorSummary struct {
	Total int `json:"total"`
	OK    int `json:"ok"`
	Warn  int `json:"warn"`
	Fail  int `json:"fail"`
}

type doctorReport struct {
	Version      string        `json:"version"`
	AppVersion   string        `json:"app_version"`
	Platform     string        `json:"platform"`
	GeneratedAt  string        `json:"generated_at"`
	Overall      doctorStatus  `json:"overall_status"`
	Summary      doctorSummary `json:"summary"`
	Checks       []doctorCheck `json:"checks"`
	SearchConfig []string      `json:"config_search_paths,omitempty"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run local diagnostics with remediation hints",
	Long: `Run read-only diagnostics against the local ezgbp setup and print
actionable hints: configuration, the hosted app, the update feed and the
download folder.

By default the output is human-readable text.
Use --json for machine-readable output.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output machine-readable JSON")
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "return non-zero on warnings")
	doctorCmd.Flags().IntVar(&doctorHTTPTimeout, "http-timeout", 5, "network check timeout in seconds")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := collectDoctorReport(cmd.Context())

	if doctorJSON {
		if err := printDoctorJSON(report); err != nil {
			return err
		}
	} else {
		printDoctorText(report)
	}

	if report.Summary.Fail > 0 {
		return fmt.Errorf("doctor found %d failing check(s)", report.Summary.Fail)
	}
	if doctorStrict && report.Summary.Warn > 0 {
		return fmt.Errorf("doctor strict mode failed with %d warning(s)", report.Summary.Warn)
	}
	return nil
}

func collectDoctorReport(ctx context.Context) doctorReport {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := time.Duration(doctorHTTPTimeout) * time.Second
	checks := make([]doctorCheck, 0, 8)

	cfg := config.Default()
	loadedCfg, cfgCheck := checkConfigLoad(cfgFile)
	checks = append(checks, cfgCheck)
	if loadedCfg != nil {
		cfg = loadedCfg
	}

	checks = append(checks, checkConfigDirectory())
	checks = append(checks, checkScheme(cfg.App.Scheme))
	checks = append(checks, checkSchemeRegistration(schemeHandler(cfg), deeplink.Registered))
	checks = append(checks, checkTrustedDomains(cfg))
	checks = append(checks, checkStartURL(ctx, cfg.App.StartURL, timeout))
	checks = append(checks, checkDownloadsDir(cfg.Downloads.Dir))
	checks = append(checks, checkUpdateFeed(ctx, cfg.Updater, timeout))
	if cfg.Logging.File != "" {
		checks = append(checks, checkWritableDir("logging.directory", filepath.Dir(cfg.Logging.File), "Log directory is writable"))
	}

	var search []string
	if dir, err := config.GetConfigDir(); err == nil {
		search = configSearchPaths(dir)
	}

	summary := summarizeDoctorChecks(checks)
	return doctorReport{
		Version:      "1.0",
		AppVersion:   version,
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Overall:      overallStatus(summary),
		Summary:      summary,
		Checks:       checks,
		SearchConfig: search,
	}
}

func checkConfigLoad(path string) (*config.Config, doctorCheck) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, doctorCheck{
			ID:      "config.load",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to load config: %v", err),
			Details: map[string]interface{}{
				"config_path": strings.TrimSpace(path),
			},
			Remediation: "Fix the config file, or run `ezgbp config init --force` to regenerate defaults.",
		}
	}

	msg := "Configuration loaded using built-in defaults and environment overrides"
	if cfg.File != "" {
		msg = "Configuration loaded successfully"
	}
	return cfg, doctorCheck{
		ID:      "config.load",
		Status:  doctorStatusOK,
		Message: msg,
		Details: map[string]interface{}{
			"loaded_from": cfg.File,
		},
	}
}

func checkConfigDirectory() doctorCheck {
	dir, err := config.GetConfigDir()
	if err != nil {
		return doctorCheck{
			ID:          "config.directory",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Failed to resolve config directory: %v", err),
			Remediation: "Verify your HOME environment and filesystem permissions.",
		}
	}

	info, statErr := os.Stat(dir)
	switch {
	case os.IsNotExist(statErr):
		return doctorCheck{
			ID:          "config.directory",
			Status:      doctorStatusWarn,
			Message:     "Config directory does not exist yet",
			Details:     map[string]interface{}{"path": dir},
			Remediation: "Run `ezgbp config init` to create a local configuration.",
		}
	case statErr != nil:
		return doctorCheck{
			ID:          "config.directory",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Failed to access config directory: %v", statErr),
			Details:     map[string]interface{}{"path": dir},
			Remediation: "Fix directory permissions or create the directory manually.",
		}
	case !info.IsDir():
		return doctorCheck{
			ID:          "config.directory",
			Status:      doctorStatusFail,
			Message:     "Config path exists but is not a directory",
			Details:     map[string]interface{}{"path": dir},
			Remediation: "Remove the file and recreate the directory with `mkdir -p ~/.ezgbp`.",
		}
	}

	return doctorCheck{
		ID:      "config.directory",
		Status:  doctorStatusOK,
		Message: "Config directory is available",
		Details: map[string]interface{}{"path": dir},
	}
}

func checkScheme(scheme string) doctorCheck {
	if err := deeplink.ValidateScheme(scheme); err != nil {
		return doctorCheck{
			ID:          "app.scheme",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Invalid deep link scheme: %v", err),
			Details:     map[string]interface{}{"scheme": scheme},
			Remediation: "Set app.scheme to a lowercase URL scheme such as `ezgbp`.",
		}
	}
	return doctorCheck{
		ID:      "app.scheme",
		Status:  doctorStatusOK,
		Message: "Deep links use " + deeplink.Prefix(scheme),
		Details: map[string]interface{}{"scheme": scheme},
	}
}

func schemeHandler(cfg *config.Config) deeplink.Handler {
	exe, _ := os.Executable()
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return deeplink.Handler{Scheme: cfg.App.Scheme, Exe: exe, AppName: cfg.App.Name}
}

func checkSchemeRegistration(h deeplink.Handler, registered func(deeplink.Handler) (bool, error)) doctorCheck {
	check := doctorCheck{
		ID:      "app.scheme.registration",
		Details: map[string]interface{}{"scheme": h.Scheme, "executable": h.Exe},
	}
	ok, err := registered(h)
	switch {
	case errors.Is(err, deeplink.ErrUnsupported):
		check.Status = doctorStatusOK
		check.Message = "Scheme registration is not available on " + runtime.GOOS
	case errors.Is(err, deeplink.ErrNotBundled):
		check.Status = doctorStatusWarn
		check.Message = "Not running from an app bundle; " + deeplink.Prefix(h.Scheme) + " links cannot reach this binary"
		check.Remediation = "Install the packaged .app, whose Info.plist declares the scheme."
	case err != nil:
		check.Status = doctorStatusWarn
		check.Message = fmt.Sprintf("Could not read scheme registration: %v", err)
	case !ok:
		check.Status = doctorStatusWarn
		check.Message = deeplink.Prefix(h.Scheme) + " links are not handled by this binary"
		check.Remediation = "Start the app once with app.register_scheme enabled, or reinstall it."
	default:
		check.Status = doctorStatusOK
		check.Message = deeplink.Prefix(h.Scheme) + " links open this binary"
	}
	return check
}

func checkTrustedDomains(cfg *config.Config) doctorCheck {
	g, err := gate.New(cfg.App.StartURL, cfg.Navigation.TrustedDomains)
	if err != nil {
		return doctorCheck{
			ID:          "navigation.gate",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Navigation allow-list is invalid: %v", err),
			Remediation: "Check app.start_url and navigation.trusted_domains.",
		}
	}
	check := doctorCheck{
		ID:      "navigation.gate",
		Status:  doctorStatusOK,
		Message: fmt.Sprintf("%s plus %d trusted domain(s) stay in-app", g.PrimaryHost(), len(g.TrustedDomains())),
		Details: map[string]interface{}{
			"primary_host":    g.PrimaryHost(),
			"trusted_domains": g.TrustedDomains(),
		},
	}
	if len(g.TrustedDomains()) == 0 {
		check.Status = doctorStatusWarn
		check.Message = "No trusted domains: sign-in providers will open in the browser"
		check.Remediation = "Remove navigation.trusted_domains from the config to restore the defaults."
	}
	return check
}

func checkStartURL(ctx context.Context, startURL string, timeout time.Duration) doctorCheck {
	resp, err := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "EzGBP-Desktop/"+version).
		R().
		SetContext(ctx).
		Get(startURL)
	if err != nil {
		return doctorCheck{
			ID:          "app.start_url",
			Status:      doctorStatusWarn,
			Message:     fmt.Sprintf("Start URL is not reachable: %v", err),
			Details:     map[string]interface{}{"url": startURL},
			Remediation: "Check your network connection, or point app.start_url at a running deployment.",
		}
	}
	if resp.IsError() {
		return doctorCheck{
			ID:      "app.start_url",
			Status:  doctorStatusWarn,
			Message: fmt.Sprintf("Start URL returned status %d", resp.StatusCode()),
			Details: map[string]interface{}{
				"url":         startURL,
				"status_code": resp.StatusCode(),
			},
			Remediation: "Verify app.start_url points at The EzGBP web app.",
		}
	}
	return doctorCheck{
		ID:      "app.start_url",
		Status:  doctorStatusOK,
		Message: "Start URL is reachable",
		Details: map[string]interface{}{
			"url":         startURL,
			"status_code": resp.StatusCode(),
		},
	}
}

func checkDownloadsDir(configured string) doctorCheck {
	dir, err := download.NewManager(download.Options{Dir: configured}, nil).Dir()
	if err != nil {
		return doctorCheck{
			ID:          "downloads.directory",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Failed to resolve the download folder: %v", err),
			Remediation: "Set downloads.dir in the config.",
		}
	}
	return checkWritableDir("downloads.directory", dir, "Download folder is writable")
}

// checkWritableDir creates dir if needed and writes a scratch file into it.
func checkWritableDir(id, dir, okMessage string) doctorCheck {
	fail := func(err error) doctorCheck {
		return doctorCheck{
			ID:          id,
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Directory is not writable: %v", err),
			Details:     map[string]interface{}{"path": dir},
			Remediation: "Fix directory permissions or choose another location in the config.",
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(err)
	}
	scratch, err := os.CreateTemp(dir, ".ezgbp-doctor-*")
	if err != nil {
		return fail(err)
	}
	name := scratch.Name()
	_ = scratch.Close()
	_ = os.Remove(name)

	return doctorCheck{
		ID:      id,
		Status:  doctorStatusOK,
		Message: okMessage,
		Details: map[string]interface{}{"path": dir},
	}
}

func checkUpdateFeed(ctx context.Context, cfg config.UpdaterConfig, timeout time.Duration) doctorCheck {
	if !cfg.Enabled || cfg.FeedURL == "" {
		return doctorCheck{
			ID:          "updater.feed",
			Status:      doctorStatusWarn,
			Message:     "Automatic updates are not configured",
			Remediation: "Set updater.feed_url to enable automatic updates.",
		}
	}

	feed := updater.NewFeed(cfg.FeedURL, updater.ChannelFile(cfg.Channel, runtime.GOOS), timeout, "EzGBP-Desktop/"+version)
	rel, err := feed.Latest(ctx)
	if err != nil {
		status := doctorStatusFail
		if updater.IsExpected(err) {
			status = doctorStatusWarn
		}
		return doctorCheck{
			ID:      "updater.feed",
			Status:  status,
			Message: fmt.Sprintf("Update feed check failed: %v", err),
			Details: map[string]interface{}{
				"url":  feed.URL(),
				"kind": string(updater.KindOf(err)),
			},
			Remediation: "Verify updater.feed_url and updater.channel, and that the channel file is published.",
		}
	}

	details := map[string]interface{}{
		"url":     feed.URL(),
		"latest":  rel.Version,
		"current": version,
	}
	if updater.IsNewer(version, rel.Version) {
		return doctorCheck{
			ID:      "updater.feed",
			Status:  doctorStatusOK,
			Message: fmt.Sprintf("Update feed is reachable; version %s is available", rel.Version),
			Details: details,
		}
	}
	return doctorCheck{
		ID:      "updater.feed",
		Status:  doctorStatusOK,
		Message: "Update feed is reachable; this version is current",
		Details: details,
	}
}

func summarizeDoctorChecks(checks []doctorCheck) doctorSummary {
	summary := doctorSummary{Total: len(checks)}
	for _, check := range checks {
		switch check.Status {
		case doctorStatusOK:
			summary.OK++
		case doctorStatusWarn:
			summary.Warn++
		case doctorStatusFail:
			summary.Fail++
		}
	}
	return summary
}

func overallStatus(summary doctorSummary) doctorStatus {
	if summary.Fail > 0 {
		return doctorStatusFail
	}
	if summary.Warn > 0 {
		return doctorStatusWarn
	}
	return doctorStatusOK
}

func printDoctorJSON(report doctorReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printDoctorText(report doctorReport) {
	fmt.Printf("ezgbp doctor v%s (ezgbp %s, %s)\n", report.Version, report.AppVersion, report.Platform)
	fmt.Printf("generated_at: %s\n", report.GeneratedAt)
	fmt.Printf("overall: %s  (ok=%d warn=%d fail=%d total=%d)\n\n",
		strings.ToUpper(string(report.Overall)),
		report.Summary.OK,
		report.Summary.Warn,
		report.Summary.Fail,
		report.Summary.Total,
	)

	for _, check := range report.Checks {
		label := "[OK]"
		if check.Status == doctorStatusWarn {
			label = "[WARN]"
		}
		if check.Status == doctorStatusFail {
			label = "[FAIL]"
		}

		fmt.Printf("%s %s: %s\n", label, check.ID, check.Message)
		if check.Remediation != "" && check.Status != doctorStatusOK {
			fmt.Printf("  fix: %s\n", check.Remediation)
		}
	}

	fmt.Println()
	fmt.Println("Tip: run `ezgbp doctor --json` for machine-readable output.")
}
