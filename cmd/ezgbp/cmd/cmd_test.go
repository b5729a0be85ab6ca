package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
	"github.com/theezgbp/ezgbp-desktop/internal/deeplink"
	"github.com/theezgbp/ezgbp-desktop/internal/download"
	"github.com/theezgbp/ezgbp-desktop/internal/gate"
	"github.com/theezgbp/ezgbp-desktop/internal/updater"
)

func TestSummarizeDoctorChecks(t *testing.T) {
	checks := []doctorCheck{
		{ID: "a", Status: doctorStatusOK},
		{ID: "b", Status: doctorStatusWarn},
		{ID: "c", Status: doctorStatusFail},
		{ID: "d", Status: doctorStatusOK},
	}

	summary := summarizeDoctorChecks(checks)
	if summary.Total != 4 || summary.OK != 2 || summary.Warn != 1 || summary.Fail != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary doctorSummary
		want    doctorStatus
	}{
		{"all ok", doctorSummary{Total: 2, OK: 2}, doctorStatusOK},
		{"warn only", doctorSummary{Total: 2, OK: 1, Warn: 1}, doctorStatusWarn},
		{"fail takes precedence", doctorSummary{Total: 3, OK: 1, Warn: 1, Fail: 1}, doctorStatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallStatus(tt.summary); got != tt.want {
				t.Fatalf("overallStatus(%+v) = %q, want %q", tt.summary, got, tt.want)
			}
		})
	}
}

func TestCheckScheme(t *testing.T) {
	assert.Equal(t, doctorStatusOK, checkScheme("ezgbp").Status)
	assert.Equal(t, doctorStatusFail, checkScheme("not a scheme").Status)
}

func TestCheckSchemeRegistration(t *testing.T) {
	h := deeplink.Handler{Scheme: "ezgbp", Exe: "/opt/ezgbp/ezgbp", AppName: "EzGBP"}
	answer := func(ok bool, err error) func(deeplink.Handler) (bool, error) {
		return func(got deeplink.Handler) (bool, error) {
			assert.Equal(t, h, got)
			return ok, err
		}
	}

	tests := []struct {
		name   string
		ok     bool
		err    error
		status doctorStatus
	}{
		{"registered", true, nil, doctorStatusOK},
		{"not registered", false, nil, doctorStatusWarn},
		{"outside bundle", false, deeplink.ErrNotBundled, doctorStatusWarn},
		{"unsupported platform", false, deeplink.ErrUnsupported, doctorStatusOK},
		{"unreadable", false, fmt.Errorf("registry: access denied"), doctorStatusWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := checkSchemeRegistration(h, answer(tt.ok, tt.err))
			assert.Equal(t, "app.scheme.registration", check.ID)
			assert.Equal(t, tt.status, check.Status)
			if tt.status == doctorStatusWarn && tt.err == nil {
				assert.NotEmpty(t, check.Remediation)
			}
		})
	}
}

func TestCheckWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	check := checkWritableDir("downloads.directory", dir, "ok")
	assert.Equal(t, doctorStatusOK, check.Status)
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file must be removed")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Equal(t, doctorStatusFail, checkWritableDir("x", file, "ok").Status)
}

func TestCheckStartURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	assert.Equal(t, doctorStatusOK, checkStartURL(context.Background(), srv.URL, time.Second).Status)
	assert.Equal(t, doctorStatusWarn, checkStartURL(context.Background(), srv.URL+"/down", time.Second).Status)
}

func TestCheckUpdateFeed(t *testing.T) {
	file := updater.ChannelFile("", runtime.GOOS)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+file {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "version: 9.9.9\npath: ezgbp-bin\nsha512: abc\n")
	}))
	defer srv.Close()

	disabled := checkUpdateFeed(context.Background(), config.UpdaterConfig{}, time.Second)
	assert.Equal(t, doctorStatusWarn, disabled.Status)

	ok := checkUpdateFeed(context.Background(), config.UpdaterConfig{Enabled: true, FeedURL: srv.URL}, time.Second)
	assert.Equal(t, doctorStatusOK, ok.Status)
	assert.Equal(t, "9.9.9", ok.Details["latest"])

	missing := checkUpdateFeed(context.Background(), config.UpdaterConfig{Enabled: true, FeedURL: srv.URL, Channel: "beta"}, time.Second)
	assert.Equal(t, doctorStatusFail, missing.Status)
}

func TestClassifyURL(t *testing.T) {
	g, err := gate.New("https://app.theezgbp.com", gate.DefaultTrustedDomains)
	require.NoError(t, err)
	d := download.NewDetector(download.DefaultRules())

	tests := []struct {
		url  string
		want string
	}{
		{"https://app.theezgbp.com/dashboard", "in-app"},
		{"https://accounts.google.com/o/oauth2/auth", "in-app"},
		{"https://example.com/", "external"},
		{"https://app.theezgbp.com/files/report.pdf", "download"},
		{"ezgbp://invoice/42", "deep-link"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyURL(g, d, "ezgbp", tt.url))
		})
	}
}

func TestRelaunchArgs(t *testing.T) {
	got := relaunchArgs([]string{"start", "--url", "http://localhost:3000", "ezgbp://x", "--relaunch-delay=2s"}, "ezgbp")
	assert.Equal(t, []string{"start", "--url", "http://localhost:3000"}, got)
	assert.Empty(t, relaunchArgs(nil, "ezgbp"))
}

func TestConfigValues(t *testing.T) {
	cfg := config.Default()

	v, err := getConfigValue(cfg, "app.scheme")
	require.NoError(t, err)
	assert.Equal(t, "ezgbp", v)

	_, err = getConfigValue(cfg, "app.nope")
	assert.Error(t, err)
	_, err = getConfigValue(cfg, "app.scheme.deeper")
	assert.Error(t, err)

	data := map[string]interface{}{}
	require.NoError(t, setNestedValue(data, "updater.notify_errors", "true"))
	require.NoError(t, setNestedValue(data, "window.width", "1440"))
	require.NoError(t, setNestedValue(data, "updater.interval", "30m"))
	require.NoError(t, setNestedValue(data, "navigation.trusted_domains", "a.example, b.example"))

	updaterSection := data["updater"].(map[string]interface{})
	assert.Equal(t, true, updaterSection["notify_errors"])
	assert.Equal(t, "30m", updaterSection["interval"])
	assert.Equal(t, 1440, data["window"].(map[string]interface{})["width"])
	assert.Equal(t, []interface{}{"a.example", "b.example"}, data["navigation"].(map[string]interface{})["trusted_domains"])

	assert.Error(t, setNestedValue(map[string]interface{}{"app": "flat"}, "app.name", "x"))
}
