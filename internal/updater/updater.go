// Package updater polls an update feed, downloads newer releases and swaps
// the running binary.
package updater

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/singleflight"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/ports"
	"github.com/theezgbp/ezgbp-desktop/internal/sync"
)

// Options configures an Updater.
type Options struct {
	Enabled        bool
	FeedURL        string
	Channel        string
	CurrentVersion string
	InitialDelay   time.Duration
	Interval       time.Duration
	AutoDownload   bool
	Timeout        time.Duration
	UserAgent      string

	// GOOS and GOARCH select the channel file and asset; they default to
	// the running platform.
	GOOS   string
	GOARCH string
}

// Installer replaces the running binary and relaunches it.
type Installer interface {
	Apply(path string, checksum []byte) error
	Restart() error
}

// checkResult is the outcome of one check flight, shared by every caller
// that joined it.
type checkResult struct {
	release *Release
	latest  string
	manual  bool
}

type downloaded struct {
	version  string
	path     string
	checksum []byte
}

// Updater checks for, downloads and installs releases. Progress and outcome
// are published as update_* events.
type Updater struct {
	opts      Options
	feed      *Feed
	pub       ports.Publisher
	installer Installer

	group singleflight.Group

	mu    sync.Mutex
	ready *downloaded
}

// New creates an Updater.
func New(opts Options, pub ports.Publisher, installer Installer) *Updater {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}
	if opts.Interval <= 0 {
		opts.Interval = 4 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	u := &Updater{opts: opts, pub: pub, installer: installer}
	if opts.FeedURL != "" {
		u.feed = NewFeed(opts.FeedURL, ChannelFile(opts.Channel, opts.GOOS), opts.Timeout, opts.UserAgent)
	}
	return u
}

// Enabled reports whether updates are configured.
func (u *Updater) Enabled() bool {
	return u.opts.Enabled && u.feed != nil
}

// FeedURL returns the channel file URL, or "" when disabled.
func (u *Updater) FeedURL() string {
	if u.feed == nil {
		return ""
	}
	return u.feed.URL()
}

// Run polls the feed until ctx is cancelled: first after InitialDelay, then
// every Interval. A tick that finds a check in flight joins it.
func (u *Updater) Run(ctx context.Context) {
	if !u.Enabled() {
		log.Info().Msg("updater disabled, no feed configured")
		return
	}

	log.Info().
		Str("feed", u.feed.URL()).
		Dur("initial_delay", u.opts.InitialDelay).
		Dur("interval", u.opts.Interval).
		Msg("updater started")

	timer := time.NewTimer(u.opts.InitialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		go u.background(ctx)
	}

	ticker := time.NewTicker(u.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("updater stopped")
			return
		case <-ticker.C:
			go u.background(ctx)
		}
	}
}

func (u *Updater) background(ctx context.Context) {
	if _, err := u.Check(ctx, false); err != nil && !IsExpected(err) {
		log.Warn().Err(err).Str("kind", string(KindOf(err))).Msg("update check failed")
	}
}

// Check looks for a newer release and, with AutoDownload, downloads it.
// Concurrent calls share one check. It returns the newer release, or nil
// when the running version is current.
//
// The flight reports its outcome with the manual flag of the caller that
// started it. A manual caller joining a background flight reports the
// outcome again as manual.
func (u *Updater) Check(ctx context.Context, manual bool) (*Release, error) {
	if !u.Enabled() {
		return nil, ErrDisabled
	}

	v, err, shared := u.group.Do("check", func() (any, error) {
		return u.check(ctx, manual)
	})
	res, _ := v.(*checkResult)
	if shared {
		log.Debug().Bool("manual", manual).Msg("joined in-flight update check")
		if manual && res != nil && !res.manual {
			u.reportManual(res, err)
		}
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.release, nil
}

func (u *Updater) check(ctx context.Context, manual bool) (*checkResult, error) {
	res := &checkResult{manual: manual}
	u.publish(events.EventTypeUpdateChecking, events.UpdatePayload{Manual: manual})

	rel, err := u.feed.Latest(ctx)
	if err != nil {
		u.fail(err, manual)
		return res, err
	}
	res.latest = rel.Version

	if !IsNewer(u.opts.CurrentVersion, rel.Version) {
		log.Info().Str("current", u.opts.CurrentVersion).Str("latest", rel.Version).Msg("no update available")
		u.publish(events.EventTypeUpdateNotAvailable, events.UpdatePayload{Version: rel.Version, Manual: manual})
		return res, nil
	}

	log.Info().Str("current", u.opts.CurrentVersion).Str("version", rel.Version).Msg("update available")
	u.publish(events.EventTypeUpdateAvailable, events.UpdatePayload{Version: rel.Version, Manual: manual})
	res.release = rel

	if !u.opts.AutoDownload {
		return res, nil
	}

	if err := u.download(ctx, rel); err != nil {
		u.fail(err, manual)
		res.release = nil
		return res, err
	}
	u.publish(events.EventTypeUpdateDownloaded, events.UpdatePayload{Version: rel.Version, Manual: manual})
	return res, nil
}

// reportManual repeats the user-facing outcome of a background flight for a
// manual caller. Available and downloaded outcomes are already announced.
func (u *Updater) reportManual(res *checkResult, err error) {
	switch {
	case err != nil:
		u.fail(err, true)
	case res.release == nil:
		u.publish(events.EventTypeUpdateNotAvailable, events.UpdatePayload{Version: res.latest, Manual: true})
	}
}

func (u *Updater) download(ctx context.Context, rel *Release) error {
	if d := u.Downloaded(); d == rel.Version {
		return nil
	}

	asset, err := rel.Asset(u.opts.GOOS, u.opts.GOARCH)
	if err != nil {
		return err
	}
	want, err := base64.StdEncoding.DecodeString(asset.SHA512)
	if err != nil || len(want) != sha512.Size {
		return newError(KindChecksum, fmt.Errorf("release %s has no valid sha512 for %s", rel.Version, asset.URL))
	}

	tmp, err := os.CreateTemp("", "ezgbp-update-*")
	if err != nil {
		return newError(KindInstall, err)
	}
	path := tmp.Name()

	h := sha512.New()
	lastPercent := -1
	err = u.feed.Download(ctx, asset, io.MultiWriter(tmp, h), func(done, total int64) {
		if total <= 0 {
			return
		}
		percent := int(done * 100 / total)
		if percent/10 == lastPercent/10 {
			return
		}
		lastPercent = percent
		log.Info().Int("percent", percent).Msg("update download progress")
		u.publish(events.EventTypeUpdateProgress, events.UpdatePayload{Version: rel.Version, Percent: float64(percent)})
	})
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = newError(KindInstall, cerr)
	}
	if err != nil {
		os.Remove(path)
		return err
	}

	if got := h.Sum(nil); !bytes.Equal(got, want) {
		os.Remove(path)
		return newError(KindChecksum, fmt.Errorf("sha512 mismatch for %s", asset.URL))
	}

	u.mu.Lock()
	if u.ready != nil {
		os.Remove(u.ready.path)
	}
	u.ready = &downloaded{version: rel.Version, path: path, checksum: want}
	u.mu.Unlock()

	log.Info().Str("version", rel.Version).Str("path", path).Msg("update downloaded")
	return nil
}

// Downloaded returns the version of the verified download waiting to be
// installed, or "".
func (u *Updater) Downloaded() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ready == nil {
		return ""
	}
	return u.ready.version
}

// Install applies the downloaded release and relaunches the binary. The
// caller quits the running process afterwards.
func (u *Updater) Install() error {
	u.mu.Lock()
	ready := u.ready
	u.ready = nil
	u.mu.Unlock()

	if ready == nil {
		return ErrNothingToInstall
	}
	defer os.Remove(ready.path)

	log.Info().Str("version", ready.version).Msg("installing update")
	if err := u.installer.Apply(ready.path, ready.checksum); err != nil {
		return newError(KindInstall, err)
	}
	if err := u.installer.Restart(); err != nil {
		return newError(KindInstall, fmt.Errorf("relaunch: %w", err))
	}
	return nil
}

func (u *Updater) fail(err error, manual bool) {
	kind := KindOf(err)
	expected := IsExpected(err)

	evt := log.Warn()
	if expected {
		evt = log.Debug()
	}
	evt.Err(err).Str("kind", string(kind)).Bool("manual", manual).Msg("update failed")

	u.publish(events.EventTypeUpdateError, events.UpdatePayload{
		Manual:  manual,
		Kind:    string(kind),
		Error:   err.Error(),
		Visible: !expected,
	})
}

func (u *Updater) publish(t events.EventType, p events.UpdatePayload) {
	if u.pub != nil {
		u.pub.Publish(events.NewUpdateEvent(t, p))
	}
}

// CompareVersions compares two versions, with or without a leading "v".
// Partial versions are padded ("1.2" equals "1.2.0").
func CompareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// IsNewer reports whether candidate is a valid version above current. An
// unparseable current version (development builds) never updates.
func IsNewer(current, candidate string) bool {
	c, n := canonical(current), canonical(candidate)
	if !semver.IsValid(c) || !semver.IsValid(n) {
		return false
	}
	return semver.Compare(c, n) < 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
