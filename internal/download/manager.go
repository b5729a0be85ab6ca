package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/theezgbp/ezgbp-desktop/internal/pathutil"
)

const (
	fallbackName   = "download"
	partialPattern = ".ezgbp-*.part"
)

// ErrWebPage is returned when the server answers a download with an HTML
// page, typically a sign-in or error page.
var ErrWebPage = errors.New("server returned a web page instead of a file (sign-in required?)")

// Result is the single completion report for a transfer.
type Result struct {
	ID   string
	URL  string
	Path string
	Size int64
	Err  error
}

// OK reports whether the transfer completed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Options configures a Manager.
type Options struct {
	Dir       string
	RetryMax  int
	Timeout   time.Duration
	UserAgent string
}

// Manager runs download transfers in the background.
type Manager struct {
	dir       string
	userAgent string
	client    *retryablehttp.Client
	onDone    func(Result)
	wg        sync.WaitGroup
}

// NewManager creates a Manager. onDone is invoked exactly once per transfer,
// from the transfer's goroutine.
func NewManager(opts Options, onDone func(Result)) *Manager {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = leveledLogger{}
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}

	if onDone == nil {
		onDone = func(Result) {}
	}

	return &Manager{
		dir:       opts.Dir,
		userAgent: opts.UserAgent,
		client:    client,
		onDone:    onDone,
	}
}

// Dir returns the resolved target directory.
func (m *Manager) Dir() (string, error) {
	if m.dir != "" {
		return pathutil.ExpandHome(m.dir), nil
	}
	return pathutil.DownloadsDir()
}

// Start begins downloading rawURL and returns the transfer ID immediately.
func (m *Manager) Start(ctx context.Context, rawURL string) string {
	id := uuid.NewString()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		res := Result{ID: id, URL: rawURL}
		res.Path, res.Size, res.Err = m.fetch(ctx, rawURL)
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("id", id).Str("url", rawURL).Msg("download failed")
		} else {
			log.Info().Str("id", id).Str("path", res.Path).Int64("size", res.Size).Msg("download completed")
		}
		m.onDone(res)
	}()

	log.Info().Str("id", id).Str("url", rawURL).Msg("download started")
	return id
}

// Wait blocks until every started transfer has reported.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) fetch(ctx context.Context, rawURL string) (string, int64, error) {
	dir, err := m.Dir()
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create download directory: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	disposition := resp.Header.Get("Content-Disposition")
	name := FileName(disposition, rawURL)
	contentType := resp.Header.Get("Content-Type")
	if isHTML(contentType) && !wantsHTML(name) {
		return "", 0, ErrWebPage
	}

	tmp, err := os.CreateTemp(dir, partialPattern)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("write download: %w", err)
	}

	if contentType == "" || filepath.Ext(name) == "" {
		mt, err := mimetype.DetectFile(tmpPath)
		if err == nil && contentType == "" && mt.Is("text/html") && !wantsHTML(name) {
			return "", 0, ErrWebPage
		}
		if err == nil && filepath.Ext(name) == "" && mt.Extension() != "" {
			name += mt.Extension()
		}
	}

	target, err := pathutil.UniquePath(dir, name)
	if err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", 0, fmt.Errorf("move download into place: %w", err)
	}

	return target, size, nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// wantsHTML reports whether the requested file is itself a web page.
func wantsHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// PruneStale removes partial transfer files older than maxAge from the
// target directory. They are left behind when the process dies mid-transfer.
// It returns the number of files removed.
func (m *Manager) PruneStale(maxAge time.Duration) (int, error) {
	dir, err := m.Dir()
	if err != nil {
		return 0, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, partialPattern))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to remove stale partial download")
			continue
		}
		removed++
	}
	return removed, nil
}

// FileName picks a safe file name from a Content-Disposition header, falling
// back to the last segment of the URL path.
func FileName(contentDisposition, rawURL string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := params["filename"]; name != "" {
				return pathutil.SanitizeFileName(name, fallbackName)
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if base != "." && base != "/" {
			return pathutil.SanitizeFileName(base, fallbackName)
		}
	}

	return fallbackName
}

// leveledLogger routes retryablehttp logs into zerolog at debug level,
// promoting errors and warnings.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) {
	log.Error().Fields(kv).Msg(strings.TrimSpace(msg))
}

func (leveledLogger) Warn(msg string, kv ...interface{}) {
	log.Warn().Fields(kv).Msg(strings.TrimSpace(msg))
}

func (leveledLogger) Info(msg string, kv ...interface{}) {
	log.Debug().Fields(kv).Msg(strings.TrimSpace(msg))
}

func (leveledLogger) Debug(msg string, kv ...interface{}) {
	log.Debug().Fields(kv).Msg(strings.TrimSpace(msg))
}
