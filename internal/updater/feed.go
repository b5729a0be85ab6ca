package updater

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

// File is one downloadable artifact of a release.
type File struct {
	URL    string `yaml:"url"`
	SHA512 string `yaml:"sha512"`
	Size   int64  `yaml:"size"`
}

// Release is the content of an update channel file (latest*.yml).
type Release struct {
	Version      string `yaml:"version"`
	Files        []File `yaml:"files"`
	Path         string `yaml:"path"`
	SHA512       string `yaml:"sha512"`
	ReleaseDate  string `yaml:"releaseDate"`
	ReleaseNotes string `yaml:"releaseNotes,omitempty"`
}

// Asset picks the file to install on goos/goarch: a file naming both, then
// one naming the OS, then the first file, then the legacy path field.
func (r *Release) Asset(goos, goarch string) (File, error) {
	var osOnly *File
	for i := range r.Files {
		name := strings.ToLower(r.Files[i].URL)
		if strings.Contains(name, goos) && strings.Contains(name, goarch) {
			return r.Files[i], nil
		}
		if osOnly == nil && strings.Contains(name, goos) {
			osOnly = &r.Files[i]
		}
	}
	if osOnly != nil {
		return *osOnly, nil
	}
	if len(r.Files) > 0 {
		return r.Files[0], nil
	}
	if r.Path != "" {
		return File{URL: r.Path, SHA512: r.SHA512}, nil
	}
	return File{}, newError(KindNoRelease, fmt.Errorf("release %s has no files", r.Version))
}

// ChannelFile returns the channel file name for goos.
func ChannelFile(channel, goos string) string {
	if channel == "" {
		channel = "latest"
	}
	switch goos {
	case "darwin":
		return channel + "-mac.yml"
	case "linux":
		return channel + "-linux.yml"
	default:
		return channel + ".yml"
	}
}

// Feed reads releases from a generic update server.
type Feed struct {
	client  *resty.Client
	baseURL string
	file    string
}

// NewFeed creates a Feed for baseURL serving file.
func NewFeed(baseURL, file string, timeout time.Duration, userAgent string) *Feed {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Cache-Control", "no-cache")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	return &Feed{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		file:    file,
	}
}

// URL returns the channel file URL.
func (f *Feed) URL() string {
	return f.baseURL + "/" + f.file
}

// Latest fetches and parses the channel file.
func (f *Feed) Latest(ctx context.Context) (*Release, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/x-yaml, text/yaml, */*").
		Get(f.URL())
	if err != nil {
		return nil, newError(KindNetwork, err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), f.URL())
	}

	var rel Release
	if err := yaml.Unmarshal(resp.Body(), &rel); err != nil {
		return nil, newError(KindUnknown, fmt.Errorf("parse %s: %w", f.file, err))
	}
	if strings.TrimSpace(rel.Version) == "" {
		return nil, newError(KindNoRelease, ErrNoRelease)
	}
	return &rel, nil
}

// Resolve turns a release file reference into an absolute URL.
func (f *Feed) Resolve(ref string) (string, error) {
	base, err := url.Parse(f.baseURL + "/")
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

// Download streams file into dst, calling progress with bytes written so far.
func (f *Feed) Download(ctx context.Context, file File, dst io.Writer, progress func(done, total int64)) error {
	target, err := f.Resolve(file.URL)
	if err != nil {
		return newError(KindUnknown, fmt.Errorf("resolve %q: %w", file.URL, err))
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return newError(KindNetwork, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return statusError(resp.StatusCode(), target)
	}

	total := file.Size
	if total <= 0 {
		total = resp.RawResponse.ContentLength
	}

	w := &progressWriter{w: dst, total: total, report: progress}
	if _, err := io.Copy(w, body); err != nil {
		return newError(KindNetwork, fmt.Errorf("download %s: %w", target, err))
	}
	return nil
}

type progressWriter struct {
	w      io.Writer
	done   int64
	total  int64
	report func(done, total int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.done += int64(n)
	if p.report != nil {
		p.report(p.done, p.total)
	}
	return n, err
}
