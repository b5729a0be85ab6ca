// Package download recognizes navigations that should become file downloads
// and runs those transfers into the user's downloads folder.
package download

import (
	"mime"
	"net/url"
	"strings"
)

// Rules is the configurable trigger list for the download heuristic.
type Rules struct {
	// Extensions match the end of the URL path, e.g. ".zip".
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	// Markers match anywhere in the URL path or query, e.g. "export=".
	Markers []string `mapstructure:"markers" yaml:"markers"`
	// ContentTypes match a declared media type, parameters ignored.
	ContentTypes []string `mapstructure:"content_types" yaml:"content_types"`
}

// DefaultRules returns the built-in trigger list.
func DefaultRules() Rules {
	return Rules{
		Extensions: []string{
			".zip", ".rar", ".7z", ".tar", ".gz", ".tgz",
			".pdf", ".csv", ".xls", ".xlsx", ".doc", ".docx", ".ppt", ".pptx",
			".dmg", ".pkg", ".exe", ".msi", ".deb", ".rpm", ".appimage",
		},
		Markers: []string{
			"/download",
			"download=",
			"export=",
			"attachment",
		},
		ContentTypes: []string{
			"application/zip",
			"application/x-zip-compressed",
			"application/x-7z-compressed",
			"application/x-rar-compressed",
			"application/gzip",
			"application/x-tar",
			"application/octet-stream",
			"application/pdf",
			"text/csv",
			"application/vnd.ms-excel",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
	}
}

// Detector applies Rules to URLs. It is immutable once built.
type Detector struct {
	extensions   []string
	markers      []string
	contentTypes map[string]struct{}
}

// NewDetector builds a Detector. Entries are lower-cased and blanks dropped.
func NewDetector(r Rules) *Detector {
	d := &Detector{contentTypes: make(map[string]struct{}, len(r.ContentTypes))}
	for _, e := range r.Extensions {
		if e = normalize(e); e != "" {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			d.extensions = append(d.extensions, e)
		}
	}
	for _, m := range r.Markers {
		if m = normalize(m); m != "" {
			d.markers = append(d.markers, m)
		}
	}
	for _, ct := range r.ContentTypes {
		if ct = normalize(ct); ct != "" {
			d.contentTypes[ct] = struct{}{}
		}
	}
	return d
}

// Match reports whether a navigation to rawURL, optionally declaring
// contentType, looks like a direct file download. Unparseable URLs are
// judged on the content type alone.
func (d *Detector) Match(rawURL, contentType string) bool {
	if d.matchContentType(contentType) {
		return true
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	path := strings.ToLower(u.EscapedPath())
	for _, ext := range d.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	haystack := path
	if u.RawQuery != "" {
		haystack += "?" + strings.ToLower(u.RawQuery)
	}
	for _, m := range d.markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}

	return false
}

func (d *Detector) matchContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = normalize(strings.SplitN(contentType, ";", 2)[0])
	}
	_, ok := d.contentTypes[mediaType]
	return ok
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
