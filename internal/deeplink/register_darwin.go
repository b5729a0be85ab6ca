//go:build darwin

package deeplink

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// register is a no-op: Launch Services reads CFBundleURLTypes from the
// bundle's Info.plist when the app is installed.
func register(h Handler) error {
	if _, err := bundleInfo(h.Exe); err != nil {
		log.Debug().Err(err).Str("scheme", h.Scheme).Msg("scheme handler comes from the app bundle")
	}
	return nil
}

func registered(h Handler) (bool, error) {
	plist, err := bundleInfo(h.Exe)
	if err != nil {
		return false, err
	}
	return declaresScheme(plist, h.Scheme), nil
}

// bundleInfo reads Contents/Info.plist of the bundle exe lives in.
func bundleInfo(exe string) (string, error) {
	macOS := filepath.Dir(exe)
	contents := filepath.Dir(macOS)
	if filepath.Base(macOS) != "MacOS" || filepath.Base(contents) != "Contents" ||
		!strings.HasSuffix(filepath.Dir(contents), ".app") {
		return "", ErrNotBundled
	}
	data, err := os.ReadFile(filepath.Join(contents, "Info.plist"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// declaresScheme reports whether an Info.plist lists scheme under
// CFBundleURLSchemes.
func declaresScheme(plist, scheme string) bool {
	const key = "<key>CFBundleURLSchemes</key>"
	for {
		i := strings.Index(plist, key)
		if i < 0 {
			return false
		}
		plist = plist[i+len(key):]
		list := plist
		if end := strings.Index(list, "</array>"); end >= 0 {
			list = list[:end]
		}
		if strings.Contains(list, "<string>"+scheme+"</string>") {
			return true
		}
	}
}
