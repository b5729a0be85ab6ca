// Package pathutil provides cross-platform path utilities for the desktop shell.
package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandHome replaces a leading "~" with the user's home directory.
// Paths without the prefix are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// DownloadsDir returns the user's default downloads location.
//
//	Linux:         $XDG_DOWNLOAD_DIR, else ~/Downloads
//	macOS/Windows: ~/Downloads
func DownloadsDir() (string, error) {
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
			return ExpandHome(strings.ReplaceAll(dir, "$HOME", "~")), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}

// SanitizeFileName strips directory components and characters that are not
// valid in file names on any supported platform. An empty result becomes
// fallback.
func SanitizeFileName(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return -1
		case strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		}
		return r
	}, name)

	name = strings.TrimSpace(strings.Trim(name, ". "))
	if name == "" {
		return fallback
	}
	return name
}

// UniquePath returns a path in dir for name that does not exist yet,
// appending " (1)", " (2)", ... before the extension when needed.
func UniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if i > 9999 {
			return "", fmt.Errorf("no free file name for %s in %s", name, dir)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
