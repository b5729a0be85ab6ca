//go:build linux

package deeplink

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const defaultAppsGroup = "Default Applications"

// runCommand runs an external tool and returns its standard output.
var runCommand = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func desktopFileName(scheme string) string {
	return scheme + "-url-handler.desktop"
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func mimeType(scheme string) string {
	return "x-scheme-handler/" + scheme
}

// desktopEntry renders the hidden launcher that declares the scheme.
func desktopEntry(h Handler) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", h.AppName)
	fmt.Fprintf(&b, "Exec=%s %%u\n", execArg(h.Exe))
	b.WriteString("Terminal=false\n")
	b.WriteString("NoDisplay=true\n")
	fmt.Fprintf(&b, "MimeType=%s;\n", mimeType(h.Scheme))
	return b.String()
}

// execArg quotes one Exec argument the way the desktop entry format wants
// it: reserved characters force double quotes, and backslashes are escaped
// once more for the string value itself.
func execArg(arg string) string {
	arg = strings.ReplaceAll(arg, "%", "%%")
	if !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$':
			b.WriteString(`\\`)
		case '\\':
			b.WriteString(`\\\\`)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func register(h Handler) error {
	dir := filepath.Join(dataHome(), "applications")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create applications directory: %w", err)
	}
	name := desktopFileName(h.Scheme)
	path := filepath.Join(dir, name)
	entry := desktopEntry(h)
	if current, err := os.ReadFile(path); err != nil || string(current) != entry {
		if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	mime := mimeType(h.Scheme)
	if _, err := runCommand("xdg-mime", "default", name, mime); err != nil {
		log.Debug().Err(err).Msg("xdg-mime failed, editing mimeapps.list")
		if err := setDefaultApp(filepath.Join(configHome(), "mimeapps.list"), mime, name); err != nil {
			return err
		}
	}
	if _, err := runCommand("update-desktop-database", dir); err != nil {
		log.Debug().Err(err).Msg("desktop database not refreshed")
	}

	log.Info().Str("scheme", h.Scheme).Str("entry", path).Msg("deep link scheme registered")
	return nil
}

func registered(h Handler) (bool, error) {
	name := desktopFileName(h.Scheme)
	data, err := os.ReadFile(filepath.Join(dataHome(), "applications", name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if string(data) != desktopEntry(h) {
		return false, nil
	}

	mime := mimeType(h.Scheme)
	if out, err := runCommand("xdg-mime", "query", "default", mime); err == nil {
		return strings.TrimSpace(string(out)) == name, nil
	}
	current, err := defaultApp(filepath.Join(configHome(), "mimeapps.list"), mime)
	if err != nil {
		return false, err
	}
	return current == name, nil
}

// setDefaultApp points mime at desktop in the [Default Applications] group
// of a mimeapps.list file, keeping every other line.
func setDefaultApp(path, mime, desktop string) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	entry := mime + "=" + desktop + ";"
	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	out := make([]string, 0, len(lines)+2)
	group, seen, done := "", false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			if group == defaultAppsGroup && !done {
				out = append(out, entry)
				done = true
			}
			group = strings.Trim(trimmed, "[]")
			seen = seen || group == defaultAppsGroup
			out = append(out, line)
			continue
		}
		if group == defaultAppsGroup {
			if key, _, ok := strings.Cut(trimmed, "="); ok && strings.TrimSpace(key) == mime {
				if !done {
					out = append(out, entry)
					done = true
				}
				continue
			}
		}
		out = append(out, line)
	}
	if !done {
		if !seen {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			out = append(out, "["+defaultAppsGroup+"]")
		}
		out = append(out, entry)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0o644)
}

// defaultApp returns the first desktop file mimeapps.list names for mime.
func defaultApp(path, mime string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	group := ""
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			group = strings.Trim(trimmed, "[]")
			continue
		}
		if group != defaultAppsGroup {
			continue
		}
		key, value, ok := strings.Cut(trimmed, "=")
		if !ok || strings.TrimSpace(key) != mime {
			continue
		}
		first, _, _ := strings.Cut(strings.TrimSpace(value), ";")
		return first, nil
	}
	return "", nil
}
