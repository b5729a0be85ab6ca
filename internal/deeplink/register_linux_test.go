//go:build linux

package deeplink

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// xdgHome points the XDG directories at a temp dir and stubs external
// tools with run.
func xdgHome(t *testing.T, run func(name string, args ...string) ([]byte, error)) (data, config string) {
	t.Helper()
	root := t.TempDir()
	data = filepath.Join(root, "data")
	config = filepath.Join(root, "config")
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_CONFIG_HOME", config)

	orig := runCommand
	runCommand = run
	t.Cleanup(func() { runCommand = orig })
	return data, config
}

func noTools(string, ...string) ([]byte, error) {
	return nil, exec.ErrNotFound
}

var handler = Handler{Scheme: "ezgbp", Exe: "/opt/EzGBP/ezgbp", AppName: "EzGBP"}

func TestRegister_WritesDesktopEntry(t *testing.T) {
	var calls []string
	data, _ := xdgHome(t, func(name string, args ...string) ([]byte, error) {
		calls = append(calls, name+" "+strings.Join(args, " "))
		return nil, nil
	})

	require.NoError(t, Register(handler))

	entry, err := os.ReadFile(filepath.Join(data, "applications", "ezgbp-url-handler.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "Exec=/opt/EzGBP/ezgbp %u\n")
	assert.Contains(t, string(entry), "MimeType=x-scheme-handler/ezgbp;\n")
	assert.Contains(t, string(entry), "NoDisplay=true\n")

	require.NotEmpty(t, calls)
	assert.Equal(t, "xdg-mime default ezgbp-url-handler.desktop x-scheme-handler/ezgbp", calls[0])
}

func TestRegister_FallsBackToMimeappsList(t *testing.T) {
	_, config := xdgHome(t, noTools)

	ok, err := Registered(handler)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Register(handler))

	list, err := os.ReadFile(filepath.Join(config, "mimeapps.list"))
	require.NoError(t, err)
	assert.Equal(t, "[Default Applications]\nx-scheme-handler/ezgbp=ezgbp-url-handler.desktop;\n", string(list))

	ok, err = Registered(handler)
	require.NoError(t, err)
	assert.True(t, ok)

	// A moved binary makes the registration stale.
	moved := handler
	moved.Exe = "/home/u/Apps/ezgbp"
	ok, err = Registered(moved)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistered_AsksXdgMime(t *testing.T) {
	answer := "ezgbp-url-handler.desktop\n"
	xdgHome(t, func(name string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[0] == "query" {
			return []byte(answer), nil
		}
		return nil, nil
	})
	require.NoError(t, Register(handler))

	ok, err := Registered(handler)
	require.NoError(t, err)
	assert.True(t, ok)

	answer = "other-app.desktop\n"
	ok, err = Registered(handler)
	require.NoError(t, err)
	assert.False(t, ok, "another application owns the scheme")
}

func TestRegister_Invalid(t *testing.T) {
	xdgHome(t, noTools)

	assert.Error(t, Register(Handler{Scheme: "bad scheme", Exe: "/opt/ezgbp"}))
	assert.Error(t, Register(Handler{Scheme: "ezgbp", Exe: "ezgbp"}))
}

func TestSetDefaultApp_KeepsOtherEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mimeapps.list")
	require.NoError(t, os.WriteFile(path, []byte(`[Default Applications]
text/html=firefox.desktop;
x-scheme-handler/ezgbp=old.desktop;

[Added Associations]
image/png=gimp.desktop;
`), 0o644))

	require.NoError(t, setDefaultApp(path, "x-scheme-handler/ezgbp", "ezgbp-url-handler.desktop"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[Default Applications]
text/html=firefox.desktop;
x-scheme-handler/ezgbp=ezgbp-url-handler.desktop;

[Added Associations]
image/png=gimp.desktop;
`, string(got))

	app, err := defaultApp(path, "text/html")
	require.NoError(t, err)
	assert.Equal(t, "firefox.desktop", app)
}

func TestSetDefaultApp_AddsGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mimeapps.list")
	require.NoError(t, os.WriteFile(path, []byte("[Added Associations]\nimage/png=gimp.desktop;\n"), 0o644))

	require.NoError(t, setDefaultApp(path, "x-scheme-handler/ezgbp", "e.desktop"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[Added Associations]\nimage/png=gimp.desktop;\n\n[Default Applications]\nx-scheme-handler/ezgbp=e.desktop;\n", string(got))
}

func TestExecArg(t *testing.T) {
	assert.Equal(t, "/opt/ezgbp/ezgbp", execArg("/opt/ezgbp/ezgbp"))
	assert.Equal(t, `"/home/u/My Apps/ezgbp"`, execArg("/home/u/My Apps/ezgbp"))
	assert.Equal(t, `"/tmp/a\\$b"`, execArg("/tmp/a$b"))
	assert.Equal(t, "/tmp/100%%", execArg("/tmp/100%"))
}

func TestRegistered_ReadError(t *testing.T) {
	data, _ := xdgHome(t, noTools)
	// A directory where the entry should be is not a registration.
	require.NoError(t, os.MkdirAll(filepath.Join(data, "applications", "ezgbp-url-handler.desktop"), 0o755))

	_, err := Registered(handler)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
