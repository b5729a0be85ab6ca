package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theezgbp/ezgbp-desktop/internal/download"
)

func TestPrunePartials_KeepsDayOldPartials(t *testing.T) {
	dir := t.TempDir()
	a := &App{downloads: download.NewManager(download.Options{Dir: dir}, nil)}

	recent := filepath.Join(dir, ".ezgbp-recent.part")
	stale := filepath.Join(dir, ".ezgbp-stale.part")
	for _, p := range []string{recent, stale} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	hoursAgo := func(h int) time.Time { return time.Now().Add(-time.Duration(h) * time.Hour) }
	require.NoError(t, os.Chtimes(recent, hoursAgo(23), hoursAgo(23)))
	require.NoError(t, os.Chtimes(stale, hoursAgo(25), hoursAgo(25)))

	a.prunePartials("test")

	assert.FileExists(t, recent)
	assert.NoFileExists(t, stale)
	assert.Equal(t, 24*time.Hour, partialMaxAge)
}
