package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/report.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	})
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="Q1 Summary.xlsx"`)
		_, _ = w.Write([]byte("sheet"))
	})
	mux.HandleFunc("/blob/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4\n%test document\n"))
	})
	mux.HandleFunc("/evil", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="../../escape.txt"`)
		_, _ = w.Write([]byte("nope"))
	})
	mux.HandleFunc("/missing.zip", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/files/invoice.pdf", func(w http.ResponseWriter, r *http.Request) {
		// Expired session: the server answers with its sign-in page.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html><html><body><form action=/login></form></body></html>"))
	})
	mux.HandleFunc("/help/guide.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>guide</body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T, c *collector) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(Options{Dir: dir, Timeout: 5 * time.Second}, c.add), dir
}

func TestManager_NameFromURL(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	id := m.Start(context.Background(), srv.URL+"/files/report.csv")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, id, res.ID)
	require.True(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, filepath.Join(dir, "report.csv"), res.Path)
	assert.Equal(t, int64(8), res.Size)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestManager_NameFromContentDisposition(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/export")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dir, "Q1 Summary.xlsx"), results[0].Path)
}

func TestManager_SniffsMissingExtension(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/blob/7")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dir, "7.pdf"), results[0].Path)
}

func TestManager_TraversalStripped(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/evil")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dir, "escape.txt"), results[0].Path)
}

func TestManager_DeduplicatesNames(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/files/report.csv")
	m.Wait()
	m.Start(context.Background(), srv.URL+"/files/report.csv")
	m.Wait()

	results := c.all()
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "report.csv"), results[0].Path)
	assert.Equal(t, filepath.Join(dir, "report (1).csv"), results[1].Path)
}

func TestManager_HTTPError(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/missing.zip")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	assert.False(t, results[0].OK())
	assert.Contains(t, results[0].Err.Error(), "404")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial files must be removed")
}

func TestManager_RejectsSignInPage(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/files/invoice.pdf")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrWebPage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "an HTML page must not be saved as the file")
}

func TestManager_SavesRequestedHTML(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, dir := newTestManager(t, c)

	m.Start(context.Background(), srv.URL+"/help/guide.html")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dir, "guide.html"), results[0].Path)
}

func TestManager_CancelledContext(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	m, _ := newTestManager(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Start(ctx, srv.URL+"/files/report.csv")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestManager_CreatesDirectory(t *testing.T) {
	srv := newTestServer(t)
	c := &collector{}
	dir := filepath.Join(t.TempDir(), "nested", "dl")
	m := NewManager(Options{Dir: dir}, c.add)

	m.Start(context.Background(), srv.URL+"/files/report.csv")
	m.Wait()

	results := c.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.FileExists(t, filepath.Join(dir, "report.csv"))
}

func TestManager_PruneStale(t *testing.T) {
	m, dir := newTestManager(t, &collector{})

	old := filepath.Join(dir, ".ezgbp-111.part")
	fresh := filepath.Join(dir, ".ezgbp-222.part")
	kept := filepath.Join(dir, "report.part")
	for _, p := range []string{old, fresh, kept} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(kept, past, past))

	n, err := m.PruneStale(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, kept)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		cd   string
		url  string
		want string
	}{
		{"from url", "", "https://x.test/a/b/file.zip", "file.zip"},
		{"escaped url", "", "https://x.test/report%20q1.pdf", "report q1.pdf"},
		{"from header", `attachment; filename="data.csv"`, "https://x.test/export", "data.csv"},
		{"bad header falls back", `attachment; filename=`, "https://x.test/x.pdf", "x.pdf"},
		{"root path", "", "https://x.test/", "download"},
		{"no path", "", "https://x.test", "download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.cd, tt.url))
		})
	}
}
