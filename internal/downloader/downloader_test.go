package downloader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/wallhub/internal/client"
	"github.com/JohnDeved/wallhub/internal/model"
	"github.com/JohnDeved/wallhub/internal/notify"
)

type fakeFetcher struct {
	body   string
	length int64
	err    error
}

func (f fakeFetcher) DownloadFile(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), f.length, nil
}

// probeSaver records manager state at save time before delegating.
type probeSaver struct {
	m       *Manager
	inner   Saver
	busy    bool
	tmpSeen bool
	gotName string
	fail    error
}

func (p *probeSaver) Save(ctx context.Context, tmpPath, name string) (string, error) {
	p.busy = p.m.Busy()
	_, err := os.Stat(tmpPath)
	p.tmpSeen = err == nil
	p.gotName = name
	if p.fail != nil {
		return "", p.fail
	}
	return p.inner.Save(ctx, tmpPath, name)
}

func partFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".wallhub-*.part"))
	require.NoError(t, err)
	return matches
}

func TestDownload_SavesFile(t *testing.T) {
	dir := t.TempDir()
	rec := &notify.Recorder{}
	m := NewManager(fakeFetcher{body: "imagedata", length: 9}, dir, WithNotifier(rec), WithLogger(zerolog.Nop()))
	probe := &probeSaver{m: m, inner: FileSaver{Dir: dir}}
	m.saver = probe

	item, err := m.Download(context.Background(), "http://x/uploads/a.png", "Sunset")
	require.NoError(t, err)

	assert.True(t, probe.busy, "busy while saving")
	assert.True(t, probe.tmpSeen)
	assert.Equal(t, "Sunset.png", probe.gotName)
	assert.False(t, m.Busy())

	data, err := os.ReadFile(filepath.Join(dir, "Sunset.png"))
	require.NoError(t, err)
	assert.Equal(t, "imagedata", string(data))
	assert.Equal(t, filepath.Join(dir, "Sunset.png"), item.DestPath)
	assert.Equal(t, 1.0, item.Progress())
	assert.Empty(t, partFiles(t, dir))

	status, _ := item.Snapshot()
	assert.Equal(t, StatusCompleted, status)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Notification{Level: notify.Success, Message: "Download started successfully!"}, last)
}

func TestDownload_DefaultName(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(fakeFetcher{body: "x"}, dir)

	item, err := m.Download(context.Background(), "http://x/raw", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, item.Name)
	assert.FileExists(t, filepath.Join(dir, DefaultName))
}

func TestDownload_NameCollision(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(fakeFetcher{body: "x"}, dir)

	_, err := m.Download(context.Background(), "http://x/a.jpg", "a.jpg")
	require.NoError(t, err)
	second, err := m.Download(context.Background(), "http://x/a.jpg", "a.jpg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a (1).jpg"), second.DestPath)
	assert.Len(t, m.Items(), 2)
}

func TestDownload_FetchFailure(t *testing.T) {
	dir := t.TempDir()
	rec := &notify.Recorder{}
	fetchErr := &model.NetworkError{URL: "http://x/a.jpg", Status: http.StatusInternalServerError}
	m := NewManager(fakeFetcher{err: fetchErr}, dir, WithNotifier(rec))

	item, err := m.Download(context.Background(), "http://x/a.jpg", "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.False(t, m.Busy())

	status, itemErr := item.Snapshot()
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, err, itemErr)

	last, _ := rec.Last()
	assert.Equal(t, notify.Failure, last.Level)
	assert.Equal(t, "Failed to download the wallpaper. Please try again.", last.Message)
	assert.Empty(t, partFiles(t, dir))
}

func TestDownload_TruncatedBody(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(fakeFetcher{body: "short", length: 100}, dir)

	_, err := m.Download(context.Background(), "http://x/a.jpg", "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, m.Busy())
	assert.Empty(t, partFiles(t, dir))
	assert.NoFileExists(t, filepath.Join(dir, "a.jpg"))
}

func TestDownload_SaverFailureRemovesHandle(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(fakeFetcher{body: "x"}, dir)
	probe := &probeSaver{m: m, fail: errors.New("disk full")}
	m.saver = probe

	_, err := m.Download(context.Background(), "http://x/a.jpg", "a")
	require.Error(t, err)
	assert.True(t, probe.tmpSeen)
	assert.Empty(t, partFiles(t, dir))
	assert.False(t, m.Busy())
}

func TestDownload_ThroughClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uploads/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			io.WriteString(w, "jpegbytes")
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := client.New(srv.URL, 0, zerolog.Nop())
	m := NewManager(c, dir)

	item, err := m.Download(context.Background(), srv.URL+"/uploads/ok.jpg", "ok")
	require.NoError(t, err)
	assert.FileExists(t, item.DestPath)

	_, err = m.Download(context.Background(), srv.URL+"/uploads/missing.jpg", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Empty(t, partFiles(t, dir))
}

func TestClearFinished(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(fakeFetcher{body: "x"}, dir)
	changes := 0
	m.SetOnChange(func() { changes++ })

	_, _ = m.Download(context.Background(), "http://x/a.jpg", "a")
	assert.Equal(t, 0, m.ActiveCount())
	assert.Equal(t, 1, m.ClearFinished())
	assert.Empty(t, m.Items())
	assert.Positive(t, changes)
}

func TestCancel_UnknownOrFinished(t *testing.T) {
	m := NewManager(fakeFetcher{body: "x"}, t.TempDir())
	assert.False(t, m.Cancel(42))

	item, err := m.Download(context.Background(), "http://x/a.jpg", "a")
	require.NoError(t, err)
	assert.False(t, m.Cancel(item.ID))
}

// stallFetcher returns a body that blocks until the download is cancelled.
type stallFetcher struct{ started chan struct{} }

func (f stallFetcher) DownloadFile(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	close(f.started)
	return io.NopCloser(ctxReader{ctx}), 0, nil
}

type ctxReader struct{ ctx context.Context }

func (r ctxReader) Read([]byte) (int, error) {
	<-r.ctx.Done()
	return 0, r.ctx.Err()
}

func TestCancel_Active(t *testing.T) {
	dir := t.TempDir()
	started := make(chan struct{})
	m := NewManager(stallFetcher{started: started}, dir)

	done := make(chan error, 1)
	go func() {
		_, err := m.Download(context.Background(), "http://x/a.jpg", "a")
		done <- err
	}()
	<-started

	assert.True(t, m.Busy())
	assert.Equal(t, 1, m.ActiveCount())
	items := m.Items()
	require.Len(t, items, 1)
	assert.True(t, m.Cancel(items[0].ID))

	err := <-done
	assert.True(t, IsCancelled(err))
	assert.False(t, m.Busy())
	status, _ := items[0].Snapshot()
	assert.Equal(t, StatusFailed, status)
	assert.Empty(t, partFiles(t, dir))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		suggested, url, want string
	}{
		{"", "http://x/a.png", DefaultName},
		{"  ", "http://x/a.png", DefaultName},
		{"Sunset", "http://x/uploads/a.PNG?sig=1", "Sunset.png"},
		{"Sunset", "http://x/raw", "Sunset"},
		{"photo.webp", "http://x/a.png", "photo.webp"},
		{"a/b\\c", "http://x/a.jpg", "a_b_c.jpg"},
		{"..", "http://x/a.jpg", DefaultName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.suggested, tt.url), "suggested %q", tt.suggested)
	}
}
