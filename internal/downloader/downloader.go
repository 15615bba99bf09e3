// Package downloader saves full-resolution wallpapers to the local disk and
// tracks each save for the downloads view.
package downloader

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"

	"github.com/JohnDeved/wallhub/internal/notify"
)

// DefaultName is used when the caller does not suggest a file name.
const DefaultName = "wallpaper.jpg"

const (
	msgSaved  = "Download started successfully!"
	msgFailed = "Failed to download the wallpaper. Please try again."
)

// Status represents a download's state.
type Status int

const (
	StatusActive Status = iota
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Downloading"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

var errCancelled = errors.New("cancelled")

// Item represents a single download.
type Item struct {
	ID          int
	Name        string
	URL         string
	DestPath    string
	TotalBytes  atomic.Int64
	DoneBytes   atomic.Int64
	Status      Status
	Error       error
	StartedAt   time.Time
	CompletedAt time.Time
	cancel      context.CancelFunc
	Mu          sync.Mutex
}

// Progress returns a snapshot of the download's progress.
func (it *Item) Progress() float64 {
	total := it.TotalBytes.Load()
	done := it.DoneBytes.Load()
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// Speed returns the approximate download speed in bytes per second.
func (it *Item) Speed() float64 {
	it.Mu.Lock()
	started := it.StartedAt
	finished := it.CompletedAt
	it.Mu.Unlock()

	if started.IsZero() {
		return 0
	}
	end := time.Now()
	if !finished.IsZero() {
		end = finished
	}
	elapsed := end.Sub(started).Seconds()
	if elapsed < 0.1 {
		return 0
	}
	return float64(it.DoneBytes.Load()) / elapsed
}

// Snapshot returns the item's status and error.
func (it *Item) Snapshot() (Status, error) {
	it.Mu.Lock()
	defer it.Mu.Unlock()
	return it.Status, it.Error
}

// Fetcher opens a remote asset.
type Fetcher interface {
	DownloadFile(ctx context.Context, fileURL string) (io.ReadCloser, int64, error)
}

// Saver moves a fully materialized temp file to its final place and
// returns that place.
type Saver interface {
	Save(ctx context.Context, tmpPath, name string) (string, error)
}

// FileSaver renames the temp file into Dir, picking a free name when
// the target already exists.
type FileSaver struct {
	Dir string
}

func (s FileSaver) Save(_ context.Context, tmpPath, name string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating directory")
	}
	dest := freePath(filepath.Join(s.Dir, name))
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", errors.Wrap(err, "renaming file")
	}
	return dest, nil
}

// freePath returns p, or p with " (n)" before the extension when p exists.
func freePath(p string) string {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(p)
	base := strings.TrimSuffix(p, ext)
	for n := 1; ; n++ {
		candidate := base + " (" + strconv.Itoa(n) + ")" + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// Manager runs downloads. Downloads of the same resource are not
// de-duplicated.
type Manager struct {
	fetcher  Fetcher
	saver    Saver
	tmpDir   string
	notifier notify.Notifier
	log      zerolog.Logger

	busy atomic.Int64

	mu         sync.Mutex
	items      []*Item
	nextID     int
	onChange   func()
	lastNotify time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSaver replaces the default FileSaver.
func WithSaver(s Saver) Option {
	return func(m *Manager) { m.saver = s }
}

// WithNotifier sets where outcome banners go.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger sets the manager's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l.With().Str("component", "downloader").Logger() }
}

// NewManager creates a download manager saving into downloadDir.
func NewManager(f Fetcher, downloadDir string, opts ...Option) *Manager {
	m := &Manager{
		fetcher:  f,
		saver:    FileSaver{Dir: downloadDir},
		tmpDir:   downloadDir,
		notifier: notify.Discard,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetOnChange sets a callback invoked when any download's state changes.
func (m *Manager) SetOnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Manager) changed(force bool) {
	m.mu.Lock()
	fn := m.onChange
	if !force {
		now := time.Now()
		if now.Sub(m.lastNotify) < 100*time.Millisecond {
			m.mu.Unlock()
			return
		}
		m.lastNotify = now
	} else {
		m.lastNotify = time.Now()
	}
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Busy reports whether any download is in flight.
func (m *Manager) Busy() bool {
	return m.busy.Load() > 0
}

// Download fetches resourceURL and saves it under suggestedName. It blocks
// until the file is saved or the download failed; the outcome is also
// announced through the notifier.
func (m *Manager) Download(ctx context.Context, resourceURL, suggestedName string) (*Item, error) {
	m.busy.Add(1)
	defer m.busy.Add(-1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	item := m.track(resourceURL, FileName(suggestedName, resourceURL), cancel)
	m.log.Info().Int("id", item.ID).Str("url", resourceURL).Str("name", item.Name).Msg("download started")

	dest, err := m.run(ctx, item)

	item.Mu.Lock()
	if err != nil {
		if item.Status != StatusFailed {
			item.Status = StatusFailed
			item.Error = err
		}
		err = item.Error
	} else {
		item.Status = StatusCompleted
		item.DestPath = dest
	}
	item.CompletedAt = time.Now()
	item.cancel = nil
	item.Mu.Unlock()
	m.changed(true)

	if err != nil {
		if IsCancelled(err) {
			m.log.Info().Int("id", item.ID).Str("url", resourceURL).Msg("download cancelled")
		} else {
			m.log.Error().Err(err).Int("id", item.ID).Str("url", resourceURL).Msg("download failed")
		}
		m.notifier.Notify(notify.Notification{Level: notify.Failure, Message: msgFailed})
		return item, err
	}
	m.log.Info().Int("id", item.ID).Str("path", dest).Int64("bytes", item.DoneBytes.Load()).Msg("download saved")
	m.notifier.Notify(notify.Notification{Level: notify.Success, Message: msgSaved})
	return item, nil
}

func (m *Manager) track(resourceURL, name string, cancel context.CancelFunc) *Item {
	m.mu.Lock()
	m.nextID++
	item := &Item{
		ID:        m.nextID,
		Name:      name,
		URL:       resourceURL,
		Status:    StatusActive,
		StartedAt: time.Now(),
		cancel:    cancel,
	}
	m.items = append(m.items, item)
	m.mu.Unlock()
	m.changed(true)
	return item
}

// run fetches the body into a temp file and hands it to the saver. The temp
// file is always removed; after a successful save it no longer exists.
func (m *Manager) run(ctx context.Context, item *Item) (string, error) {
	body, contentLength, err := m.fetcher.DownloadFile(ctx, item.URL)
	if err != nil {
		return "", err
	}
	defer body.Close()
	if contentLength > 0 {
		item.TotalBytes.Store(contentLength)
	}

	if err := os.MkdirAll(m.tmpDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating directory")
	}
	f, err := os.CreateTemp(m.tmpDir, ".wallhub-*.part")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	tmpPath := f.Name()
	defer func() {
		if rerr := os.Remove(tmpPath); rerr != nil && !os.IsNotExist(rerr) {
			m.log.Warn().Err(rerr).Str("path", tmpPath).Msg("removing temp file")
		}
	}()

	if err := m.copy(ctx, f, body, item); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "closing temp file")
	}
	if contentLength > 0 && item.DoneBytes.Load() != contentLength {
		return "", errors.Wrapf(io.ErrUnexpectedEOF, "got %d of %d bytes", item.DoneBytes.Load(), contentLength)
	}

	return m.saver.Save(ctx, tmpPath, item.Name)
}

func (m *Manager) copy(ctx context.Context, dst io.Writer, src io.Reader, item *Item) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return errors.Wrap(werr, "writing file")
			}
			item.DoneBytes.Add(int64(n))
			m.changed(false)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading response")
		}
	}
}

// FileName derives a safe local file name from the suggested name. An
// empty suggestion yields DefaultName; a suggestion without an extension
// borrows the extension of the resource URL.
func FileName(suggested, resourceURL string) string {
	name := strings.TrimSpace(suggested)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, ". ")
	if name == "" {
		return DefaultName
	}
	if filepath.Ext(name) == "" {
		if u, err := url.Parse(resourceURL); err == nil {
			if ext := path.Ext(u.Path); ext != "" && len(ext) <= 6 {
				name += strings.ToLower(ext)
			}
		}
	}
	return name
}

// Items returns the recorded downloads, oldest first.
func (m *Manager) Items() []*Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// ClearFinished forgets completed and failed downloads and returns how many
// were dropped.
func (m *Manager) ClearFinished() int {
	m.mu.Lock()
	before := len(m.items)
	m.items = slices.DeleteFunc(m.items, func(it *Item) bool {
		status, _ := it.Snapshot()
		return status != StatusActive
	})
	removed := before - len(m.items)
	m.mu.Unlock()

	if removed > 0 {
		m.changed(true)
	}
	return removed
}

// ActiveCount returns the number of downloads in flight.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if status, _ := it.Snapshot(); status == StatusActive {
			n++
		}
	}
	return n
}

// abort marks an active item failed and stops its transfer. The caller
// holds no item lock.
func (it *Item) abort() bool {
	it.Mu.Lock()
	defer it.Mu.Unlock()
	if it.Status != StatusActive || it.cancel == nil {
		return false
	}
	it.Status = StatusFailed
	it.Error = errCancelled
	it.cancel()
	return true
}

// Cancel stops the active download with the given id.
func (m *Manager) Cancel(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.items, func(it *Item) bool { return it.ID == id })
	return i >= 0 && m.items[i].abort()
}

// CancelAll stops every active download.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		it.abort()
	}
}

// IsCancelled reports whether err came from Cancel or CancelAll.
func IsCancelled(err error) bool {
	return errors.Is(err, errCancelled)
}
