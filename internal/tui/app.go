// Package tui is the interactive wallpaper browser.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"

	"github.com/JohnDeved/wallhub/internal/admin"
	"github.com/JohnDeved/wallhub/internal/catalog"
	"github.com/JohnDeved/wallhub/internal/downloader"
	"github.com/JohnDeved/wallhub/internal/gate"
	"github.com/JohnDeved/wallhub/internal/model"
	"github.com/JohnDeved/wallhub/internal/notify"
	"github.com/JohnDeved/wallhub/internal/preview"
)

// Tab identifies the active view.
type Tab int

const (
	TabGallery Tab = iota
	TabDownloads
	TabAdmin
)

// Messages
type catalogMsg struct{ cat catalog.Catalog }

type errMsg struct{ err error }

type statusClearMsg struct{ id int }

type downloadUpdateMsg struct{ err error }

type notifyMsg notify.Notification

type previewChangedMsg struct {
	w    model.Wallpaper
	open bool
}

type adminDoneMsg struct{ err error }

// Deps are the components the TUI drives.
type Deps struct {
	Catalog   *catalog.Repository
	Downloads *downloader.Manager
	Admin     *admin.Pipeline
	Gate      *gate.Gate
	Preview   *preview.Controller
	// Origin resolves relative asset references.
	Origin string
	Log    zerolog.Logger
}

// Model is the main Bubble Tea model.
type Model struct {
	deps        Deps
	keys        *keyRegistry
	activeTab   Tab
	gallery     galleryModel
	downloads   downloadsModel
	admin       adminModel
	spinner     spinner.Model
	width       int
	height      int
	showHelp    bool
	statusMsg   string
	statusLevel notify.Level
	statusID    int
	quitConfirm bool
}

// NewModel creates the TUI model. The preview's escape binding is acquired
// from the model's key registry; call the returned release on teardown.
func NewModel(deps Deps) (Model, func()) {
	s := spinner.New()
	s.Spinner = spinner.Dot

	if deps.Preview == nil {
		deps.Preview = preview.New()
	}
	keys := newKeyRegistry()
	release := deps.Preview.Mount(keys)

	m := Model{
		deps:      deps,
		keys:      keys,
		activeTab: TabGallery,
		gallery:   newGalleryModel(),
		downloads: newDownloadsModel(),
		admin:     newAdminModel(),
		spinner:   s,
	}
	m.admin.pin.Focus()
	return m, release
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadCatalog(m.gallery.device),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewHeight := m.height - 8 // header, tabs, status bar
		m.gallery.height = max(3, viewHeight-4)
		m.downloads.height = max(3, (viewHeight-2)/2)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case catalogMsg:
		if !m.gallery.setCatalog(msg.cat) {
			m.deps.Log.Debug().Uint64("generation", msg.cat.Generation).Msg("ignoring out-of-order catalog")
			return m, nil
		}
		m.admin.setCategories(m.deps.Admin.Categories())
		return m, nil

	case errMsg:
		if errors.Is(msg.err, catalog.ErrStale) {
			return m, nil
		}
		m.gallery.setError(msg.err)
		return m, nil

	case notifyMsg:
		return m, m.setStatusLevel(msg.Message, msg.Level)

	case previewChangedMsg:
		if msg.open {
			m.deps.Log.Debug().Str("id", msg.w.ID).Msg("preview opened")
		}
		return m, nil

	case adminDoneMsg:
		m.admin.submitting = false
		if msg.err == nil {
			m.admin.reset()
			m.gallery.setCatalog(m.deps.Catalog.Snapshot())
			m.admin.setCategories(m.deps.Admin.Categories())
		}
		return m, nil

	case downloadUpdateMsg:
		if msg.err != nil && !downloader.IsCancelled(msg.err) {
			m.deps.Log.Warn().Err(msg.err).Msg("download failed")
		}
		m.downloads.setItems(m.deps.Downloads.Items())
		return m, nil

	case statusClearMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Pass through to the focused admin input (cursor blink).
	if m.activeTab == TabAdmin {
		return m.updateAdminInput(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Program-wide bindings come first; a handled escape that closed the
	// preview stops here.
	wasOpen := m.deps.Preview.IsOpen()
	m.keys.dispatch(key)
	if wasOpen && !m.deps.Preview.IsOpen() {
		return m, nil
	}

	if m.deps.Preview.IsOpen() {
		return m.handlePreviewKey(key)
	}

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
			return m, nil
		}
	}

	typing := m.activeTab == TabAdmin && m.admin.typing(m.deps.Gate.Unlocked())

	// Global keys.
	switch key {
	case "ctrl+c":
		return m.quit()
	case "q":
		if !typing {
			return m.quit()
		}
	case "esc":
		if m.quitConfirm {
			m.quitConfirm = false
			return m, m.setStatus("Quit canceled")
		}
	case "?":
		if !typing {
			m.showHelp = !m.showHelp
			return m, nil
		}
	case "1", "2", "3":
		if !typing {
			return m, m.switchTab(Tab(key[0] - '1'))
		}
	case "tab":
		return m, m.switchTab((m.activeTab + 1) % 3)
	case "shift+tab":
		return m, m.switchTab((m.activeTab + 2) % 3)
	}

	switch m.activeTab {
	case TabGallery:
		return m.handleGalleryKey(key)
	case TabDownloads:
		return m.handleDownloadsKey(key)
	case TabAdmin:
		return m.handleAdminKey(key, msg)
	}
	return m, nil
}

func (m *Model) switchTab(t Tab) tea.Cmd {
	m.activeTab = t
	m.showHelp = false
	switch t {
	case TabDownloads:
		m.downloads.setItems(m.deps.Downloads.Items())
	case TabAdmin:
		if !m.deps.Gate.Unlocked() {
			return m.admin.pin.Focus()
		}
		return m.admin.focusField(m.admin.focus)
	}
	return nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.quitConfirm {
		m.deps.Downloads.CancelAll()
		return m, tea.Quit
	}
	if m.deps.Downloads.Busy() {
		m.quitConfirm = true
		return m, m.setStatus("A download is running. Press q again to cancel it and quit, or Esc to stay")
	}
	return m, tea.Quit
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.deps.Preview.IsOpen() {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch m.activeTab {
		case TabGallery:
			m.gallery.moveUp()
		case TabDownloads:
			m.downloads.moveUp()
		}
	case tea.MouseButtonWheelDown:
		switch m.activeTab {
		case TabGallery:
			m.gallery.moveDown()
		case TabDownloads:
			m.downloads.moveDown()
		}
	}
	return m, nil
}

func (m Model) handlePreviewKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m.quit()
	case "d", "enter":
		if w, ok := m.deps.Preview.Current(); ok {
			return m, m.download(w)
		}
	}
	return m, nil
}

func (m Model) handleGalleryKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.gallery.moveUp()
	case "down", "j":
		m.gallery.moveDown()
	case "pgup", "ctrl+u":
		m.gallery.pageUp()
	case "pgdown", "ctrl+d":
		m.gallery.pageDown()
	case "home", "g":
		m.gallery.goHome()
	case "end", "G":
		m.gallery.goEnd()

	case "]", "right", "l":
		m.gallery.nextCategory()
	case "[", "left", "h":
		m.gallery.prevCategory()

	case "p", "m":
		d := model.DevicePC
		if key == "m" {
			d = model.DeviceMobile
		}
		if m.gallery.setDevice(d) {
			// A load for the old device must not land after this point.
			m.deps.Catalog.Invalidate()
			m.gallery.loading = true
			return m, m.loadCatalog(d)
		}

	case "r":
		m.gallery.loading = true
		return m, m.loadCatalog(m.gallery.device)

	case "enter", " ":
		if w, ok := m.gallery.selected(); ok {
			m.deps.Preview.Open(w)
		}

	case "d":
		if w, ok := m.gallery.selected(); ok {
			return m, m.download(w)
		}

	default:
		if isTypeAheadKey(key) {
			m.gallery.typeAheadFind(key)
		}
	}
	return m, nil
}

func (m Model) handleDownloadsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.downloads.moveUp()
	case "down", "j":
		m.downloads.moveDown()
	case "pgup", "ctrl+u":
		m.downloads.pageUp()
	case "pgdown", "ctrl+d":
		m.downloads.pageDown()
	case "c":
		if sel := m.downloads.selected(); sel != nil {
			if m.deps.Downloads.Cancel(sel.ID) {
				return m, m.setStatus(fmt.Sprintf("Cancelled: %s", sel.Name))
			}
			return m, m.setStatus("Selected download is not running")
		}
	case "r":
		m.downloads.setItems(m.deps.Downloads.Items())
	case "x":
		removed := m.deps.Downloads.ClearFinished()
		if removed > 0 {
			m.downloads.setItems(m.deps.Downloads.Items())
			return m, m.setStatus(fmt.Sprintf("Cleared %d finished downloads", removed))
		}
		return m, m.setStatus("No finished downloads to clear")
	}
	return m, nil
}

func (m Model) handleAdminKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := &m.admin

	if !m.deps.Gate.Unlocked() {
		if key != "enter" {
			var cmd tea.Cmd
			a.pin, cmd = a.pin.Update(msg)
			return m, cmd
		}
		err := m.deps.Gate.Unlock(a.pin.Value())
		a.pin.SetValue("")
		if err != nil {
			a.pinErr = gate.MsgIncorrect
			return m, nil
		}
		a.pinErr = ""
		a.pin.Blur()
		a.setCategories(m.deps.Admin.Categories())
		return m, a.focusField(a.fields()[0])
	}

	if a.submitting {
		return m, nil
	}

	switch key {
	case "ctrl+l":
		m.deps.Gate.Lock()
		return m, a.pin.Focus()
	case "ctrl+b":
		return m, a.toggleMode()
	case "up":
		return m, a.moveFocus(-1)
	case "down":
		return m, a.moveFocus(1)
	case "left", "right":
		if a.input(a.focus) == nil {
			delta := 1
			if key == "left" {
				delta = -1
			}
			a.cycle(delta)
			return m, nil
		}
	case "ctrl+s":
		return m, m.submitAdmin()
	case "enter":
		if a.lastField() {
			return m, m.submitAdmin()
		}
		return m, a.moveFocus(1)
	}

	if in := a.input(a.focus); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateAdminInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	a := &m.admin
	var cmd tea.Cmd
	if !m.deps.Gate.Unlocked() {
		a.pin, cmd = a.pin.Update(msg)
		return m, cmd
	}
	if in := a.input(a.focus); in != nil {
		*in, cmd = in.Update(msg)
	}
	return m, cmd
}

// Commands

func (m Model) loadCatalog(device model.Device) tea.Cmd {
	repo := m.deps.Catalog
	return func() tea.Msg {
		cat, err := repo.Load(context.Background(), device)
		if err != nil {
			return errMsg{err: err}
		}
		return catalogMsg{cat: cat}
	}
}

func (m Model) download(w model.Wallpaper) tea.Cmd {
	dl := m.deps.Downloads
	url := w.AssetURL(m.deps.Origin)
	return func() tea.Msg {
		_, err := dl.Download(context.Background(), url, w.Name)
		return downloadUpdateMsg{err: err}
	}
}

func (m *Model) submitAdmin() tea.Cmd {
	a := &m.admin
	pipeline := m.deps.Admin
	a.submitting = true

	if a.mode == modeBulk {
		req := a.bulkRequest()
		return func() tea.Msg {
			_, err := pipeline.SubmitBulk(context.Background(), req)
			return adminDoneMsg{err: err}
		}
	}

	req, imagePath := a.manualRequest()
	return func() tea.Msg {
		if imagePath != "" {
			f, err := os.Open(imagePath)
			if err != nil {
				return adminDoneMsg{err: errors.Wrap(err, "opening image")}
			}
			defer f.Close()
			req.Image = f
			req.ImageName = filepath.Base(imagePath)
		}
		_, err := pipeline.SubmitManual(context.Background(), req)
		return adminDoneMsg{err: err}
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if w, ok := m.deps.Preview.Current(); ok {
		return previewView(w, m.deps.Origin, m.width, m.height-1) + "\n" + m.statusBar()
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("  Wallhub  "))
	sb.WriteString("\n")

	tabs := []struct {
		name string
		tab  Tab
		key  string
	}{
		{"Gallery", TabGallery, "1"},
		{"Downloads", TabDownloads, "2"},
		{"Admin", TabAdmin, "3"},
	}

	var tabLine strings.Builder
	for _, t := range tabs {
		label := fmt.Sprintf(" %s %s ", t.key, t.name)
		if m.activeTab == t.tab {
			tabLine.WriteString(tabActiveStyle.Render(label))
		} else {
			tabLine.WriteString(tabInactiveStyle.Render(label))
		}
		tabLine.WriteString(" ")
	}
	if n := m.deps.Downloads.ActiveCount(); n > 0 {
		tabLine.WriteString(successStyle.Render(fmt.Sprintf(" [%d downloading]", n)))
	}
	if m.deps.Gate.Unlocked() {
		tabLine.WriteString(deviceBadge.Render("admin"))
	}

	sb.WriteString(tabLine.String())
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	if m.showHelp {
		sb.WriteString(helpView())
	} else {
		switch m.activeTab {
		case TabGallery:
			sb.WriteString(m.gallery.view(m.width, m.spinner.View()))
		case TabDownloads:
			sb.WriteString(m.downloads.view(m.width))
		case TabAdmin:
			sb.WriteString(m.admin.view(m.width, m.deps.Gate.Unlocked(), m.spinner.View()))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")
	sb.WriteString(m.statusBar())
	return sb.String()
}

func (m Model) statusBar() string {
	line := m.statusMsg
	switch {
	case line == "":
		line = m.defaultStatus()
	case m.statusLevel == notify.Failure:
		line = errorStyle.Render(line)
	default:
		line = successStyle.Render(line)
	}
	return statusBarStyle.Width(m.width).Render(line)
}

func (m Model) defaultStatus() string {
	if m.deps.Preview.IsOpen() {
		return "d:download  esc:close"
	}
	switch m.activeTab {
	case TabGallery:
		return "j/k:navigate  [/]:category  p/m:PC/Mobile  Enter:preview  d:download  r:reload  ?:help"
	case TabDownloads:
		return "j/k:navigate  c:cancel  x:clear done  r:refresh  ?:help"
	case TabAdmin:
		if !m.deps.Gate.Unlocked() {
			return "Enter the admin PIN to continue"
		}
		return "Ctrl+S:submit  Ctrl+B:switch form  Ctrl+L:lock"
	}
	return ""
}

func helpView() string {
	lines := []string{
		"  Keyboard Shortcuts",
		"  ──────────────────",
		"",
		"  Global:",
		"    Tab / 1-3     Switch views",
		"    Shift+Tab     Reverse view cycle",
		"    Esc           Close preview",
		"    ?             Toggle help",
		"    q / Ctrl+C    Quit (double-press while downloading)",
		"",
		"  Gallery:",
		"    j/k / Up/Down Navigate",
		"    [ / ]         Previous / next category",
		"    p / m         PC / Mobile wallpapers",
		"    Enter / Space Preview",
		"    d             Download full size",
		"    r             Reload catalog",
		"    type letters  Jump to name",
		"",
		"  Downloads:",
		"    c             Cancel selected",
		"    x             Clear completed/failed",
		"",
		"  Admin:",
		"    Up/Down       Move between fields",
		"    Left/Right    Change category or device",
		"    Ctrl+S        Submit",
		"    Ctrl+B        Switch upload / bulk fetch",
		"    Ctrl+L        Lock admin view",
	}
	return helpStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) setStatus(msg string) tea.Cmd {
	return m.setStatusLevel(msg, notify.Success)
}

func (m *Model) setStatusLevel(msg string, level notify.Level) tea.Cmd {
	m.statusMsg = msg
	m.statusLevel = level
	m.statusID++
	id := m.statusID
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

func isTypeAheadKey(key string) bool {
	r := []rune(key)
	if len(r) != 1 {
		return false
	}
	ch := r[0]
	return ch >= 32 && ch != ' '
}

// Notifier forwards component notifications into a running program. It
// may be handed to components before the program exists.
type Notifier struct {
	p atomic.Pointer[tea.Program]
}

// Notify implements notify.Notifier. Notifications sent before Run
// attaches a program are dropped.
func (n *Notifier) Notify(note notify.Notification) {
	if p := n.p.Load(); p != nil {
		go p.Send(notifyMsg(note))
	}
}

// Run starts the TUI and blocks until it exits.
func Run(deps Deps, notifier *Notifier) error {
	m, release := NewModel(deps)
	defer release()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if notifier != nil {
		notifier.p.Store(p)
		defer notifier.p.Store(nil)
	}

	// Change callbacks may fire from inside Update, so they must not block
	// on the program's message loop.
	deps.Downloads.SetOnChange(func() {
		go p.Send(downloadUpdateMsg{})
	})
	m.deps.Preview.OnChange(func(w model.Wallpaper, open bool) {
		go p.Send(previewChangedMsg{w: w, open: open})
	})

	_, err := p.Run()
	return err
}
