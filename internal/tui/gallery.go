package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/JohnDeved/wallhub/internal/catalog"
	"github.com/JohnDeved/wallhub/internal/model"
	"github.com/JohnDeved/wallhub/internal/util"
)

// galleryModel manages the wallpaper list with its category pills and
// device tabs.
type galleryModel struct {
	listView
	all        []model.Wallpaper
	visible    []model.Wallpaper
	categories []string // category names; index 0 of the pills is "All"
	catIndex   int      // 0 = all categories
	device     model.Device
	generation uint64 // of the catalog shown
	typeAhead  string
	typedAt    time.Time
	loading    bool
	err        error
	failures   []catalog.SourceFailure
}

func newGalleryModel() galleryModel {
	return galleryModel{
		listView: listView{height: 10},
		device:   catalog.DefaultSelection().Device,
		loading:  true,
	}
}

func (g *galleryModel) selection() catalog.Selection {
	s := catalog.Selection{Device: g.device}
	if g.catIndex > 0 && g.catIndex <= len(g.categories) {
		s.Category = g.categories[g.catIndex-1]
	}
	return s
}

// setCatalog shows cat unless a newer catalog is already shown. Load
// commands finish on their own goroutines, so results can arrive out of
// order.
func (g *galleryModel) setCatalog(cat catalog.Catalog) bool {
	if cat.Generation < g.generation {
		return false
	}
	g.generation = cat.Generation
	current := g.selection().Category
	g.all = cat.Wallpapers
	g.categories = cat.Categories
	g.failures = cat.Failures
	g.loading = false
	g.err = nil

	// Keep the chosen category if it still exists.
	g.catIndex = 0
	for i, name := range g.categories {
		if name == current {
			g.catIndex = i + 1
			break
		}
	}
	g.rederive()
	return true
}

func (g *galleryModel) setError(err error) {
	g.err = err
	g.loading = false
}

func (g *galleryModel) rederive() {
	g.visible = g.selection().Apply(g.all)
	g.reset()
	g.setLen(len(g.visible))
}

func (g *galleryModel) nextCategory() {
	g.catIndex = (g.catIndex + 1) % (len(g.categories) + 1)
	g.rederive()
}

func (g *galleryModel) prevCategory() {
	n := len(g.categories) + 1
	g.catIndex = (g.catIndex - 1 + n) % n
	g.rederive()
}

func (g *galleryModel) setDevice(d model.Device) bool {
	if g.device == d {
		return false
	}
	g.device = d
	g.rederive()
	return true
}

func (g *galleryModel) selected() (model.Wallpaper, bool) {
	g.clamp()
	if g.cursor < len(g.visible) && len(g.visible) > 0 {
		return g.visible[g.cursor], true
	}
	return model.Wallpaper{}, false
}

func (g *galleryModel) typeAheadFind(key string) {
	if len(g.visible) == 0 {
		return
	}
	now := time.Now()
	if now.Sub(g.typedAt) > time.Second {
		g.typeAhead = ""
	}
	g.typedAt = now
	g.typeAhead += strings.ToLower(key)

	start := g.cursor + 1
	for i := 0; i < len(g.visible); i++ {
		idx := (start + i) % len(g.visible)
		if strings.HasPrefix(strings.ToLower(g.visible[idx].Name), g.typeAhead) {
			g.cursor = idx
			g.clamp()
			return
		}
	}
}

func (g *galleryModel) view(width int, spin string) string {
	var sb strings.Builder

	sb.WriteString(g.pillsView(width))
	sb.WriteString("\n")
	sb.WriteString(g.deviceView())
	sb.WriteString("\n\n")

	if g.loading {
		sb.WriteString(fmt.Sprintf("  %s Loading wallpapers...\n", spin))
		return sb.String()
	}

	if g.err != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", g.err)))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, f := range g.failures {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("  %s unavailable: %v", f.Source, f.Err)))
		sb.WriteString("\n")
	}

	if len(g.visible) == 0 {
		sb.WriteString(helpStyle.Render("  No wallpapers found for this category and device."))
		sb.WriteString("\n")
		return sb.String()
	}

	rowWidth := max(20, width-selectedStyle.GetHorizontalFrameSize())
	start, end := g.window()
	for i := start; i < end; i++ {
		sb.WriteString(renderWallpaperRow(g.visible[i], rowWidth, i == g.cursor))
		sb.WriteString("\n")
	}

	if pos := g.position("wallpapers"); pos != "" {
		sb.WriteString(helpStyle.Render(pos))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (g *galleryModel) pillsView(width int) string {
	names := append([]string{"All"}, g.categories...)
	var parts []string
	for i, name := range names {
		if i == g.catIndex {
			parts = append(parts, pillActiveStyle.Render(name))
		} else {
			parts = append(parts, pillInactiveStyle.Render(name))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if lipgloss.Width(line) > width && width > 0 {
		// Too many categories for one line: show the active pill with its position.
		return breadcrumbStyle.Render(fmt.Sprintf("  Category: %s (%d/%d)  [/]: change", names[g.catIndex], g.catIndex+1, len(names)))
	}
	return line
}

func (g *galleryModel) deviceView() string {
	var parts []string
	for _, d := range model.Devices {
		label := d.Label()
		if d == g.device {
			label = fmt.Sprintf("%s (%d)", label, len(g.visible))
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	return "  " + strings.Join(parts, " ")
}

func renderWallpaperRow(w model.Wallpaper, rowWidth int, isSelected bool) string {
	nameWidth := max(12, rowWidth/3)
	name := nameStyle.Render(padToWidth(util.TruncateText(w.Name, nameWidth), nameWidth))
	badge := categoryBadge.Render(util.TruncateText(w.Category, 16))

	used := lipgloss.Width(name) + lipgloss.Width(badge) + 6
	desc := ""
	if room := rowWidth - used; room > 8 && w.Description != "" {
		desc = descStyle.Render(util.TruncateText(w.Description, room))
	}

	line := fmt.Sprintf("  %s  %s  %s", name, badge, desc)
	if isSelected {
		return selectedStyle.Render(padToWidth(line, rowWidth))
	}
	return normalStyle.Render(padToWidth(line, rowWidth))
}

func padToWidth(s string, width int) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
