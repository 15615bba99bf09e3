package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JohnDeved/wallhub/internal/model"
)

// previewView renders the overlay for w. The terminal cannot show the
// image itself, so the overlay lists its details and full-resolution URL.
func previewView(w model.Wallpaper, origin string, width, height int) string {
	inner := width - overlayStyle.GetHorizontalFrameSize() - 4
	if inner < 30 {
		inner = 30
	}

	lines := []string{titleStyle.Render(w.Name)}
	for _, f := range []struct{ label, value string }{
		{"Category", w.Category},
		{"Device", w.Device.Label()},
		{"Description", w.Description},
		{"Preview", w.PreviewURL(origin)},
		{"Full size", w.AssetURL(origin)},
	} {
		if f.value == "" {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(f.label),
			lipgloss.NewStyle().Width(inner-labelStyle.GetWidth()).Render(f.value),
		))
	}
	lines = append(lines, "", helpStyle.Render("d: download   esc: close"))

	box := overlayStyle.Width(inner).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
