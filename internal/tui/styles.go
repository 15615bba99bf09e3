package tui

import "github.com/charmbracelet/lipgloss"

// Palette: slate surfaces with a teal accent.
var (
	colorAccent  = lipgloss.Color("#14B8A6")
	colorAccent2 = lipgloss.Color("#F472B6")
	colorOK      = lipgloss.Color("#22C55E")
	colorWarn    = lipgloss.Color("#EAB308")
	colorBad     = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#64748B")
	colorText    = lipgloss.Color("#E2E8F0")
	colorSurface = lipgloss.Color("#1E293B")
	colorBase    = lipgloss.Color("#0F172A")
)

// padded is the base for every chip-like element.
var padded = lipgloss.NewStyle().Padding(0, 1)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	breadcrumbStyle = lipgloss.NewStyle().Foreground(colorAccent2)
	helpStyle       = lipgloss.NewStyle().Foreground(colorDim)
	nameStyle       = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	descStyle       = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	labelStyle      = lipgloss.NewStyle().Foreground(colorAccent2).Width(14)

	errorStyle   = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorOK)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)

	normalStyle   = padded
	selectedStyle = padded.Background(colorSurface).Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	statusBarStyle = padded.Background(colorBase).Foreground(colorDim)

	tabActiveStyle   = padded.Background(colorAccent).Foreground(colorBase).Bold(true)
	tabInactiveStyle = padded.Background(colorSurface).Foreground(colorDim)

	pillActiveStyle   = padded.Foreground(colorBase).Background(colorAccent2).Bold(true)
	pillInactiveStyle = padded.Foreground(colorDim)

	categoryBadge = padded.Foreground(colorAccent2).Background(colorSurface)
	deviceBadge   = padded.Foreground(colorWarn)

	inputPromptStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
)
