// Package theme holds the colour palette and pre-built styles of the TUI.
package theme

import (
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string
	Secondary string
	Tertiary  string

	// Background hierarchy (dark→light)
	BgCrust    string
	BgBase     string
	BgSurface0 string
	BgSurface1 string
	BgOverlay  string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string
	FgBright string

	// Status colors
	Success string
	Warning string
	Error   string
	Info    string

	// Diff colors
	DiffInsertFg string
	DiffDeleteFg string
	DiffHunkFg   string

	styles     *Styles
	stylesOnce sync.Once
}

var (
	currentMu sync.RWMutex
	current   = NewCatppuccinMocha()
)

// Current returns the active theme.
func Current() *Theme {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrent replaces the active theme.
func SetCurrent(t *Theme) {
	currentMu.Lock()
	current = t
	currentMu.Unlock()
}

// HexToColor converts a "#rrggbb" string to a color.
func HexToColor(hex string) color.Color {
	return lipgloss.Color(hex)
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	c := lipgloss.Color
	return &Styles{
		HeaderTitle: lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		HeaderInfo:  lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
		Separator:   lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		StatusBar:   lipgloss.NewStyle().Foreground(c(t.FgSubtle)).Background(c(t.BgSurface0)).Padding(0, 1),

		UserLabel:      lipgloss.NewStyle().Foreground(c(t.Secondary)).Bold(true),
		UserText:       lipgloss.NewStyle().Foreground(c(t.FgBright)),
		AssistantLabel: lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		Plugin:         lipgloss.NewStyle().Foreground(c(t.Tertiary)).Italic(true),
		ToolBorder:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(c(t.BgOverlay)).PaddingLeft(1),
		ToolName:       lipgloss.NewStyle().Foreground(c(t.Info)).Bold(true),
		ToolParams:     lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		ToolResult:     lipgloss.NewStyle().Foreground(c(t.FgBase)),
		Info:           lipgloss.NewStyle().Foreground(c(t.FgMuted)).Italic(true),
		Error:          lipgloss.NewStyle().Foreground(c(t.Error)).Bold(true),

		DiffInsert: lipgloss.NewStyle().Foreground(c(t.DiffInsertFg)),
		DiffDelete: lipgloss.NewStyle().Foreground(c(t.DiffDeleteFg)),
		DiffHunk:   lipgloss.NewStyle().Foreground(c(t.DiffHunkFg)),

		InputBorder:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(t.BgOverlay)),
		InputBorderFocused: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(t.Primary)),

		ModalBox:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(t.Warning)).Padding(1, 3),
		ModalTitle:    lipgloss.NewStyle().Foreground(c(t.Warning)).Bold(true),
		ModalText:     lipgloss.NewStyle().Foreground(c(t.FgBase)),
		ButtonActive:  lipgloss.NewStyle().Foreground(c(t.BgBase)).Background(c(t.Primary)).Padding(0, 2),
		ButtonNormal:  lipgloss.NewStyle().Foreground(c(t.FgBase)).Background(c(t.BgSurface1)).Padding(0, 2),
		DialogBox:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(t.Primary)).Padding(1, 3),
		DialogTitle:   lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		Toast:         lipgloss.NewStyle().Foreground(c(t.BgBase)).Background(c(t.Warning)).Padding(0, 1).Bold(true),
		ScrollPercent: lipgloss.NewStyle().Foreground(c(t.FgMuted)),
	}
}
