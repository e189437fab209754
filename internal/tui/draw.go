package tui

import (
	"fmt"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
)

// DrawStyled renders lipgloss-styled content filling area.
func DrawStyled(scr uv.Screen, area uv.Rectangle, style lipgloss.Style, text string) {
	content := style.Width(area.Dx()).Height(area.Dy()).Render(text)
	uv.NewStyledString(content).Draw(scr, area)
}

// DrawCentered draws pre-rendered content in the middle of area and returns
// the rectangle it occupies.
func DrawCentered(scr uv.Screen, area uv.Rectangle, content string) uv.Rectangle {
	w := lipgloss.Width(content)
	h := lipgloss.Height(content)
	x := max((area.Dx()-w)/2, 0)
	y := max((area.Dy()-h)/2, 0)

	box := uv.Rectangle{
		Min: uv.Position{X: area.Min.X + x, Y: area.Min.Y + y},
		Max: uv.Position{X: area.Min.X + x + w, Y: area.Min.Y + y + h},
	}
	uv.NewStyledString(content).Draw(scr, box)
	return box
}

// DrawScrollIndicator renders a scroll position indicator at the bottom-right of area.
func DrawScrollIndicator(scr uv.Screen, area uv.Rectangle, style lipgloss.Style, percent float64) {
	indicator := fmt.Sprintf(" %d%% ", int(percent*100))
	indicatorArea := uv.Rectangle{
		Min: uv.Position{X: area.Max.X - len(indicator), Y: area.Max.Y - 1},
		Max: uv.Position{X: area.Max.X, Y: area.Max.Y},
	}
	DrawStyled(scr, indicatorArea, style, indicator)
}

// truncateString truncates s to maxWidth cells, adding "..." if truncated.
func truncateString(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	target := maxWidth - 3
	if target >= len(runes) {
		return s
	}
	return string(runes[:target]) + "..."
}
