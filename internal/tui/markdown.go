package tui

import (
	"strings"

	"charm.land/glamour/v2"
)

const maxRenderWidth = 120

// renderMarkdown renders assistant replies with glamour, falling back to
// plain wrapping if rendering fails.
func renderMarkdown(content string, width int) string {
	if width > maxRenderWidth {
		width = maxRenderWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return wrapText(content, width)
	}

	rendered, err := r.Render(content)
	if err != nil {
		return wrapText(content, width)
	}
	return strings.Trim(rendered, "\n")
}

// wrapText breaks lines longer than width at the last space, or hard at width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		runes := []rune(line)
		for len(runes) > width {
			breakPoint := width
			for j := width; j > 0; j-- {
				if runes[j] == ' ' {
					breakPoint = j
					break
				}
			}
			result.WriteString(string(runes[:breakPoint]))
			result.WriteString("\n")
			runes = []rune(strings.TrimLeft(string(runes[breakPoint:]), " "))
		}
		result.WriteString(string(runes))
	}
	return result.String()
}
