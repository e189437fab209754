package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

const toastDuration = 3 * time.Second

// ToastDismissMsg is sent when the toast should be dismissed.
type ToastDismissMsg struct {
	seq int
}

// Toast is a short notice in the bottom-right corner that dismisses itself.
type Toast struct {
	message string
	visible bool
	seq     int
}

// NewToast creates a new Toast component.
func NewToast() *Toast {
	return &Toast{}
}

// Show displays msg for toastDuration. A newer toast replaces an older one.
func (t *Toast) Show(msg string) tea.Cmd {
	t.message = msg
	t.visible = true
	t.seq++
	seq := t.seq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return ToastDismissMsg{seq: seq}
	})
}

// Update hides the toast when its own dismiss message arrives.
func (t *Toast) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(ToastDismissMsg); ok && m.seq == t.seq {
		t.visible = false
		t.message = ""
	}
	return nil
}

// IsVisible returns whether the toast is currently visible.
func (t *Toast) IsVisible() bool {
	return t.visible
}

// Message returns the current toast message (empty if not visible).
func (t *Toast) Message() string {
	if !t.visible {
		return ""
	}
	return t.message
}

// Draw renders the toast above the bottom-right corner of area.
func (t *Toast) Draw(scr uv.Screen, area uv.Rectangle) {
	if !t.visible || t.message == "" {
		return
	}
	content := theme.Current().S().Toast.Render(truncateString(t.message, max(area.Dx()-4, 4)))
	w := lipgloss.Width(content)
	h := lipgloss.Height(content)
	x := max(area.Max.X-w-1, area.Min.X)
	y := max(area.Max.Y-h, area.Min.Y)
	uv.NewStyledString(content).Draw(scr, uv.Rect(x, y, w, h))
}
