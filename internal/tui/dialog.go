package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

// ShowAlertMsg displays a message with a single OK button.
type ShowAlertMsg struct {
	Title   string
	Message string
}

// Dialog shows alerts one at a time, queueing the rest.
type Dialog struct {
	queue      []ShowAlertMsg
	button     string
	dialogArea uv.Rectangle
}

// NewDialog creates a new dialog
func NewDialog() *Dialog {
	return &Dialog{button: "OK"}
}

// Show queues an alert.
func (d *Dialog) Show(title, message string) {
	d.queue = append(d.queue, ShowAlertMsg{Title: title, Message: message})
}

// Hide dismisses the visible alert.
func (d *Dialog) Hide() {
	if len(d.queue) > 0 {
		d.queue = d.queue[1:]
	}
}

// IsVisible returns whether the dialog is visible
func (d *Dialog) IsVisible() bool {
	return len(d.queue) > 0
}

// Current returns the visible alert.
func (d *Dialog) Current() (ShowAlertMsg, bool) {
	if len(d.queue) == 0 {
		return ShowAlertMsg{}, false
	}
	return d.queue[0], true
}

// Update dismisses on enter, space or esc.
func (d *Dialog) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyPressMsg); ok && d.IsVisible() {
		switch k.String() {
		case "enter", "space", " ", "esc":
			d.Hide()
		}
	}
	return nil
}

// HandleClick dismisses the dialog wherever the click lands.
func (d *Dialog) HandleClick() {
	d.Hide()
}

// Draw renders the visible alert centered in area.
func (d *Dialog) Draw(scr uv.Screen, area uv.Rectangle) {
	alert, ok := d.Current()
	if !ok {
		return
	}
	s := theme.Current().S()

	contentWidth := max(lipgloss.Width(alert.Message), lipgloss.Width(alert.Title))
	contentWidth = min(contentWidth, min(modalTextWidth, max(area.Dx()-10, 20)))

	title := s.DialogTitle.Width(contentWidth).Align(lipgloss.Center).Render(alert.Title)
	message := s.ModalText.Width(contentWidth).Align(lipgloss.Center).Render(alert.Message)
	button := lipgloss.NewStyle().Width(contentWidth).Align(lipgloss.Center).
		Render(s.ButtonActive.Render(d.button))

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", message, "", button)
	d.dialogArea = DrawCentered(scr, area, s.DialogBox.Render(content))
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
