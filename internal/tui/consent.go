package tui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

const modalTextWidth = 60

// ShowConsentMsg asks the user to approve or deny. Callback runs on the UI
// loop exactly once.
type ShowConsentMsg struct {
	Title    string
	Message  string
	Accept   string
	Cancel   string
	Callback func(bool)
}

// ConsentModal shows one consent prompt at a time and queues the rest in
// arrival order. Deny is focused by default.
type ConsentModal struct {
	queue    []ShowConsentMsg
	approve  bool
	boxArea  uv.Rectangle
	okArea   uv.Rectangle
	denyArea uv.Rectangle
}

// NewConsentModal creates an empty modal.
func NewConsentModal() *ConsentModal {
	return &ConsentModal{}
}

// Push queues a prompt.
func (m *ConsentModal) Push(req ShowConsentMsg) {
	if req.Accept == "" {
		req.Accept = "Approve"
	}
	if req.Cancel == "" {
		req.Cancel = "Deny"
	}
	if len(m.queue) == 0 {
		m.approve = false
	}
	m.queue = append(m.queue, req)
}

// IsVisible reports whether a prompt is pending.
func (m *ConsentModal) IsVisible() bool {
	return len(m.queue) > 0
}

// Pending returns the number of queued prompts, the visible one included.
func (m *ConsentModal) Pending() int {
	return len(m.queue)
}

// Resolve answers the visible prompt and moves to the next one.
func (m *ConsentModal) Resolve(approved bool) {
	if len(m.queue) == 0 {
		return
	}
	req := m.queue[0]
	m.queue = m.queue[1:]
	m.approve = false
	if req.Callback != nil {
		req.Callback(approved)
	}
}

// DenyAll answers every queued prompt with false.
func (m *ConsentModal) DenyAll() {
	for m.IsVisible() {
		m.Resolve(false)
	}
}

// Update handles y/n, arrows, tab, enter and esc.
func (m *ConsentModal) Update(msg tea.Msg) tea.Cmd {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok || !m.IsVisible() {
		return nil
	}
	switch k.String() {
	case "y", "Y":
		m.Resolve(true)
	case "n", "N", "esc":
		m.Resolve(false)
	case "left", "right", "tab", "shift+tab", "h", "l":
		m.approve = !m.approve
	case "enter", "space", " ":
		m.Resolve(m.approve)
	}
	return nil
}

// HandleClick resolves the prompt when a button is clicked.
func (m *ConsentModal) HandleClick(x, y int) {
	p := uv.Position{X: x, Y: y}
	switch {
	case p.In(m.okArea):
		m.Resolve(true)
	case p.In(m.denyArea):
		m.Resolve(false)
	}
}

// Draw renders the visible prompt centered in area.
func (m *ConsentModal) Draw(scr uv.Screen, area uv.Rectangle) {
	if !m.IsVisible() {
		return
	}
	req := m.queue[0]
	s := theme.Current().S()

	width := min(modalTextWidth, max(area.Dx()-10, 20))
	title := s.ModalTitle.Width(width).Align(lipgloss.Center).Render(req.Title)
	body := s.ModalText.Width(width).Render(req.Message)

	accept, cancel := s.ButtonNormal, s.ButtonActive
	if m.approve {
		accept, cancel = s.ButtonActive, s.ButtonNormal
	}
	okBtn := accept.Render(req.Accept)
	denyBtn := cancel.Render(req.Cancel)
	buttons := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, okBtn, "   ", denyBtn))

	parts := []string{title, "", body, "", buttons}
	if n := len(m.queue) - 1; n > 0 {
		parts = append(parts, "", s.Info.Width(width).Align(lipgloss.Center).
			Render(pluralize(n, "more request", "more requests")+" waiting"))
	}
	box := s.ModalBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	m.boxArea = DrawCentered(scr, area, box)

	// Buttons sit on the fifth content row, inside border (1) and padding (1, 3).
	row := m.boxArea.Min.Y + 2 + lipgloss.Height(title) + 1 + lipgloss.Height(body) + 1
	startX := m.boxArea.Min.X + 4 + (width-lipgloss.Width(okBtn)-3-lipgloss.Width(denyBtn))/2
	m.okArea = uv.Rect(startX, row, lipgloss.Width(okBtn), 1)
	m.denyArea = uv.Rect(startX+lipgloss.Width(okBtn)+3, row, lipgloss.Width(denyBtn), 1)
}
