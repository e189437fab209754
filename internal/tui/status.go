package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

// StatusBar shows the model and desktop on the left and activity on the right.
type StatusBar struct {
	model    string
	desktop  string
	working  bool
	ticking  bool
	changes  int
	expanded bool
	spinner  Spinner
}

// NewStatusBar creates a status bar for model working on desktop.
func NewStatusBar(model, desktop string) *StatusBar {
	return &StatusBar{
		model:   model,
		desktop: desktop,
		spinner: NewDefaultSpinner(),
	}
}

// SetWorking toggles the spinner. Returns the first tick when it starts.
func (s *StatusBar) SetWorking(v bool) tea.Cmd {
	s.working = v
	if !v {
		s.ticking = false
		return nil
	}
	if !s.ticking {
		s.ticking = true
		return s.spinner.Tick()
	}
	return nil
}

// AddChanges counts paths reported by the desktop watcher.
func (s *StatusBar) AddChanges(n int) {
	s.changes += n
}

// SetExpanded mirrors the tool output toggle.
func (s *StatusBar) SetExpanded(v bool) {
	s.expanded = v
}

// Update keeps the spinner's tick chain going while working.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.working {
		return nil
	}
	return s.spinner.Update(msg)
}

// Draw renders the bar into area.
func (s *StatusBar) Draw(scr uv.Screen, area uv.Rectangle) {
	if area.Dx() <= 0 || area.Dy() <= 0 {
		return
	}
	st := theme.Current().S()

	sep := st.Separator.Render(" | ")
	left := st.HeaderTitle.Render("deskr") + sep + st.HeaderInfo.Render(s.model)

	var right []string
	if s.working {
		right = append(right, s.spinner.View()+" working")
	}
	if s.changes > 0 {
		right = append(right, pluralize(s.changes, "change", "changes"))
	}
	if s.expanded {
		right = append(right, "details on")
	}
	rightText := strings.Join(right, " · ")

	room := area.Dx() - 2 - lipgloss.Width(left) - lipgloss.Width(rightText) - lipgloss.Width(sep)
	if room > 4 {
		left += sep + st.HeaderInfo.Render(truncateString(s.desktop, room))
	}

	padding := max(area.Dx()-2-lipgloss.Width(left)-lipgloss.Width(rightText), 1)
	DrawStyled(scr, area, st.StatusBar, left+strings.Repeat(" ", padding)+rightText)
}

// hintLine lists the global shortcuts.
const hintLine = "enter send · alt+enter newline · ctrl+b backup · ctrl+l clear · ctrl+o details · ctrl+d diff · ctrl+s export · ctrl+c quit"
