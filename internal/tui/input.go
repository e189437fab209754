package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/deskr/internal/state"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

const (
	inputHeight     = 3
	charLimitPrompt = 4000
)

// SubmitMsg carries a prompt the user entered.
type SubmitMsg struct {
	Text string
}

// Input is the prompt editor. Enter submits, alt+enter inserts a newline and
// up/down walk the prompt history when the cursor is on the first or last line.
type Input struct {
	textarea textarea.Model
	history  *state.History
	disabled bool
	width    int
}

// NewInput creates a focused input backed by history.
func NewInput(history *state.History) *Input {
	ta := textarea.New()
	ta.Placeholder = "Ask me to organize your desktop..."
	ta.CharLimit = charLimitPrompt
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.SetWidth(78)
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	t := theme.Current()
	styles := textarea.DefaultDarkStyles()
	styles.Cursor.Color = lipgloss.Color(t.Secondary)
	ta.SetStyles(styles)
	ta.Focus()

	if history == nil {
		history = state.NewHistory(nil)
	}
	return &Input{textarea: ta, history: history, width: 80}
}

// SetSize sets the outer width including the border.
func (i *Input) SetSize(width int) {
	i.width = width
	i.textarea.SetWidth(max(width-2, 10))
}

// Height is the outer height including the border.
func (i *Input) Height() int {
	return inputHeight + 2
}

// SetDisabled blocks submission while a reply is generating.
func (i *Input) SetDisabled(v bool) {
	i.disabled = v
}

// Value returns the current text.
func (i *Input) Value() string {
	return i.textarea.Value()
}

// History returns the prompt history.
func (i *Input) History() *state.History {
	return i.history
}

// Update handles editing keys and submission.
func (i *Input) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "enter":
			return i.submit()
		case "up":
			if i.textarea.Line() == 0 {
				if prev, ok := i.history.Prev(i.textarea.Value()); ok {
					i.textarea.SetValue(prev)
				}
				return nil
			}
		case "down":
			if i.textarea.Line() == i.textarea.LineCount()-1 {
				if next, ok := i.history.Next(); ok {
					i.textarea.SetValue(next)
				}
				return nil
			}
		}
	}

	var cmd tea.Cmd
	i.textarea, cmd = i.textarea.Update(msg)
	return cmd
}

func (i *Input) submit() tea.Cmd {
	text := strings.TrimSpace(i.textarea.Value())
	if text == "" || i.disabled {
		return nil
	}
	i.history.Add(text)
	i.textarea.Reset()
	return func() tea.Msg { return SubmitMsg{Text: text} }
}

// Draw renders the bordered input into area and returns the cursor.
func (i *Input) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	s := theme.Current().S()
	style := s.InputBorderFocused
	if i.disabled {
		style = s.InputBorder
	}
	box := style.Width(area.Dx()).Render(i.textarea.View())
	uv.NewStyledString(box).Draw(scr, area)

	if i.disabled {
		return nil
	}
	cursor := i.textarea.Cursor()
	if cursor != nil {
		cursor.X += area.Min.X + 1
		cursor.Y += area.Min.Y + 1
	}
	return cursor
}
