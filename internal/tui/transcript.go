package tui

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

// Transcript is the scrollable conversation view.
type Transcript struct {
	viewport viewport.Model
	items    []MessageItem
	current  *AssistantMessageItem
	expanded bool
	thinking bool
	spinner  GradientSpinner
	width    int
	height   int
}

// NewTranscript creates an empty transcript.
func NewTranscript(expanded bool) *Transcript {
	vp := viewport.New(
		viewport.WithWidth(80),
		viewport.WithHeight(20),
	)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	t := theme.Current()
	return &Transcript{
		viewport: vp,
		expanded: expanded,
		spinner:  NewGradientSpinner(t.Primary, t.Tertiary, "Thinking"),
		width:    80,
		height:   20,
	}
}

// SetSize updates the viewport dimensions and re-renders.
func (t *Transcript) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.viewport.SetWidth(width)
	t.viewport.SetHeight(height)
	t.refresh()
}

// Add appends item and follows the tail.
func (t *Transcript) Add(item MessageItem) {
	if e, ok := item.(Expandable); ok {
		e.SetExpanded(t.expanded)
	}
	// Anything after the streaming reply starts a new reply for later chunks.
	t.current = nil
	t.items = append(t.items, item)
	t.refresh()
}

// AppendChunk streams text into the current assistant reply.
func (t *Transcript) AppendChunk(chunk string) {
	if t.current == nil {
		t.current = &AssistantMessageItem{}
		t.items = append(t.items, t.current)
	}
	t.current.Append(chunk)
	t.refresh()
}

// EndReply closes the current assistant reply.
func (t *Transcript) EndReply() {
	t.current = nil
	t.SetThinking(false)
}

// SetThinking shows or hides the thinking indicator. Returns the tick to
// start the animation when it becomes visible.
func (t *Transcript) SetThinking(v bool) tea.Cmd {
	was := t.thinking
	t.thinking = v
	t.refresh()
	if v && !was {
		return t.spinner.Tick()
	}
	return nil
}

// ToggleExpanded flips tool output detail for every item. Returns the new state.
func (t *Transcript) ToggleExpanded() bool {
	t.expanded = !t.expanded
	for _, item := range t.items {
		if e, ok := item.(Expandable); ok {
			e.SetExpanded(t.expanded)
		}
	}
	t.refresh()
	return t.expanded
}

// Clear drops all items.
func (t *Transcript) Clear() {
	t.items = nil
	t.current = nil
	t.refresh()
}

// Items returns the transcript items.
func (t *Transcript) Items() []MessageItem {
	return t.items
}

// Markdown renders the transcript for export.
func (t *Transcript) Markdown() string {
	var parts []string
	for _, item := range t.items {
		if md := item.Markdown(); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// Update forwards scrolling and animation messages.
func (t *Transcript) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(GradientSpinnerMsg); ok {
		if !t.thinking {
			return nil
		}
		cmd := t.spinner.Update(msg)
		t.refresh()
		return cmd
	}
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return cmd
}

func (t *Transcript) refresh() {
	atBottom := t.viewport.AtBottom() || t.viewport.TotalLineCount() <= t.viewport.Height()

	width := max(t.width-1, 10)
	rendered := make([]string, 0, len(t.items)+1)
	for _, item := range t.items {
		rendered = append(rendered, item.Render(width))
	}
	if t.thinking {
		rendered = append(rendered, t.spinner.View())
	}
	t.viewport.SetContent(strings.Join(rendered, "\n\n"))

	if atBottom {
		t.viewport.GotoBottom()
	}
}

// Draw renders the transcript into area.
func (t *Transcript) Draw(scr uv.Screen, area uv.Rectangle) {
	uv.NewStyledString(t.viewport.View()).Draw(scr, area)
	if t.viewport.TotalLineCount() > t.viewport.Height() {
		DrawScrollIndicator(scr, area, theme.Current().S().ScrollPercent, t.viewport.ScrollPercent())
	}
}
