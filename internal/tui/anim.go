package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

// Spinner wraps bubbles spinner with convenience methods
type Spinner struct {
	model spinner.Model
}

// NewDefaultSpinner creates a MiniDot spinner in the primary colour.
func NewDefaultSpinner() Spinner {
	t := theme.Current()
	s := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary))),
	)
	return Spinner{model: s}
}

// Update handles spinner tick messages
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.model, cmd = s.model.Update(msg)
	return cmd
}

// View renders the current spinner frame
func (s *Spinner) View() string {
	return s.model.View()
}

// Tick returns the tick command to start animation
func (s *Spinner) Tick() tea.Cmd {
	return s.model.Tick
}

// GradientSpinnerMsg is sent on each gradient spinner tick
type GradientSpinnerMsg struct{}

// GradientSpinner renders an animated gradient bar, shown in the transcript
// while the assistant is thinking.
type GradientSpinner struct {
	frame  int
	size   int
	colorA string
	colorB string
	label  string
}

// NewGradientSpinner creates a gradient spinner with default size
func NewGradientSpinner(colorA, colorB string, label string) GradientSpinner {
	return GradientSpinner{
		size:   12,
		colorA: colorA,
		colorB: colorB,
		label:  label,
	}
}

// View renders the gradient spinner as an animated string
func (g *GradientSpinner) View() string {
	var b strings.Builder
	for i := 0; i < g.size; i++ {
		pos := float64((i+g.frame)%g.size) / float64(g.size)
		colorHex := theme.InterpolateColor(g.colorA, g.colorB, pos)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(colorHex)).Render("▪"))
	}

	if g.label != "" {
		return theme.Current().S().Info.Render(g.label+" ") + b.String()
	}
	return b.String()
}

// Tick returns a command that sends a GradientSpinnerMsg after 80ms
func (g *GradientSpinner) Tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return GradientSpinnerMsg{}
	})
}

// Update advances the animation on its own tick.
func (g *GradientSpinner) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(GradientSpinnerMsg); ok {
		g.frame = (g.frame + 1) % g.size
		return g.Tick()
	}
	return nil
}
