// Package notify surfaces alerts and approve/deny prompts to a human.
package notify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
)

// Notifier shows messages to the user. ShowConfirmation must eventually call
// callback exactly once; hosts may return before the user answers.
type Notifier interface {
	ShowAlert(title, message string)
	ShowConfirmation(title, message string, callback func(bool), accept, cancel string)
}

// Terminal is a Notifier for non-interactive commands. It writes styled text
// to out and reads y/N answers from in, one prompt at a time.
type Terminal struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	title  lipgloss.Style
	body   lipgloss.Style
	choice lipgloss.Style
}

// NewTerminal returns a Terminal on stdin and stderr, downsampling colours to
// what the terminal supports.
func NewTerminal() *Terminal {
	return NewTerminalWith(os.Stdin, colorprofile.NewWriter(os.Stderr, os.Environ()))
}

// NewTerminalWith returns a Terminal on the given streams.
func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7")),
		body:   lipgloss.NewStyle().PaddingLeft(2),
		choice: lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
	}
}

// ShowAlert prints a titled message.
func (t *Terminal) ShowAlert(title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, _ = fmt.Fprintln(t.out, t.title.Render(title))
	_, _ = fmt.Fprintln(t.out, t.body.Render(message))
}

// ShowConfirmation prints the prompt and reads the answer on its own
// goroutine, so a caller that stops waiting is not stuck behind stdin. Prompts
// are still shown one at a time. Anything other than y/yes (or the accept
// label) counts as cancel, including EOF. An abandoned prompt keeps the next
// line typed.
func (t *Terminal) ShowConfirmation(title, message string, callback func(bool), accept, cancel string) {
	go func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		_, _ = fmt.Fprintln(t.out, t.title.Render(title))
		_, _ = fmt.Fprintln(t.out, t.body.Render(message))
		_, _ = fmt.Fprintf(t.out, "%s [y/N] ", t.choice.Render(accept+" / "+cancel))

		line, _ := t.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		callback(answer == "y" || answer == "yes" || answer == strings.ToLower(accept))
	}()
}

// Func adapts plain functions to Notifier. A nil field behaves as a no-op
// alert or an immediate cancel.
type Func struct {
	Alert   func(title, message string)
	Confirm func(title, message, accept, cancel string) bool
}

func (f Func) ShowAlert(title, message string) {
	if f.Alert != nil {
		f.Alert(title, message)
	}
}

func (f Func) ShowConfirmation(title, message string, callback func(bool), accept, cancel string) {
	if f.Confirm == nil {
		callback(false)
		return
	}
	callback(f.Confirm(title, message, accept, cancel))
}

// AutoApprove answers every confirmation with a fixed decision and drops
// alerts. `deskr serve --yes` uses it for unattended runs.
type AutoApprove bool

func (a AutoApprove) ShowAlert(string, string) {}

func (a AutoApprove) ShowConfirmation(_, _ string, callback func(bool), _, _ string) {
	callback(bool(a))
}
