package tui

import (
	"sync"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/deskr/internal/notify"
)

// Sender is the part of *tea.Program the notifier needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramNotifier routes alerts and consent prompts onto the UI loop with
// Program.Send. Callbacks run on that loop. Until a program is attached,
// prompts are denied.
type ProgramNotifier struct {
	mu     sync.RWMutex
	sender Sender
}

var _ notify.Notifier = (*ProgramNotifier)(nil)

// NewProgramNotifier creates a notifier with no program attached.
func NewProgramNotifier() *ProgramNotifier {
	return &ProgramNotifier{}
}

// Attach sets the program that receives messages; nil detaches.
func (n *ProgramNotifier) Attach(s Sender) {
	n.mu.Lock()
	n.sender = s
	n.mu.Unlock()
}

func (n *ProgramNotifier) current() Sender {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sender
}

// ShowAlert displays a dialog with an OK button.
func (n *ProgramNotifier) ShowAlert(title, message string) {
	s := n.current()
	if s == nil {
		logger.Info("%s: %s", title, message)
		return
	}
	s.Send(ShowAlertMsg{Title: title, Message: message})
}

// ShowConfirmation queues a consent prompt.
func (n *ProgramNotifier) ShowConfirmation(title, message string, callback func(bool), accept, cancel string) {
	s := n.current()
	if s == nil {
		logger.Warn("no UI attached, denying %q", title)
		callback(false)
		return
	}
	s.Send(ShowConsentMsg{
		Title:    title,
		Message:  message,
		Accept:   accept,
		Cancel:   cancel,
		Callback: callback,
	})
}
