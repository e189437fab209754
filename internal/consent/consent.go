// Package consent blocks a mutating action until a human approves or denies it.
package consent

import (
	"context"

	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/deskr/internal/notify"
)

const (
	Title  = "User consent required"
	Accept = "Approve"
	Cancel = "Deny"
)

var log = logger.Named("consent")

// Gate asks the Notifier for a decision. Each call is independent; there is
// no lock across concurrent requests.
type Gate struct {
	notifier notify.Notifier
	events   bus.Publisher
}

// New returns a Gate. A nil notifier makes every request fail closed, a nil
// publisher drops the decision log.
func New(notifier notify.Notifier, events bus.Publisher) *Gate {
	if events == nil {
		events = bus.Discard
	}
	return &Gate{notifier: notifier, events: events}
}

// RequestConsent shows message and waits for the answer. It returns false
// when there is no notifier or ctx ends first. There is no timeout otherwise.
func (g *Gate) RequestConsent(ctx context.Context, message string) bool {
	if g == nil || g.notifier == nil {
		log.Warn("no notifier, denying: %s", message)
		return false
	}

	// Buffered so a late answer never blocks the host after we stop waiting.
	result := make(chan bool, 1)
	g.notifier.ShowConfirmation(Title, message, func(approved bool) {
		select {
		case result <- approved:
		default:
			// already answered
		}
	}, Accept, Cancel)

	var approved bool
	select {
	case approved = <-result:
	case <-ctx.Done():
		log.Debug("consent abandoned: %v", ctx.Err())
	}

	if err := g.events.Publish(bus.KindConsent, bus.ConsentDecision{Prompt: message, Approved: approved}); err != nil {
		log.Warn("publishing consent decision: %v", err)
	}
	return approved
}
