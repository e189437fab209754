package tui

import (
	"context"

	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/chat"
)

// Conversation is the chat session the App drives. *chat.Manager satisfies it.
type Conversation interface {
	GenerateResponse(ctx context.Context, prompt string, onChunk func(string)) error
	Clear()
	OnToolActivity(fn func(chat.ToolActivity))
}

// Desktop is what the App needs from the desktop actions.
type Desktop interface {
	Backup(ctx context.Context) error
	Snapshot() []string
}

// EventSource delivers bus events. *bus.Bus satisfies it.
type EventSource interface {
	Subscribe(kind bus.Kind, fn func(bus.Event)) (*bus.Subscription, error)
}
