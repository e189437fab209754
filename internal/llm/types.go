// Package llm talks to OpenAI-compatible chat completion endpoints.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrEmptyResponse is returned when a completion carries neither text nor tool calls.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Roles used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a conversation.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	// RawArguments is the argument JSON as streamed, after repair.
	RawArguments string
}

// Tool describes a callable function. Parameters is a JSON schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is a chat completion request.
type Request struct {
	Messages  []Message
	Tools     []Tool
	MaxTokens int
	// Temperature is left to the server when nil. Zero is sent as zero.
	Temperature *float64
}

// Float64 returns a pointer to v, for optional request fields.
func Float64(v float64) *float64 { return &v }

// Usage is the token accounting reported by the server, when it reports any.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is an assembled completion.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Client streams completions. onDelta receives text chunks in order; their
// concatenation equals Response.Content.
type Client interface {
	Stream(ctx context.Context, req Request, onDelta func(string)) (*Response, error)
	Model() string
}
