package llm

import (
	"context"
	"strings"
)

// Completer turns a Client into a one-prompt, one-reply helper.
type Completer struct {
	Client      Client
	MaxTokens   int
	Temperature *float64
}

// Complete sends prompt as a single user message and returns the reply text.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Client.Stream(ctx, Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}, nil)
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}
