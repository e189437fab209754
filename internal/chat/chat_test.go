package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays responses in order and records each request.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*llm.Response
	err       error
	requests  []llm.Request
}

func (c *scriptedClient) Stream(_ context.Context, req llm.Request, onDelta func(string)) (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req.Messages = append([]llm.Message(nil), req.Messages...)
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	if onDelta != nil && resp.Content != "" {
		for _, word := range strings.SplitAfter(resp.Content, " ") {
			onDelta(word)
		}
	}
	return resp, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

type fakeTools struct {
	calls []string
	args  []map[string]any
}

func (f *fakeTools) Definitions() []llm.Tool {
	return []llm.Tool{{Name: "CountFiles", Description: "Count files on the desktop"}}
}

func (f *fakeTools) Call(_ context.Context, name string, args map[string]any) string {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return "3"
}

type recorder struct {
	mu     sync.Mutex
	errors []bus.ErrorSignal
}

func (r *recorder) Publish(kind bus.Kind, payload any) error {
	if kind == bus.KindError {
		r.mu.Lock()
		r.errors = append(r.errors, payload.(bus.ErrorSignal))
		r.mu.Unlock()
	}
	return nil
}

func toolCall(id, name string) *llm.Response {
	return &llm.Response{
		ToolCalls:    []llm.ToolCall{{ID: id, Name: name, Arguments: map[string]any{}, RawArguments: "{}"}},
		FinishReason: "tool_calls",
	}
}

func TestNew_StartsWithSystemPrompt(t *testing.T) {
	m := New(Options{Client: &scriptedClient{}})
	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, llm.RoleSystem, history[0].Role)
	assert.Equal(t, SystemPrompt, history[0].Content)
}

func TestGenerateResponse_ZeroTemperatureKept(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{{Content: "ok"}}}
	m := New(Options{Client: client, Temperature: llm.Float64(0)})

	require.NoError(t, m.GenerateResponse(context.Background(), "hi", nil))
	require.Len(t, client.requests, 1)
	require.NotNil(t, client.requests[0].Temperature)
	assert.Zero(t, *client.requests[0].Temperature)
}

func TestGenerateResponse_StreamsChunks(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{{Content: "I can help with that."}}}
	m := New(Options{Client: client, Tools: &fakeTools{}})

	var chunks []string
	require.NoError(t, m.GenerateResponse(context.Background(), "organize my desktop", func(s string) {
		chunks = append(chunks, s)
	}))

	assert.Equal(t, "I can help with that.", strings.Join(chunks, ""))
	history := m.History()
	require.Len(t, history, 3)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "organize my desktop"}, history[1])
	assert.Equal(t, llm.RoleAssistant, history[2].Role)
	assert.Equal(t, "I can help with that.", history[2].Content)

	require.Len(t, client.requests, 1)
	assert.Equal(t, 4000, client.requests[0].MaxTokens)
	require.NotNil(t, client.requests[0].Temperature)
	assert.Equal(t, 0.7, *client.requests[0].Temperature)
	require.Len(t, client.requests[0].Tools, 1)
}

func TestGenerateResponse_DispatchesToolCalls(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCall("call_1", "CountFiles"),
		{Content: "You have 3 files."},
	}}
	tools := &fakeTools{}
	m := New(Options{Client: client, Tools: tools})

	var seen []ToolActivity
	m.OnToolActivity(func(a ToolActivity) { seen = append(seen, a) })

	require.NoError(t, m.GenerateResponse(context.Background(), "how many files?", nil))

	assert.Equal(t, []string{"CountFiles"}, tools.calls)
	require.Len(t, seen, 1)
	assert.Equal(t, "3", seen[0].Result)

	require.Len(t, client.requests, 2)
	second := client.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, llm.RoleAssistant, second[2].Role)
	assert.Len(t, second[2].ToolCalls, 1)
	assert.Equal(t, llm.Message{Role: llm.RoleTool, ToolCallID: "call_1", Name: "CountFiles", Content: "3"}, second[3])

	history := m.History()
	assert.Equal(t, "You have 3 files.", history[len(history)-1].Content)
}

func TestGenerateResponse_RepairsRawArguments(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "c", Name: "MoveFile", RawArguments: `{"filePath":"a.txt",}`}}},
		{Content: "done"},
	}}
	tools := &fakeTools{}
	m := New(Options{Client: client, Tools: tools})

	require.NoError(t, m.GenerateResponse(context.Background(), "move it", nil))
	require.Len(t, tools.args, 1)
	assert.Equal(t, map[string]any{"filePath": "a.txt"}, tools.args[0])
}

func TestGenerateResponse_ToolRoundLimit(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCall("1", "CountFiles"),
		toolCall("2", "CountFiles"),
		toolCall("3", "CountFiles"),
	}}
	rec := &recorder{}
	m := New(Options{Client: client, Tools: &fakeTools{}, Events: rec, MaxToolRounds: 2})

	err := m.GenerateResponse(context.Background(), "loop", nil)
	assert.ErrorIs(t, err, ErrToolRounds)
	require.Len(t, client.requests, 3)
	assert.NotEmpty(t, client.requests[1].Tools)
	assert.Empty(t, client.requests[2].Tools, "last round is sent without tools")
	assert.Len(t, rec.errors, 1)
}

func TestGenerateResponse_TransportFailurePublishesErrorSignal(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	rec := &recorder{}
	m := New(Options{Client: client, Events: rec})

	err := m.GenerateResponse(context.Background(), "hello", nil)
	require.Error(t, err)
	require.Len(t, rec.errors, 1)
	assert.Equal(t, "Error getting response from the model:\nconnection refused", rec.errors[0].Message)
}

func TestGenerateResponse_CancelledIsNotSignalled(t *testing.T) {
	client := &scriptedClient{err: context.Canceled}
	rec := &recorder{}
	m := New(Options{Client: client, Events: rec})

	err := m.GenerateResponse(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.errors)
}

func TestClear_KeepsSystemPrompt(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{{Content: "hi"}}}
	m := New(Options{Client: client})
	require.NoError(t, m.GenerateResponse(context.Background(), "hello", nil))
	require.Len(t, m.History(), 3)

	m.Clear()
	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, SystemPrompt, history[0].Content)
}

func TestTrimHistory_DropsOldestTurns(t *testing.T) {
	long := strings.Repeat("organize the desktop by file type please ", 40)
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: long},
		{Role: llm.RoleAssistant, Content: long},
		{Role: llm.RoleUser, Content: "latest"},
	}

	budget := llm.CountMessageTokens([]llm.Message{history[0], history[3]}) + 1
	trimmed := trimHistory(history, budget)
	require.Len(t, trimmed, 2)
	assert.Equal(t, "sys", trimmed[0].Content)
	assert.Equal(t, "latest", trimmed[1].Content)
}

func TestTrimHistory_KeepsCurrentTurn(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: strings.Repeat("word ", 500)},
	}
	trimmed := trimHistory(history, 1)
	assert.Len(t, trimmed, 2)
}
