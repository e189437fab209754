package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer replies with the given data lines and records the last request body.
func sseServer(t *testing.T, lines []string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, captured))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", line)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStream_Content(t *testing.T) {
	var body map[string]any
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`: keep-alive`,
		`{"choices":[{"delta":{"content":"!"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
		`[DONE]`,
	}, &body)

	client := NewOpenAI(srv.URL+"/v1/", "sk-test", "gpt-test")
	var chunks []string
	resp, err := client.Stream(context.Background(), Request{
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		Tools:       []Tool{{Name: "CountFiles", Description: "Count files on the desktop"}},
		MaxTokens:   4000,
		Temperature: Float64(0),
	}, func(s string) { chunks = append(chunks, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo", "!"}, chunks)
	assert.Equal(t, "Hello!", resp.Content)
	assert.Equal(t, strings.Join(chunks, ""), resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-test", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, "auto", body["tool_choice"])
	assert.EqualValues(t, 4000, body["max_tokens"])
	assert.Contains(t, body, "temperature", "an explicit zero is still sent")
	assert.EqualValues(t, 0, body["temperature"])
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "CountFiles", fn["name"])
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, fn["parameters"])
}

func TestStream_ToolCallsReassembledInIndexOrder(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"call_b","function":{"name":"ReadFileContent","arguments":""}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_a","function":{"name":"MoveFile","arguments":"{\"filePath\":"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":1,"function":{"arguments":"{\"filePath\":\"b.txt\"}"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"a.txt\",\"destinationPath\":\"x/a.txt\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
	}, nil)

	resp, err := NewOpenAI(srv.URL+"/v1", "sk-test", "m").Stream(context.Background(), Request{}, nil)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, "call_a", resp.ToolCalls[0].ID)
	assert.Equal(t, "MoveFile", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"filePath": "a.txt", "destinationPath": "x/a.txt"}, resp.ToolCalls[0].Arguments)
	assert.Equal(t, "call_b", resp.ToolCalls[1].ID)
	assert.Equal(t, map[string]any{"filePath": "b.txt"}, resp.ToolCalls[1].Arguments)
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestStream_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "bad", "m").Stream(context.Background(), Request{}, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestStream_InBandError(t *testing.T) {
	srv := sseServer(t, []string{`{"error":{"message":"context length exceeded"}}`}, nil)
	_, err := NewOpenAI(srv.URL+"/v1", "sk-test", "m").Stream(context.Background(), Request{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context length exceeded")
}

func TestStream_Empty(t *testing.T) {
	srv := sseServer(t, []string{`{"choices":[{"delta":{},"finish_reason":"stop"}]}`, `[DONE]`}, nil)
	_, err := NewOpenAI(srv.URL+"/v1", "sk-test", "m").Stream(context.Background(), Request{}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStream_ContextCancelled(t *testing.T) {
	srv := sseServer(t, []string{`[DONE]`}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOpenAI(srv.URL+"/v1", "sk-test", "m").Stream(ctx, Request{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{name: "empty", raw: "", want: map[string]any{}},
		{name: "valid", raw: `{"filePath":"a.txt"}`, want: map[string]any{"filePath": "a.txt"}},
		{name: "trailing comma", raw: `{"filePath":"a.txt",}`, want: map[string]any{"filePath": "a.txt"}},
		{name: "truncated", raw: `{"filePaths":["a.txt","b.txt"`, want: map[string]any{"filePaths": []any{"a.txt", "b.txt"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := ParseArguments(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertMessages(t *testing.T) {
	msgs := convertMessages([]Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "CountFiles", Arguments: map[string]any{}}}},
		{Role: RoleTool, ToolCallID: "c1", Name: "CountFiles", Content: "3"},
	})

	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[0]["content"])
	call := msgs[0]["tool_calls"].([]map[string]any)[0]
	assert.Equal(t, "function", call["type"])
	assert.Equal(t, "{}", call["function"].(map[string]any)["arguments"])
	assert.Equal(t, "c1", msgs[1]["tool_call_id"])
	assert.Equal(t, "3", msgs[1]["content"])
}

type stubClient struct {
	resp *Response
	err  error
	req  Request
}

func (s *stubClient) Stream(_ context.Context, req Request, _ func(string)) (*Response, error) {
	s.req = req
	return s.resp, s.err
}

func (s *stubClient) Model() string { return "stub" }

func TestCompleter(t *testing.T) {
	stub := &stubClient{resp: &Response{Content: "  a summary \n"}}
	c := &Completer{Client: stub, MaxTokens: 2000, Temperature: Float64(0.7)}

	got, err := c.Complete(context.Background(), "Summarize this file")
	require.NoError(t, err)
	assert.Equal(t, "a summary", got)
	assert.Equal(t, 2000, stub.req.MaxTokens)
	require.NotNil(t, stub.req.Temperature)
	assert.Equal(t, 0.7, *stub.req.Temperature)
	require.Len(t, stub.req.Messages, 1)
	assert.Equal(t, RoleUser, stub.req.Messages[0].Role)

	stub.resp = &Response{Content: "   "}
	_, err = c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens("  "))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 3, EstimateTokens("one two three"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestCountMessageTokens_Monotonic(t *testing.T) {
	short := CountMessageTokens([]Message{{Role: RoleUser, Content: "hi"}})
	long := CountMessageTokens([]Message{{Role: RoleUser, Content: strings.Repeat("organize my desktop ", 50)}})
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}
