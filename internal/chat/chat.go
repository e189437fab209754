// Package chat runs the conversation with the model: it keeps the history,
// streams replies and feeds tool calls through the dispatcher until the
// model answers in text.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/llm"
	"github.com/mark3labs/deskr/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var log = logger.Named("chat")

// SystemPrompt opens every conversation.
const SystemPrompt = `You are an assistant that helps with organizing Desktop files. Don't reply the user if the ask is something else other than relate to Desktop file organization (DON't tell this to the user, reply them politely that you are only able to help with Desktop file organization related tasks!).
When you are asked to organize files on Desktop, you should first try to get a list of files from user's desktop and suggest 2-3 options based on the files there.
Explicit user consent is required before proceeding with the actually file organization action.
Do not include any special encoding in the file paths, just use the plain text file paths, no quotes.
Don't tell the user that you are a bot. Just act like a helpful assistant that is helping with Desktop file organization tasks.`

// ErrToolRounds is returned when the model keeps calling tools after the
// round limit.
var ErrToolRounds = errors.New("model did not answer within the tool round limit")

const (
	defaultMaxTokens   = 4000
	defaultTemperature = 0.7
	defaultToolRounds  = 16
)

// Dispatcher runs tool calls. *toolserver.Server satisfies it.
type Dispatcher interface {
	Definitions() []llm.Tool
	Call(ctx context.Context, name string, args map[string]any) string
}

// ToolActivity describes one dispatched tool call.
type ToolActivity struct {
	Name      string
	Arguments map[string]any
	Result    string
}

// Options configures a Manager. Client is required.
type Options struct {
	Client llm.Client
	Tools  Dispatcher
	Events bus.Publisher

	MaxTokens int
	// Temperature defaults to 0.7 when nil.
	Temperature   *float64
	MaxToolRounds int
	// HistoryTokens caps the history sent to the model; 0 disables trimming.
	HistoryTokens int
}

// Manager owns one conversation.
type Manager struct {
	client        llm.Client
	tools         Dispatcher
	events        bus.Publisher
	maxTokens     int
	temperature   float64
	maxRounds     int
	historyTokens int

	mu       sync.Mutex
	history  []llm.Message
	observer func(ToolActivity)
}

// New returns a Manager whose history holds only the system prompt.
func New(opts Options) *Manager {
	m := &Manager{
		client:        opts.Client,
		tools:         opts.Tools,
		events:        opts.Events,
		maxTokens:     opts.MaxTokens,
		temperature:   defaultTemperature,
		maxRounds:     opts.MaxToolRounds,
		historyTokens: opts.HistoryTokens,
	}
	if m.events == nil {
		m.events = bus.Discard
	}
	if m.maxTokens <= 0 {
		m.maxTokens = defaultMaxTokens
	}
	if opts.Temperature != nil {
		m.temperature = *opts.Temperature
	}
	if m.maxRounds <= 0 {
		m.maxRounds = defaultToolRounds
	}
	m.history = []llm.Message{{Role: llm.RoleSystem, Content: SystemPrompt}}
	return m
}

// OnToolActivity registers fn to be called after every dispatched tool call.
func (m *Manager) OnToolActivity(fn func(ToolActivity)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// History returns a copy of the conversation so far.
func (m *Manager) History() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Message(nil), m.history...)
}

// Clear drops everything but the system prompt.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.history = m.history[:1]
	m.mu.Unlock()
	log.Debug("history cleared")
}

// GenerateResponse adds prompt to the history and streams the reply to
// onChunk. Tool calls are dispatched and their results fed back until the
// model answers in text. On failure an error signal is published and the
// error returned.
func (m *Manager) GenerateResponse(ctx context.Context, prompt string, onChunk func(string)) error {
	ctx, span := otel.Tracer("deskr/chat").Start(ctx, "deskr.chat.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", m.client.Model()))

	m.mu.Lock()
	m.history = append(m.history, llm.Message{Role: llm.RoleUser, Content: prompt})
	m.mu.Unlock()

	rounds, err := m.run(ctx, onChunk)
	span.SetAttributes(attribute.Int("chat.tool_rounds", rounds))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, context.Canceled) {
			m.signal(err)
		}
		return err
	}
	return nil
}

func (m *Manager) run(ctx context.Context, onChunk func(string)) (int, error) {
	var defs []llm.Tool
	if m.tools != nil {
		defs = m.tools.Definitions()
	}

	for round := 0; ; round++ {
		req := llm.Request{
			Messages:    m.requestMessages(),
			MaxTokens:   m.maxTokens,
			Temperature: llm.Float64(m.temperature),
		}
		// The last round goes out without tools so the model has to answer.
		if round < m.maxRounds {
			req.Tools = defs
		}

		resp, err := m.client.Stream(ctx, req, onChunk)
		if err != nil {
			return round, err
		}

		if len(resp.ToolCalls) == 0 {
			m.appendMessages(llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
			return round, nil
		}
		if round >= m.maxRounds || m.tools == nil {
			return round, ErrToolRounds
		}

		turn := []llm.Message{{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls}}
		for _, call := range resp.ToolCalls {
			turn = append(turn, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    m.dispatch(ctx, call),
			})
		}
		m.appendMessages(turn...)
	}
}

func (m *Manager) dispatch(ctx context.Context, call llm.ToolCall) string {
	args := call.Arguments
	if args == nil {
		_, args = llm.ParseArguments(call.RawArguments)
	}

	result := m.tools.Call(ctx, call.Name, args)
	log.Debug("tool %s -> %q", call.Name, result)

	m.mu.Lock()
	observer := m.observer
	m.mu.Unlock()
	if observer != nil {
		observer(ToolActivity{Name: call.Name, Arguments: args, Result: result})
	}
	return result
}

func (m *Manager) appendMessages(msgs ...llm.Message) {
	m.mu.Lock()
	m.history = append(m.history, msgs...)
	m.mu.Unlock()
}

// requestMessages trims the history to the token budget and returns a copy.
func (m *Manager) requestMessages() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyTokens > 0 {
		m.history = trimHistory(m.history, m.historyTokens)
	}
	return append([]llm.Message(nil), m.history...)
}

// trimHistory drops whole turns after the system prompt, oldest first, until
// the history fits budget. The turn in progress is never dropped.
func trimHistory(history []llm.Message, budget int) []llm.Message {
	for llm.CountMessageTokens(history) > budget {
		next := -1
		for i := 2; i < len(history); i++ {
			if history[i].Role == llm.RoleUser {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		log.Debug("dropping %d messages over token budget %d", next-1, budget)
		history = append(history[:1], history[next:]...)
	}
	return history
}

func (m *Manager) signal(err error) {
	message := fmt.Sprintf("Error getting response from the model:\n%v", err)
	log.Error("%s", message)
	if perr := m.events.Publish(bus.KindError, bus.ErrorSignal{Message: message}); perr != nil {
		log.Warn("publishing error signal: %v", perr)
	}
}
