// Package toolserver exposes the desktop actions as a catalogue of agent
// tools. The catalogue is dispatched in-process by the conversation loop and
// can also be served over MCP streamable HTTP.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/desktop"
	"github.com/mark3labs/deskr/internal/llm"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var log = logger.Named("toolserver")

// Version is reported to MCP clients.
var Version = "dev"

// Server owns the tool catalogue and, once started, the HTTP listener.
type Server struct {
	desk     *desktop.Desktop
	events   bus.Publisher
	gatherer prometheus.Gatherer

	mcpServer *server.MCPServer
	tools     []mcp.Tool
	handlers  map[string]server.ToolHandlerFunc

	httpServer *server.StreamableHTTPServer
	stdServer  *http.Server
	addr       string
	mu         sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves g at /metrics when the server is started.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New registers the catalogue for desk. Usage events go to events; nil discards them.
func New(desk *desktop.Desktop, events bus.Publisher, opts ...Option) *Server {
	if events == nil {
		events = bus.Discard
	}
	s := &Server{
		desk:     desk,
		events:   events,
		handlers: make(map[string]server.ToolHandlerFunc),
		mcpServer: server.NewMCPServer(
			"deskr-tools",
			Version,
			server.WithToolCapabilities(true),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// add registers tool with the usage event and span wrapped around handler.
func (s *Server) add(tool mcp.Tool, handler server.ToolHandlerFunc) {
	wrapped := s.instrument(tool.Name, handler)
	s.tools = append(s.tools, tool)
	s.handlers[tool.Name] = wrapped
	s.mcpServer.AddTool(tool, wrapped)
}

func (s *Server) instrument(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.events.Publish(bus.KindUsage, bus.Usage{
			PluginName:   bus.PluginName,
			FunctionName: name,
		}); err != nil {
			log.Warn("usage event for %s: %v", name, err)
		}

		ctx, span := otel.Tracer("deskr/toolserver").Start(ctx, "deskr.tool.execute")
		span.SetAttributes(
			attribute.String("tool.name", name),
			attribute.String("plugin.name", bus.PluginName),
		)
		defer span.End()

		log.Debug("tool %s args=%v", name, request.GetArguments())
		start := time.Now()
		result, err := handler(ctx, request)
		log.Debug("tool %s done in %s", name, time.Since(start))
		return result, err
	}
}

// Definitions returns the catalogue in registration order for the LLM request.
func (s *Server) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(s.tools))
	for _, tool := range s.tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			log.Warn("schema for %s: %v", tool.Name, err)
			schema = nil
		}
		defs = append(defs, llm.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schema,
		})
	}
	return defs
}

// Names lists the tool names in registration order.
func (s *Server) Names() []string {
	names := make([]string, len(s.tools))
	for i, tool := range s.tools {
		names[i] = tool.Name
	}
	return names
}

// Call dispatches name in-process and returns the result text. Unknown tools
// and handler errors are reported as text.
func (s *Server) Call(ctx context.Context, name string, args map[string]any) string {
	handler, ok := s.handlers[name]
	if !ok {
		return fmt.Sprintf("Unknown function %s.", name)
	}
	if args == nil {
		args = map[string]any{}
	}

	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := handler(ctx, request)
	if err != nil {
		return fmt.Sprintf("Error calling %s. %v", name, err)
	}
	return resultText(result)
}

func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Start serves the catalogue at /mcp on addr ("" picks a free loopback port).
// Returns the MCP endpoint URL once the listener is bound.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return "", errors.New("server already started")
	}
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	// Bind first and hand the listener to Serve to avoid a TOCTOU race on the port.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.addr = listener.Addr().String()

	mux := http.NewServeMux()
	mcpHandler := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)
	mux.Handle("/mcp", mcpHandler)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.stdServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.httpServer = mcpHandler

	go func() {
		if err := s.stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("tool server stopped: %v", err)
		}
	}()

	log.Info("tool server listening on %s", s.addr)
	return s.url(), nil
}

// Stop shuts the HTTP server down. Safe to call when not started.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.stdServer.Shutdown(ctx)
	s.stdServer = nil
	s.httpServer = nil
	s.addr = ""
	if err != nil {
		return fmt.Errorf("failed to shutdown tool server: %w", err)
	}
	return nil
}

// URL returns the MCP endpoint, or "" when not started.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url()
}

func (s *Server) url() string {
	if s.addr == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(s.addr)
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/mcp", net.JoinHostPort(host, port))
}
