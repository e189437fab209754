// Package app wires configuration, the event bus, the desktop actions and the
// chat session into one process and tears them down in reverse order.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/chat"
	"github.com/mark3labs/deskr/internal/config"
	"github.com/mark3labs/deskr/internal/consent"
	"github.com/mark3labs/deskr/internal/desktop"
	"github.com/mark3labs/deskr/internal/llm"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/deskr/internal/notify"
	"github.com/mark3labs/deskr/internal/telemetry"
	"github.com/mark3labs/deskr/internal/toolserver"
	"github.com/mark3labs/deskr/internal/tui"
	"github.com/mark3labs/deskr/internal/vcs"
	"github.com/mark3labs/deskr/internal/watcher"
	"golang.org/x/sync/errgroup"
)

var log = logger.Named("app")

// Options configures Open.
type Options struct {
	Config   *config.Config
	Notifier notify.Notifier
	Version  string
	// Watch starts the desktop watcher when cfg.Watch is also set.
	Watch bool
}

// App owns every long-lived component.
type App struct {
	cfg *config.Config

	Bus     *bus.Bus
	Desktop *desktop.Desktop
	Tools   *toolserver.Server
	Metrics *telemetry.Metrics
	// Chat is nil when no model is configured.
	Chat *chat.Manager

	notifier   notify.Notifier
	watcher    *watcher.Watcher
	metricsSub *bus.Subscription
	tracing    telemetry.Shutdown
	closed     bool
}

// Open starts the components in dependency order. On failure everything
// already started is closed again.
func Open(ctx context.Context, opts Options) (_ *App, err error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewTerminal()
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	root, err := cfg.DesktopRoot()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	a := &App{cfg: cfg, notifier: opts.Notifier}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.tracing, err = telemetry.SetupTracing(ctx, cfg.Telemetry, opts.Version)
	if err != nil {
		return nil, err
	}

	a.Bus, err = bus.Open(ctx, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening event bus: %w", err)
	}

	a.Metrics = telemetry.NewMetrics()
	a.metricsSub, err = a.Metrics.Attach(a.Bus)
	if err != nil {
		return nil, fmt.Errorf("attaching metrics: %w", err)
	}

	runner, err := vcs.New(cfg.VCS, root)
	if err != nil {
		return nil, err
	}

	var client llm.Client
	deskOpts := desktop.Options{
		Root:              root,
		Consent:           consent.New(opts.Notifier, a.Bus),
		VCS:               runner,
		Notifier:          opts.Notifier,
		SummaryCacheSize:  cfg.SummaryCache,
		GateMoveAll:       cfg.Consent.GateMoveAll,
		FixedPointCleanup: cfg.Cleanup.FixedPoint,
	}
	if cfg.Model != "" {
		openai := llm.NewOpenAI(cfg.APIBase, cfg.APIKey, cfg.Model)
		client = openai
		deskOpts.Completer = &llm.Completer{Client: openai, MaxTokens: cfg.MaxTokens, Temperature: llm.Float64(cfg.Temperature)}
	}
	if cfg.SummaryModel != "" {
		base := cfg.SummaryAPIBase
		if base == "" {
			base = cfg.APIBase
		}
		summary := llm.NewOpenAI(base, cfg.APIKey, cfg.SummaryModel)
		deskOpts.SummaryCompleter = &llm.Completer{Client: summary, MaxTokens: cfg.MaxTokens}
	}

	a.Desktop, err = desktop.New(deskOpts)
	if err != nil {
		return nil, err
	}

	a.Tools = toolserver.New(a.Desktop, a.Bus, toolserver.WithMetrics(a.Metrics.Registry()))

	if client != nil {
		a.Chat = chat.New(chat.Options{
			Client:        client,
			Tools:         a.Tools,
			Events:        a.Bus,
			MaxTokens:     cfg.MaxTokens,
			Temperature:   llm.Float64(cfg.Temperature),
			MaxToolRounds: cfg.MaxToolRounds,
			HistoryTokens: cfg.HistoryTokens,
		})
	}

	if opts.Watch && cfg.Watch {
		a.watcher, err = watcher.New(root, a.Bus)
		if err != nil {
			return nil, fmt.Errorf("creating desktop watcher: %w", err)
		}
		if err = a.watcher.Start(); err != nil {
			return nil, fmt.Errorf("starting desktop watcher: %w", err)
		}
	}

	log.Info("opened desktop %s (model %q)", root, cfg.Model)
	return a, nil
}

// Config returns the configuration the App was opened with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// RunTUI runs the chat screen until the user quits or ctx is cancelled.
// n must be the notifier the App was opened with so that consent prompts
// reach the screen.
func (a *App) RunTUI(ctx context.Context, n *tui.ProgramNotifier) error {
	if a.Chat == nil {
		return config.ErrNoModel
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(ctx, tui.Options{
		Conversation: a.Chat,
		Desktop:      a.Desktop,
		Events:       a.Bus,
		Model:        a.cfg.Model,
		DesktopPath:  a.Desktop.Root(),
		DataDir:      a.cfg.DataDir,
	})
	program := tea.NewProgram(model, tea.WithContext(ctx))
	n.Attach(program)
	defer n.Attach(nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		program.Quit()
		return nil
	})
	return g.Wait()
}

// Ask runs a single prompt, streaming the reply to onChunk.
func (a *App) Ask(ctx context.Context, prompt string, onChunk func(string)) error {
	if a.Chat == nil {
		return config.ErrNoModel
	}
	return a.Chat.GenerateResponse(ctx, prompt, onChunk)
}

// Serve exposes the tool catalogue over MCP until ctx is cancelled. ready is
// called with the endpoint URL once the listener is up.
func (a *App) Serve(ctx context.Context, addr string, ready func(url string)) error {
	if _, err := a.Tools.Start(ctx, addr); err != nil {
		return err
	}
	if ready != nil {
		ready(a.Tools.URL())
	}
	<-ctx.Done()
	return a.Tools.Stop()
}

// Close stops everything Open started. Safe to call more than once.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	if a.Tools != nil {
		errs = append(errs, a.Tools.Stop())
	}
	if a.metricsSub != nil {
		a.metricsSub.Unsubscribe()
	}
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.tracing != nil {
		errs = append(errs, a.tracing(context.Background()))
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Error("shutdown: %v", err)
	}
	return err
}
