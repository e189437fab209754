package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/gosimple/slug"
	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/chat"
	"github.com/mark3labs/deskr/internal/desktop"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/deskr/internal/state"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

var log = logger.Named("tui")

const inboxSize = 256

// Options wires the App to the rest of deskr.
type Options struct {
	Conversation Conversation
	Desktop      Desktop
	// Events is optional; without it usage lines and error alerts are not shown.
	Events      EventSource
	Model       string
	DesktopPath string
	DataDir     string
}

// chunkMsg carries streamed reply text.
type chunkMsg struct{ text string }

// generateDoneMsg ends a generation.
type generateDoneMsg struct{ err error }

// toolActivityMsg reports a finished tool call.
type toolActivityMsg struct{ activity chat.ToolActivity }

// busEventMsg wraps an event from the bus.
type busEventMsg struct{ event bus.Event }

// backupDoneMsg reports the result of ctrl+b.
type backupDoneMsg struct{ err error }

// exportDoneMsg reports where the transcript was written.
type exportDoneMsg struct {
	path string
	err  error
}

// App is the chat screen: transcript on top, prompt editor and status below,
// consent prompts and alerts drawn over everything.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	conv    Conversation
	desk    Desktop
	events  EventSource
	dataDir string

	transcript *Transcript
	input      *Input
	status     *StatusBar
	consent    *ConsentModal
	dialog     *Dialog
	toast      *Toast

	uiState       *state.UIState
	inbox         chan tea.Msg
	cancelGen     context.CancelFunc
	generating    bool
	startSnapshot []string
	firstPrompt   string

	width    int
	height   int
	quitting bool
}

// New creates the App. Cancel ctx or quit to stop background work.
func New(ctx context.Context, opts Options) *App {
	ctx, cancel := context.WithCancel(ctx)
	ui := state.Load(opts.DataDir)

	a := &App{
		ctx:        ctx,
		cancel:     cancel,
		conv:       opts.Conversation,
		desk:       opts.Desktop,
		events:     opts.Events,
		dataDir:    opts.DataDir,
		transcript: NewTranscript(ui.ToolOutput.Expanded),
		input:      NewInput(state.NewHistory(ui.Prompts)),
		status:     NewStatusBar(opts.Model, opts.DesktopPath),
		consent:    NewConsentModal(),
		dialog:     NewDialog(),
		toast:      NewToast(),
		uiState:    ui,
		inbox:      make(chan tea.Msg, inboxSize),
		width:      80,
		height:     24,
	}
	a.status.SetExpanded(ui.ToolOutput.Expanded)
	if a.desk != nil {
		a.startSnapshot = a.desk.Snapshot()
	}
	if a.conv != nil {
		a.conv.OnToolActivity(func(act chat.ToolActivity) {
			a.post(toolActivityMsg{activity: act})
		})
	}
	a.transcript.Add(&InfoMessageItem{text: "Ask me to list, summarize or tidy the files on your desktop."})
	return a
}

// post queues msg for the UI loop, waiting for room until the App stops.
// Conversation output goes through here so no chunk and no completion is lost.
func (a *App) post(msg tea.Msg) {
	select {
	case a.inbox <- msg:
	case <-a.ctx.Done():
	}
}

// offer queues msg only if there is room. Bus events are also kept in the bus
// history, so a busy UI may skip some.
func (a *App) offer(msg tea.Msg) {
	select {
	case a.inbox <- msg:
	default:
		log.Warn("inbox full, dropping %T", msg)
	}
}

// Init starts the inbox pump and the bus subscription.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.subscribeToEvents(), a.waitForInbox())
}

// waitForInbox delivers the next queued message. It is re-armed after each one.
func (a *App) waitForInbox() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.inbox:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

// subscribeToEvents forwards bus events into the inbox until the App stops.
func (a *App) subscribeToEvents() tea.Cmd {
	if a.events == nil {
		return nil
	}
	return func() tea.Msg {
		sub, err := a.events.Subscribe(bus.KindAll, func(ev bus.Event) {
			a.offer(busEventMsg{event: ev})
		})
		if err != nil {
			log.Error("failed to subscribe to events: %v", err)
			return nil
		}
		<-a.ctx.Done()
		sub.Unsubscribe()
		return nil
	}
}

// Update handles incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return a.handleKeyPress(msg)

	case tea.MouseClickMsg:
		return a.handleMouse(msg)

	case tea.MouseWheelMsg:
		return a, a.transcript.Update(msg)

	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout()
		return a, nil

	case ShowConsentMsg:
		a.consent.Push(msg)
		return a, nil

	case ShowAlertMsg:
		a.dialog.Show(msg.Title, msg.Message)
		return a, nil

	case SubmitMsg:
		return a, a.startGeneration(msg.Text)

	case chunkMsg:
		a.transcript.SetThinking(false)
		a.transcript.AppendChunk(msg.text)
		return a, a.waitForInbox()

	case toolActivityMsg:
		a.transcript.Add(&ToolMessageItem{
			name:   msg.activity.Name,
			args:   msg.activity.Arguments,
			result: msg.activity.Result,
		})
		return a, tea.Batch(a.transcript.SetThinking(true), a.waitForInbox())

	case generateDoneMsg:
		return a, tea.Batch(a.finishGeneration(msg.err), a.waitForInbox())

	case busEventMsg:
		a.handleEvent(msg.event)
		return a, a.waitForInbox()

	case backupDoneMsg:
		a.status.SetWorking(a.generating)
		return a, nil

	case exportDoneMsg:
		if msg.err != nil {
			a.transcript.Add(&ErrorMessageItem{text: "Export failed: " + msg.err.Error()})
			return a, nil
		}
		return a, a.toast.Show("Saved " + msg.path)

	case ToastDismissMsg:
		return a, a.toast.Update(msg)

	case GradientSpinnerMsg:
		return a, a.transcript.Update(msg)
	}

	// Spinner ticks and textarea blink.
	return a, tea.Batch(a.status.Update(msg), a.input.Update(msg))
}

func (a *App) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if a.generating {
			a.consent.DenyAll()
			if a.cancelGen != nil {
				a.cancelGen()
			}
			return a, nil
		}
		return a, a.quit()
	}

	// Consent outranks alerts: a pending action is blocked on it.
	if a.consent.IsVisible() {
		return a, a.consent.Update(msg)
	}
	if a.dialog.IsVisible() {
		return a, a.dialog.Update(msg)
	}

	switch msg.String() {
	case "ctrl+b":
		return a, tea.Batch(a.status.SetWorking(true), a.backup())
	case "ctrl+l":
		if a.generating {
			return a, a.toast.Show("Wait for the reply to finish")
		}
		a.conv.Clear()
		a.transcript.Clear()
		return a, a.toast.Show("Conversation cleared")
	case "ctrl+o":
		expanded := a.transcript.ToggleExpanded()
		a.status.SetExpanded(expanded)
		a.uiState.ToolOutput.Expanded = expanded
		a.saveUIState()
		return a, nil
	case "ctrl+d":
		return a, a.showDiff()
	case "ctrl+s":
		return a, a.export()
	case "pgup", "pgdown":
		return a, a.transcript.Update(msg)
	}

	return a, a.input.Update(msg)
}

func (a *App) handleMouse(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	if mouse.Button != tea.MouseLeft {
		return a, nil
	}
	switch {
	case a.consent.IsVisible():
		a.consent.HandleClick(mouse.X, mouse.Y)
	case a.dialog.IsVisible():
		a.dialog.HandleClick()
	}
	return a, nil
}

func (a *App) handleEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindUsage:
		var u bus.Usage
		if err := ev.Decode(&u); err != nil {
			log.Warn("bad usage event: %v", err)
			return
		}
		a.transcript.Add(&PluginMessageItem{plugin: u.PluginName, function: u.FunctionName})
	case bus.KindError:
		var e bus.ErrorSignal
		if err := ev.Decode(&e); err != nil {
			log.Warn("bad error event: %v", err)
			return
		}
		a.dialog.Show("Error", e.Message)
	case bus.KindDesktop:
		var d bus.DesktopChanged
		if err := ev.Decode(&d); err != nil {
			log.Warn("bad desktop event: %v", err)
			return
		}
		a.status.AddChanges(len(d.Paths))
	}
}

// startGeneration runs one turn in the background. Chunks, tool activity and
// the final result arrive through the inbox in order.
func (a *App) startGeneration(prompt string) tea.Cmd {
	if a.generating || a.conv == nil {
		return nil
	}
	if a.firstPrompt == "" {
		a.firstPrompt = prompt
	}
	a.uiState.Prompts = a.input.History().Entries()
	a.saveUIState()

	a.generating = true
	a.input.SetDisabled(true)
	a.transcript.Add(&UserMessageItem{text: prompt})

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelGen = cancel
	go func() {
		err := a.conv.GenerateResponse(ctx, prompt, func(chunk string) {
			a.post(chunkMsg{text: chunk})
		})
		a.post(generateDoneMsg{err: err})
	}()

	return tea.Batch(a.transcript.SetThinking(true), a.status.SetWorking(true))
}

func (a *App) finishGeneration(err error) tea.Cmd {
	a.generating = false
	if a.cancelGen != nil {
		a.cancelGen()
		a.cancelGen = nil
	}
	a.input.SetDisabled(false)
	a.transcript.EndReply()
	a.status.SetWorking(false)

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		a.transcript.Add(&InfoMessageItem{text: "Cancelled."})
	case errors.Is(err, chat.ErrToolRounds):
		a.transcript.Add(&ErrorMessageItem{text: "Stopped: too many tool calls in one turn."})
	default:
		a.transcript.Add(&ErrorMessageItem{text: err.Error()})
	}
	return nil
}

func (a *App) backup() tea.Cmd {
	ctx := a.ctx
	desk := a.desk
	return func() tea.Msg {
		if desk == nil {
			return backupDoneMsg{err: errors.New("no desktop")}
		}
		return backupDoneMsg{err: desk.Backup(ctx)}
	}
}

func (a *App) showDiff() tea.Cmd {
	if a.desk == nil {
		return nil
	}
	diff := desktop.DiffSnapshots(a.startSnapshot, a.desk.Snapshot())
	if diff == "" {
		return a.toast.Show("No changes since start")
	}
	a.transcript.Add(&DiffMessageItem{diff: diff})
	return nil
}

// export writes the transcript as Markdown under dataDir/transcripts.
func (a *App) export() tea.Cmd {
	content := a.transcript.Markdown()
	name := slug.Make(truncateString(a.firstPrompt, 40))
	if name == "" {
		name = "transcript"
	}
	name = fmt.Sprintf("%s-%s.md", name, time.Now().Format("20060102-150405"))
	dir := filepath.Join(a.dataDir, "transcripts")

	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportDoneMsg{err: err}
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

func (a *App) saveUIState() {
	if a.dataDir == "" {
		return
	}
	if err := state.Save(a.dataDir, a.uiState); err != nil {
		log.Warn("failed to save UI state: %v", err)
	}
}

func (a *App) quit() tea.Cmd {
	a.quitting = true
	a.consent.DenyAll()
	a.uiState.Prompts = a.input.History().Entries()
	a.saveUIState()
	a.cancel()
	return tea.Quit
}

// layout sizes the components. From the top: transcript, input, hint line, status.
func (a *App) layout() {
	a.input.SetSize(a.width)
	a.transcript.SetSize(a.width, a.transcriptHeight())
}

func (a *App) transcriptHeight() int {
	return max(a.height-a.input.Height()-2, 1)
}

// View renders the App.
func (a *App) View() tea.View {
	var view tea.View
	if a.quitting {
		return view
	}
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	canvas := uv.NewScreenBuffer(a.width, a.height)
	view.Cursor = a.Draw(canvas, canvas.Bounds())
	view.Content = lipgloss.NewLayer(canvas.Render())
	view.BackgroundColor = theme.HexToColor(theme.Current().BgCrust)
	return view
}

// Draw paints every component onto scr and returns the input cursor, or nil
// while an overlay has focus.
func (a *App) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	s := theme.Current().S()

	th := a.transcriptHeight()
	transcriptArea := uv.Rect(area.Min.X, area.Min.Y, area.Dx(), th)
	inputArea := uv.Rect(area.Min.X, area.Min.Y+th, area.Dx(), a.input.Height())
	hintArea := uv.Rect(area.Min.X, inputArea.Max.Y, area.Dx(), 1)
	statusArea := uv.Rect(area.Min.X, hintArea.Max.Y, area.Dx(), 1)

	a.transcript.Draw(scr, transcriptArea)
	cursor := a.input.Draw(scr, inputArea)
	DrawStyled(scr, hintArea, s.Info, truncateString(hintLine, area.Dx()))
	a.status.Draw(scr, statusArea)

	if a.dialog.IsVisible() && !a.consent.IsVisible() {
		a.dialog.Draw(scr, area)
		cursor = nil
	}
	if a.consent.IsVisible() {
		a.consent.Draw(scr, area)
		cursor = nil
	}
	a.toast.Draw(scr, area)
	return cursor
}
