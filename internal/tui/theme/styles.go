package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style
	Separator   lipgloss.Style
	StatusBar   lipgloss.Style

	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	Plugin         lipgloss.Style
	ToolBorder     lipgloss.Style
	ToolName       lipgloss.Style
	ToolParams     lipgloss.Style
	ToolResult     lipgloss.Style
	Info           lipgloss.Style
	Error          lipgloss.Style

	DiffInsert lipgloss.Style
	DiffDelete lipgloss.Style
	DiffHunk   lipgloss.Style

	InputBorder        lipgloss.Style
	InputBorderFocused lipgloss.Style

	ModalBox      lipgloss.Style
	ModalTitle    lipgloss.Style
	ModalText     lipgloss.Style
	ButtonActive  lipgloss.Style
	ButtonNormal  lipgloss.Style
	DialogBox     lipgloss.Style
	DialogTitle   lipgloss.Style
	Toast         lipgloss.Style
	ScrollPercent lipgloss.Style
}
