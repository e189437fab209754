package tui

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/deskr/internal/tui/theme"
)

// MessageItem is one entry in the transcript.
type MessageItem interface {
	// Render returns the item at the given width.
	Render(width int) string
	// Markdown returns the item for a transcript export; "" omits it.
	Markdown() string
}

// Expandable is implemented by items whose detail can be toggled.
type Expandable interface {
	SetExpanded(bool)
}

// UserMessageItem is a prompt the user submitted.
type UserMessageItem struct {
	text string
}

func (u *UserMessageItem) Render(width int) string {
	s := theme.Current().S()
	return s.UserLabel.Render("You") + "\n" + s.UserText.Render(wrapText(u.text, width))
}

func (u *UserMessageItem) Markdown() string {
	return "**You:** " + u.text
}

// AssistantMessageItem is a reply, appended to as chunks stream in.
type AssistantMessageItem struct {
	content      strings.Builder
	cachedRender string
	cachedWidth  int
	cachedLen    int
}

func (a *AssistantMessageItem) Append(chunk string) {
	a.content.WriteString(chunk)
}

func (a *AssistantMessageItem) Text() string {
	return a.content.String()
}

func (a *AssistantMessageItem) Render(width int) string {
	if a.cachedWidth == width && a.cachedLen == a.content.Len() && a.cachedRender != "" {
		return a.cachedRender
	}
	s := theme.Current().S()
	a.cachedRender = s.AssistantLabel.Render("Assistant") + "\n" + renderMarkdown(a.content.String(), width)
	a.cachedWidth = width
	a.cachedLen = a.content.Len()
	return a.cachedRender
}

func (a *AssistantMessageItem) Markdown() string {
	return "**Assistant:** " + a.content.String()
}

// PluginMessageItem announces a tool invocation from the usage event stream.
type PluginMessageItem struct {
	plugin, function string
}

func pluginLine(plugin, function string) string {
	return fmt.Sprintf("Using plugin: %s--%s", plugin, function)
}

func (p *PluginMessageItem) Render(width int) string {
	return theme.Current().S().Plugin.Render(truncateString(pluginLine(p.plugin, p.function), width))
}

func (p *PluginMessageItem) Markdown() string {
	return "_" + pluginLine(p.plugin, p.function) + "_"
}

// ToolMessageItem shows a tool call with its arguments and, when expanded, its result.
type ToolMessageItem struct {
	name     string
	args     map[string]any
	result   string
	expanded bool
}

func (t *ToolMessageItem) SetExpanded(v bool) { t.expanded = v }

func (t *ToolMessageItem) Render(width int) string {
	s := theme.Current().S()
	inner := max(width-2, 10)

	header := s.ToolName.Render(t.name)
	if params := formatToolParams(t.args, inner-lipgloss.Width(header)-1); params != "" {
		header += " " + s.ToolParams.Render(params)
	}
	if !t.expanded {
		return s.ToolBorder.Render(header)
	}

	body := t.result
	if t.name == "ReadFileContent" {
		if fp, ok := t.args["filePath"].(string); ok {
			body = syntaxHighlight(body, path.Base(fp))
		}
	} else {
		body = s.ToolResult.Render(wrapText(body, inner))
	}
	return s.ToolBorder.Render(header + "\n" + body)
}

func (t *ToolMessageItem) Markdown() string {
	return fmt.Sprintf("`%s(%s)`\n\n```\n%s\n```", t.name, formatToolParams(t.args, 1<<16), t.result)
}

// InfoMessageItem is a dim one-line notice.
type InfoMessageItem struct {
	text string
}

func (i *InfoMessageItem) Render(width int) string {
	return theme.Current().S().Info.Render(wrapText(i.text, width))
}

func (i *InfoMessageItem) Markdown() string { return "" }

// ErrorMessageItem shows an error signal.
type ErrorMessageItem struct {
	text string
}

func (e *ErrorMessageItem) Render(width int) string {
	return theme.Current().S().Error.Render(wrapText(e.text, width))
}

func (e *ErrorMessageItem) Markdown() string {
	return "> " + strings.ReplaceAll(e.text, "\n", "\n> ")
}

// DiffMessageItem shows the desktop listing diff since start-up.
type DiffMessageItem struct {
	diff string
}

func (d *DiffMessageItem) Render(int) string {
	if d.diff == "" {
		return theme.Current().S().Info.Render("No changes on the desktop since start-up.")
	}
	return colorDiff(d.diff)
}

func (d *DiffMessageItem) Markdown() string {
	if d.diff == "" {
		return ""
	}
	return "```diff\n" + strings.TrimRight(d.diff, "\n") + "\n```"
}

// formatToolParams shows filePath first, then the remaining keys sorted, as
// "a.txt (destinationPath=x/a.txt)". Truncated to maxWidth.
func formatToolParams(input map[string]any, maxWidth int) string {
	if len(input) == 0 {
		return ""
	}

	var b strings.Builder
	primary, hasPrimary := input["filePath"]
	if hasPrimary {
		fmt.Fprintf(&b, "%v", primary)
	}

	keys := make([]string, 0, len(input))
	for k := range input {
		if k != "filePath" || !hasPrimary {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		rest := make([]string, len(keys))
		for i, k := range keys {
			rest[i] = fmt.Sprintf("%s=%v", k, input[k])
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + strings.Join(rest, ", ") + ")")
	}
	return truncateString(b.String(), maxWidth)
}
