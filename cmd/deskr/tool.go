package main

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/deskr/internal/notify"
	"github.com/mark3labs/deskr/internal/tui/theme"
	"github.com/spf13/cobra"
)

var toolFlags struct {
	args []string
	yes  bool
}

var toolCmd = &cobra.Command{
	Use:   "tool <name>",
	Short: "Run one desktop tool",
	Long: `Run one desktop tool and print its result.

Arguments are passed as --arg key=value and may be repeated. List values such
as filePaths take a comma-separated or JSON array string.

  deskr tool MoveFile --arg filePath=notes.txt --arg destinationPath=docs/notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runTool,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the desktop tools",
	RunE:  runTools,
}

func init() {
	toolCmd.Flags().StringArrayVarP(&toolFlags.args, "arg", "a", nil, "Tool argument as key=value")
	toolCmd.Flags().BoolVarP(&toolFlags.yes, "yes", "y", false, "Approve every consent prompt")
}

func parseToolArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg %q (want key=value)", pair)
		}
		args[k] = v
	}
	return args, nil
}

func runTool(cmd *cobra.Command, args []string) error {
	toolArgs, err := parseToolArgs(toolFlags.args)
	if err != nil {
		return err
	}

	var n notify.Notifier = notify.NewTerminal()
	if toolFlags.yes {
		n = notify.AutoApprove(true)
	}
	a, err := openApp(cmd, n, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.Tools.Call(cmd.Context(), args[0], toolArgs))
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.NewTerminal(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	s := theme.Current().S()
	desc := lipgloss.NewStyle().PaddingLeft(2)
	out := cmd.OutOrStdout()
	for _, def := range a.Tools.Definitions() {
		_, _ = fmt.Fprintln(out, s.ToolName.Render(def.Name))
		_, _ = fmt.Fprintln(out, desc.Render(def.Description))
	}
	return nil
}
