package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/deskr/internal/config"
	"github.com/mark3labs/deskr/internal/notify"
	"github.com/mark3labs/deskr/internal/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat screen (default)",
	RunE:  runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send one prompt and stream the reply to stdout",
	Long: `Send one prompt and stream the reply to stdout.

Consent prompts are asked on the terminal. Answer y to approve; anything else
denies the action.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runChat(cmd *cobra.Command, args []string) error {
	n := tui.NewProgramNotifier()
	a, err := openApp(cmd, n, true)
	if err != nil {
		return noModelHint(err)
	}
	defer func() { _ = a.Close() }()

	return noModelHint(a.RunTUI(cmd.Context(), n))
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.NewTerminal(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	prompt := strings.Join(args, " ")
	out := cmd.OutOrStdout()
	err = a.Ask(cmd.Context(), prompt, func(chunk string) {
		_, _ = fmt.Fprint(out, chunk)
	})
	_, _ = fmt.Fprintln(out)
	return noModelHint(err)
}

func noModelHint(err error) error {
	if errors.Is(err, config.ErrNoModel) {
		return fmt.Errorf("%w\n\nSet one with --model, DESKR_MODEL or 'deskr setup --model <name>'", err)
	}
	return err
}
