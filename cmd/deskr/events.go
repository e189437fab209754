package main

import (
	"fmt"

	"github.com/mark3labs/deskr/internal/notify"
	"github.com/spf13/cobra"
)

var eventsFlags struct {
	limit int
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent tool usage, consent and error events",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsFlags.limit, "limit", "l", 20, "Number of events to show (0 for all)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.NewTerminal(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	events, err := a.Bus.History(cmd.Context(), eventsFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(events) == 0 {
		_, _ = fmt.Fprintln(out, "No events recorded yet.")
		return nil
	}
	for _, ev := range events {
		_, _ = fmt.Fprintf(out, "%s  %-8s %s\n", ev.Timestamp.Local().Format("2006-01-02 15:04:05"), ev.Kind, ev.Payload)
	}
	return nil
}
