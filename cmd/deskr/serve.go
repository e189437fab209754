package main

import (
	"fmt"

	"github.com/mark3labs/deskr/internal/notify"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	addr string
	yes  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the desktop tools over MCP",
	Long: `Serve the desktop tool catalogue over MCP streamable HTTP at /mcp, with
Prometheus metrics at /metrics.

Mutating tools ask for consent on this terminal unless --yes is given.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default: serve.addr from config)")
	serveCmd.Flags().BoolVarP(&serveFlags.yes, "yes", "y", false, "Approve every consent prompt")
}

func runServe(cmd *cobra.Command, args []string) error {
	var n notify.Notifier = notify.NewTerminal()
	if serveFlags.yes {
		n = notify.AutoApprove(true)
	}

	a, err := openApp(cmd, n, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	addr := a.Config().Serve.Addr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}

	out := cmd.OutOrStdout()
	return a.Serve(cmd.Context(), addr, func(url string) {
		_, _ = fmt.Fprintf(out, "Serving %d tools at %s\n", len(a.Tools.Names()), url)
		_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop.")
	})
}
