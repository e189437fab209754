package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/deskr/internal/toolserver"
	"github.com/mark3labs/deskr/internal/tui/theme"
	"github.com/spf13/cobra"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	defer func() { _ = logger.Close() }()
	toolserver.Version = version

	err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
	if err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deskr",
	Short: "Chat with an assistant that tidies your desktop",
	RunE:  runChat,
}

var rootFlags struct {
	desktop  string
	model    string
	dataDir  string
	logLevel string
}

// renderLogo colours the name with the theme gradient.
func renderLogo() string {
	t := theme.Current()
	return theme.ApplyGradient("d e s k r", t.Primary, t.Secondary)
}

func init() {
	rootCmd.Long = renderLogo() + `

deskr is a chat assistant for the files on your desktop. It can list, count,
preview and summarize files, propose a folder structure and move things into
it. Every change asks for your approval first, and the desktop can be backed
up and restored through git.`

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.desktop, "desktop", "d", "", "Desktop directory to organize (default: ~/Desktop)")
	pf.StringVarP(&rootFlags.model, "model", "m", "", "Chat model name")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Directory for events, UI state and transcripts")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
}
