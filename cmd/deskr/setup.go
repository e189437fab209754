package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/deskr/internal/config"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	project bool
	force   bool
	model   string
	apiBase string
	desktop string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a deskr configuration file",
	Long: `Create a deskr configuration file with sensible defaults.

By default, creates a global config at ~/.config/deskr/deskr.yml.
Use --project to create ./deskr.yml in the current directory instead.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.model, "model", "", "Chat model name")
	setupCmd.Flags().StringVar(&setupFlags.apiBase, "api-base", "", "OpenAI-compatible API base URL")
	setupCmd.Flags().StringVar(&setupFlags.desktop, "desktop", "", "Desktop directory")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}
	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := config.Default()
	if setupFlags.model != "" {
		cfg.Model = setupFlags.model
	}
	if setupFlags.apiBase != "" {
		cfg.APIBase = setupFlags.apiBase
	}
	if setupFlags.desktop != "" {
		cfg.Desktop = setupFlags.desktop
	}

	write := config.WriteGlobal
	if setupFlags.project {
		write = config.WriteProject
	}
	if err := write(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Config written to: %s\n\n", targetPath)
	if cfg.Model == "" {
		_, _ = fmt.Fprintln(out, "Set a model with 'deskr config edit' before chatting.")
		return nil
	}
	_, _ = fmt.Fprintln(out, "Run 'deskr' to get started.")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
