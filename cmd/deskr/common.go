package main

import (
	"github.com/mark3labs/deskr/internal/app"
	"github.com/mark3labs/deskr/internal/config"
	"github.com/mark3labs/deskr/internal/notify"
	"github.com/spf13/cobra"
)

// loadConfig reads the layered config and applies any persistent flags the
// user set, which take precedence over everything else.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("desktop") {
		cfg.Desktop = rootFlags.desktop
	}
	if flags.Changed("model") {
		cfg.Model = rootFlags.model
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = rootFlags.dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootFlags.logLevel
	}
	return cfg, nil
}

// openApp loads config and opens the application with n for consent and alerts.
func openApp(cmd *cobra.Command, n notify.Notifier, watch bool) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), app.Options{
		Config:   cfg,
		Notifier: n,
		Version:  version,
		Watch:    watch,
	})
}
