package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/editor"
	"github.com/mark3labs/deskr/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, p := range []string{config.GlobalPath(), config.ProjectPath()} {
			state := "missing"
			if fileExists(p) {
				state = "found"
			}
			_, _ = fmt.Fprintf(out, "%s (%s)\n", p, state)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.APIKey != "" {
			cfg.APIKey = "********"
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configEditFlags struct {
	project bool
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GlobalPath()
		write := config.WriteGlobal
		if configEditFlags.project {
			path = config.ProjectPath()
			write = config.WriteProject
		}
		if !fileExists(path) {
			if err := write(config.Default()); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
		}

		c, err := editor.Command("deskr", path)
		if err != nil {
			return fmt.Errorf("finding editor: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("running editor: %w", err)
		}

		if _, err := config.Load(); err != nil {
			return fmt.Errorf("config no longer loads: %w", err)
		}
		return nil
	},
}

func init() {
	configEditCmd.Flags().BoolVarP(&configEditFlags.project, "project", "p", false, "Edit ./deskr.yml instead of the global file")
	configCmd.AddCommand(configPathCmd, configShowCmd, configEditCmd)
}
