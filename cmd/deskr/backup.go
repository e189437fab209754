package main

import (
	"github.com/mark3labs/deskr/internal/notify"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Commit the current desktop to version control",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, notify.NewTerminal(), false)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		return a.Desktop.Backup(cmd.Context())
	},
}
