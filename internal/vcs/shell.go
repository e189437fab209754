package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Shell runs configured command lines through the system shell in Dir.
type Shell struct {
	Dir             string
	RestoreCommands []string
	BackupCommands  []string
}

func (s *Shell) Restore(ctx context.Context) error {
	return s.runAll(ctx, s.RestoreCommands)
}

func (s *Shell) Backup(ctx context.Context) error {
	return s.runAll(ctx, s.BackupCommands)
}

// runAll stops at the first command that exits non-zero.
func (s *Shell) runAll(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return errors.New("no commands configured")
	}
	for _, command := range commands {
		if err := s.run(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) run(ctx context.Context, command string) error {
	log.Debug("running %q in %s", command, s.Dir)

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = s.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		log.Warn("%q failed: %v %s", command, err, msg)
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", command, err, msg)
		}
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}
