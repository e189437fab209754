// Package vcs backs up and restores the desktop through version control. The
// repository is the parent directory of the desktop root.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/deskr/internal/config"
	"github.com/mark3labs/deskr/internal/logger"
)

// ErrNoParent is returned when the desktop root has no parent directory to run in.
var ErrNoParent = errors.New("desktop root has no parent directory")

var log = logger.Named("vcs")

// Runner restores the working tree to its last commit and records new
// backups. Both steps of each operation must succeed.
type Runner interface {
	Restore(ctx context.Context) error
	Backup(ctx context.Context) error
}

// ParentDir returns the directory the version-control commands run in.
func ParentDir(root string) (string, error) {
	clean := filepath.Clean(root)
	parent := filepath.Dir(clean)
	if parent == clean {
		return "", ErrNoParent
	}
	return parent, nil
}

// New builds the Runner selected by cfg.Backend for the given desktop root.
func New(cfg config.VCSConfig, root string) (Runner, error) {
	dir, err := ParentDir(root)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", "shell":
		return &Shell{
			Dir:             dir,
			RestoreCommands: cfg.RestoreCommands,
			BackupCommands:  cfg.BackupCommands,
		}, nil
	case "gogit":
		return &GoGit{Dir: dir, AuthorName: cfg.AuthorName, AuthorEmail: cfg.AuthorEmail}, nil
	default:
		return nil, fmt.Errorf("unknown vcs backend %q", cfg.Backend)
	}
}
