package vcs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGit talks to the repository in Dir directly, no git binary needed.
type GoGit struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

func (g *GoGit) worktree() (*git.Worktree, error) {
	repo, err := git.PlainOpenWithOptions(g.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", g.Dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	return wt, nil
}

// Restore is `git reset --hard` followed by `git clean -f -d`.
func (g *GoGit) Restore(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := g.worktree()
	if err != nil {
		return err
	}

	if err := wt.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset --hard: %w", err)
	}
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("clean -f -d: %w", err)
	}
	return nil
}

// Backup is `git add .` followed by `git commit -m 'backup'`.
func (g *GoGit) Backup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := g.worktree()
	if err != nil {
		return err
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	name, email := g.AuthorName, g.AuthorEmail
	if name == "" {
		name = "deskr"
	}
	if email == "" {
		email = "deskr@localhost"
	}

	hash, err := wt.Commit("backup", &git.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Info("backup committed %s", hash.String()[:7])
	return nil
}
