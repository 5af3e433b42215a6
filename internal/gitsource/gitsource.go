// Package gitsource acquires the content document tree from a git repository
// when the configuration points at one. Marketing copy is often maintained in
// a separate repo from the site; the build clones or updates it into the
// content directory before synthesis.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/contentsync/internal/config"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Ensure makes cfg.Dir hold a checkout of cfg.RepoURL. A missing directory is
// cloned; an existing clone is pulled (fast-forward). When RepoURL is empty
// the local directory is used as-is.
func Ensure(ctx context.Context, cfg config.ContentConfig) error {
	if cfg.RepoURL == "" {
		return nil
	}

	if _, err := os.Stat(cfg.Dir); os.IsNotExist(err) {
		return clone(ctx, cfg)
	}

	repo, err := git.PlainOpen(cfg.Dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			// Directory exists but is not a clone; leave it alone rather than
			// clobbering hand-placed content.
			slog.Warn("Content directory exists but is not a git checkout, using as-is", logfields.Path(cfg.Dir))
			return nil
		}
		return fmt.Errorf("open content repository: %w", err)
	}
	return update(ctx, repo, cfg)
}

func clone(ctx context.Context, cfg config.ContentConfig) error {
	slog.Info("Cloning content repository", logfields.URL(cfg.RepoURL), logfields.Path(cfg.Dir))

	opts := &git.CloneOptions{URL: cfg.RepoURL}
	if cfg.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + cfg.Branch)
		opts.SingleBranch = true
	}
	if cfg.ShallowDepth > 0 {
		opts.Depth = cfg.ShallowDepth
	}

	if _, err := git.PlainCloneContext(ctx, cfg.Dir, false, opts); err != nil {
		return fmt.Errorf("clone content repository %s: %w", cfg.RepoURL, err)
	}
	return nil
}

func update(ctx context.Context, repo *git.Repository, cfg config.ContentConfig) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("content repository worktree: %w", err)
	}

	pullOpts := &git.PullOptions{RemoteName: "origin"}
	if cfg.Branch != "" {
		pullOpts.ReferenceName = plumbing.ReferenceName("refs/heads/" + cfg.Branch)
		pullOpts.SingleBranch = true
	}
	if cfg.ShallowDepth > 0 {
		pullOpts.Depth = cfg.ShallowDepth
	}

	err = wt.PullContext(ctx, pullOpts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		slog.Debug("Content repository already up to date", logfields.Path(cfg.Dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("update content repository: %w", err)
	}
	slog.Info("Content repository updated", logfields.Path(cfg.Dir))
	return nil
}
