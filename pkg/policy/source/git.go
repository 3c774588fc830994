package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"tessera-hq/warden/pkg/policy"
)

// GitSource clones a repository of policy bundles and pulls on an interval.
// The checkout directory is reused across restarts when it already contains
// a clone of the same repository.
type GitSource struct {
	url          string
	branch       string
	checkoutPath string
	pollInterval time.Duration
	logger       *slog.Logger

	files *FileSource
}

// GitConfig configures a git policy source.
type GitConfig struct {
	// URL is the clone URL of the policy repository.
	URL string

	// Branch is the branch to track. Default: main.
	Branch string

	// CheckoutPath is the local clone directory.
	CheckoutPath string

	// PollInterval is how often to pull. Default: 60s.
	PollInterval time.Duration

	// BundleDir is the subdirectory holding policy bundles; empty means
	// the repository root.
	BundleDir string
}

// NewGitSource creates a git policy source. The repository is not touched
// until LoadPolicies is called.
func NewGitSource(cfg GitConfig, logger *slog.Logger) (*GitSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("git source requires a repository URL")
	}
	if cfg.CheckoutPath == "" {
		return nil, fmt.Errorf("git source requires a checkout path")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "policy.source.git")

	bundlePath := cfg.CheckoutPath
	if cfg.BundleDir != "" {
		bundlePath = cfg.CheckoutPath + "/" + cfg.BundleDir
	}

	return &GitSource{
		url:          cfg.URL,
		branch:       cfg.Branch,
		checkoutPath: cfg.CheckoutPath,
		pollInterval: cfg.PollInterval,
		logger:       logger,
		files:        NewFileSource(bundlePath, logger),
	}, nil
}

// LoadPolicies syncs the clone and loads every bundle in it.
func (s *GitSource) LoadPolicies(ctx context.Context) ([]*policy.Policy, error) {
	if err := s.sync(ctx); err != nil {
		return nil, err
	}
	return s.files.LoadPolicies(ctx)
}

// Watch pulls on the poll interval and emits an event whenever the remote
// moved.
func (s *GitSource) Watch(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event)
	go func() {
		defer close(events)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, err := s.pull(ctx)
				if err != nil {
					s.logger.Warn("policy repository pull failed", "error", err)
					select {
					case events <- Event{Err: err}:
					case <-ctx.Done():
						return
					}
					continue
				}
				if changed {
					select {
					case events <- Event{Path: s.checkoutPath}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return events, nil
}

// sync clones the repository if the checkout does not exist yet, otherwise
// pulls the tracked branch.
func (s *GitSource) sync(ctx context.Context) error {
	_, err := git.PlainOpen(s.checkoutPath)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		s.logger.Info("cloning policy repository", "url", s.url, "branch", s.branch)
		_, err = git.PlainCloneContext(ctx, s.checkoutPath, false, &git.CloneOptions{
			URL:           s.url,
			ReferenceName: plumbing.NewBranchReferenceName(s.branch),
			SingleBranch:  true,
			Depth:         1,
		})
		if err != nil {
			return fmt.Errorf("failed to clone policy repository: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open policy checkout: %w", err)
	}

	_, err = s.pull(ctx)
	return err
}

// pull fast-forwards the checkout and reports whether anything changed.
func (s *GitSource) pull(ctx context.Context) (bool, error) {
	repo, err := git.PlainOpen(s.checkoutPath)
	if err != nil {
		return false, fmt.Errorf("failed to open policy checkout: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		ReferenceName: plumbing.NewBranchReferenceName(s.branch),
		SingleBranch:  true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to pull policy repository: %w", err)
	}

	head, err := repo.Head()
	if err == nil {
		s.logger.Info("policy repository updated", "commit", head.Hash().String())
	}
	return true, nil
}
