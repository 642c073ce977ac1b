// Package revision identifies the git checkout of the application under test.
package revision

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// ErrNotRepository is returned when dir is not inside a git worktree.
var ErrNotRepository = errors.New("not a git repository")

// Stamp returns the HEAD commit, the current branch and whether the worktree
// has uncommitted changes. Parent directories are searched for the repository.
func Stamp(dir string) (*harness.Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	rev := &harness.Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	} else if head.Name() == plumbing.HEAD {
		rev.Branch = "HEAD"
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}

// Short abbreviates a commit hash for display.
func Short(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
