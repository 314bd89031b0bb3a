// Package release compares the recipe version declared on several branches.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmaksimovic94/mm-test-release/internal/common/git"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
)

var (
	ErrNoBranches   = errors.New("no branches to compare")
	ErrDetachedHead = errors.New("cannot compare from a detached HEAD")
	ErrRestore      = errors.New("failed to restore original branch")
)

// BranchVersion is the version found on one branch, or why none was found
type BranchVersion struct {
	Branch  string
	Version string
	Err     error
}

// Comparison is the outcome of comparing branches
type Comparison struct {
	Original string
	Results  []BranchVersion
}

// Match reports whether every branch was read and all versions are equal
func (c *Comparison) Match() bool {
	if len(c.Results) == 0 {
		return false
	}
	for _, r := range c.Results {
		if r.Err != nil || r.Version != c.Results[0].Version {
			return false
		}
	}
	return true
}

// Failed returns the branches that could not be read
func (c *Comparison) Failed() []BranchVersion {
	var out []BranchVersion
	for _, r := range c.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Comparer checks out branches one at a time and inspects the recipe on each
type Comparer struct {
	git          git.GitExecutor
	inspector    conan.Inspector
	remote       string
	manifestPath string
}

// NewComparer creates a Comparer
func NewComparer(g git.GitExecutor, inspector conan.Inspector, remote, manifestPath string) *Comparer {
	return &Comparer{
		git:          g,
		inspector:    inspector,
		remote:       remote,
		manifestPath: manifestPath,
	}
}

// Compare reads the recipe version on each branch and then checks the
// original branch out again. A dirty working tree or a detached HEAD is
// refused before anything is checked out.
func (c *Comparer) Compare(ctx context.Context, branches []string) (result *Comparison, err error) {
	if len(branches) == 0 {
		return nil, ErrNoBranches
	}

	clean, err := c.git.IsClean(ctx)
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, git.ErrDirtyWorkdir
	}

	original, err := c.git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if original == "HEAD" {
		return nil, ErrDetachedHead
	}

	result = &Comparison{Original: original}
	defer func() {
		// Restore even when ctx is cancelled
		if restoreErr := c.git.Checkout(context.WithoutCancel(ctx), original); restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("%w %s: %w", ErrRestore, original, restoreErr))
		}
	}()

	for _, branch := range branches {
		version, branchErr := c.versionOn(ctx, branch)
		if branchErr != nil {
			logger.Error("Failed to read version on %s: %v", branch, branchErr)
		} else {
			logger.Debug("Version on %s: %s", branch, version)
		}
		result.Results = append(result.Results, BranchVersion{Branch: branch, Version: version, Err: branchErr})
	}
	return result, nil
}

func (c *Comparer) versionOn(ctx context.Context, branch string) (string, error) {
	if err := c.git.Fetch(ctx, c.remote, branch); err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	if err := c.git.Checkout(ctx, branch); err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	return c.inspector.ProjectVersion(ctx, c.manifestPath)
}
