package git

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmaksimovic94/mm-test-release/internal/common/runner"
)

var (
	ErrGitCommand   = errors.New("git command failed")
	ErrInvalidRef   = errors.New("invalid branch or ref name")
	ErrDirtyWorkdir = errors.New("working tree has uncommitted changes")
)

// GitRunner executes git commands in a specific working directory
type GitRunner struct {
	workDir string
	exec    runner.Executor
}

// NewGitRunner creates a new GitRunner for the specified working directory
func NewGitRunner(workDir string, timeout time.Duration) *GitRunner {
	return &GitRunner{
		workDir: workDir,
		exec:    runner.NewCommandRunner("git", workDir, timeout),
	}
}

// NewGitRunnerWithExecutor creates a GitRunner on top of a custom executor
func NewGitRunnerWithExecutor(workDir string, exec runner.Executor) *GitRunner {
	return &GitRunner{
		workDir: workDir,
		exec:    exec,
	}
}

// WorkDir returns the working directory of the GitRunner
func (g *GitRunner) WorkDir() string {
	return g.workDir
}

// runCommand executes a git command and returns its stdout
func (g *GitRunner) runCommand(ctx context.Context, args ...string) (string, error) {
	result, err := g.exec.Run(ctx, args...)
	if err != nil {
		return "", errors.Join(ErrGitCommand, err)
	}
	return result.Stdout, nil
}

// validateRef rejects names git would interpret as options or ranges
func validateRef(ref string) error {
	if ref == "" || strings.HasPrefix(ref, "-") || strings.ContainsAny(ref, " \t\n~^:?*[\\") || strings.Contains(ref, "..") {
		return ErrInvalidRef
	}
	return nil
}

// Fetch fetches a single branch from a remote with --depth=1
func (g *GitRunner) Fetch(ctx context.Context, remote, branch string) error {
	if err := validateRef(remote); err != nil {
		return err
	}
	if err := validateRef(branch); err != nil {
		return err
	}
	_, err := g.runCommand(ctx, "fetch", remote, branch, "--depth=1")
	return err
}

// Checkout switches the working tree to ref
func (g *GitRunner) Checkout(ctx context.Context, ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	_, err := g.runCommand(ctx, "checkout", ref)
	return err
}

// CurrentBranch returns the checked-out branch name
func (g *GitRunner) CurrentBranch(ctx context.Context) (string, error) {
	stdout, err := g.runCommand(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout), nil
}

// IsClean reports whether the working tree has no uncommitted changes
func (g *GitRunner) IsClean(ctx context.Context) (bool, error) {
	stdout, err := g.runCommand(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(stdout) == "", nil
}
