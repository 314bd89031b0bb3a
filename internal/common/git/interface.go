package git

import "context"

// GitExecutor defines the interface for git operations.
// This interface allows for mocking git operations in tests.
type GitExecutor interface {
	// Fetch fetches a single branch from a remote with a shallow history
	Fetch(ctx context.Context, remote, branch string) error

	// Checkout switches the working tree to the given branch or ref
	Checkout(ctx context.Context, ref string) error

	// CurrentBranch returns the checked-out branch name ("HEAD" when detached)
	CurrentBranch(ctx context.Context) (string, error)

	// IsClean reports whether tracked files have no uncommitted changes
	IsClean(ctx context.Context) (bool, error)

	// WorkDir returns the working directory of the git repository
	WorkDir() string
}
