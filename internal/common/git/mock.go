package git

import "context"

// MockGitRunner implements GitExecutor for testing.
// Each method can be configured with a custom function to control behavior.
type MockGitRunner struct {
	FetchFunc         func(remote, branch string) error
	CheckoutFunc      func(ref string) error
	CurrentBranchFunc func() (string, error)
	IsCleanFunc       func() (bool, error)
	workDir           string
}

// NewMockGitRunner creates a new MockGitRunner with the specified working directory
func NewMockGitRunner(workDir string) *MockGitRunner {
	return &MockGitRunner{
		workDir: workDir,
	}
}

// Fetch fetches a branch from a remote
func (m *MockGitRunner) Fetch(ctx context.Context, remote, branch string) error {
	if m.FetchFunc != nil {
		return m.FetchFunc(remote, branch)
	}
	return nil
}

// Checkout switches the working tree to ref
func (m *MockGitRunner) Checkout(ctx context.Context, ref string) error {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ref)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name
func (m *MockGitRunner) CurrentBranch(ctx context.Context) (string, error) {
	if m.CurrentBranchFunc != nil {
		return m.CurrentBranchFunc()
	}
	return "main", nil
}

// IsClean reports whether the working tree is clean
func (m *MockGitRunner) IsClean(ctx context.Context) (bool, error) {
	if m.IsCleanFunc != nil {
		return m.IsCleanFunc()
	}
	return true, nil
}

// WorkDir returns the working directory of the git repository
func (m *MockGitRunner) WorkDir() string {
	return m.workDir
}

// Ensure MockGitRunner implements GitExecutor interface
var _ GitExecutor = (*MockGitRunner)(nil)

// Ensure GitRunner implements GitExecutor interface
var _ GitExecutor = (*GitRunner)(nil)
