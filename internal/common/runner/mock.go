package runner

import (
	"context"
	"sync"
)

// MockRunner implements Executor for testing.
// RunFunc controls the behavior; every call's arguments are recorded.
type MockRunner struct {
	RunFunc func(ctx context.Context, args ...string) (*Result, error)
	program string
	mu      sync.Mutex
	calls   [][]string
}

// NewMockRunner creates a new MockRunner reporting the given program name
func NewMockRunner(program string) *MockRunner {
	return &MockRunner{
		program: program,
	}
}

// Run records args and delegates to RunFunc
func (m *MockRunner) Run(ctx context.Context, args ...string) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), args...))
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, args...)
	}
	return &Result{}, nil
}

// Program returns the configured program name
func (m *MockRunner) Program() string {
	return m.program
}

// Calls returns the argument lists of every Run call so far
func (m *MockRunner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ensure MockRunner implements Executor interface
var _ Executor = (*MockRunner)(nil)
