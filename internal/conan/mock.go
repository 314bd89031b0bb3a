package conan

import (
	"context"
	"sync"
)

// MockIndex implements Index for testing.
// Catalog answers by package name unless VersionsFunc is set; Errors makes
// the lookup for a package fail.
type MockIndex struct {
	VersionsFunc func(ctx context.Context, q Query) ([]string, error)
	Catalog      map[string][]string
	Errors       map[string]error

	mu      sync.Mutex
	queries []Query
}

// NewMockIndex creates a MockIndex answering from catalog
func NewMockIndex(catalog map[string][]string) *MockIndex {
	return &MockIndex{
		Catalog: catalog,
		Errors:  make(map[string]error),
	}
}

// Versions records q and answers from VersionsFunc, Errors or Catalog
func (m *MockIndex) Versions(ctx context.Context, q Query) ([]string, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.VersionsFunc != nil {
		return m.VersionsFunc(ctx, q)
	}
	if err, ok := m.Errors[q.Package]; ok {
		return nil, err
	}
	return m.Catalog[q.Package], nil
}

// Queries returns every query received so far
func (m *MockIndex) Queries() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Query, len(m.queries))
	copy(out, m.queries)
	return out
}

// MockGraphReader implements GraphReader for testing.
// Self-exclusion is applied to Deps the same way the CLI reader does it.
type MockGraphReader struct {
	Deps []Dependency
	Err  error
}

// Resolve returns Deps minus self, or Err
func (m *MockGraphReader) Resolve(ctx context.Context, manifestPath, self string) ([]Dependency, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var deps []Dependency
	for _, d := range m.Deps {
		if d.Name() != self {
			deps = append(deps, d)
		}
	}
	return deps, nil
}

// MockInspector implements Inspector for testing
type MockInspector struct {
	ProjectVersionFunc func(ctx context.Context, manifestPath string) (string, error)
}

// ProjectVersion delegates to ProjectVersionFunc
func (m *MockInspector) ProjectVersion(ctx context.Context, manifestPath string) (string, error) {
	if m.ProjectVersionFunc != nil {
		return m.ProjectVersionFunc(ctx, manifestPath)
	}
	return "", ErrVersionUnknown
}

var (
	_ Index       = (*MockIndex)(nil)
	_ GraphReader = (*MockGraphReader)(nil)
	_ Inspector   = (*MockInspector)(nil)
)
