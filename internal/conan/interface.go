// Package conan talks to the Conan tool and to Conan package indexes.
//
// Three query boundaries are exposed, each behind an interface so the
// synchronization engine can be tested without a live remote:
//   - Index lists the published versions of a package
//   - GraphReader returns the resolved requirements of a recipe
//   - Inspector returns a recipe's own declared version
package conan

import (
	"context"
	"errors"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
)

var (
	ErrIndexUnavailable = errors.New("package index unavailable")
	ErrMalformedOutput  = errors.New("malformed output")
	ErrGraphUnavailable = errors.New("dependency graph unavailable")
	ErrVersionUnknown   = errors.New("recipe version unknown")
)

// Query describes one index lookup
type Query struct {
	Package   string // e.g., "fmt"
	Qualifier string // "user/channel", empty for unqualified references
	Remote    string // overrides the backend's default remote when set
}

// Pattern returns the search pattern, e.g. "fmt/*" or "fmt/*@mili/integration".
// The placeholder qualifier "_/_" searches unqualified references.
func (q Query) Pattern() string {
	p := q.Package + "/*"
	if qual := conanref.NormalizeQualifier(q.Qualifier); qual != "" {
		p += "@" + qual
	}
	return p
}

// Key identifies the lookup for memoization
func (q Query) Key() string {
	return q.Remote + "|" + q.Pattern()
}

// Index lists the versions published for a package.
// An empty result with a nil error means the package is not published;
// an error means the index could not be queried.
type Index interface {
	Versions(ctx context.Context, q Query) ([]string, error)
}

// Dependency is one node of the resolved requirement graph
type Dependency struct {
	Ref     *conanref.Ref
	Context manifest.Context
}

// Name returns the package name of the node
func (d Dependency) Name() string {
	return d.Ref.Name
}

// GraphReader resolves a recipe into its requirement graph.
// The node for self (the recipe's own package) is never returned.
type GraphReader interface {
	Resolve(ctx context.Context, manifestPath, self string) ([]Dependency, error)
}

// Inspector reads a recipe's own declared version
type Inspector interface {
	ProjectVersion(ctx context.Context, manifestPath string) (string, error)
}

// acceptsQualifier reports whether a published reference's qualifier
// satisfies a query. Both sides are normalized, so "" and "_/_" are the
// same unqualified reference; qualified queries accept only the same qualifier.
func acceptsQualifier(q Query, ref *conanref.Ref) bool {
	return ref.Qualifier() == conanref.NormalizeQualifier(q.Qualifier)
}

// appendUnique appends v to list unless already present
func appendUnique(list []string, seen map[string]bool, v string) []string {
	if seen[v] {
		return list
	}
	seen[v] = true
	return append(list, v)
}
