package depsync

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
)

// defaultCatalogSize bounds the number of distinct queries kept for one run
const defaultCatalogSize = 512

// catalogEntry is a memoized index answer, failures included
type catalogEntry struct {
	versions []string
	err      error
}

// Catalog is the set of published versions known for this run.
// Each distinct query reaches the index at most once; nothing outlives the
// Catalog value.
type Catalog struct {
	index   conan.Index
	entries *lru.Cache[string, catalogEntry]
	lookups int
}

// NewCatalog creates an empty catalog over index
func NewCatalog(index conan.Index) *Catalog {
	// lru.New only fails for a non-positive size
	entries, _ := lru.New[string, catalogEntry](defaultCatalogSize)
	return &Catalog{
		index:   index,
		entries: entries,
	}
}

// Versions returns every published version matching q
func (c *Catalog) Versions(ctx context.Context, q conan.Query) ([]string, error) {
	if e, ok := c.entries.Get(q.Key()); ok {
		return e.versions, e.err
	}

	c.lookups++
	versions, err := c.index.Versions(ctx, q)
	c.entries.Add(q.Key(), catalogEntry{versions: versions, err: err})
	return versions, err
}

// Candidates returns the numeric versions matching q, the only ones
// eligible for "latest" selection. Non-numeric entries (pre-releases,
// date-based recipe versions) are dropped here.
func (c *Catalog) Candidates(ctx context.Context, q conan.Query) ([]string, error) {
	versions, err := c.Versions(ctx, q)
	if err != nil {
		return nil, err
	}
	return conanref.FilterNumeric(versions), nil
}

// Lookups returns how many queries actually reached the index
func (c *Catalog) Lookups() int {
	return c.lookups
}
