package conan

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/runner"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
)

// graphNode holds the node fields the reader relies on
type graphNode struct {
	Name    string `json:"name"`
	Ref     string `json:"ref"`
	Context string `json:"context"`
}

// graphDocument covers both {"graph": {"nodes": ...}} and {"nodes": ...}
type graphDocument struct {
	Graph *struct {
		Nodes json.RawMessage `json:"nodes"`
	} `json:"graph"`
	Nodes json.RawMessage `json:"nodes"`
}

// CLIGraphReader runs "conan graph info" and parses its JSON output
type CLIGraphReader struct {
	exec runner.Executor
}

// NewGraphReader creates a graph reader using the given conan executor
func NewGraphReader(exec runner.Executor) *CLIGraphReader {
	return &CLIGraphReader{exec: exec}
}

// Resolve returns every resolved requirement of the recipe except self
func (g *CLIGraphReader) Resolve(ctx context.Context, manifestPath, self string) ([]Dependency, error) {
	result, err := g.exec.Run(ctx, "graph", "info", manifestPath, "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGraphUnavailable, err)
	}

	deps, err := ParseGraph([]byte(result.Stdout), self)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGraphUnavailable, err)
	}
	logger.Debug("Graph resolved %d requirement(s) for %s", len(deps), manifestPath)
	return deps, nil
}

// ParseGraph extracts requirements from graph JSON.
// Nodes without a parsable ref (the root "conanfile" node) are skipped and
// nodes named self are excluded. Any structural problem fails the whole
// parse: a partial graph is not a trustworthy requirement set.
func ParseGraph(data []byte, self string) ([]Dependency, error) {
	var doc graphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: graph json: %v", ErrMalformedOutput, err)
	}

	raw := doc.Nodes
	if doc.Graph != nil && len(doc.Graph.Nodes) > 0 {
		raw = doc.Graph.Nodes
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: graph json has no nodes", ErrMalformedOutput)
	}

	nodes, err := decodeNodes(raw)
	if err != nil {
		return nil, err
	}

	var deps []Dependency
	for _, node := range nodes {
		ref, err := conanref.Parse(node.Ref)
		if err != nil {
			continue
		}
		// The revision is not part of the version being synchronized
		ref.Revision = ""

		name := node.Name
		if name == "" {
			name = ref.Name
		}
		if self != "" && (name == self || ref.Name == self) {
			continue
		}

		ctx := manifest.ContextDirect
		if strings.Contains(node.Context, "build") {
			ctx = manifest.ContextBuild
		}
		deps = append(deps, Dependency{Ref: ref, Context: ctx})
	}
	return deps, nil
}

// decodeNodes accepts nodes as an id-keyed object or as a list.
// Object nodes are returned in numeric id order.
func decodeNodes(raw json.RawMessage) ([]graphNode, error) {
	var byID map[string]graphNode
	if err := json.Unmarshal(raw, &byID); err == nil {
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, errA := strconv.Atoi(ids[i])
			b, errB := strconv.Atoi(ids[j])
			if errA == nil && errB == nil {
				return a < b
			}
			return ids[i] < ids[j]
		})

		nodes := make([]graphNode, 0, len(ids))
		for _, id := range ids {
			nodes = append(nodes, byID[id])
		}
		return nodes, nil
	}

	var list []graphNode
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: graph nodes: %v", ErrMalformedOutput, err)
	}
	return list, nil
}

// Ensure CLIGraphReader implements GraphReader interface
var _ GraphReader = (*CLIGraphReader)(nil)
