// Package depsync decides which dependency requirements of a recipe are
// behind the package index and produces the edits that bring them current.
package depsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
)

var (
	ErrInvalidStrategy = errors.New("invalid strategy: must be 'scan' or 'graph'")
	ErrNoGraphReader   = errors.New("graph strategy requires a graph reader")
)

// Strategy selects how candidate requirements are discovered
type Strategy string

const (
	// StrategyScan takes every requirement token found in the manifest text
	StrategyScan Strategy = "scan"
	// StrategyGraph takes the manifest tokens of packages present in the
	// resolved dependency graph, classified by the graph's context
	StrategyGraph Strategy = "graph"
)

// ParseStrategy converts a string to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyScan, StrategyGraph:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidStrategy, s)
}

// Skip reason texts
const (
	ReasonUpToDate    = "up to date"
	ReasonIgnored     = "ignored by policy"
	ReasonNoVersion   = "no numeric version published"
	ReasonNoDowngrade = "declared version is newer than the index"
)

// Skip records a candidate that produced no edit
type Skip struct {
	Package   string
	Qualifier string // looked-up "user/channel", "" for unqualified
	Version   string // declared version component
	Reason    string
}

// Failure records a candidate whose index lookup failed
type Failure struct {
	Package   string
	Qualifier string
	Err       error
}

// Plan is the outcome of one planning run
type Plan struct {
	Edits    []manifest.Edit
	Skipped  []Skip
	Failures []Failure
	// Attempted counts requirement families whose versions were looked up
	Attempted int
}

// Empty reports whether the plan has no edits
func (p *Plan) Empty() bool {
	return len(p.Edits) == 0
}

// AllFailed reports whether every attempted lookup failed
func (p *Plan) AllFailed() bool {
	return p.Attempted > 0 && len(p.Failures) == p.Attempted
}

// Options configures an Engine
type Options struct {
	Strategy     Strategy
	ManifestPath string // passed to the graph reader
	SelfName     string // own package name; read from the manifest when empty
	Remote       string // default remote for queries; the index default when empty
	Policy       *Policy
}

// Engine plans dependency edits for a manifest
type Engine struct {
	catalog *Catalog
	graph   conan.GraphReader
	opts    Options
}

// NewEngine creates an engine. graph may be nil for StrategyScan.
func NewEngine(index conan.Index, graph conan.GraphReader, opts Options) *Engine {
	if opts.Strategy == "" {
		opts.Strategy = StrategyScan
	}
	return &Engine{
		catalog: NewCatalog(index),
		graph:   graph,
		opts:    opts,
	}
}

// Lookups returns how many distinct queries reached the index so far
func (e *Engine) Lookups() int {
	return e.catalog.Lookups()
}

// Plan decides the edits for text. Lookup failures are recorded in the plan
// and never stop other packages; an unreadable graph fails the whole plan.
func (e *Engine) Plan(ctx context.Context, text string) (*Plan, error) {
	self := e.opts.SelfName
	if self == "" {
		self, _ = manifest.ProjectName(text)
	}

	candidates, err := e.candidates(ctx, text, self)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, tok := range candidates {
		e.decide(ctx, plan, tok)
	}
	return plan, nil
}

// candidates returns the first token of every requirement family (package
// plus normalized qualifier) to synchronize, in manifest order. Later tokens
// of the same family are rewritten by the same edit.
func (e *Engine) candidates(ctx context.Context, text, self string) ([]manifest.Token, error) {
	var resolved map[string]manifest.Context
	switch e.opts.Strategy {
	case StrategyScan:
	case StrategyGraph:
		if e.graph == nil {
			return nil, ErrNoGraphReader
		}
		deps, err := e.graph.Resolve(ctx, e.opts.ManifestPath, self)
		if err != nil {
			return nil, err
		}
		resolved = make(map[string]manifest.Context, len(deps))
		for _, d := range deps {
			if _, seen := resolved[d.Name()]; !seen {
				resolved[d.Name()] = d.Context
			}
		}
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidStrategy, e.opts.Strategy)
	}

	var out []manifest.Token
	declared := make(map[string]bool)
	seen := make(map[string]bool)
	for _, tok := range manifest.Scan(text) {
		if tok.Package == self || seen[tok.Key()] {
			continue
		}
		if resolved != nil {
			c, ok := resolved[tok.Package]
			if !ok {
				logger.Debug("%s is declared but not in the resolved graph, skipping", tok.Package)
				continue
			}
			tok.Context = c
		}
		seen[tok.Key()] = true
		declared[tok.Package] = true
		out = append(out, tok)
	}

	for name := range resolved {
		if !declared[name] {
			logger.Debug("%s is a transitive requirement, not declared in the manifest", name)
		}
	}
	return out, nil
}

// decide looks up one package and records an edit, a skip or a failure
func (e *Engine) decide(ctx context.Context, plan *Plan, tok manifest.Token) {
	channel := tok.Channel()
	skip := func(reason string) {
		plan.Skipped = append(plan.Skipped, Skip{Package: tok.Package, Qualifier: channel, Version: tok.Version, Reason: reason})
	}

	pol := e.opts.Policy.For(tok.Package)
	if pol.Ignore {
		skip(ReasonIgnored)
		return
	}

	q := conan.Query{Package: tok.Package, Qualifier: channel, Remote: e.opts.Remote}
	if pol.Remote != "" {
		q.Remote = pol.Remote
	}

	plan.Attempted++
	versions, err := e.catalog.Candidates(ctx, q)
	if err != nil {
		logger.Debug("Lookup for %s failed: %v", q.Pattern(), err)
		plan.Failures = append(plan.Failures, Failure{Package: tok.Package, Qualifier: channel, Err: err})
		return
	}

	if pol.HoldMajor {
		versions = sameMajor(versions, tok.Version)
	}

	latest, ok := conanref.Latest(versions)
	if !ok {
		skip(ReasonNoVersion)
		return
	}
	if latest == tok.Version {
		skip(ReasonUpToDate)
		return
	}
	if e.opts.Policy != nil && e.opts.Policy.NoDowngrade && conanref.CompareVersions(latest, tok.Version) < 0 {
		skip(ReasonNoDowngrade)
		return
	}

	logger.Debug("%s: %s is behind %s", tok.Package, tok.Version, latest)
	plan.Edits = append(plan.Edits, manifest.Edit{
		Package:    tok.Package,
		Qualifier:  channel,
		OldVersion: tok.Version,
		NewVersion: latest,
		OldSpec:    tok.Spec,
		NewSpec:    tok.Format(latest),
		Context:    tok.Context,
	})
}

// sameMajor keeps the versions whose major equals declared's
func sameMajor(versions []string, declared string) []string {
	major := conanref.Major(declared)
	var out []string
	for _, v := range versions {
		if conanref.CompareVersions(conanref.Major(v), major) == 0 {
			out = append(out, v)
		}
	}
	return out
}
