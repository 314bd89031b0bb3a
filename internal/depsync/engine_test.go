package depsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
)

const recipe = `from conan import ConanFile


class HelloWorldConan(ConanFile):
    name = "hello_world"
    version = "1.0.0"
    requires = "fmt/8.1.1", "spdlog/1.9.2"

    def requirements(self):
        self.requires("ambrosia/[^1.2.0]")
        self.requires("foo/1.0.0@acme/stable")

    def build_requirements(self):
        self.tool_requires("cmake/3.25.3")
`

func mustRef(t *testing.T, s string) *conanref.Ref {
	t.Helper()
	ref, err := conanref.Parse(s)
	require.NoError(t, err)
	return ref
}

func planAndApply(t *testing.T, engine *Engine, text string) (*Plan, string, bool) {
	t.Helper()
	plan, err := engine.Plan(context.Background(), text)
	require.NoError(t, err)
	out, modified := manifest.Apply(text, plan.Edits)
	return plan, out, modified
}

func TestPlanUpdatesOnlyOutdated(t *testing.T) {
	text := "requires = \"fmt/8.1.1\", \"spdlog/1.9.2\"\n"
	index := conan.NewMockIndex(map[string][]string{
		"fmt":    {"8.1.1", "9.0.0", "9.1.0"},
		"spdlog": {"1.8.0", "1.9.2"},
	})
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, modified := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 1)
	assert.Equal(t, "fmt", plan.Edits[0].Package)
	assert.Equal(t, "8.1.1", plan.Edits[0].OldVersion)
	assert.Equal(t, "9.1.0", plan.Edits[0].NewVersion)
	assert.True(t, modified)
	assert.Equal(t, "requires = \"fmt/9.1.0\", \"spdlog/1.9.2\"\n", out)

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, Skip{Package: "spdlog", Version: "1.9.2", Reason: ReasonUpToDate}, plan.Skipped[0])
}

func TestPlanPreservesDecoration(t *testing.T) {
	index := conan.NewMockIndex(map[string][]string{
		"fmt":      {"8.1.1"},
		"spdlog":   {"1.9.2"},
		"ambrosia": {"1.2.0", "1.4.0"},
		"cmake":    {"3.25.3"},
	})
	index.VersionsFunc = func(ctx context.Context, q conan.Query) ([]string, error) {
		if q.Package == "foo" {
			if q.Qualifier != "acme/stable" {
				return nil, errors.New("unexpected qualifier " + q.Qualifier)
			}
			return []string{"1.0.0", "1.2.0"}, nil
		}
		return index.Catalog[q.Package], nil
	}
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, modified := planAndApply(t, engine, recipe)
	require.True(t, modified)
	require.Len(t, plan.Edits, 2)
	assert.Equal(t, "[^1.4.0]", plan.Edits[0].NewSpec)
	assert.Equal(t, "1.2.0@acme/stable", plan.Edits[1].NewSpec)
	assert.Contains(t, out, `self.requires("ambrosia/[^1.4.0]")`)
	assert.Contains(t, out, `self.requires("foo/1.2.0@acme/stable")`)
	assert.NotContains(t, out, "ambrosia/1.4.0")
}

func TestPlanIsIdempotent(t *testing.T) {
	index := conan.NewMockIndex(map[string][]string{
		"fmt":      {"9.1.0"},
		"spdlog":   {"1.13.0"},
		"ambrosia": {"2.0.0"},
		"foo":      {},
		"cmake":    {"3.27.7"},
	})
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	first, out, modified := planAndApply(t, engine, recipe)
	require.True(t, modified)
	require.Len(t, first.Edits, 4)

	second, again, modified := planAndApply(t, engine, out)
	assert.Empty(t, second.Edits)
	assert.False(t, modified)
	assert.Equal(t, out, again)
}

func TestPlanNoOpIsByteIdentical(t *testing.T) {
	index := conan.NewMockIndex(map[string][]string{
		"fmt":      {"8.1.1"},
		"spdlog":   {"1.9.2"},
		"ambrosia": {"1.2.0"},
		"foo":      {"1.0.0"},
		"cmake":    {"3.25.3"},
	})
	index.VersionsFunc = func(ctx context.Context, q conan.Query) ([]string, error) {
		return index.Catalog[q.Package], nil
	}
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, modified := planAndApply(t, engine, recipe)
	assert.True(t, plan.Empty())
	assert.False(t, modified)
	assert.Equal(t, recipe, out)
}

func TestPlanFailSoftIsolation(t *testing.T) {
	text := "requires = \"alpha/1.0.0\", \"beta/1.0.0\"\n"
	index := conan.NewMockIndex(map[string][]string{"alpha": {"1.1.0"}})
	index.Errors["beta"] = conan.ErrIndexUnavailable
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, modified := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 1)
	assert.Equal(t, "alpha", plan.Edits[0].Package)
	require.Len(t, plan.Failures, 1)
	assert.Equal(t, "beta", plan.Failures[0].Package)
	assert.ErrorIs(t, plan.Failures[0].Err, conan.ErrIndexUnavailable)
	assert.False(t, plan.AllFailed())
	assert.True(t, modified)
	assert.Equal(t, "requires = \"alpha/1.1.0\", \"beta/1.0.0\"\n", out)
}

func TestPlanAllFailed(t *testing.T) {
	text := "requires = \"alpha/1.0.0\", \"beta/1.0.0\"\n"
	index := conan.NewMockIndex(nil)
	index.Errors["alpha"] = conan.ErrIndexUnavailable
	index.Errors["beta"] = conan.ErrIndexUnavailable
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, _, modified := planAndApply(t, engine, text)
	assert.False(t, modified)
	assert.True(t, plan.AllFailed())
	assert.Equal(t, 2, plan.Attempted)
}

func TestPlanNotFoundAndNonNumeric(t *testing.T) {
	text := "requires = \"gone/1.0.0\", \"dated/1.0.0\"\n"
	index := conan.NewMockIndex(map[string][]string{
		"dated": {"cci.20230101", "2.0.0-rc1"},
	})
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, _, modified := planAndApply(t, engine, text)
	assert.False(t, modified)
	assert.Empty(t, plan.Failures)
	require.Len(t, plan.Skipped, 2)
	assert.Equal(t, ReasonNoVersion, plan.Skipped[0].Reason)
	assert.Equal(t, ReasonNoVersion, plan.Skipped[1].Reason)
}

func TestPlanDedupesPackage(t *testing.T) {
	text := `requires = "fmt/8.1.1"
test_requires = "fmt/[^8.0.0]"
`
	index := conan.NewMockIndex(map[string][]string{"fmt": {"9.1.0"}})
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, _ := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 1)
	assert.Len(t, index.Queries(), 1)
	assert.Equal(t, "requires = \"fmt/9.1.0\"\ntest_requires = \"fmt/[^9.1.0]\"\n", out)
}

func TestPlanPlaceholderQualifier(t *testing.T) {
	text := `requires = "fmt/8.1.1@_/_"
`
	index := conan.NewMockIndex(nil)
	index.VersionsFunc = func(ctx context.Context, q conan.Query) ([]string, error) {
		if q.Pattern() != "fmt/*" {
			return nil, nil
		}
		return []string{"8.1.1", "9.1.0"}, nil
	}
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, modified := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 1)
	assert.Empty(t, plan.Skipped)
	assert.Equal(t, "", plan.Edits[0].Qualifier)
	assert.True(t, modified)
	assert.Equal(t, "requires = \"fmt/9.1.0@_/_\"\n", out)
}

func TestPlanSeparatesChannels(t *testing.T) {
	text := `requires = "fmt/8.1.1"
build = "fmt/7.0.0@mili/integration"
`
	index := conan.NewMockIndex(nil)
	index.VersionsFunc = func(ctx context.Context, q conan.Query) ([]string, error) {
		if q.Qualifier == "mili/integration" {
			return []string{"7.0.0", "7.1.0"}, nil
		}
		return []string{"8.1.1", "9.1.0"}, nil
	}
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, _ := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 2)
	assert.Equal(t, 2, engine.Lookups())

	qualifiers := make([]string, 0, 2)
	for _, q := range index.Queries() {
		qualifiers = append(qualifiers, q.Qualifier)
	}
	assert.ElementsMatch(t, []string{"", "mili/integration"}, qualifiers)
	assert.Equal(t, "requires = \"fmt/9.1.0\"\nbuild = \"fmt/7.1.0@mili/integration\"\n", out)
}

func TestPlanChannelUpToDateLeavesOtherFamily(t *testing.T) {
	text := `requires = "fmt/8.1.1", "fmt/7.1.0@mili/integration"
`
	index := conan.NewMockIndex(nil)
	index.VersionsFunc = func(ctx context.Context, q conan.Query) ([]string, error) {
		if q.Qualifier == "mili/integration" {
			return []string{"7.1.0"}, nil
		}
		return []string{"9.1.0"}, nil
	}
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, _ := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 1)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "mili/integration", plan.Skipped[0].Qualifier)
	assert.Equal(t, ReasonUpToDate, plan.Skipped[0].Reason)
	assert.Equal(t, "requires = \"fmt/9.1.0\", \"fmt/7.1.0@mili/integration\"\n", out)
}

func TestPlanExcludesSelf(t *testing.T) {
	text := `name = "hello_world"
requires = "fmt/8.1.1"
test_requires = "hello_world/0.9.0"
`
	index := conan.NewMockIndex(map[string][]string{
		"fmt":         {"9.1.0"},
		"hello_world": {"5.0.0"},
	})
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan})

	plan, out, _ := planAndApply(t, engine, text)
	require.Len(t, plan.Edits, 1)
	assert.Equal(t, "fmt", plan.Edits[0].Package)
	assert.Contains(t, out, "hello_world/0.9.0")
	for _, q := range index.Queries() {
		assert.NotEqual(t, "hello_world", q.Package)
	}
}

func TestPlanGraphStrategy(t *testing.T) {
	graph := &conan.MockGraphReader{Deps: []conan.Dependency{
		{Ref: mustRef(t, "hello_world/1.0.0"), Context: manifest.ContextDirect},
		{Ref: mustRef(t, "fmt/8.1.1"), Context: manifest.ContextDirect},
		{Ref: mustRef(t, "cmake/3.25.3"), Context: manifest.ContextBuild},
		{Ref: mustRef(t, "zlib/1.2.13"), Context: manifest.ContextDirect},
	}}
	index := conan.NewMockIndex(map[string][]string{
		"fmt":   {"9.1.0"},
		"cmake": {"3.27.7"},
		"zlib":  {"1.3.1"},
	})
	engine := NewEngine(index, graph, Options{Strategy: StrategyGraph, ManifestPath: "conanfile.py"})

	plan, out, modified := planAndApply(t, engine, recipe)
	require.True(t, modified)
	require.Len(t, plan.Edits, 2)
	assert.Equal(t, "fmt", plan.Edits[0].Package)
	assert.Equal(t, "cmake", plan.Edits[1].Package)
	assert.Equal(t, manifest.ContextBuild, plan.Edits[1].Context)

	// Declared but unresolved packages and transitive packages are not looked up
	for _, q := range index.Queries() {
		assert.NotContains(t, []string{"spdlog", "ambrosia", "foo", "zlib", "hello_world"}, q.Package)
	}
	assert.Contains(t, out, `"fmt/9.1.0"`)
	assert.Contains(t, out, `"spdlog/1.9.2"`)
}

func TestPlanGraphFailureAborts(t *testing.T) {
	graph := &conan.MockGraphReader{Err: conan.ErrGraphUnavailable}
	index := conan.NewMockIndex(map[string][]string{"fmt": {"9.1.0"}})
	engine := NewEngine(index, graph, Options{Strategy: StrategyGraph})

	plan, err := engine.Plan(context.Background(), recipe)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, conan.ErrGraphUnavailable)
	assert.Empty(t, index.Queries())
}

func TestPlanGraphWithoutReader(t *testing.T) {
	engine := NewEngine(conan.NewMockIndex(nil), nil, Options{Strategy: StrategyGraph})
	_, err := engine.Plan(context.Background(), recipe)
	assert.ErrorIs(t, err, ErrNoGraphReader)
}

func TestPlanPolicy(t *testing.T) {
	text := `requires = "fmt/8.1.1", "spdlog/1.9.2", "boost/1.80.0", "zlib/1.3.1"
`
	index := conan.NewMockIndex(map[string][]string{
		"fmt":    {"8.2.0", "9.1.0", "10.0.0"},
		"spdlog": {"1.13.0"},
		"boost":  {"1.84.0"},
		"zlib":   {"1.2.13"},
	})
	policy := &Policy{
		NoDowngrade: true,
		Packages: map[string]PackagePolicy{
			"fmt":    {HoldMajor: true},
			"spdlog": {Ignore: true},
			"boost":  {Remote: "internal"},
		},
	}
	engine := NewEngine(index, nil, Options{Strategy: StrategyScan, Remote: "conancenter", Policy: policy})

	plan, out, _ := planAndApply(t, engine, text)
	assert.Equal(t, `requires = "fmt/8.2.0", "spdlog/1.9.2", "boost/1.84.0", "zlib/1.3.1"
`, out)

	reasons := make(map[string]string)
	for _, s := range plan.Skipped {
		reasons[s.Package] = s.Reason
	}
	assert.Equal(t, ReasonIgnored, reasons["spdlog"])
	assert.Equal(t, ReasonNoDowngrade, reasons["zlib"])

	remotes := make(map[string]string)
	for _, q := range index.Queries() {
		remotes[q.Package] = q.Remote
	}
	assert.Equal(t, "internal", remotes["boost"])
	assert.Equal(t, "conancenter", remotes["fmt"])
	assert.NotContains(t, remotes, "spdlog")
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("graph")
	require.NoError(t, err)
	assert.Equal(t, StrategyGraph, s)

	_, err = ParseStrategy("magic")
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}
