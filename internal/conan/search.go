package conan

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/runner"
)

// Search command styles
const (
	SearchCommandSearch = "search" // conan search <pattern> --remote R --raw
	SearchCommandList   = "list"   // conan list <pattern> --remote R --format=json
)

// CLIIndex queries a remote through the conan executable
type CLIIndex struct {
	exec    runner.Executor
	remote  string
	command string
}

// NewCLIIndex creates an index backed by the conan CLI.
// command is SearchCommandSearch or SearchCommandList; anything else
// falls back to SearchCommandSearch.
func NewCLIIndex(exec runner.Executor, remote, command string) *CLIIndex {
	if command != SearchCommandList {
		command = SearchCommandSearch
	}
	return &CLIIndex{
		exec:    exec,
		remote:  remote,
		command: command,
	}
}

// Args returns the conan arguments used for a query
func (c *CLIIndex) Args(q Query) []string {
	remote := c.remote
	if q.Remote != "" {
		remote = q.Remote
	}

	args := []string{c.command, q.Pattern()}
	if remote != "" {
		args = append(args, "--remote", remote)
	}
	if c.command == SearchCommandList {
		return append(args, "--format=json")
	}
	return append(args, "--raw")
}

// Versions runs the search and extracts every matching version
func (c *CLIIndex) Versions(ctx context.Context, q Query) ([]string, error) {
	args := c.Args(q)
	logger.Debug("Searching index: %s", runner.CommandLine(c.exec.Program(), args...))

	result, err := c.exec.Run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	versions := ExtractVersions(result.Stdout, q)
	logger.Debug("Index returned %d version(s) for %s", len(versions), q.Pattern())
	return versions, nil
}

// refCharClass is the character set of names, versions and qualifier halves
const refCharClass = `[A-Za-z0-9_+.-]`

// ExtractVersions scans search output for references to q.Package and
// returns the versions of those whose qualifier satisfies q, in order of
// first appearance. Raw line output, "conan list" text output and JSON keys
// all embed references the same way, so one scan covers them.
func ExtractVersions(output string, q Query) []string {
	re := regexp.MustCompile(`(?:^|[^A-Za-z0-9_+.-])(` + regexp.QuoteMeta(q.Package) + `/[A-Za-z0-9_][A-Za-z0-9_+.-]*(?:@` + refCharClass + `+/` + refCharClass + `+)?)`)

	var versions []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(output, -1) {
		ref, err := conanref.Parse(m[1])
		if err != nil || ref.Name != q.Package {
			continue
		}
		if !acceptsQualifier(q, ref) {
			continue
		}
		versions = appendUnique(versions, seen, ref.Version)
	}
	return versions
}

// Ensure CLIIndex implements Index interface
var _ Index = (*CLIIndex)(nil)
