package main

import (
	"fmt"
	"io"

	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/mmaksimovic94/mm-test-release/internal/release"
	"github.com/spf13/cobra"
)

var compareManifest string

var compareCmd = &cobra.Command{
	Use:   "compare [branches...]",
	Short: "Check that the recipe version matches across branches",
	Long: `Fetch and check out each branch in turn, read the recipe version on
it, then check the original branch out again.

Branches default to git.branches from the config (main and integration).
The working tree must be clean.

Exit status: 0 when every branch declares the same version, 1 otherwise.

Examples:
  mmrelease compare
  mmrelease compare main release/2.x`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			logger.Error("%v", err)
			exit(1)
		}

		branches := args
		if len(branches) == 0 {
			branches = a.cfg.Git.Branches
		}

		comparer := release.NewComparer(a.git(), conan.NewInspector(a.conan()), a.cfg.Git.Remote, a.manifestPath(compareManifest))
		result, err := comparer.Compare(cmd.Context(), branches)
		if err != nil {
			logger.Error("%v", err)
			if result == nil {
				exit(1)
			}
		}

		if !reportComparison(cmd.OutOrStdout(), result) || err != nil {
			exit(1)
		}
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareManifest, "manifest", "", "Recipe to inspect on each branch (default from config)")
	rootCmd.AddCommand(compareCmd)
}

// reportComparison prints each branch's version and the verdict.
// It returns whether the versions match.
func reportComparison(w io.Writer, result *release.Comparison) bool {
	for _, r := range result.Results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", output.FormatOutcome("failed"), r.Branch, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", output.FormatRef(r.Branch, ""), r.Version)
	}

	if result.Match() {
		output.Fprintln(w, output.Success, fmt.Sprintf("✓ Versions match: %s", result.Results[0].Version))
		return true
	}
	if len(result.Failed()) == 0 {
		output.Fprintln(w, output.Error, "✗ Versions do not match")
	}
	return false
}
