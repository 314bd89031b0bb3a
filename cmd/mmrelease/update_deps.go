package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mmaksimovic94/mm-test-release/internal/common/config"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/mmaksimovic94/mm-test-release/internal/depsync"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	updateDepsManifest string
	updateDepsStrategy string
	updateDepsDryRun   bool
	updateDepsRemote   string
)

var updateDepsCmd = &cobra.Command{
	Use:   "update-deps",
	Short: "Update dependency requirements to the latest published versions",
	Long: `Look up the latest published version of every requirement in the
recipe and rewrite the requirements that are behind, keeping each one's
spelling: exact pins, [^x] and [~x] ranges and @user/channel suffixes.

Strategies:
  graph (default) - packages from "conan graph info", edited where declared
  scan            - every requirement string found in the recipe text

A failed lookup skips only that package. If the graph cannot be read
nothing is changed.

Exit status: 0 when the recipe was modified (--dry-run: when edits exist),
1 otherwise.

Examples:
  mmrelease update-deps
  mmrelease update-deps --strategy scan --dry-run
  mmrelease update-deps --remote mycenter --manifest recipes/conanfile.py`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exit(runUpdateDeps(cmd))
	},
}

func init() {
	updateDepsCmd.Flags().StringVar(&updateDepsManifest, "manifest", "", "Recipe to update (default from config)")
	updateDepsCmd.Flags().StringVar(&updateDepsStrategy, "strategy", "", "Candidate discovery: scan or graph (default from config)")
	updateDepsCmd.Flags().BoolVar(&updateDepsDryRun, "dry-run", false, "Show edits without writing the recipe")
	updateDepsCmd.Flags().StringVar(&updateDepsRemote, "remote", "", "Conan remote to search (default from config)")
	rootCmd.AddCommand(updateDepsCmd)
}

func runUpdateDeps(cmd *cobra.Command) int {
	a, err := loadApp()
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}

	strategyName := a.cfg.Strategy
	if updateDepsStrategy != "" {
		strategyName = updateDepsStrategy
	}
	strategy, err := depsync.ParseStrategy(strategyName)
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}

	policy, err := depsync.LoadPolicy(config.ResolvePath(a.projectDir, a.cfg.Policy))
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}

	path := a.manifestPath(updateDepsManifest)
	exec := a.conan()
	engine := depsync.NewEngine(a.index(exec), conan.NewGraphReader(exec), depsync.Options{
		Strategy:     strategy,
		ManifestPath: path,
		SelfName:     a.cfg.PackageName,
		Remote:       updateDepsRemote,
		Policy:       policy,
	})

	return syncManifest(cmd.Context(), cmd.OutOrStdout(), engine, path, updateDepsDryRun)
}

// syncManifest plans and applies dependency edits to the recipe at path
func syncManifest(ctx context.Context, w io.Writer, engine *depsync.Engine, path string, dryRun bool) int {
	doc, err := manifest.Load(path)
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}

	plan, err := engine.Plan(ctx, doc.Text())
	if err != nil {
		logger.Error("Nothing updated: %v", err)
		return exitUnchanged
	}

	printPlan(w, plan)
	logger.Debug("Index queried %d time(s) for %d requirement(s)", engine.Lookups(), plan.Attempted)

	if plan.AllFailed() {
		logger.Error("Package index unreachable: all %d lookup(s) failed", plan.Attempted)
		return exitUnchanged
	}
	if plan.Empty() {
		logger.Info("All dependencies are up to date")
		return exitUnchanged
	}
	if dryRun {
		logger.Info("Dry run: %d edit(s) not written", len(plan.Edits))
		return exitModified
	}

	doc.Apply(plan.Edits)
	saved, err := doc.Save()
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}
	if !saved {
		return exitUnchanged
	}

	logger.Info("Updated %d dependenc%s in %s", len(plan.Edits), plural(len(plan.Edits), "y", "ies"), path)
	return exitModified
}

// printPlan writes one line per edit, skip and failure
func printPlan(w io.Writer, plan *depsync.Plan) {
	for _, e := range plan.Edits {
		line := output.FormatOutcome("updated") + " " + output.FormatEdit(e.Package, e.OldSpec, e.NewSpec)
		if e.Context == manifest.ContextBuild {
			line += " " + output.FormatContext(true)
		}
		fmt.Fprintln(w, line)
	}
	for _, s := range plan.Skipped {
		outcome := "skipped"
		if s.Reason == depsync.ReasonUpToDate {
			outcome = "current"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", output.FormatOutcome(outcome), output.FormatRef(s.Package, withQualifier(s.Version, s.Qualifier)), s.Reason)
	}
	for _, f := range plan.Failures {
		fmt.Fprintf(w, "%s %s: %v\n", output.FormatOutcome("failed"), output.FormatRef(f.Package, withQualifier("*", f.Qualifier)), f.Err)
	}
}

// withQualifier appends "@user/channel" when qualifier is set
func withQualifier(version, qualifier string) string {
	if qualifier == "" {
		return version
	}
	return version + "@" + qualifier
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
