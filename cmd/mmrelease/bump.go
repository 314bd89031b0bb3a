package main

import (
	"fmt"
	"io"

	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	bumpManifest string
	bumpSet      string
)

var bumpCmd = &cobra.Command{
	Use:   "bump [major|minor|patch]",
	Short: "Bump the recipe's own version",
	Long: `Rewrite the version attribute of the recipe. The rest of the file is
left byte-identical.

The number of version segments is kept where possible: 1.2 becomes 1.3 on a
minor bump and 1.2.1 on a patch bump. Use --set to write an explicit version.

Exit status: 0 when the recipe was modified, 1 otherwise.

Examples:
  mmrelease bump           # patch
  mmrelease bump minor
  mmrelease bump --set 2.0.0`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"major", "minor", "patch"},
	Run: func(cmd *cobra.Command, args []string) {
		part := string(manifest.BumpPatch)
		if len(args) > 0 {
			part = args[0]
		}

		a, err := loadApp()
		if err != nil {
			logger.Error("%v", err)
			exit(exitUnchanged)
		}
		exit(bumpRecipe(cmd.OutOrStdout(), a.manifestPath(bumpManifest), part, bumpSet))
	},
}

func init() {
	bumpCmd.Flags().StringVar(&bumpManifest, "manifest", "", "Recipe to update (default from config)")
	bumpCmd.Flags().StringVar(&bumpSet, "set", "", "Set this exact version instead of bumping")
	rootCmd.AddCommand(bumpCmd)
}

// bumpRecipe rewrites the version attribute of the recipe at path
func bumpRecipe(w io.Writer, path, part, set string) int {
	doc, err := manifest.Load(path)
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}

	current, ok := manifest.ProjectVersion(doc.Text())
	if !ok {
		logger.Error("No version attribute in %s", path)
		return exitUnchanged
	}

	next := set
	if next != "" {
		if err := manifest.ValidateVersion(next); err != nil {
			logger.Error("%v", err)
			return exitUnchanged
		}
	} else {
		bumpPart, err := manifest.ParseBumpPart(part)
		if err != nil {
			logger.Error("%v", err)
			return exitUnchanged
		}
		if next, err = manifest.BumpVersion(current, bumpPart); err != nil {
			logger.Error("%v", err)
			return exitUnchanged
		}
	}

	text, changed := manifest.SetProjectVersion(doc.Text(), next)
	if !changed {
		logger.Info("Version is already %s", current)
		return exitUnchanged
	}
	doc.SetText(text)

	if _, err := doc.Save(); err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}
	fmt.Fprintln(w, output.FormatEdit("version", current, next))
	return exitModified
}
