package main

import (
	"context"
	"errors"
	"time"

	"github.com/mmaksimovic94/mm-test-release/internal/changelog"
	"github.com/mmaksimovic94/mm-test-release/internal/common/config"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/spf13/cobra"
)

var (
	changelogVersion  string
	changelogDate     string
	changelogFile     string
	changelogManifest string
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Turn the Unreleased changelog section into a release header",
	Long: `Replace the first "## Unreleased" header of the changelog with
"## [<version>] - <date>".

The version defaults to the recipe's declared version and the date to today.

Exit status: 0 when the changelog was modified, 1 otherwise.

Examples:
  mmrelease changelog
  mmrelease changelog --version 1.4.0 --date 2024-05-01`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			logger.Error("%v", err)
			exit(exitUnchanged)
		}

		date := time.Now()
		if changelogDate != "" {
			if date, err = time.Parse(changelog.DateLayout, changelogDate); err != nil {
				logger.Error("Invalid --date %q: expected YYYY-MM-DD", changelogDate)
				exit(exitUnchanged)
			}
		}

		path := a.cfg.Changelog
		if changelogFile != "" {
			path = changelogFile
		}

		exit(releaseChangelog(cmd.Context(),
			conan.NewInspector(a.conan()),
			a.manifestPath(changelogManifest),
			config.ResolvePath(a.projectDir, path),
			changelogVersion,
			date))
	},
}

func init() {
	changelogCmd.Flags().StringVar(&changelogVersion, "version", "", "Release version (default: recipe version)")
	changelogCmd.Flags().StringVar(&changelogDate, "date", "", "Release date as YYYY-MM-DD (default: today)")
	changelogCmd.Flags().StringVar(&changelogFile, "file", "", "Changelog file (default from config)")
	changelogCmd.Flags().StringVar(&changelogManifest, "manifest", "", "Recipe to read the version from (default from config)")
	rootCmd.AddCommand(changelogCmd)
}

// releaseChangelog writes the release header for version (or the recipe's
// version when empty) into the changelog at path
func releaseChangelog(ctx context.Context, inspector conan.Inspector, manifestPath, path, version string, date time.Time) int {
	if version == "" {
		v, err := inspector.ProjectVersion(ctx, manifestPath)
		if err != nil {
			logger.Error("%v", err)
			return exitUnchanged
		}
		version = v
	}

	modified, err := changelog.UpdateFile(path, version, date)
	if errors.Is(err, changelog.ErrNoUnreleased) {
		logger.Warn("%v", err)
		return exitUnchanged
	}
	if err != nil {
		logger.Error("%v", err)
		return exitUnchanged
	}
	if !modified {
		return exitUnchanged
	}

	output.PrintSuccess("Released %s in %s", changelog.Header(version, date), path)
	return exitModified
}
