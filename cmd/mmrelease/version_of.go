package main

import (
	"fmt"

	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/spf13/cobra"
)

var versionOfManifest string

var versionOfCmd = &cobra.Command{
	Use:   "version-of",
	Short: "Print the recipe's declared version",
	Long: `Print the version declared by the recipe, as reported by
"conan inspect". When conan is unavailable the version attribute of the
recipe text is used.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			logger.Error("%v", err)
			exit(1)
		}

		v, err := conan.NewInspector(a.conan()).ProjectVersion(cmd.Context(), a.manifestPath(versionOfManifest))
		if err != nil {
			logger.Error("%v", err)
			exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
	},
}

func init() {
	versionOfCmd.Flags().StringVar(&versionOfManifest, "manifest", "", "Recipe to inspect (default from config)")
	rootCmd.AddCommand(versionOfCmd)
}
