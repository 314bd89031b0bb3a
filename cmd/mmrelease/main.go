package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/spf13/cobra"
)

// Exit codes of the update-style commands
const (
	exitModified  = 0
	exitUnchanged = 1
)

// autoLogFile is the --log-file value used when the flag has no argument
const autoLogFile = "auto"

var (
	verbose    bool
	quiet      bool
	noColor    bool
	logFile    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "mmrelease",
	Short: "Release automation for Conan recipes",
	Long: `Keeps a Conan recipe (conanfile.py) release-ready: synchronizes
dependency requirements with the package index, bumps the recipe version,
releases the changelog and compares the recipe version across branches.

Update-style commands exit 0 when a file was modified and 1 otherwise.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
		if logFile != "" {
			path := logFile
			if path == autoLogFile {
				path = ""
			}
			if err := logger.Default().EnableFileLogging(path); err != nil {
				logger.Warn("File logging disabled: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to a file (default location when no path is given)")
	rootCmd.PersistentFlags().Lookup("log-file").NoOptDefVal = autoLogFile
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .mmrelease.yaml, then user config)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Default().Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exit flushes the log file and terminates with code
func exit(code int) {
	logger.Default().Close()
	os.Exit(code)
}
