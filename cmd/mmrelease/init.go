package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmaksimovic94/mm-test-release/internal/common/config"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project configuration file",
	Long: `Create .mmrelease.yaml in the current directory interactively.
Press Enter to accept each default.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		projectDir, err := os.Getwd()
		if err != nil {
			logger.Error("%v", err)
			exit(1)
		}
		path := filepath.Join(projectDir, config.ProjectConfigName)
		if err := initConfig(cmd.InOrStdin(), cmd.OutOrStdout(), path, initForce); err != nil {
			logger.Error("%v", err)
			exit(1)
		}
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

// initConfig prompts for the main settings and writes them to path
func initConfig(in io.Reader, out io.Writer, path string, force bool) error {
	reader := bufio.NewReader(in)

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "Config already exists at %s. Overwrite? [y/N]: ", path)
		if !strings.EqualFold(readLine(reader), "y") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.Default()
	cfg.Manifest = prompt(reader, out, "Recipe path", cfg.Manifest)
	cfg.Changelog = prompt(reader, out, "Changelog path", cfg.Changelog)
	cfg.Strategy = prompt(reader, out, "Strategy (graph/scan)", cfg.Strategy)
	cfg.Conan.Remote = prompt(reader, out, "Conan remote", cfg.Conan.Remote)
	cfg.Git.Remote = prompt(reader, out, "Git remote", cfg.Git.Remote)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	output.Fprintln(out, output.Success, "✓ Config saved to "+path)
	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, label, def string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, def)
	if v := readLine(reader); v != "" {
		return v
	}
	return def
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
