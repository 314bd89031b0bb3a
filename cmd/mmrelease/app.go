package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mmaksimovic94/mm-test-release/internal/common/config"
	"github.com/mmaksimovic94/mm-test-release/internal/common/git"
	"github.com/mmaksimovic94/mm-test-release/internal/common/runner"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
)

// app holds what every command needs: the project directory and its config
type app struct {
	projectDir string
	cfg        *config.Config
}

// loadApp loads the configuration for the current directory
func loadApp() (*app, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithOverride(projectDir, configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &app{projectDir: projectDir, cfg: cfg}, nil
}

// manifestPath returns override, or the configured manifest, relative to the project
func (a *app) manifestPath(override string) string {
	if override != "" {
		return config.ResolvePath(a.projectDir, override)
	}
	return config.ResolvePath(a.projectDir, a.cfg.Manifest)
}

func (a *app) timeout() time.Duration {
	return a.cfg.Conan.Timeout.Duration
}

// conan returns the executor for the configured conan binary
func (a *app) conan() runner.Executor {
	return runner.NewCommandRunner(a.cfg.Conan.Binary, a.projectDir, a.timeout())
}

// index returns the configured package index backend
func (a *app) index(exec runner.Executor) conan.Index {
	if a.cfg.Index.Backend == config.BackendHTTP {
		client := conan.NewRetryableHTTPClient(conan.RetryConfig{
			MaxRetries: a.cfg.Index.Retries,
			BaseDelay:  1 * time.Second,
			MaxDelay:   4 * time.Second,
			Timeout:    a.timeout(),
		})
		client.SetToken(a.cfg.IndexToken())
		return conan.NewHTTPIndex(a.cfg.Index.URL, client)
	}
	return conan.NewCLIIndex(exec, a.cfg.Conan.Remote, a.cfg.Conan.SearchCommand)
}

// git returns a git runner for the project directory
func (a *app) git() git.GitExecutor {
	return git.NewGitRunner(a.projectDir, a.timeout())
}
