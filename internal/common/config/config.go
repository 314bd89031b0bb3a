package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidStrategy      = errors.New("invalid strategy: must be 'scan' or 'graph'")
	ErrInvalidBackend       = errors.New("invalid index backend: must be 'cli' or 'http'")
	ErrInvalidSearchCommand = errors.New("invalid conan search command: must be 'search' or 'list'")
	ErrMissingIndexURL      = errors.New("index.url is required for the http backend")
	ErrInvalidTimeout       = errors.New("timeout must be positive")
	ErrInvalidRetries       = fmt.Errorf("index.retries must be between 0 and %d", MaxRetries)
)

// MaxRetries bounds index.retries
const MaxRetries = 10

// ProjectConfigName is the per-project config file looked up in the project directory
const ProjectConfigName = ".mmrelease.yaml"

// Strategy names
const (
	StrategyScan  = "scan"
	StrategyGraph = "graph"
)

// Index backend names
const (
	BackendCLI  = "cli"
	BackendHTTP = "http"
)

// Config represents the application configuration
type Config struct {
	Manifest    string      `yaml:"manifest"`
	Changelog   string      `yaml:"changelog"`
	PackageName string      `yaml:"package_name,omitempty"` // Overrides the name read from the manifest
	Strategy    string      `yaml:"strategy"`
	Policy      string      `yaml:"policy"`
	Conan       ConanConfig `yaml:"conan"`
	Index       IndexConfig `yaml:"index"`
	Git         GitConfig   `yaml:"git"`

	// path is the file the config was loaded from (empty for defaults)
	path string
}

// ConanConfig holds settings for invoking the conan CLI
type ConanConfig struct {
	Binary        string   `yaml:"binary"`
	Remote        string   `yaml:"remote"`
	Timeout       Duration `yaml:"timeout"`
	SearchCommand string   `yaml:"search_command"` // "search" (conan 1 style) or "list" (conan 2)
}

// IndexConfig selects where published versions are looked up
type IndexConfig struct {
	Backend string `yaml:"backend"`         // "cli" or "http"
	URL     string `yaml:"url,omitempty"`   // Conan server base URL for the http backend
	Token   string `yaml:"token,omitempty"` // Bearer token, ${VAR} references are expanded
	Retries int    `yaml:"retries"`
}

// GitConfig holds settings for branch comparison
type GitConfig struct {
	Remote   string   `yaml:"remote"`
	Branches []string `yaml:"branches"`
}

// Duration is a time.Duration written as "60s" in YAML.
// A bare integer is read as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := parseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Manifest:  "conanfile.py",
		Changelog: "changelog.md",
		Strategy:  StrategyGraph,
		Policy:    filepath.Join(".mmrelease", "deps.toml"),
		Conan: ConanConfig{
			Binary:        "conan",
			Remote:        "conancenter",
			Timeout:       Duration{60 * time.Second},
			SearchCommand: "search",
		},
		Index: IndexConfig{
			Backend: BackendCLI,
			Retries: 3,
		},
		Git: GitConfig{
			Remote:   "origin",
			Branches: []string{"main", "integration"},
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. <project>/.mmrelease.yaml
// 2. ~/.config/mmrelease/config.yaml (XDG standard)
// 3. ~/.mmrelease/config.yaml (legacy fallback)
func ConfigPaths(projectDir string) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(projectDir, ProjectConfigName),
		filepath.Join(xdgConfig, "mmrelease", "config.yaml"),
		filepath.Join(home, ".mmrelease", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path.
// The boolean is false when no config file exists.
func FindConfigPath(projectDir string) (string, bool, error) {
	paths, err := ConfigPaths(projectDir)
	if err != nil {
		return "", false, err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, true, nil
		}
	}
	return "", false, nil
}

// Load builds the configuration for a project directory.
// <project>/.env is loaded into the environment first (existing variables
// win), then the first config file found is read over the defaults, then
// MMRELEASE_* environment overrides are applied.
func Load(projectDir string) (*Config, error) {
	return LoadWithOverride(projectDir, "")
}

// LoadWithOverride is Load with an explicit config file taking the place of
// the lookup. An empty override searches ConfigPaths.
func LoadWithOverride(projectDir, override string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(projectDir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path, found := override, override != ""
	if !found {
		var err error
		path, found, err = FindConfigPath(projectDir)
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if found {
		var err error
		cfg, err = LoadFrom(path)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from a specific file path over the defaults
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.path = path

	return cfg, nil
}

// Path returns the file the configuration was loaded from, or "" for defaults
func (c *Config) Path() string {
	return c.path
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides settings from MMRELEASE_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("MMRELEASE_CONAN_BINARY"); v != "" {
		c.Conan.Binary = v
	}
	if v := os.Getenv("MMRELEASE_CONAN_REMOTE"); v != "" {
		c.Conan.Remote = v
	}
	if v := os.Getenv("MMRELEASE_INDEX_URL"); v != "" {
		c.Index.URL = v
	}
	if v := os.Getenv("MMRELEASE_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("MMRELEASE_TIMEOUT: %w", err)
		}
		c.Conan.Timeout = Duration{d}
	}
	return nil
}

// Validate checks enumerated fields and required combinations
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyScan, StrategyGraph:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStrategy, c.Strategy)
	}

	switch c.Index.Backend {
	case BackendCLI:
	case BackendHTTP:
		if c.Index.URL == "" {
			return ErrMissingIndexURL
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidBackend, c.Index.Backend)
	}

	switch c.Conan.SearchCommand {
	case "search", "list":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidSearchCommand, c.Conan.SearchCommand)
	}

	if c.Conan.Timeout.Duration <= 0 {
		return ErrInvalidTimeout
	}
	if c.Index.Retries < 0 || c.Index.Retries > MaxRetries {
		return fmt.Errorf("%w: got %d", ErrInvalidRetries, c.Index.Retries)
	}
	return nil
}

// ResolvePath joins a configured relative path onto the project directory
func ResolvePath(projectDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(projectDir, path)
}

// envVarPattern matches ${VAR_NAME} syntax for environment variable substitution
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// SubstituteEnvVars replaces ${VAR_NAME} patterns in a string with
// the corresponding environment variable values.
// If an environment variable is not set, the pattern is replaced with an empty string.
func SubstituteEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// IndexToken returns the index token with environment references expanded
func (c *Config) IndexToken() string {
	return SubstituteEnvVars(c.Index.Token)
}
