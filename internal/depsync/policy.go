package depsync

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
)

var (
	// ErrInvalidPolicy is returned when the policy file cannot be used
	ErrInvalidPolicy = errors.New("invalid dependency policy")
)

// PackagePolicy adjusts how one package is synchronized
type PackagePolicy struct {
	// Ignore removes the package from the candidate set
	Ignore bool `toml:"ignore"`
	// HoldMajor only considers versions sharing the declared major
	HoldMajor bool `toml:"hold_major"`
	// Remote overrides the index remote for this package (CLI backend)
	Remote string `toml:"remote,omitempty"`
}

// Policy is the optional per-project dependency policy
type Policy struct {
	// NoDowngrade skips edits whose latest version is older than the declared one
	NoDowngrade bool                     `toml:"no_downgrade"`
	Packages    map[string]PackagePolicy `toml:"packages"`
}

// LoadPolicy reads a policy file. A missing file yields an empty policy;
// unknown keys and malformed TOML are errors.
func LoadPolicy(path string) (*Policy, error) {
	policy := &Policy{Packages: make(map[string]PackagePolicy)}
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return policy, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPolicy, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys: %s", ErrInvalidPolicy, path, strings.Join(keys, ", "))
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policy, nil
}

// Validate checks package names
func (p *Policy) Validate() error {
	names := make([]string, 0, len(p.Packages))
	for name := range p.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !conanref.IsValidName(name) {
			return fmt.Errorf("%w: invalid package name %q", ErrInvalidPolicy, name)
		}
	}
	return nil
}

// For returns the policy of one package (the zero value when unlisted)
func (p *Policy) For(pkg string) PackagePolicy {
	if p == nil {
		return PackagePolicy{}
	}
	return p.Packages[pkg]
}
