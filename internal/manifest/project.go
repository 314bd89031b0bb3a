package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	ErrInvalidVersion  = errors.New("invalid version")
	ErrInvalidBumpPart = errors.New("invalid bump part: must be 'major', 'minor' or 'patch'")
)

// nameAttrRegex matches the recipe's own name attribute: name = "hello_world"
var nameAttrRegex = regexp.MustCompile(`(?m)^[ \t]*name[ \t]*=[ \t]*["']([^"']+)["']`)

// versionAttrRegex matches the recipe's own version attribute: version = "1.0"
var versionAttrRegex = regexp.MustCompile(`(?m)^([ \t]*version[ \t]*=[ \t]*)(["'])([^"']+)(["'])`)

// ProjectName returns the package's own declared name
func ProjectName(text string) (string, bool) {
	m := nameAttrRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ProjectVersion returns the package's own declared version
func ProjectVersion(text string) (string, bool) {
	m := versionAttrRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[3], true
}

// SetProjectVersion replaces the first version attribute's value.
// Everything else in text is left byte-identical.
func SetProjectVersion(text, version string) (string, bool) {
	loc := versionAttrRegex.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false
	}
	if text[loc[6]:loc[7]] == version {
		return text, false
	}
	return text[:loc[6]] + version + text[loc[7]:], true
}

// BumpPart selects which version component to increment
type BumpPart string

const (
	BumpMajor BumpPart = "major"
	BumpMinor BumpPart = "minor"
	BumpPatch BumpPart = "patch"
)

// ParseBumpPart validates a bump part name
func ParseBumpPart(s string) (BumpPart, error) {
	switch BumpPart(strings.ToLower(s)) {
	case BumpMajor:
		return BumpMajor, nil
	case BumpMinor:
		return BumpMinor, nil
	case BumpPatch:
		return BumpPatch, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidBumpPart, s)
}

// ValidateVersion checks that v is a usable release version
func ValidateVersion(v string) error {
	if _, err := semver.NewVersion(v); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidVersion, v, err)
	}
	return nil
}

// BumpVersion increments one component of current.
// The original number of segments is kept ("1.0" -> "1.1" for minor) unless
// the bumped component needs more ("1.0" -> "1.0.1" for patch).
// Pre-release and build metadata are dropped.
func BumpVersion(current string, part BumpPart) (string, error) {
	v, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidVersion, current, err)
	}

	core := current
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	segments := len(strings.Split(strings.TrimPrefix(core, "v"), "."))
	if segments > 3 {
		segments = 3
	}

	var next semver.Version
	switch part {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
		if segments < 2 {
			segments = 2
		}
	case BumpPatch:
		next = v.IncPatch()
		segments = 3
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidBumpPart, part)
	}

	parts := []string{
		strconv.FormatUint(next.Major(), 10),
		strconv.FormatUint(next.Minor(), 10),
		strconv.FormatUint(next.Patch(), 10),
	}
	return strings.Join(parts[:segments], "."), nil
}
