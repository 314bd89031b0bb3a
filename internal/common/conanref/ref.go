package conanref

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidRef = errors.New("invalid package reference")
)

// nameRegex matches Conan package names (e.g., "fmt", "boost", "libjpeg-turbo", "b2")
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]*$`)

// qualifierRegex matches one half of a user/channel qualifier
var qualifierRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]*$`)

// Ref represents a parsed package reference
type Ref struct {
	Name     string // e.g., "fmt"
	Version  string // e.g., "8.1.1", "[^1.9.0]", "cci.20230101"
	User     string // e.g., "mili" (empty when unqualified)
	Channel  string // e.g., "integration"
	Revision string // e.g., "a1b2c3" (without the leading '#')
}

// Parse parses a reference of the form name/version[@user/channel][#revision]
func Parse(s string) (*Ref, error) {
	s = strings.TrimSpace(s)

	ref := &Ref{}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		ref.Revision = s[i+1:]
		s = s[:i]
	}

	if i := strings.IndexByte(s, '@'); i >= 0 {
		qualifier := s[i+1:]
		s = s[:i]
		parts := strings.Split(qualifier, "/")
		if len(parts) != 2 || !qualifierRegex.MatchString(parts[0]) || !qualifierRegex.MatchString(parts[1]) {
			return nil, ErrInvalidRef
		}
		ref.User, ref.Channel = parts[0], parts[1]
	}

	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[1] == "" || strings.Contains(parts[1], "/") {
		return nil, ErrInvalidRef
	}
	if !nameRegex.MatchString(parts[0]) {
		return nil, ErrInvalidRef
	}

	ref.Name = parts[0]
	ref.Version = parts[1]
	return ref, nil
}

// IsValidName reports whether name is a well-formed package name
func IsValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// PlaceholderQualifier is the "user/channel" Conan writes for unqualified references
const PlaceholderQualifier = "_/_"

// NormalizeQualifier maps the placeholder qualifier to "".
// Any other value is returned unchanged.
func NormalizeQualifier(q string) string {
	if q == PlaceholderQualifier {
		return ""
	}
	return q
}

// Qualifier returns "user/channel", or "" for an unqualified reference.
// The Conan placeholder "_/_" counts as unqualified.
func (r *Ref) Qualifier() string {
	if r.User == "" && r.Channel == "" {
		return ""
	}
	return NormalizeQualifier(r.User + "/" + r.Channel)
}

// String returns name/version[@user/channel][#revision]
func (r *Ref) String() string {
	s := r.Name + "/" + r.Version
	if r.User != "" || r.Channel != "" {
		s += "@" + r.User + "/" + r.Channel
	}
	if r.Revision != "" {
		s += "#" + r.Revision
	}
	return s
}
