// Package manifest reads and rewrites the requirement declarations of a build
// manifest (conanfile.py) as plain text.
//
// The manifest is never parsed structurally. Requirements are located as
// quoted "name/spec" strings, and every rewrite goes through Token.Format so
// that the spelling of each requirement (brackets, range symbol, channel
// suffix) survives a version change.
package manifest

import (
	"regexp"
	"strings"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
)

// Variant is the syntactic form of a requirement's version spec.
type Variant int

const (
	// VariantExact is a literal version: "fmt/8.1.1"
	VariantExact Variant = iota
	// VariantCaret is a caret range: "fmt/[^8.1.0]"
	VariantCaret
	// VariantTilde is a tilde range: "fmt/[~8.1.0]"
	VariantTilde
	// VariantBracket is a bracketed version without a range symbol: "fmt/[8.1.0]"
	VariantBracket
)

// String returns a human-readable variant name
func (v Variant) String() string {
	switch v {
	case VariantExact:
		return "exact"
	case VariantCaret:
		return "caret-range"
	case VariantTilde:
		return "tilde-range"
	case VariantBracket:
		return "bracket-range"
	default:
		return "unknown"
	}
}

// Context tells whether a requirement is needed at run time or only to build.
type Context int

const (
	ContextDirect Context = iota
	ContextBuild
)

// String returns a human-readable context name
func (c Context) String() string {
	if c == ContextBuild {
		return "build-time"
	}
	return "direct"
}

// Token is one requirement as written in the manifest.
type Token struct {
	Package   string  // e.g., "fmt"
	Version   string  // version component only, e.g., "8.1.1" for "[^8.1.1]@a/b"
	Variant   Variant // decoration around Version
	Qualifier string  // "user/channel" without '@', empty when absent
	Context   Context // direct or build-time
	Spec      string  // full spec text after "name/", e.g., "[^8.1.1]@a/b"
	Start     int     // byte offset of Spec within the scanned text
	End       int     // byte offset just past Spec
}

// tokenRegex matches a quoted "name/spec" string. Opening and closing quotes
// are compared in code since RE2 has no backreferences.
var tokenRegex = regexp.MustCompile(`(["'])([A-Za-z0-9_][A-Za-z0-9_+.-]*)/([^"'\s]+)(["'])`)

// versionRegex matches a version component. Versions start with a digit so
// that paths such as "include/foo.h" are never mistaken for requirements.
var versionRegex = regexp.MustCompile(`^[0-9][0-9A-Za-z+_-]*(\.[0-9A-Za-z+_-]+)*$`)

// qualifierRegex matches a "user/channel" suffix (without '@')
var qualifierRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]*/[A-Za-z0-9_][A-Za-z0-9_+.-]*$`)

// keywordRegex matches the attribute or method that introduces requirements
var keywordRegex = regexp.MustCompile(`\b(build_requires|tool_requires|test_requires|requires)\b`)

// Scan returns every recognized requirement in text, in order of appearance.
// Quoted strings whose spec matches none of the known variants are skipped.
func Scan(text string) []Token {
	keywords := keywordRegex.FindAllStringSubmatchIndex(text, -1)

	var tokens []Token
	for _, m := range tokenRegex.FindAllStringSubmatchIndex(text, -1) {
		if text[m[2]:m[3]] != text[m[8]:m[9]] {
			continue
		}

		spec := text[m[6]:m[7]]
		version, variant, qualifier, ok := parseSpec(spec)
		if !ok {
			continue
		}

		tokens = append(tokens, Token{
			Package:   text[m[4]:m[5]],
			Version:   version,
			Variant:   variant,
			Qualifier: qualifier,
			Context:   contextAt(text, keywords, m[0]),
			Spec:      spec,
			Start:     m[6],
			End:       m[7],
		})
	}
	return tokens
}

// ParseRequirement parses a bare "name/spec" requirement (no quotes).
func ParseRequirement(s string) (Token, bool) {
	i := strings.IndexByte(s, '/')
	if i <= 0 {
		return Token{}, false
	}
	name, spec := s[:i], s[i+1:]
	version, variant, qualifier, ok := parseSpec(spec)
	if !ok {
		return Token{}, false
	}
	return Token{
		Package:   name,
		Version:   version,
		Variant:   variant,
		Qualifier: qualifier,
		Spec:      spec,
		Start:     i + 1,
		End:       len(s),
	}, true
}

// parseSpec splits a spec into its version component and decoration.
func parseSpec(spec string) (version string, variant Variant, qualifier string, ok bool) {
	if strings.ContainsRune(spec, '#') {
		return "", 0, "", false
	}

	body := spec
	if i := strings.IndexByte(spec, '@'); i >= 0 {
		qualifier = spec[i+1:]
		body = spec[:i]
		if !qualifierRegex.MatchString(qualifier) {
			return "", 0, "", false
		}
	}

	variant = VariantExact
	version = body
	if strings.HasPrefix(body, "[") {
		if !strings.HasSuffix(body, "]") {
			return "", 0, "", false
		}
		inner := body[1 : len(body)-1]
		switch {
		case strings.HasPrefix(inner, "^"):
			variant, version = VariantCaret, inner[1:]
		case strings.HasPrefix(inner, "~"):
			variant, version = VariantTilde, inner[1:]
		default:
			variant, version = VariantBracket, inner
		}
	}

	if !versionRegex.MatchString(version) {
		return "", 0, "", false
	}
	return version, variant, qualifier, true
}

// contextAt classifies a token by the closest requirement keyword before it.
func contextAt(text string, keywords [][]int, pos int) Context {
	ctx := ContextDirect
	for _, k := range keywords {
		if k[0] >= pos {
			break
		}
		switch text[k[2]:k[3]] {
		case "build_requires", "tool_requires":
			ctx = ContextBuild
		default:
			ctx = ContextDirect
		}
	}
	return ctx
}

// Format re-emits the token's spec with newVersion in place of its version
// component. Brackets, range symbol and channel suffix are kept verbatim.
func (t Token) Format(newVersion string) string {
	var b strings.Builder
	switch t.Variant {
	case VariantCaret:
		b.WriteString("[^")
	case VariantTilde:
		b.WriteString("[~")
	case VariantBracket:
		b.WriteString("[")
	}
	b.WriteString(newVersion)
	if t.Variant != VariantExact {
		b.WriteString("]")
	}
	if t.Qualifier != "" {
		b.WriteString("@")
		b.WriteString(t.Qualifier)
	}
	return b.String()
}

// Key identifies the requirement family the token belongs to
func (t Token) Key() string {
	return RequirementKey(t.Package, t.Qualifier)
}

// Requirement returns "name/spec" as written
func (t Token) Requirement() string {
	return t.Package + "/" + t.Spec
}

// Channel returns the qualifier used to look the requirement up: the
// written "user/channel", or "" when absent or written as "_/_".
// Qualifier itself keeps the written text so Format reproduces it.
func (t Token) Channel() string {
	return conanref.NormalizeQualifier(t.Qualifier)
}
