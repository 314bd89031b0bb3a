package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/common/fileutil"
)

var (
	ErrManifestNotFound = errors.New("manifest not found")
)

// Edit is a decided version change for one package on one channel.
// OldSpec and NewSpec describe the first occurrence; Apply rewrites every
// occurrence of Package whose Channel equals Qualifier, each keeping its own
// decoration.
type Edit struct {
	Package    string
	Qualifier  string // looked-up "user/channel", "" for unqualified
	OldVersion string
	NewVersion string
	OldSpec    string
	NewSpec    string
	Context    Context
}

// Key identifies the requirement family an edit covers
func (e Edit) Key() string {
	return RequirementKey(e.Package, e.Qualifier)
}

// RequirementKey joins a package name and its normalized qualifier.
// Requirements sharing a key are resolved against the same published versions.
func RequirementKey(pkg, qualifier string) string {
	return pkg + "@" + conanref.NormalizeQualifier(qualifier)
}

// String returns "name/old -> name/new"
func (e Edit) String() string {
	return e.Package + "/" + e.OldSpec + " -> " + e.Package + "/" + e.NewSpec
}

// Apply rewrites every requirement covered by edits in a single pass over text.
// It returns the new text and whether anything changed; with no applicable
// edit the returned text is text itself.
func Apply(text string, edits []Edit) (string, bool) {
	if len(edits) == 0 {
		return text, false
	}

	byKey := make(map[string]Edit, len(edits))
	for _, e := range edits {
		if _, exists := byKey[e.Key()]; !exists {
			byKey[e.Key()] = e
		}
	}

	var b strings.Builder
	last := 0
	modified := false
	for _, tok := range Scan(text) {
		e, ok := byKey[tok.Key()]
		if !ok || tok.Version == e.NewVersion {
			continue
		}
		b.WriteString(text[last:tok.Start])
		b.WriteString(tok.Format(e.NewVersion))
		last = tok.End
		modified = true
	}

	if !modified {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}

// Document is a manifest file held in memory between one read and at most
// one write.
type Document struct {
	Path     string
	original string
	text     string
	mode     os.FileMode
}

// Load reads the manifest at path
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return &Document{
		Path:     path,
		original: string(data),
		text:     string(data),
		mode:     info.Mode().Perm(),
	}, nil
}

// Text returns the current (possibly edited) content
func (d *Document) Text() string {
	return d.text
}

// Apply applies edits to the in-memory text and reports whether it changed
func (d *Document) Apply(edits []Edit) bool {
	newText, changed := Apply(d.text, edits)
	if changed {
		d.text = newText
	}
	return changed
}

// SetText replaces the in-memory text
func (d *Document) SetText(text string) {
	d.text = text
}

// Modified reports whether the in-memory text differs from what was read
func (d *Document) Modified() bool {
	return d.text != d.original
}

// Save writes the document back only if it was modified.
// The write goes to a temp file that is renamed over the original.
func (d *Document) Save() (bool, error) {
	if !d.Modified() {
		return false, nil
	}

	if err := fileutil.WriteAtomic(d.Path, []byte(d.text), d.mode); err != nil {
		return false, fmt.Errorf("failed to save manifest: %w", err)
	}

	d.original = d.text
	return true, nil
}
