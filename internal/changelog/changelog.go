// Package changelog turns the "Unreleased" section of a changelog into a
// dated release header.
package changelog

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/mmaksimovic94/mm-test-release/internal/common/fileutil"
)

var (
	ErrChangelogNotFound = errors.New("changelog not found")
	ErrNoUnreleased      = errors.New("no Unreleased section")
)

// DateLayout is the layout of release dates in headers
const DateLayout = "2006-01-02"

var unreleasedRegex = regexp.MustCompile(`##\s+Unreleased`)

// Header returns the release header, e.g. "## [1.2.0] - 2024-05-01"
func Header(version string, date time.Time) string {
	return fmt.Sprintf("## [%s] - %s", version, date.Format(DateLayout))
}

// Release replaces the first Unreleased header in text.
// Text is returned unchanged when there is none.
func Release(text, version string, date time.Time) (string, bool) {
	loc := unreleasedRegex.FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	return text[:loc[0]] + Header(version, date) + text[loc[1]:], true
}

// UpdateFile releases the Unreleased section of the changelog at path.
// The file is only written when it changes, through a temp file renamed
// over the original.
func UpdateFile(path, version string, date time.Time) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, fmt.Errorf("%w: %s", ErrChangelogNotFound, path)
	}
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	updated, ok := Release(string(data), version, date)
	if !ok {
		return false, fmt.Errorf("%w in %s", ErrNoUnreleased, path)
	}
	if err := fileutil.WriteAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}
