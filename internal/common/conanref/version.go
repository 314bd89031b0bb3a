package conanref

import (
	"strings"
)

// IsNumeric reports whether v is a dotted numeric version such as "1.9.2".
// Only numeric versions take part in latest-version selection.
func IsNumeric(v string) bool {
	if v == "" {
		return false
	}
	for _, seg := range strings.Split(v, ".") {
		if !isDigits(seg) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// compareDigits compares two decimal strings of arbitrary length without
// converting them to integers, so oversized segments cannot overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// compareSegment orders a single dot-separated segment.
// Numeric segments compare by value, a numeric segment sorts after a
// non-numeric one (1.0 > 1.rc), and non-numeric segments compare lexically.
func compareSegment(a, b string) int {
	aNum, bNum := isDigits(a), isDigits(b)
	switch {
	case aNum && bNum:
		return compareDigits(a, b)
	case aNum:
		return 1
	case bNum:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// CompareVersions compares two dotted version strings.
// Returns: -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
//
// Missing trailing segments count as zero, so "1.0" and "1.0.0" are equal.
// Non-numeric input never panics; it is ordered best-effort segment by segment.
func CompareVersions(v1, v2 string) int {
	segs1 := strings.Split(v1, ".")
	segs2 := strings.Split(v2, ".")

	maxLen := len(segs1)
	if len(segs2) > maxLen {
		maxLen = len(segs2)
	}

	for i := 0; i < maxLen; i++ {
		a, b := "0", "0"
		if i < len(segs1) {
			a = segs1[i]
		}
		if i < len(segs2) {
			b = segs2[i]
		}
		if cmp := compareSegment(a, b); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// Latest returns the highest numeric version in versions.
// Entries that are not purely dotted numeric (pre-releases, date tags such as
// "cci.20230101") are discarded first. The boolean is false when nothing is left.
// On ties ("1.0" vs "1.0.0") the longer spelling wins so the result is stable
// regardless of input order.
func Latest(versions []string) (string, bool) {
	var best string
	found := false
	for _, v := range versions {
		if !IsNumeric(v) {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		cmp := CompareVersions(v, best)
		if cmp > 0 || (cmp == 0 && (len(v) > len(best) || (len(v) == len(best) && v > best))) {
			best = v
		}
	}
	return best, found
}

// Major returns the first segment of a version ("9" for "9.1.0").
func Major(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// FilterNumeric returns the numeric entries of versions, preserving order.
func FilterNumeric(versions []string) []string {
	var out []string
	for _, v := range versions {
		if IsNumeric(v) {
			out = append(out, v)
		}
	}
	return out
}
