package judge

import "strings"

// CompareMode selects how program output is matched against the expected
// answer.
type CompareMode string

const (
	// CompareExact requires byte-for-byte equality.
	CompareExact CompareMode = "exact"
	// CompareTrim strips trailing whitespace from each line and ignores
	// trailing blank lines. The common judge default.
	CompareTrim CompareMode = "trim"
	// CompareIgnoreWhitespace collapses all whitespace runs, so only the
	// token sequence matters.
	CompareIgnoreWhitespace CompareMode = "ignore_whitespace"
)

// ValidCompareMode reports whether s names a known comparison mode.
func ValidCompareMode(s string) bool {
	switch CompareMode(s) {
	case CompareExact, CompareTrim, CompareIgnoreWhitespace:
		return true
	}
	return false
}

// Compare reports whether got matches want under the given mode. Unknown
// modes fall back to trim.
func Compare(mode CompareMode, got, want string) bool {
	switch mode {
	case CompareExact:
		return got == want
	case CompareIgnoreWhitespace:
		return collapseWhitespace(got) == collapseWhitespace(want)
	default:
		return normalizeTrailing(got) == normalizeTrailing(want)
	}
}

// normalizeTrailing strips trailing spaces, tabs and carriage returns from
// each line and drops trailing blank lines.
func normalizeTrailing(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	n := len(lines)
	for n > 0 && lines[n-1] == "" {
		n--
	}
	return strings.Join(lines[:n], "\n")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
