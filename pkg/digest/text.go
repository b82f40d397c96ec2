package digest

import "strings"

// Body and excerpt caps applied by collectors.
const (
	MaxReleaseBody   = 6000
	MaxIssueBody     = 4000
	MaxChangelogPart = 2500
)

// Truncate caps s at limit runes, appending a single ellipsis when the text
// was shortened. Operating on runes guarantees a multibyte character is
// never split.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// CollapseWhitespace folds runs of spaces, tabs, and newlines into single
// spaces and trims the ends. Used when flattening HTML-derived text.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
