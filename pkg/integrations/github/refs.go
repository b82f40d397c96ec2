package github

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Reference numbers are constrained to 1–7 digits; anything longer is a
// build id or timestamp, not an issue number.
const refDigits = `(\d{1,7})\b`

// trackerPattern matches identifiers that belong to non-platform trackers:
// a tracker word immediately preceding #N. Numbers captured here are
// subtracted from the extraction result.
var trackerPattern = regexp.MustCompile(`(?i)\b(?:ticket|jira|trac|redmine)\b[\s:-]{0,10}#` + refDigits)

// keywordPattern matches a context keyword followed by #N within a short
// window (up to 50 characters that are neither '#' nor a newline).
var keywordPattern = regexp.MustCompile(
	`(?i)\b(?:pull request|pull|pr|issue|fix(?:es|ed)?|close[sd]?|resolve[sd]?|references|referenced|reference|refer|ref)\b[^#\n]{0,50}#` + refDigits)

// bracketPattern matches changelog-style bracketed references: [#N] and
// [PR #N]. [Issue #N] is intentionally not admitted.
var bracketPattern = regexp.MustCompile(`\[(?:PR )?#` + refDigits + `\]`)

// ghPattern matches GH-N tokens.
var ghPattern = regexp.MustCompile(`\bGH-` + refDigits)

// ExtractReferences parses free text into the ordered, unique list of
// issue/PR numbers referenced within owner/repo. Matches come from four
// rules (platform URLs, keyword+#N, bracketed changelog refs, GH-N), minus
// any number that appears in a non-platform tracker context. Order follows
// first appearance in the text; when limit > 0 only the first limit
// references are returned.
func ExtractReferences(text, owner, repo string, limit int) []int {
	if text == "" {
		return nil
	}

	excluded := make(map[int]bool)
	for _, m := range trackerPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			excluded[n] = true
		}
	}

	urlPattern := regexp.MustCompile(
		`https?://[^/\s]+/` + regexp.QuoteMeta(owner) + `/` + regexp.QuoteMeta(repo) + `/(?:issues|pull)/` + refDigits)

	type match struct {
		pos int
		num int
	}
	var matches []match
	for _, re := range []*regexp.Regexp{urlPattern, keywordPattern, bracketPattern, ghPattern} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			n, err := strconv.Atoi(text[idx[2]:idx[3]])
			if err != nil || n == 0 || excluded[n] {
				continue
			}
			// The "issue" keyword would otherwise admit the bracketed
			// [Issue #N] form that bracketPattern leaves out.
			if re == keywordPattern && idx[3] < len(text) && text[idx[3]] == ']' &&
				strings.HasSuffix(strings.ToLower(text[:idx[2]]), "[issue #") {
				continue
			}
			matches = append(matches, match{pos: idx[2], num: n})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	seen := make(map[int]bool)
	var refs []int
	for _, m := range matches {
		if seen[m.num] {
			continue
		}
		seen[m.num] = true
		refs = append(refs, m.num)
		if limit > 0 && len(refs) == limit {
			break
		}
	}
	return refs
}

// FormatReferences serializes a reference list in the bracketed changelog
// form, e.g. "[#12] [#42]". Extraction of this output yields the same list.
func FormatReferences(refs []int) string {
	parts := make([]string, len(refs))
	for i, n := range refs {
		parts[i] = fmt.Sprintf("[#%d]", n)
	}
	return strings.Join(parts, " ")
}
