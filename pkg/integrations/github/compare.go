package github

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterFiles keeps the files whose path matches at least one filter.
// With no filters the list passes through unchanged; when filters exclude
// every file, the unfiltered list is returned instead — a compare block
// must never hide all of its files.
func FilterFiles(files []PullFile, filters []*regexp.Regexp) []PullFile {
	if len(filters) == 0 || len(files) == 0 {
		return files
	}
	var kept []PullFile
	for _, f := range files {
		for _, re := range filters {
			if re.MatchString(f.Filename) {
				kept = append(kept, f)
				break
			}
		}
	}
	if len(kept) == 0 {
		return files
	}
	return kept
}

// FormatCompare renders the stable plain-text compare block for a PR:
// identity, state/base/head, aggregate stats, optional compare URL, and a
// bulleted section-tagged file list. Missing numbers render as zero and a
// missing URL line is omitted; nothing is fabricated.
func FormatCompare(pull *Pull, files []PullFile, section string, filters []*regexp.Regexp) string {
	if pull == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PR #%d: %s\n", pull.Number, pull.Title)
	fmt.Fprintf(&b, "State: %s | Base: %s | Head: %s\n", pullState(pull), pull.Base.Ref, pull.Head.Ref)
	fmt.Fprintf(&b, "Stats: files=%d, commits=%d, +%d/-%d\n",
		pull.ChangedFiles, pull.Commits, pull.Additions, pull.Deletions)
	if pull.HTMLURL != "" {
		fmt.Fprintf(&b, "Compare: %s\n", pull.HTMLURL)
	}

	kept := FilterFiles(files, filters)
	if len(kept) > 0 {
		b.WriteString("Files:\n")
		for _, f := range kept {
			if section != "" {
				fmt.Fprintf(&b, "- [%s] %s (+%d/-%d)\n", section, f.Filename, f.Additions, f.Deletions)
			} else {
				fmt.Fprintf(&b, "- %s (+%d/-%d)\n", f.Filename, f.Additions, f.Deletions)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func pullState(p *Pull) string {
	if p.Merged {
		return "merged"
	}
	return p.State
}

// CompileFileFilters compiles filter expressions case-insensitively.
// Invalid expressions are reported, not skipped: a silently dropped filter
// would change which files a digest shows.
func CompileFileFilters(patterns []string) ([]*regexp.Regexp, error) {
	filters := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("file filter %q: %w", p, err)
		}
		filters = append(filters, re)
	}
	return filters, nil
}
