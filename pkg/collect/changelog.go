package collect

import (
	"regexp"
	"strings"
)

var (
	atxHeadingPattern = regexp.MustCompile(`^#{1,6}\s+`)
	setextUnderline   = regexp.MustCompile(`^(=+|-+)\s*$`)

	// versionShaped matches headings that introduce some version's section,
	// used to find where the current section ends. Any version-shaped
	// heading terminates the capture, pre-release chains included.
	versionShaped = regexp.MustCompile(`\d+\.\d+`)
)

// ExtractChangelogSection locates the heading for tag inside a changelog
// document and returns the text through the next version-like heading.
// Headings match when they contain the tag, the tag without its leading
// "v", or the tag with "v" prepended; both ATX headings and setext
// (underlined) headings are recognized.
func ExtractChangelogSection(content, tag string) string {
	variants := tagVariants(tag)
	lines := strings.Split(content, "\n")

	start := -1
	for i, line := range lines {
		if !isHeadingLine(lines, i) {
			continue
		}
		for _, v := range variants {
			if containsVersionToken(line, v) {
				start = i
				break
			}
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return ""
	}

	body := start + 1
	// Skip the setext underline itself.
	if body < len(lines) && setextUnderline.MatchString(lines[body]) && !atxHeadingPattern.MatchString(lines[start]) {
		body++
	}

	var section []string
	for i := body; i < len(lines); i++ {
		if isHeadingLine(lines, i) && versionShaped.MatchString(lines[i]) {
			break
		}
		section = append(section, lines[i])
	}
	return strings.TrimSpace(strings.Join(section, "\n"))
}

// tagVariants returns the heading spellings accepted for a tag:
// {tag, tag-without-v, v<tag>}, deduplicated.
func tagVariants(tag string) []string {
	bare := strings.TrimPrefix(tag, "v")
	variants := []string{tag}
	if bare != tag {
		variants = append(variants, bare)
	} else {
		variants = append(variants, "v"+tag)
	}
	return variants
}

// isHeadingLine reports whether lines[i] is an ATX heading or a setext
// heading (non-empty line underlined by = or -).
func isHeadingLine(lines []string, i int) bool {
	line := lines[i]
	if atxHeadingPattern.MatchString(line) {
		return true
	}
	if strings.TrimSpace(line) == "" {
		return false
	}
	return i+1 < len(lines) && setextUnderline.MatchString(lines[i+1])
}

// containsVersionToken reports whether line contains v bounded by
// non-version characters, so "1.2" does not match inside "1.2.0".
func containsVersionToken(line, v string) bool {
	re := regexp.MustCompile(`(^|[^A-Za-z0-9.])` + regexp.QuoteMeta(v) + `($|[^0-9.])`)
	return re.MatchString(line)
}
