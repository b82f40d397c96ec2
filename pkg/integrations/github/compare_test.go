package github

import (
	"strings"
	"testing"
)

func testPull() *Pull {
	return &Pull{
		Number:       101,
		Title:        "Streaming decoder rewrite",
		State:        "closed",
		Merged:       true,
		HTMLURL:      "https://github.com/acme/widget/pull/101",
		Base:         Ref{Ref: "main"},
		Head:         Ref{Ref: "decoder-v2"},
		Commits:      4,
		Additions:    320,
		Deletions:    85,
		ChangedFiles: 3,
	}
}

func testFiles() []PullFile {
	return []PullFile{
		{Filename: "src/decoder.go", Additions: 300, Deletions: 80},
		{Filename: "docs/decoder.md", Additions: 15, Deletions: 5},
		{Filename: "README.md", Additions: 5, Deletions: 0},
	}
}

func TestFormatCompare(t *testing.T) {
	got := FormatCompare(testPull(), testFiles(), "backend", nil)

	for _, want := range []string{
		"PR #101: Streaming decoder rewrite",
		"State: merged | Base: main | Head: decoder-v2",
		"Stats: files=3, commits=4, +320/-85",
		"Compare: https://github.com/acme/widget/pull/101",
		"- [backend] src/decoder.go (+300/-80)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatCompareOmitsMissingURL(t *testing.T) {
	pull := testPull()
	pull.HTMLURL = ""
	got := FormatCompare(pull, nil, "", nil)
	if strings.Contains(got, "Compare:") {
		t.Errorf("missing URL must be omitted, got:\n%s", got)
	}
}

func TestFormatCompareZeroStats(t *testing.T) {
	got := FormatCompare(&Pull{Number: 7, Title: "t", State: "open"}, nil, "", nil)
	if !strings.Contains(got, "Stats: files=0, commits=0, +0/-0") {
		t.Errorf("missing numbers must default to zero:\n%s", got)
	}
}

func TestFilterFiles(t *testing.T) {
	files := testFiles()

	filters, err := CompileFileFilters([]string{`\.go$`})
	if err != nil {
		t.Fatal(err)
	}
	kept := FilterFiles(files, filters)
	if len(kept) != 1 || kept[0].Filename != "src/decoder.go" {
		t.Errorf("FilterFiles = %v, want only src/decoder.go", kept)
	}
}

func TestFilterFilesCaseInsensitive(t *testing.T) {
	filters, err := CompileFileFilters([]string{`readme`})
	if err != nil {
		t.Fatal(err)
	}
	kept := FilterFiles(testFiles(), filters)
	if len(kept) != 1 || kept[0].Filename != "README.md" {
		t.Errorf("FilterFiles = %v, want only README.md", kept)
	}
}

func TestFilterFilesFallbackWhenNoneMatch(t *testing.T) {
	filters, err := CompileFileFilters([]string{`\.rs$`})
	if err != nil {
		t.Fatal(err)
	}
	kept := FilterFiles(testFiles(), filters)
	if len(kept) != len(testFiles()) {
		t.Errorf("zero matches must fall back to unfiltered list, got %d files", len(kept))
	}
}

func TestCompileFileFiltersRejectsInvalid(t *testing.T) {
	if _, err := CompileFileFilters([]string{`[unclosed`}); err == nil {
		t.Error("invalid filter expression should be rejected")
	}
}
