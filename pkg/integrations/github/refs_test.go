package github

import (
	"reflect"
	"testing"
)

func TestExtractReferences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{
			name: "keyword forms",
			text: "fixes #12, closes #34 and resolves #56",
			want: []int{12, 34, 56},
		},
		{
			name: "keyword window tolerance",
			text: "this PR finally addresses the long-standing issue #78",
			want: []int{78},
		},
		{
			name: "platform urls",
			text: "see https://github.com/acme/widget/issues/11 and https://github.com/acme/widget/pull/22",
			want: []int{11, 22},
		},
		{
			name: "foreign repo url ignored",
			text: "see https://github.com/other/repo/issues/99",
			want: nil,
		},
		{
			name: "bracketed changelog refs",
			text: "changelog: [#42] and [PR #43]",
			want: []int{42, 43},
		},
		{
			name: "bracketed issue form not admitted",
			text: "changelog: [Issue #44]",
			want: nil,
		},
		{
			name: "gh tokens",
			text: "backported in GH-1234",
			want: []int{1234},
		},
		{
			name: "tracker lookalikes rejected",
			text: "see ticket #999 and fixes #12",
			want: []int{12},
		},
		{
			name: "jira and redmine rejected",
			text: "jira #100, redmine #200, trac #300, but fixes #400",
			want: []int{400},
		},
		{
			name: "duplicates collapse in first-seen order",
			text: "fixes #5, also closes #5 and resolves #3",
			want: []int{5, 3},
		},
		{
			name: "eight digit numbers ignored",
			text: "fixes #12345678",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractReferences(tt.text, "acme", "widget", 0)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractReferences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractReferencesLimit(t *testing.T) {
	text := "fixes #1, fixes #2, fixes #3, fixes #4"
	got := ExtractReferences(text, "acme", "widget", 2)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("limited extraction = %v, want [1 2]", got)
	}
}

func TestExtractReferencesIdempotent(t *testing.T) {
	text := "fixes #12 and [PR #42], plus GH-7"
	first := ExtractReferences(text, "acme", "widget", 0)
	again := ExtractReferences(FormatReferences(first), "acme", "widget", 0)
	if !reflect.DeepEqual(first, again) {
		t.Errorf("re-extraction of serialized output = %v, want %v", again, first)
	}
}

func TestExtractReferencesOrderFollowsText(t *testing.T) {
	// The bracket match appears before the keyword match in the text, so it
	// must come first regardless of rule evaluation order.
	text := "[#9] came first, then fixes #4"
	got := ExtractReferences(text, "acme", "widget", 0)
	if !reflect.DeepEqual(got, []int{9, 4}) {
		t.Errorf("ExtractReferences() = %v, want [9 4]", got)
	}
}
