package collect

import (
	"testing"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
)

func TestDeduplicateReleaseVersions(t *testing.T) {
	published := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	items := []digest.Item{
		{Title: "vite 6.1.0 released", Source: "npm", Body: "short", PublishedAt: published},
		{Title: "Vite v6.1.0 released", Source: "github-releases", Body: "full release notes with compare", PublishedAt: published},
		{Title: "unrelated post", Source: "feed:blog", PublishedAt: published},
	}

	got := DeduplicateReleaseVersions(items)
	if len(got) != 2 {
		t.Fatalf("items = %d, want 2", len(got))
	}

	var survivor *digest.Item
	for i := range got {
		if got[i].Title != "unrelated post" {
			survivor = &got[i]
		}
	}
	if survivor == nil || survivor.Source != "github-releases" {
		t.Errorf("survivor = %+v, want the hosting-platform release", survivor)
	}
}

func TestDeduplicateKeepsDistinctVersions(t *testing.T) {
	published := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	items := []digest.Item{
		{Title: "vite 6.1.0 released", Source: "npm", PublishedAt: published},
		{Title: "vite 6.0.0 released", Source: "npm", PublishedAt: published},
	}
	if got := DeduplicateReleaseVersions(items); len(got) != 2 {
		t.Errorf("items = %d, want 2 (different versions)", len(got))
	}
}

func TestDeduplicateBodyLengthBreaksTies(t *testing.T) {
	published := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	items := []digest.Item{
		{Title: "serde 1.0.200 released", Source: "crates", Body: "x", PublishedAt: published},
		{Title: "serde 1.0.200 released", Source: "pypi", Body: "a longer descriptive body", PublishedAt: published},
	}
	got := DeduplicateReleaseVersions(items)
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}
	if got[0].Source != "pypi" {
		t.Errorf("survivor = %s, want pypi (longer body at equal rank)", got[0].Source)
	}
}

func TestReleaseKey(t *testing.T) {
	tests := []struct {
		title       string
		wantName    string
		wantVersion string
		wantOK      bool
	}{
		{"Vite v6.1.0 released", "vite", "6.1.0", true},
		{"serde 1.0.200 released", "serde", "1.0.200", true},
		{"React 19.2.0-rc.1 released", "react", "19.2.0-rc.1", true},
		{"not a release title", "", "", false},
		{"[Issue] widget: crash", "", "", false},
	}
	for _, tt := range tests {
		name, version, ok := releaseKey(tt.title)
		if ok != tt.wantOK || name != tt.wantName || version != tt.wantVersion {
			t.Errorf("releaseKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.title, name, version, ok, tt.wantName, tt.wantVersion, tt.wantOK)
		}
	}
}

func TestSourceRank(t *testing.T) {
	if sourceRank("github-releases") <= sourceRank("npm") {
		t.Error("hosting-platform releases must outrank registries")
	}
	if sourceRank("npm") <= sourceRank("feed:blog") {
		t.Error("registries must outrank feeds")
	}
}
