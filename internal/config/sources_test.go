package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/william-eth/web-tech-feeder/pkg/collect"
	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/errors"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validSources = `
[categories.frontend]
advisory_ecosystems = ["npm"]

[[categories.frontend.repos]]
owner = "vitejs"
name = "vite"
display_name = "Vite"
release_strategy = "releases_only"
release_notes_files = ["CHANGELOG.md"]

[[categories.frontend.feeds]]
url = "https://blog.example.com/feed.xml"
display_name = "example blog"

[[categories.frontend.packages]]
registry = "npm"
name = "vite"

[categories.backend]
[[categories.backend.repos]]
owner = "golang"
name = "go"
`

func TestLoadSources(t *testing.T) {
	sources, err := LoadSources(writeSources(t, validSources))
	if err != nil {
		t.Fatal(err)
	}

	frontend := sources[digest.CategoryFrontend]
	if len(frontend.Repos) != 1 || frontend.Repos[0].Strategy != collect.StrategyReleasesOnly {
		t.Errorf("frontend repos = %+v", frontend.Repos)
	}
	if frontend.Repos[0].Display() != "Vite" {
		t.Errorf("Display = %q", frontend.Repos[0].Display())
	}
	if len(frontend.Feeds) != 1 || frontend.Feeds[0].DisplayName != "example blog" {
		t.Errorf("frontend feeds = %+v", frontend.Feeds)
	}
	if len(frontend.Packages) != 1 || frontend.Packages[0].Registry != "npm" {
		t.Errorf("frontend packages = %+v", frontend.Packages)
	}
	if len(frontend.AdvisoryEcosystems) != 1 {
		t.Errorf("frontend ecosystems = %v", frontend.AdvisoryEcosystems)
	}

	backend := sources[digest.CategoryBackend]
	if len(backend.Repos) != 1 || backend.Repos[0].Strategy != collect.StrategyAuto {
		t.Errorf("backend repos = %+v (empty strategy should mean auto)", backend.Repos)
	}
}

func TestLoadSourcesRejectsUnknownKeys(t *testing.T) {
	path := writeSources(t, `
[categories.frontend]
[[categories.frontend.repos]]
owner = "vitejs"
name = "vite"
custom_option = "nope"
`)
	_, err := LoadSources(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("LoadSources = %v, want INVALID_CONFIG for unknown key", err)
	}
}

func TestLoadSourcesRejectsUnknownCategory(t *testing.T) {
	path := writeSources(t, `
[categories.mobile]
[[categories.mobile.repos]]
owner = "a"
name = "b"
`)
	_, err := LoadSources(path)
	if !errors.Is(err, errors.ErrCodeInvalidCategory) {
		t.Errorf("LoadSources = %v, want INVALID_CATEGORY", err)
	}
}

func TestLoadSourcesRejectsBadStrategy(t *testing.T) {
	path := writeSources(t, `
[categories.frontend]
[[categories.frontend.repos]]
owner = "a"
name = "b"
release_strategy = "sometimes"
`)
	if _, err := LoadSources(path); err == nil {
		t.Error("invalid strategy should be rejected")
	}
}

func TestLoadSourcesRejectsIncompleteRepo(t *testing.T) {
	path := writeSources(t, `
[categories.frontend]
[[categories.frontend.repos]]
owner = "a"
`)
	if _, err := LoadSources(path); err == nil {
		t.Error("repo without name should be rejected")
	}
}
