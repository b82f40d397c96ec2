package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/william-eth/web-tech-feeder/pkg/collect"
	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/errors"
)

// Sources is the validated source configuration, keyed by category.
type Sources map[digest.Category]CategorySources

// CategorySources groups one category's configured inputs.
type CategorySources struct {
	Repos              []collect.RepoRef
	Feeds              []collect.FeedRef
	Packages           []collect.PackageRef
	AdvisoryEcosystems []string
}

// TOML document shape. Per-repo options are an enumerated record; any key
// outside these structs fails the load.
type sourcesFile struct {
	Categories map[string]categoryConfig `toml:"categories"`
}

type categoryConfig struct {
	Repos              []repoConfig    `toml:"repos"`
	Feeds              []feedConfig    `toml:"feeds"`
	Packages           []packageConfig `toml:"packages"`
	AdvisoryEcosystems []string        `toml:"advisory_ecosystems"`
}

type repoConfig struct {
	Owner             string   `toml:"owner"`
	Name              string   `toml:"name"`
	DisplayName       string   `toml:"display_name"`
	ReleaseStrategy   string   `toml:"release_strategy"`
	ReleaseNotesFiles []string `toml:"release_notes_files"`
}

type feedConfig struct {
	URL         string `toml:"url"`
	DisplayName string `toml:"display_name"`
}

type packageConfig struct {
	Registry string `toml:"registry"`
	Name     string `toml:"name"`
}

// LoadSources reads and validates the TOML source document at path.
// Unknown keys and unknown categories are rejected, not ignored.
func LoadSources(path string) (Sources, error) {
	var file sourcesFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return parseSources(file)
}

func parseSources(file sourcesFile) (Sources, error) {
	sources := make(Sources, len(file.Categories))
	for name, cat := range file.Categories {
		if !digest.ValidCategory(name) {
			return nil, errors.New(errors.ErrCodeInvalidCategory, "unknown category %q", name)
		}

		var cs CategorySources
		for _, rc := range cat.Repos {
			if rc.Owner == "" || rc.Name == "" {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "repo in %s needs owner and name", name)
			}
			strategy, err := collect.ParseReleaseStrategy(rc.ReleaseStrategy)
			if err != nil {
				return nil, fmt.Errorf("repo %s/%s: %w", rc.Owner, rc.Name, err)
			}
			cs.Repos = append(cs.Repos, collect.RepoRef{
				Owner:             rc.Owner,
				Name:              rc.Name,
				DisplayName:       rc.DisplayName,
				Strategy:          strategy,
				ReleaseNotesFiles: rc.ReleaseNotesFiles,
			})
		}
		for _, fc := range cat.Feeds {
			if fc.URL == "" {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "feed in %s needs a url", name)
			}
			display := fc.DisplayName
			if display == "" {
				display = fc.URL
			}
			cs.Feeds = append(cs.Feeds, collect.FeedRef{URL: fc.URL, DisplayName: display})
		}
		for _, pc := range cat.Packages {
			if pc.Registry == "" || pc.Name == "" {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "package in %s needs registry and name", name)
			}
			cs.Packages = append(cs.Packages, collect.PackageRef{Registry: pc.Registry, Name: pc.Name})
		}
		cs.AdvisoryEcosystems = cat.AdvisoryEcosystems

		sources[digest.Category(name)] = cs
	}
	return sources, nil
}
