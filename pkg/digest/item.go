// Package digest defines the canonical data model shared by collectors,
// the orchestrator, and the summarization step: items, categories, the
// cutoff window, and the deterministic output ordering.
package digest

import (
	"sort"
	"time"
)

// Item is one entry in the weekly digest. Collectors emit Items; the
// orchestrator sorts and deduplicates them; the summarizer consumes them
// unchanged. An Item is immutable after construction.
type Item struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body"`
	Source      string    `json:"source"`
}

// Category is a top-level grouping of digest sources.
type Category string

// The three digest categories. Each has an independent source configuration
// and a stable output ordering.
const (
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryDevOps   Category = "devops"
)

// Categories lists all categories in their fixed output order.
var Categories = []Category{CategoryFrontend, CategoryBackend, CategoryDevOps}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryFrontend, CategoryBackend, CategoryDevOps:
		return true
	}
	return false
}

// SortItems orders items by (-published-at, title, source, url): newest
// first, with the remaining fields breaking ties so the sequence is a pure
// function of the input set regardless of collection scheduling.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.URL < b.URL
	})
}
