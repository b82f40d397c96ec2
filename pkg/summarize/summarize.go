// Package summarize turns collected items into graded digest summaries
// through an LLM provider. Without credentials it degrades to pass-through
// so dry runs work offline.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
)

// Importance grades a digest entry.
type Importance string

// Importance levels, highest first.
const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// rank orders importance for filtering; unknown grades rank lowest.
func (i Importance) rank() int {
	switch i {
	case ImportanceCritical:
		return 3
	case ImportanceHigh:
		return 2
	case ImportanceMedium:
		return 1
	case ImportanceLow:
		return 0
	}
	return -1
}

// AtLeast reports whether i meets the min threshold.
func (i Importance) AtLeast(min Importance) bool { return i.rank() >= min.rank() }

// ParseImportance validates an importance string.
func ParseImportance(s string) (Importance, error) {
	switch Importance(strings.ToLower(s)) {
	case ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow:
		return Importance(strings.ToLower(s)), nil
	case "":
		return ImportanceLow, nil
	}
	return "", fmt.Errorf("unknown importance %q", s)
}

// Entry is one summarized digest entry.
type Entry struct {
	Item       digest.Item
	Summary    string
	Importance Importance
}

// categoryPacing is the gap between category summarization calls, keeping
// the provider's request rate flat.
const categoryPacing = 5 * time.Second

// Summarizer grades and condenses collected items, one call per category.
type Summarizer struct {
	client *openai.Client
	model  string
	logger *charmlog.Logger
	pacing time.Duration
}

// New creates a summarizer. An empty apiKey yields a pass-through
// summarizer that copies item bodies and grades everything medium.
func New(apiKey, model string, logger *charmlog.Logger) *Summarizer {
	if logger == nil {
		logger = charmlog.Default()
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	s := &Summarizer{model: model, logger: logger, pacing: categoryPacing}
	if apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		s.client = &client
	}
	return s
}

// Run summarizes every category, pacing calls to the provider. Category
// order follows digest.Categories; a category whose call fails falls back
// to pass-through entries.
func (s *Summarizer) Run(ctx context.Context, collected map[digest.Category][]digest.Item) map[digest.Category][]Entry {
	out := make(map[digest.Category][]Entry, len(collected))
	first := true
	for _, cat := range digest.Categories {
		items, ok := collected[cat]
		if !ok {
			continue
		}
		if !first && s.client != nil && len(items) > 0 {
			select {
			case <-ctx.Done():
				return out
			case <-time.After(s.pacing):
			}
		}
		first = false
		out[cat] = s.summarizeCategory(ctx, cat, items)
	}
	return out
}

func (s *Summarizer) summarizeCategory(ctx context.Context, cat digest.Category, items []digest.Item) []Entry {
	if len(items) == 0 {
		return nil
	}
	if s.client == nil {
		return passthrough(items)
	}

	entries, err := s.callProvider(ctx, cat, items)
	if err != nil {
		s.logger.Warn("summarization failed, passing items through", "category", cat, "err", err)
		return passthrough(items)
	}
	return entries
}

// passthrough copies items into medium-importance entries.
func passthrough(items []digest.Item) []Entry {
	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{
			Item:       item,
			Summary:    digest.Truncate(item.Body, 500),
			Importance: ImportanceMedium,
		}
	}
	return entries
}

const systemPrompt = `You are an editor for a weekly engineering digest.
For every numbered item, write a 2-3 sentence summary and grade its
importance as critical, high, medium, or low. Respond with a JSON array:
[{"index": 0, "summary": "...", "importance": "high"}, ...]. Cover every
item exactly once and output nothing but the JSON array.`

func (s *Summarizer) callProvider(ctx context.Context, cat digest.Category, items []digest.Item) ([]Entry, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Category: %s\n\n", cat)
	for i, item := range items {
		fmt.Fprintf(&prompt, "### Item %d\nTitle: %s\nURL: %s\nPublished: %s\n%s\n\n",
			i, item.Title, item.URL, item.PublishedAt.Format("2006-01-02"), digest.Truncate(item.Body, 2000))
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt.String()),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	return parseEntries(resp.Choices[0].Message.Content, items)
}

// parseEntries decodes the model's JSON grading, tolerating code fences.
func parseEntries(content string, items []digest.Item) ([]Entry, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var graded []struct {
		Index      int    `json:"index"`
		Summary    string `json:"summary"`
		Importance string `json:"importance"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &graded); err != nil {
		return nil, fmt.Errorf("decoding grading: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	seen := make(map[int]bool)
	for _, g := range graded {
		if g.Index < 0 || g.Index >= len(items) || seen[g.Index] {
			continue
		}
		seen[g.Index] = true
		importance, err := ParseImportance(g.Importance)
		if err != nil {
			importance = ImportanceMedium
		}
		entries = append(entries, Entry{Item: items[g.Index], Summary: g.Summary, Importance: importance})
	}
	// Items the model skipped still make the digest.
	for i, item := range items {
		if !seen[i] {
			entries = append(entries, Entry{Item: item, Summary: digest.Truncate(item.Body, 500), Importance: ImportanceMedium})
		}
	}
	return entries, nil
}

// Filter drops entries below the minimum importance, preserving order.
func Filter(entries map[digest.Category][]Entry, min Importance) map[digest.Category][]Entry {
	out := make(map[digest.Category][]Entry, len(entries))
	for cat, list := range entries {
		var kept []Entry
		for _, e := range list {
			if e.Importance.AtLeast(min) {
				kept = append(kept, e)
			}
		}
		out[cat] = kept
	}
	return out
}
