package collect

import (
	"context"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/observability"
)

// Orchestrator runs the configured source jobs for each category through
// the source-level worker pool and normalizes the output: flatten, release
// dedupe, deterministic sort.
type Orchestrator struct {
	logger        *charmlog.Logger
	parallel      bool
	sourceWorkers int
}

// NewOrchestrator creates an orchestrator. sourceWorkers bounds the
// source-level pool; parallel false degrades every category to sequential
// execution.
func NewOrchestrator(logger *charmlog.Logger, parallel bool, sourceWorkers int) *Orchestrator {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &Orchestrator{logger: logger, parallel: parallel, sourceWorkers: sourceWorkers}
}

// Run executes every category's jobs and returns the per-category item
// lists, keyed by category. Failed jobs reduce to empty lists; a category
// that collects nothing reports "no data" rather than failing the run.
func (o *Orchestrator) Run(ctx context.Context, jobs map[digest.Category][]Collector) map[digest.Category][]digest.Item {
	out := make(map[digest.Category][]digest.Item, len(jobs))
	for _, cat := range digest.Categories {
		collectors, ok := jobs[cat]
		if !ok {
			continue
		}
		out[cat] = o.collectCategory(ctx, cat, collectors)
	}
	return out
}

func (o *Orchestrator) collectCategory(ctx context.Context, cat digest.Category, collectors []Collector) []digest.Item {
	start := time.Now()
	observability.Collect().OnCategoryStart(ctx, string(cat), len(collectors))

	workers := 1
	if o.parallel && len(collectors) > 1 {
		workers = o.sourceWorkers
	}

	results := Map(ctx, workers, collectors, func(ctx context.Context, _ int, col Collector) []digest.Item {
		return o.runSource(ctx, cat, col)
	})

	items := DeduplicateReleaseVersions(Flatten(results))
	digest.SortItems(items)

	observability.Collect().OnCategoryComplete(ctx, string(cat), len(items), time.Since(start))
	if len(items) == 0 {
		o.logger.Info("no data", "category", cat)
	} else {
		o.logger.Info("category collected", "category", cat, "items", len(items),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
	return items
}

// runSource executes one job, converting panics and errors into an empty
// result so sibling jobs keep going.
func (o *Orchestrator) runSource(ctx context.Context, cat digest.Category, col Collector) (items []digest.Item) {
	start := time.Now()
	observability.Collect().OnSourceStart(ctx, string(cat), col.Name())

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			items = nil
		}
		observability.Collect().OnSourceComplete(ctx, string(cat), col.Name(), len(items), time.Since(start), err)
		if err != nil {
			o.logger.Warn("source failed", "category", cat, "source", col.Name(), "err", err)
		}
	}()

	items, err = col.Collect(ctx)
	if err != nil {
		return nil
	}
	return items
}
