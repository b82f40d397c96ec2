package observability

import (
	"context"
	"testing"
	"time"
)

type countingCacheHooks struct {
	hits, misses, sets int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingCacheHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	// Must not panic.
	Collect().OnCategoryStart(ctx, "frontend", 3)
	Collect().OnSourceComplete(ctx, "frontend", "releases", 2, time.Second, nil)
	Cache().OnCacheHit(ctx, "releases")
	HTTP().OnRateLimited(ctx, "api.github.com", "/repos/x/y", time.Second)
}

func TestSetCacheHooks(t *testing.T) {
	defer Reset()

	h := &countingCacheHooks{}
	SetCacheHooks(h)

	ctx := context.Background()
	Cache().OnCacheHit(ctx, "releases")
	Cache().OnCacheHit(ctx, "releases")
	Cache().OnCacheMiss(ctx, "tags")
	Cache().OnCacheSet(ctx, "tags", 128)

	if h.hits != 2 || h.misses != 1 || h.sets != 1 {
		t.Errorf("counts = (%d, %d, %d), want (2, 1, 1)", h.hits, h.misses, h.sets)
	}
}

func TestSetNilHooksKeepsDefaults(t *testing.T) {
	defer Reset()

	SetCacheHooks(nil)
	if Cache() == nil {
		t.Fatal("Cache() should never return nil")
	}
}
