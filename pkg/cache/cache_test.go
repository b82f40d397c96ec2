package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	defer c.Close()

	if _, ok, _ := c.Get(ctx, "absent"); ok {
		t.Error("Get on empty cache should miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v), want hit", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("Get = %q, want %q", data, "value")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("NullCache should not store data")
	}
}

func TestRunFetchMemoizesSuccess(t *testing.T) {
	ctx := context.Background()
	r := NewRun(NewMemory(), nil)
	defer r.Close()

	calls := 0
	fetch := func() error {
		var v []string
		return r.Fetch(ctx, "releases", "owner/repo", &v, func() error {
			calls++
			v = []string{"v1.2.0", "v1.1.0"}
			return nil
		})
	}

	if err := fetch(); err != nil {
		t.Fatalf("first Fetch error: %v", err)
	}
	if err := fetch(); err != nil {
		t.Fatalf("second Fetch error: %v", err)
	}
	if calls != 1 {
		t.Errorf("compute calls = %d, want 1", calls)
	}
}

func TestRunFetchMemoizesNegative(t *testing.T) {
	ctx := context.Background()
	r := NewRun(NewMemory(), nil)
	defer r.Close()

	calls := 0
	fetch := func() error {
		var v map[string]any
		return r.Fetch(ctx, "issue", "owner/repo#404", &v, func() error {
			calls++
			return ErrNotFound
		})
	}

	if err := fetch(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("first Fetch = %v, want ErrNotFound", err)
	}
	if err := fetch(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Fetch = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("compute calls = %d, want 1 (negative must be cached)", calls)
	}
}

func TestRunFetchDoesNotMemoizeTransientErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRun(NewMemory(), nil)
	defer r.Close()

	transient := errors.New("connection reset")
	calls := 0
	fetch := func() error {
		var v string
		return r.Fetch(ctx, "tags", "owner/repo", &v, func() error {
			calls++
			if calls == 1 {
				return transient
			}
			v = "ok"
			return nil
		})
	}

	if err := fetch(); !errors.Is(err, transient) {
		t.Fatalf("first Fetch = %v, want transient error", err)
	}
	if err := fetch(); err != nil {
		t.Fatalf("second Fetch error: %v", err)
	}
	if calls != 2 {
		t.Errorf("compute calls = %d, want 2 (errors are not cached)", calls)
	}
}

func TestRunFetchCoalescesConcurrent(t *testing.T) {
	ctx := context.Background()
	r := NewRun(NewMemory(), nil)
	defer r.Close()

	var calls atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			var v int
			_ = r.Fetch(ctx, "commit", "deadbeef", &v, func() error {
				calls.Add(1)
				time.Sleep(5 * time.Millisecond)
				v = 42
				return nil
			})
			if v != 42 {
				t.Errorf("v = %d, want 42", v)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute calls = %d, want 1 under concurrency", got)
	}
}

func TestRunFetchSeparateNamespaces(t *testing.T) {
	ctx := context.Background()
	r := NewRun(NewMemory(), nil)
	defer r.Close()

	var a, b string
	_ = r.Fetch(ctx, "nsA", "k", &a, func() error { a = "alpha"; return nil })
	_ = r.Fetch(ctx, "nsB", "k", &b, func() error { b = "beta"; return nil })

	var again string
	_ = r.Fetch(ctx, "nsA", "k", &again, func() error {
		t.Error("compute should not run for cached nsA entry")
		return nil
	})
	if again != "alpha" {
		t.Errorf("nsA value = %q, want %q", again, "alpha")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"null", "null", "nil"},
		{"array", `[1,2,3]`, "array(len=3)"},
		{"small map", `{"a":1,"b":2}`, "map(keys=a,b)"},
		{"large map", `{"a":1,"b":2,"c":3,"d":4}`, "map(keys=a,b,c…)"},
		{"string", `"hello"`, "string(len=5)"},
		{"invalid", "\x00negative", "opaque(9B)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarize([]byte(tt.data)); got != tt.want {
				t.Errorf("summarize(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}
