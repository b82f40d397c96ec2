package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache backend scoped to a single run.
// All entries live on the heap and are discarded when the process exits,
// which keeps each invocation a clean snapshot.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get retrieves a value from the cache.
func (c *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

// Set stores a value in the cache. The ttl is ignored: entries never expire
// within a run and the store does not outlive the run.
func (c *Memory) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

// Delete removes a value from the cache.
func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Close discards all entries.
func (c *Memory) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	return nil
}

// Len reports the number of stored entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure Memory implements Cache.
var _ Cache = (*Memory)(nil)
