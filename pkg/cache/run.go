package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/william-eth/web-tech-feeder/pkg/observability"
)

// negativeMarker is the stored form of a memoized not-found result.
// It is not valid JSON on purpose, so it can never collide with a real
// cached payload.
const negativeMarker = "\x00negative"

// Run memoizes typed values under (namespace, key) for the duration of one
// run. The first computed value — success or not-found — wins for the rest
// of the run. Concurrent fetches of the same (namespace, key) are coalesced
// so the compute function runs at most once.
type Run struct {
	backend Cache
	logger  *charmlog.Logger
	group   singleflight.Group
}

// NewRun creates a run cache on the given backend. Pass nil for logger to
// disable hit logging.
func NewRun(backend Cache, logger *charmlog.Logger) *Run {
	if backend == nil {
		backend = NewMemory()
	}
	return &Run{backend: backend, logger: logger}
}

// Fetch returns the memoized value for (namespace, key), or invokes compute,
// stores its result, and returns it. The compute function must populate v;
// on a cache hit, v is populated from the stored JSON.
//
// A compute that returns [ErrNotFound] is memoized as a negative entry:
// subsequent fetches return ErrNotFound without calling compute again.
// Any other compute error is returned as-is and nothing is stored, so the
// next fetch retries.
//
// Fetch is safe for concurrent use; duplicate in-flight fetches of the same
// (namespace, key) share a single compute invocation.
func (r *Run) Fetch(ctx context.Context, namespace, key string, v any, compute func() error) error {
	full := namespace + ":" + key

	if data, ok, _ := r.backend.Get(ctx, full); ok {
		return r.replay(namespace, key, data, v)
	}

	data, err, _ := r.group.Do(full, func() (any, error) {
		// Double-check under the flight: a concurrent caller may have
		// stored the value between our miss and acquiring the flight.
		if data, ok, _ := r.backend.Get(ctx, full); ok {
			return data, nil
		}
		if err := compute(); err != nil {
			if errors.Is(err, ErrNotFound) {
				_ = r.backend.Set(ctx, full, []byte(negativeMarker), 0)
				observability.Cache().OnCacheSet(ctx, namespace, 0)
				return []byte(negativeMarker), nil
			}
			return nil, err
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		_ = r.backend.Set(ctx, full, payload, 0)
		observability.Cache().OnCacheSet(ctx, namespace, len(payload))
		return payload, nil
	})
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, namespace)
		return err
	}

	payload := data.([]byte)
	if string(payload) == negativeMarker {
		return ErrNotFound
	}
	// The winning caller's v is already populated; unmarshal is a no-op for
	// it but required for coalesced followers sharing the flight result.
	return json.Unmarshal(payload, v)
}

// replay serves a stored entry: negatives return ErrNotFound, successes are
// unmarshaled into v. Hits are logged with a short value summary, never the
// full payload.
func (r *Run) replay(namespace, key string, data []byte, v any) error {
	ctx := context.Background()
	observability.Cache().OnCacheHit(ctx, namespace)
	if string(data) == negativeMarker {
		if r.logger != nil {
			r.logger.Debug("cache hit", "ns", namespace, "key", key, "value", "nil")
		}
		return ErrNotFound
	}
	if r.logger != nil {
		r.logger.Debug("cache hit", "ns", namespace, "key", key, "value", summarize(data))
	}
	return json.Unmarshal(data, v)
}

// Close releases the backing store.
func (r *Run) Close() error { return r.backend.Close() }

// summarize renders a short description of a cached JSON payload for logs:
// the JSON kind plus a size hint (length for arrays and strings, the first
// few keys for objects). Full values are never dumped.
func summarize(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Sprintf("opaque(%dB)", len(data))
	}
	switch t := v.(type) {
	case nil:
		return "nil"
	case []any:
		return fmt.Sprintf("array(len=%d)", len(t))
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 3 {
			keys = keys[:3]
			return fmt.Sprintf("map(keys=%s…)", strings.Join(keys, ","))
		}
		return fmt.Sprintf("map(keys=%s)", strings.Join(keys, ","))
	case string:
		return fmt.Sprintf("string(len=%d)", len(t))
	case bool:
		return fmt.Sprintf("bool(%v)", t)
	case float64:
		return fmt.Sprintf("number(%v)", t)
	default:
		return fmt.Sprintf("opaque(%dB)", len(data))
	}
}
