package resolution

import (
	"math"
	"sync"

	"zoomtier/core-go/internal/metrics"
	"zoomtier/core-go/internal/thresholds"
)

type Options struct {
	// CacheCapacity bounds the cache with LRU eviction. Zero keeps every
	// distinct quantized scale for the lifetime of the resolver.
	CacheCapacity int
}

// Resolver maps scales to content levels and memoizes the answers by
// quantized scale. It is safe for concurrent use.
type Resolver struct {
	mu       sync.Mutex
	set      thresholds.Set
	cache    store
	capacity int
	metrics  *metrics.Metrics
}

func New(set thresholds.Set, opts Options, m *metrics.Metrics) *Resolver {
	capacity := opts.CacheCapacity
	if capacity < 0 {
		capacity = 0
	}
	return &Resolver{
		set:      set,
		cache:    newStore(capacity),
		capacity: capacity,
		metrics:  m,
	}
}

// Resolve returns the content level for scale. A scale equal to a cutoff
// resolves to the lower level.
func (r *Resolver) Resolve(scale float64) (Level, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return 0, ErrInvalidScale
	}
	key := CacheKey(scale)

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.cache.get(key); ok {
		r.metrics.ObserveResolution(l.String(), true)
		return l, nil
	}

	if ok, violations := thresholds.Ordered(r.set); !ok {
		r.metrics.IncConfigurationError()
		return 0, &ConfigurationError{Violations: violations}
	}

	l := scan(r.set, scale)
	r.cache.add(key, l)
	r.metrics.ObserveResolution(l.String(), false)
	return l, nil
}

func scan(set thresholds.Set, scale float64) Level {
	for i, cutoff := range set.Values() {
		if scale <= cutoff {
			return Level(i)
		}
	}
	return Expanded
}

// SetThresholds replaces the active cutoffs and clears the cache.
func (r *Resolver) SetThresholds(set thresholds.Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = set
	r.invalidateLocked()
}

func (r *Resolver) Thresholds() thresholds.Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set
}

// Invalidate clears every cached entry.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidateLocked()
}

func (r *Resolver) invalidateLocked() {
	r.cache.purge()
	r.metrics.IncCacheInvalidation()
}

// Stats reports cache size and keys, ordered by scale.
func (r *Resolver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Size:     r.cache.len(),
		Keys:     sortedKeys(r.cache),
		Capacity: r.capacity,
	}
}
