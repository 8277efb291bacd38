package service

import (
	"container/list"
	"context"
	"fmt"
)

// LoadFunc reads a value from the persistent store when it is not resident.
// A missing key yields a default value, not an error.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// FlushFunc writes a value back to the persistent store
type FlushFunc[K comparable, V any] func(ctx context.Context, key K, value V) error

// StatsCache is a bounded least-recently-used write-back cache in front of the store.
// Evicted entries are flushed before the entry that displaced them is accepted.
// It is not safe for concurrent use; scoring is single-writer.
type StatsCache[K comparable, V any] struct {
	capacity  int
	entries   map[K]*list.Element
	order     *list.List // front is most recently used
	load      LoadFunc[K, V]
	flush     FlushFunc[K, V]
	evictions int
	onEvict   func(key K)
}

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewStatsCache creates a cache holding at most capacity entries
func NewStatsCache[K comparable, V any](capacity int, load LoadFunc[K, V], flush FlushFunc[K, V]) *StatsCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &StatsCache[K, V]{
		capacity: capacity,
		entries:  make(map[K]*list.Element, capacity),
		order:    list.New(),
		load:     load,
		flush:    flush,
	}
}

// OnEvict registers a callback run after an entry has been flushed and evicted
func (c *StatsCache[K, V]) OnEvict(fn func(key K)) {
	c.onEvict = fn
}

// Get returns the resident value for key, or loads it from the store.
// Loaded values only become resident through Set.
func (c *StatsCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry[K, V]).value, nil
	}
	return c.load(ctx, key)
}

// Set makes value resident under key, evicting and flushing the least recently used
// entry if a new key would exceed capacity. On a flush error nothing is evicted and
// the new value is not accepted.
func (c *StatsCache[K, V]) Set(ctx context.Context, key K, value V) error {
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry[K, V]).value = value
		c.order.MoveToFront(el)
		return nil
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		victim := oldest.Value.(*cacheEntry[K, V])
		if err := c.flush(ctx, victim.key, victim.value); err != nil {
			return fmt.Errorf("failed to flush evicted entry %v: %w", victim.key, err)
		}
		c.order.Remove(oldest)
		delete(c.entries, victim.key)
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(victim.key)
		}
	}

	c.entries[key] = c.order.PushFront(&cacheEntry[K, V]{key: key, value: value})
	return nil
}

// FlushAll writes every resident entry to the store, least recently used first.
// Entries stay resident.
func (c *StatsCache[K, V]) FlushAll(ctx context.Context) error {
	for el := c.order.Back(); el != nil; el = el.Prev() {
		entry := el.Value.(*cacheEntry[K, V])
		if err := c.flush(ctx, entry.key, entry.value); err != nil {
			return fmt.Errorf("failed to flush entry %v: %w", entry.key, err)
		}
	}
	return nil
}

// Contains reports whether key is resident without touching its recency
func (c *StatsCache[K, V]) Contains(key K) bool {
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of resident entries
func (c *StatsCache[K, V]) Len() int {
	return c.order.Len()
}

// Evictions returns how many entries have been evicted so far
func (c *StatsCache[K, V]) Evictions() int {
	return c.evictions
}
