// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package cache provides a TTL response cache for endpoints whose
// answers are expensive to recompute, such as analytics reports that
// re-read the sample streams on every generation.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/metrics"
)

// Entry is a cached value with its expiry.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats is a snapshot of cache counters for diagnostics endpoints.
type Stats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Evictions int64     `json:"evictions"`
	Keys      int64     `json:"keys"`
	LastSweep time.Time `json:"last_sweep"`
}

// Cache is a thread-safe in-memory TTL cache. Each cache carries a
// name used as the cache_type label on the shared Prometheus
// collectors, so hit rates for "report" and "status" caches stay
// distinguishable.
type Cache struct {
	name string
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]Entry

	statsMu sync.Mutex
	stats   Stats

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a named cache with the given default TTL and starts a
// background sweep that removes expired entries every 5 minutes.
func New(name string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Cache{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]Entry),
		stats:   Stats{LastSweep: time.Now()},
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Get returns the cached value for key. Expired entries are removed
// and reported as misses.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		size := len(c.entries)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEvictions(1, size)
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	c.setKeys(size)
}

// Delete removes one entry. Safe to call for missing keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	if existed {
		c.recordEvictions(1, size)
	}
}

// Clear drops every entry, typically after the underlying data
// changes and all cached responses went stale at once.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.recordEvictions(evicted, 0)
}

// GetStats returns a copy of the counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit percentage since creation.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Stop terminates the background sweep.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.recordEvictions(evicted, size)
	c.statsMu.Lock()
	c.stats.LastSweep = now
	c.statsMu.Unlock()
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordEvictions(n, size int) {
	if n > 0 {
		c.statsMu.Lock()
		c.stats.Evictions += int64(n)
		c.statsMu.Unlock()
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(n))
	}
	c.setKeys(size)
}

func (c *Cache) setKeys(size int) {
	c.statsMu.Lock()
	c.stats.Keys = int64(size)
	c.statsMu.Unlock()
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
}

// GenerateKey builds a stable cache key from an operation name and
// its parameters. Parameters are JSON-marshaled and hashed so struct
// keys stay compact regardless of parameter size.
func GenerateKey(op string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", op, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", op, hash[:16])
}
