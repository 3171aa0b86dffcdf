// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package authz

import (
	"strings"
	"sync"
	"time"

	"github.com/danhux/craftwarden/internal/metrics"
)

const cacheLabel = "authz"

// decisionCache memoizes enforcement results for a short period so
// hot request paths do not re-run the Casbin matcher on every call.
type decisionCache struct {
	mu      sync.RWMutex
	entries map[string]cachedDecision
	ttl     time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type cachedDecision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		entries: make(map[string]cachedDecision),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func cacheKey(subject, object, action string) string {
	return subject + ":" + object + ":" + action
}

func (c *decisionCache) get(subject, object, action string) (bool, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(subject, object, action)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		metrics.CacheMisses.WithLabelValues(cacheLabel).Inc()
		return false, false
	}
	metrics.CacheHits.WithLabelValues(cacheLabel).Inc()
	return entry.allowed, true
}

func (c *decisionCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	c.entries[cacheKey(subject, object, action)] = cachedDecision{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(cacheLabel).Set(float64(size))
}

// invalidateSubject drops every cached decision for one subject,
// called after its role grants change.
func (c *decisionCache) invalidateSubject(subject string) {
	prefix := subject + ":"

	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			metrics.CacheEvictions.WithLabelValues(cacheLabel).Inc()
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(cacheLabel).Set(float64(size))
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]cachedDecision)
	c.mu.Unlock()

	metrics.CacheEvictions.WithLabelValues(cacheLabel).Add(float64(evicted))
	metrics.CacheSize.WithLabelValues(cacheLabel).Set(0)
}

// janitor sweeps expired entries so long-idle caches do not pin
// memory for subjects that never come back.
func (c *decisionCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
					metrics.CacheEvictions.WithLabelValues(cacheLabel).Inc()
				}
			}
			size := len(c.entries)
			c.mu.Unlock()
			metrics.CacheSize.WithLabelValues(cacheLabel).Set(float64(size))
		case <-c.done:
			return
		}
	}
}

func (c *decisionCache) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
