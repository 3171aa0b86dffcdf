// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package authz

import (
	"testing"
	"time"
)

func TestDecisionCacheGetSet(t *testing.T) {
	c := newDecisionCache(time.Hour)
	t.Cleanup(c.stop)

	if _, ok := c.get("alex", "server", "view"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.set("alex", "server", "view", true)
	allowed, ok := c.get("alex", "server", "view")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if !allowed {
		t.Error("cached decision = false, want true")
	}

	c.set("alex", "server", "control", false)
	allowed, ok = c.get("alex", "server", "control")
	if !ok {
		t.Fatal("expected hit for cached denial")
	}
	if allowed {
		t.Error("cached denial = true, want false")
	}
}

func TestDecisionCacheDefaultTTL(t *testing.T) {
	c := newDecisionCache(0)
	t.Cleanup(c.stop)

	if c.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m default", c.ttl)
	}
}

func TestDecisionCacheExpiry(t *testing.T) {
	c := newDecisionCache(20 * time.Millisecond)
	t.Cleanup(c.stop)

	c.set("alex", "server", "view", true)
	time.Sleep(50 * time.Millisecond)

	if _, ok := c.get("alex", "server", "view"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDecisionCacheInvalidateSubject(t *testing.T) {
	c := newDecisionCache(time.Hour)
	t.Cleanup(c.stop)

	c.set("alex", "server", "view", true)
	c.set("alex", "backup", "view", true)
	c.set("mike", "server", "view", true)

	c.invalidateSubject("alex")

	if _, ok := c.get("alex", "server", "view"); ok {
		t.Error("alex server decision should be evicted")
	}
	if _, ok := c.get("alex", "backup", "view"); ok {
		t.Error("alex backup decision should be evicted")
	}
	if _, ok := c.get("mike", "server", "view"); !ok {
		t.Error("unrelated subject should survive invalidation")
	}
}

func TestDecisionCacheClear(t *testing.T) {
	c := newDecisionCache(time.Hour)
	t.Cleanup(c.stop)

	c.set("alex", "server", "view", true)
	c.set("mike", "server", "view", true)
	c.clear()

	if _, ok := c.get("alex", "server", "view"); ok {
		t.Error("clear should drop every entry")
	}
	if _, ok := c.get("mike", "server", "view"); ok {
		t.Error("clear should drop every entry")
	}
}

func TestDecisionCacheStopIdempotent(t *testing.T) {
	c := newDecisionCache(time.Hour)
	c.stop()
	c.stop()
}
