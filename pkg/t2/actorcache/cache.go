/*
Copyright 2026 Boyle Software, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package actorcache wraps the application's actor registry with a
// single-flight, TTL-bounded, capacity-bounded lookup cache.
//
// Actor lookups sit on the hot path of every authenticated request. A short
// TTL absorbs bursts from the same caller while bounding staleness; the
// single-flight discipline guarantees at most one in-flight upstream lookup
// per actor id, shared by every concurrent requester.
package actorcache

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/boylesoftware/thymes2go/pkg/t2/auth"
	"github.com/boylesoftware/thymes2go/pkg/t2/metrics"
)

// flight is one in-flight upstream lookup. Its result fields are written
// exactly once, before done is closed.
type flight struct {
	done  chan struct{}
	actor auth.Actor
	err   error
}

// entry is the cache slot for one actor id.
type entry struct {
	resolved bool
	stamp    time.Time
	actor    auth.Actor
	pending  *flight
}

// Cache implements auth.ActorSource over an auth.Registry.
type Cache struct {
	registry auth.Registry
	capacity int
	ttl      time.Duration
	logger   logr.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

var _ auth.ActorSource = (*Cache)(nil)

// New creates the cache. A capacity or TTL of zero or less disables caching
// entirely: every lookup passes through to the registry.
func New(registry auth.Registry, capacity int, ttl time.Duration, logger logr.Logger) *Cache {
	c := &Cache{
		registry: registry,
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
	}
	if c.Enabled() {
		c.entries = make(map[string]*entry, capacity)
	}
	return c
}

// Enabled reports whether the cache holds any state at all.
func (c *Cache) Enabled() bool {
	return c.capacity > 0 && c.ttl > 0
}

// Lookup resolves the handle to an actor, using a cached resolution when one
// is fresh, joining an in-flight lookup when one exists, and calling the
// registry otherwise. Upstream failures are propagated to every waiter and
// are never cached.
func (c *Cache) Lookup(ctx context.Context, handle auth.Handle) (auth.Actor, error) {
	if !c.Enabled() {
		return c.registry.Lookup(ctx, handle)
	}
	key := handle.ActorID

	c.mu.Lock()
	now := time.Now()
	e, ok := c.entries[key]
	switch {
	case ok && e.resolved && now.Sub(e.stamp) < c.ttl:
		actor := e.actor
		c.mu.Unlock()
		metrics.RecordActorCacheLookup(metrics.CacheHit)
		return actor, nil

	case ok && !e.resolved:
		f := e.pending
		c.mu.Unlock()
		metrics.RecordActorCacheLookup(metrics.CacheJoin)
		return await(ctx, f)

	case ok:
		// Resolved but stale: refresh in place, sharing the new flight.
		f := &flight{done: make(chan struct{})}
		e.resolved = false
		e.pending = f
		c.mu.Unlock()
		metrics.RecordActorCacheLookup(metrics.CacheMiss)
		return c.resolve(ctx, key, f, handle)

	default:
		if len(c.entries) >= c.capacity && !c.reclaim(now) {
			c.mu.Unlock()
			c.logger.Info("actor cache ineffective under current load, bypassing",
				"capacity", c.capacity)
			metrics.RecordActorCacheLookup(metrics.CacheBypass)
			return c.registry.Lookup(ctx, handle)
		}
		f := &flight{done: make(chan struct{})}
		c.entries[key] = &entry{pending: f}
		c.mu.Unlock()
		metrics.RecordActorCacheLookup(metrics.CacheMiss)
		return c.resolve(ctx, key, f, handle)
	}
}

// resolve performs the upstream lookup for the flight it owns and settles
// the flight for every waiter.
func (c *Cache) resolve(ctx context.Context, key string, f *flight, handle auth.Handle) (auth.Actor, error) {
	actor, err := c.registry.Lookup(ctx, handle)

	c.mu.Lock()
	if err != nil {
		// Failures are never cached.
		if e, ok := c.entries[key]; ok && e.pending == f {
			delete(c.entries, key)
		}
		metrics.RecordActorCacheLookup(metrics.CacheError)
	} else if e, ok := c.entries[key]; ok && e.pending == f {
		e.resolved = true
		e.stamp = time.Now()
		e.actor = actor
		e.pending = nil
	}
	c.mu.Unlock()

	f.actor, f.err = actor, err
	close(f.done)
	return actor, err
}

// await blocks on a shared in-flight lookup.
func await(ctx context.Context, f *flight) (auth.Actor, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.actor, f.err
	}
}

// reclaim frees at least one slot if possible. Called with the mutex held.
// First every resolved-and-stale entry is deleted in one sweep; if none
// existed, the single oldest resolved entry is evicted. Returns false when
// every slot holds an unresolved in-flight lookup.
func (c *Cache) reclaim(now time.Time) bool {
	freed := false
	for key, e := range c.entries {
		if e.resolved && now.Sub(e.stamp) >= c.ttl {
			delete(c.entries, key)
			freed = true
		}
	}
	if freed {
		return true
	}

	var oldestKey string
	var oldestStamp time.Time
	for key, e := range c.entries {
		if !e.resolved {
			continue
		}
		if oldestKey == "" || e.stamp.Before(oldestStamp) {
			oldestKey = key
			oldestStamp = e.stamp
		}
	}
	if oldestKey == "" {
		return false
	}
	delete(c.entries, oldestKey)
	return true
}
