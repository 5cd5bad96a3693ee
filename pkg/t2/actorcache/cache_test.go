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

package actorcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boylesoftware/thymes2go/pkg/t2/auth"
	logutil "github.com/boylesoftware/thymes2go/pkg/t2/util/logging"
)

type testActor struct {
	id string
}

func (a testActor) ID() string {
	return a.id
}

// fakeRegistry counts lookups and can be gated to hold lookups in flight.
type fakeRegistry struct {
	calls atomic.Int64
	gate  chan struct{}
	err   error
}

func (r *fakeRegistry) Lookup(ctx context.Context, handle auth.Handle) (auth.Actor, error) {
	r.calls.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return testActor{id: handle.ActorID}, nil
}

func TestLookupCachesWithinTTL(t *testing.T) {
	registry := &fakeRegistry{}
	cache := New(registry, 10, time.Minute, logutil.NewTestLogger())
	ctx := context.Background()

	actor, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.ID())

	actor, err = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.ID())
	assert.EqualValues(t, 1, registry.calls.Load())
}

func TestLookupRefreshesAfterTTL(t *testing.T) {
	registry := &fakeRegistry{}
	cache := New(registry, 10, 10*time.Millisecond, logutil.NewTestLogger())
	ctx := context.Background()

	_, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	actor, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.ID())
	assert.EqualValues(t, 2, registry.calls.Load())
}

func TestLookupSingleFlight(t *testing.T) {
	registry := &fakeRegistry{gate: make(chan struct{})}
	cache := New(registry, 10, time.Minute, logutil.NewTestLogger())
	ctx := context.Background()

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]auth.Actor, waiters)
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
		}(i)
	}

	// Wait until the single upstream lookup is in flight, then release it.
	require.Eventually(t, func() bool {
		return registry.calls.Load() == 1
	}, time.Second, time.Millisecond)
	close(registry.gate)
	wg.Wait()

	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "alice", results[i].ID())
	}
	assert.EqualValues(t, 1, registry.calls.Load())
}

func TestLookupErrorNotCached(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("registry down")}
	cache := New(registry, 10, time.Minute, logutil.NewTestLogger())
	ctx := context.Background()

	_, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.Error(t, err)
	_, err = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.Error(t, err)
	assert.EqualValues(t, 2, registry.calls.Load())

	// The failure left no entry behind, so a later success caches normally.
	registry.err = nil
	_, err = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	_, err = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, registry.calls.Load())
}

func TestLookupEvictsOldestWhenFull(t *testing.T) {
	registry := &fakeRegistry{}
	cache := New(registry, 1, time.Minute, logutil.NewTestLogger())
	ctx := context.Background()

	_, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)

	// Capacity 1: caching bob evicts the still-fresh alice entry.
	actor, err := cache.Lookup(ctx, auth.Handle{ActorID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", actor.ID())

	_, err = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, registry.calls.Load())
}

func TestLookupBypassesWhenAllSlotsInFlight(t *testing.T) {
	gated := &fakeRegistry{gate: make(chan struct{})}
	cache := New(gated, 1, time.Minute, logutil.NewTestLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	}()
	require.Eventually(t, func() bool {
		return gated.calls.Load() == 1
	}, time.Second, time.Millisecond)

	// The only slot holds an unresolved lookup; bob bypasses the cache but
	// still resolves. The bypassed lookup shares the gate, so release it
	// first on a second goroutine.
	done := make(chan struct{})
	var bob auth.Actor
	var bobErr error
	go func() {
		defer close(done)
		bob, bobErr = cache.Lookup(ctx, auth.Handle{ActorID: "bob"})
	}()
	require.Eventually(t, func() bool {
		return gated.calls.Load() == 2
	}, time.Second, time.Millisecond)
	close(gated.gate)
	<-done
	wg.Wait()

	require.NoError(t, bobErr)
	assert.Equal(t, "bob", bob.ID())
}

func TestLookupDisabledPassesThrough(t *testing.T) {
	registry := &fakeRegistry{}
	cache := New(registry, 0, time.Minute, logutil.NewTestLogger())
	require.False(t, cache.Enabled())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, registry.calls.Load())
}

func TestLookupContextCancelledWhileJoined(t *testing.T) {
	registry := &fakeRegistry{gate: make(chan struct{})}
	cache := New(registry, 10, time.Minute, logutil.NewTestLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = cache.Lookup(context.Background(), auth.Handle{ActorID: "alice"})
	}()
	require.Eventually(t, func() bool {
		return registry.calls.Load() == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Lookup(ctx, auth.Handle{ActorID: "alice"})
	assert.ErrorIs(t, err, context.Canceled)

	close(registry.gate)
	wg.Wait()
}
