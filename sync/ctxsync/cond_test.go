// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package ctxsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestBroadcastWakesAll(t *testing.T) {
	const waiters = 32
	var (
		mu     sync.Mutex
		cond   = NewCond(&mu)
		posted int
		parked sync.WaitGroup
		g      errgroup.Group
	)
	parked.Add(waiters)
	for i := 0; i < waiters; i++ {
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			parked.Done()
			for posted == 0 {
				if err := cond.Wait(context.Background()); err != nil {
					return err
				}
			}
			return nil
		})
	}
	parked.Wait()
	mu.Lock()
	posted++
	cond.Broadcast()
	mu.Unlock()
	require.NoError(t, g.Wait())
}

func TestWaitDoneContext(t *testing.T) {
	var (
		mu   sync.Mutex
		cond = NewCond(&mu)
	)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	mu.Lock()
	err := cond.Wait(ctx)
	mu.Unlock()
	assert.Equal(t, context.DeadlineExceeded, err)
}

// A waiter that checked the predicate under the lock observes an
// update made after it started waiting.
func TestCondPredicate(t *testing.T) {
	var (
		mu    sync.Mutex
		cond  = NewCond(&mu)
		ready bool
	)
	mu.Lock()
	go func() {
		mu.Lock()
		ready = true
		cond.Signal()
		mu.Unlock()
	}()
	var err error
	for !ready && err == nil {
		err = cond.Wait(context.Background())
	}
	mu.Unlock()
	require.NoError(t, err)
}
