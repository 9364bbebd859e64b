// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package ctxsync

import (
	"context"
	"sync"
)

// Cond is a condition variable whose Wait can be interrupted by a
// context. Waiters must re-check their predicate under L after Wait
// returns; Cond never loses a Broadcast issued after a waiter called
// Wait, since the waiter captures the current generation while still
// holding L.
type Cond struct {
	// L is held while observing or changing the condition.
	L  sync.Locker
	ch chan struct{}
}

// NewCond returns a new Cond with Locker l.
func NewCond(l sync.Locker) *Cond {
	return &Cond{L: l, ch: make(chan struct{})}
}

// Broadcast wakes all goroutines waiting on c. The caller must hold c.L.
func (c *Cond) Broadcast() {
	close(c.ch)
	c.ch = make(chan struct{})
}

// Signal wakes the goroutines waiting on c. Waiters share a single
// generation, so Signal is the same as Broadcast. The caller must
// hold c.L.
func (c *Cond) Signal() {
	c.Broadcast()
}

// Wait atomically unlocks c.L and suspends the calling goroutine until
// it is woken by Broadcast or ctx is done. Wait relocks c.L before
// returning. If ctx is done first, Wait returns ctx.Err().
func (c *Cond) Wait(ctx context.Context) error {
	ch := c.ch
	c.L.Unlock()
	var err error
	select {
	case <-ch:
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.L.Lock()
	return err
}
