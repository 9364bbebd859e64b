// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package ctxsync provides synchronization primitives whose blocking
// operations can be interrupted through a context.Context. Key slot
// locks, session write locks and queue notifications are built on it,
// so that every wait in cryptodev can be canceled.
package ctxsync

import (
	"context"
	"sync"

	"github.com/xyzzyz/cryptodev/errors"
)

// Mutex is a context-aware mutex. It must not be copied.
// The zero value is ready to use.
type Mutex struct {
	initOnce sync.Once
	lockCh   chan struct{}
}

// Lock attempts to exclusively lock m. If m is already locked, it
// waits until it is unlocked. If ctx is done before the lock can be
// taken, Lock does not take the lock and returns an error of kind
// errors.Canceled.
func (m *Mutex) Lock(ctx context.Context) error {
	m.init()
	// Prefer the lock when it is free, even if ctx is already done.
	select {
	case m.lockCh <- struct{}{}:
		return nil
	default:
	}
	select {
	case m.lockCh <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.E(errors.Canceled, ctx.Err(), "waiting for lock")
	}
}

// Unlock unlocks m. It must be called exactly once for each
// successful Lock, possibly from another goroutine.
// Unlock panics if m is not locked.
func (m *Mutex) Unlock() {
	m.init()
	select {
	case <-m.lockCh:
	default:
		panic("Unlock called on mutex that is not locked")
	}
}

func (m *Mutex) init() {
	m.initOnce.Do(func() {
		m.lockCh = make(chan struct{}, 1)
	})
}
