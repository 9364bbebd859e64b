// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package session implements cipher sessions. A session binds the key
// of one slot of its owner's store, together with a direction, to a
// cipher handle. Data written to a configured session is transformed
// and queued; reads drain the queue in write order.
//
// A session moves from Unconfigured to Configured with SetCurrent,
// may be reconfigured any number of times, and ends in Closed.
package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/eventlog"
	"github.com/xyzzyz/cryptodev/keystore"
	"github.com/xyzzyz/cryptodev/sync/ctxsync"
	"github.com/xyzzyz/cryptodev/syncqueue"
)

const (
	// DefaultChunkSize is the default size of the buffers a write is
	// split into.
	DefaultChunkSize = 4096
	// DefaultMaxPendingBytes is the default bound on the buffer
	// memory held by unread results of one session.
	DefaultMaxPendingBytes = 16 << 20
)

// State is the state of a session.
type State int32

const (
	// Unconfigured sessions have no current key.
	Unconfigured State = iota
	// Configured sessions transform writes with their current key.
	Configured
	// Closed sessions reject every operation.
	Closed
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Options configures a session.
type Options struct {
	// ChunkSize is the size of the buffers writes are split into. It
	// must be a multiple of the block size of every algorithm used.
	ChunkSize int
	// MaxPendingBytes bounds the buffer memory held by unread results.
	// Writes that would exceed it fail with errors.OOM.
	MaxPendingBytes int
	// Eventer receives audit events; nil disables them.
	Eventer eventlog.Eventer
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxPendingBytes <= 0 {
		o.MaxPendingBytes = DefaultMaxPendingBytes
	}
	if o.Eventer == nil {
		o.Eventer = eventlog.Nop{}
	}
	return o
}

// Session is the cipher state of one open handle. Writes and
// configuration changes are serialized; reads may proceed
// concurrently with either.
type Session struct {
	store  *keystore.Store
	engine blockcipher.Engine
	opts   Options

	state atomic.Int32

	// writeMu guards the fields below. It is taken before any slot
	// lock.
	writeMu ctxsync.Mutex
	handle  blockcipher.Handle
	dir     blockcipher.Direction
	slot    int
	gen     uint64

	results *syncqueue.FIFO[*result]
	pending atomic.Int64
}

// New returns an unconfigured session over store, using engine for
// transforms.
func New(store *keystore.Store, engine blockcipher.Engine, opts Options) *Session {
	return &Session{
		store:   store,
		engine:  engine,
		opts:    opts.withDefaults(),
		results: syncqueue.NewFIFO[*result](),
	}
}

// Owner returns the owner of the session's key store.
func (s *Session) Owner() keystore.OwnerID { return s.store.Owner() }

// Store returns the session's key store.
func (s *Session) Store() *keystore.Store { return s.store }

// State returns the current state of the session.
func (s *Session) State() State { return State(s.state.Load()) }

// SetCurrent makes the key in slot index, used with alg in direction
// dir, the session's current key, replacing any earlier one. The slot
// is locked only while its key is read; the session does not pin it.
//
// SetCurrent fails with errors.Invalid for an unknown algorithm,
// direction or out-of-range index, errors.NotActive if the slot holds
// no key, errors.Cipher if alg cannot be keyed with the slot's key and
// errors.Canceled if ctx is done while waiting for a lock. On failure
// the previous configuration, if any, stays in effect.
func (s *Session) SetCurrent(ctx context.Context, alg blockcipher.Algorithm, index int, dir blockcipher.Direction) error {
	spec, err := s.engine.Spec(alg)
	if err != nil {
		return err
	}
	if index < 0 || index >= s.store.NumSlots() {
		return errors.E(errors.Invalid, fmt.Sprintf("slot index %d out of range [0, %d)", index, s.store.NumSlots()))
	}
	if dir != blockcipher.Encrypt && dir != blockcipher.Decrypt {
		return errors.E(errors.Invalid, "invalid direction", dir.String())
	}
	handle, err := s.engine.NewHandle(alg)
	if err != nil {
		return err
	}
	if err := s.writeMu.Lock(ctx); err != nil {
		handle.Close()
		return err
	}
	defer s.writeMu.Unlock()
	if s.State() == Closed {
		handle.Close()
		return errors.E(errors.Unavailable, "session is closed")
	}
	var gen uint64
	err = s.store.WithSlot(ctx, index, func(g *keystore.SlotGuard) error {
		key, err := g.Key()
		if err != nil {
			return err
		}
		if key, err = spec.FitKey(key); err != nil {
			return err
		}
		gen = g.Gen()
		return handle.SetKey(key)
	})
	if err != nil {
		handle.Close()
		return err
	}
	if s.handle != nil {
		s.handle.Close()
	}
	s.handle, s.dir, s.slot, s.gen = handle, dir, index, gen
	s.state.Store(int32(Configured))
	s.opts.Eventer.Event("sessionConfigured", "owner", s.Owner(), "slot", index, "alg", spec.Name, "direction", dir.String())
	return nil
}

// Close releases the session's cipher handle and drops unread
// results. Close waits for an in-flight write unless ctx is done
// first. Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if err := s.writeMu.Lock(ctx); err != nil {
		return err
	}
	defer s.writeMu.Unlock()
	if s.State() == Closed {
		return nil
	}
	s.state.Store(int32(Closed))
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	dropped := s.results.Close()
	for _, r := range dropped {
		r.wipe()
	}
	s.pending.Store(0)
	s.opts.Eventer.Event("sessionClosed", "owner", s.Owner(), "dropped", len(dropped))
	return nil
}
