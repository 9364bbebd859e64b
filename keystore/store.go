// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package keystore keeps the symmetric keys registered with cryptodev.
// Keys live in per-owner stores of fixed capacity; a store's slots
// are locked individually and recycled by index. A Registry maps
// owner ids to stores and creates them on first use.
//
// All key material of a store lives in one arena that is locked into
// memory where the platform allows it and wiped at teardown.
package keystore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/willf/bitset"
	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/eventlog"
	"github.com/xyzzyz/cryptodev/log"
	"github.com/xyzzyz/cryptodev/sync/ctxsync"
	"github.com/xyzzyz/cryptodev/syncqueue"
)

const (
	// DefaultSlots is the default number of key slots per owner.
	DefaultSlots = 128
	// MaxKeyLen is the default maximum key length in bytes.
	MaxKeyLen = 128
)

// OwnerID identifies the tenant a store belongs to, typically the
// caller's effective user id.
type OwnerID uint32

// Options configures the stores created by a Registry.
type Options struct {
	// Slots is the number of key slots per store.
	Slots int
	// MaxKeyLen is the maximum key length in bytes.
	MaxKeyLen int
	// LockMemory locks key arenas into memory. Failure to do so is
	// logged and otherwise ignored.
	LockMemory bool
	// Ciphers validates algorithms and key lengths; nil selects
	// blockcipher.Default.
	Ciphers *blockcipher.Registry
	// Eventer receives audit events; nil disables them.
	Eventer eventlog.Eventer
	// Now stamps key creation times; nil selects time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Slots <= 0 {
		o.Slots = DefaultSlots
	}
	if o.MaxKeyLen <= 0 {
		o.MaxKeyLen = MaxKeyLen
	}
	if o.Ciphers == nil {
		o.Ciphers = blockcipher.Default
	}
	if o.Eventer == nil {
		o.Eventer = eventlog.Nop{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store is the key store of one owner.
type Store struct {
	owner   OwnerID
	slots   []slot
	ciphers *blockcipher.Registry
	eventer eventlog.Eventer
	now     func() time.Time

	arena  []byte
	locked bool

	// events queues the indices of newly added keys. eventReader
	// admits one NextNewKeyEvent caller at a time.
	events      *syncqueue.FIFO[int]
	eventReader ctxsync.Mutex

	// closed refuses new slot guards. closeMu serializes Close, which
	// records the slots it has wiped in wiped and sets torndown once
	// every slot is wiped and the arena is unlocked.
	closed   atomic.Bool
	closeMu  ctxsync.Mutex
	wiped    *bitset.BitSet
	torndown bool
}

// NewStore creates a store for owner. Stores are normally obtained
// from a Registry.
func NewStore(owner OwnerID, opts Options) *Store {
	opts = opts.withDefaults()
	s := &Store{
		owner:   owner,
		slots:   make([]slot, opts.Slots),
		ciphers: opts.Ciphers,
		eventer: opts.Eventer,
		now:     opts.Now,
		arena:   make([]byte, opts.Slots*opts.MaxKeyLen),
		events:  syncqueue.NewFIFO[int](),
		wiped:   bitset.New(uint(opts.Slots)),
	}
	for i := range s.slots {
		off := i * opts.MaxKeyLen
		s.slots[i].key = s.arena[off : off+opts.MaxKeyLen : off+opts.MaxKeyLen]
	}
	if opts.LockMemory {
		if err := lockMemory(s.arena); err != nil {
			log.Error.Printf("keystore: owner %d: could not lock %d bytes of key memory: %v", owner, len(s.arena), err)
		} else {
			s.locked = true
		}
	}
	return s
}

// Owner returns the owner of the store.
func (s *Store) Owner() OwnerID { return s.owner }

// NumSlots returns the capacity of the store.
func (s *Store) NumSlots() int { return len(s.slots) }

// MaxKeyLen returns the largest key, in bytes, the store accepts.
func (s *Store) MaxKeyLen() int { return len(s.arena) / len(s.slots) }

// AcquireFreeSlot locks the first inactive slot, scanning in index
// order, and returns its guard. Active slots are locked only long
// enough to inspect them. AcquireFreeSlot fails with
// errors.ResourcesExhausted if every slot is active and with
// errors.Canceled if ctx is done while it waits for a slot lock.
func (s *Store) AcquireFreeSlot(ctx context.Context) (*SlotGuard, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	for i := range s.slots {
		sl := &s.slots[i]
		if err := sl.mu.Lock(ctx); err != nil {
			return nil, err
		}
		if !sl.active {
			return &SlotGuard{store: s, index: i}, nil
		}
		sl.mu.Unlock()
	}
	return nil, errors.E(errors.ResourcesExhausted, fmt.Sprintf("owner %d: all %d key slots are in use", s.owner, len(s.slots)))
}

// AcquireSlot locks the slot at index and returns its guard. It fails
// with errors.Invalid for an out-of-range index and with
// errors.Canceled if ctx is done first.
func (s *Store) AcquireSlot(ctx context.Context, index int) (*SlotGuard, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.slots) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("slot index %d out of range [0, %d)", index, len(s.slots)))
	}
	if err := s.slots[index].mu.Lock(ctx); err != nil {
		return nil, err
	}
	return &SlotGuard{store: s, index: index}, nil
}

// WithFreeSlot runs fn with a guard on a free slot, releasing it when
// fn returns. It returns the slot index.
func (s *Store) WithFreeSlot(ctx context.Context, fn func(*SlotGuard) error) (int, error) {
	g, err := s.AcquireFreeSlot(ctx)
	if err != nil {
		return -1, err
	}
	defer g.Release()
	return g.Index(), fn(g)
}

// WithSlot runs fn with a guard on the slot at index, releasing it
// when fn returns.
func (s *Store) WithSlot(ctx context.Context, index int, fn func(*SlotGuard) error) error {
	g, err := s.AcquireSlot(ctx, index)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(g)
}

// AddKey stores key for alg in a free slot and returns its index.
func (s *Store) AddKey(ctx context.Context, alg blockcipher.Algorithm, key []byte) (int, error) {
	index, err := s.WithFreeSlot(ctx, func(g *SlotGuard) error {
		return g.AddKey(alg, key)
	})
	if err != nil {
		return -1, err
	}
	return index, nil
}

// DeleteKey deactivates the slot at index.
func (s *Store) DeleteKey(ctx context.Context, index int) error {
	return s.WithSlot(ctx, index, func(g *SlotGuard) error {
		return g.DeleteKey()
	})
}

// NextNewKeyEvent blocks until a key is added to the store and
// returns its slot index. Events are delivered in order, each to a
// single caller; concurrent callers are served one at a time. If ctx
// is done first, NextNewKeyEvent returns errors.Canceled and the
// queue is left untouched. Once the store is closed it returns
// errors.Unavailable.
func (s *Store) NextNewKeyEvent(ctx context.Context) (int, error) {
	if err := s.eventReader.Lock(ctx); err != nil {
		return -1, err
	}
	defer s.eventReader.Unlock()
	return s.events.Get(ctx)
}

// PendingEvents returns the number of queued new-key events.
func (s *Store) PendingEvents() int { return s.events.Len() }

// ChargeUse counts one transform in direction dir against the slot at
// index, provided the slot still holds the key of generation gen.
// It reports whether the use was counted.
func (s *Store) ChargeUse(ctx context.Context, index int, gen uint64, dir blockcipher.Direction) (bool, error) {
	var charged bool
	err := s.WithSlot(ctx, index, func(g *SlotGuard) error {
		sl := g.slot()
		if !sl.active || sl.gen != gen {
			return nil
		}
		if dir == blockcipher.Decrypt {
			sl.decodes++
		} else {
			sl.encodes++
		}
		charged = true
		return nil
	})
	return charged, err
}

// Snapshot returns the active slots in index order. Each slot is
// locked while it is inspected.
func (s *Store) Snapshot(ctx context.Context) ([]SlotInfo, error) {
	var infos []SlotInfo
	for i := range s.slots {
		err := s.WithSlot(ctx, i, func(g *SlotGuard) error {
			if g.Active() {
				infos = append(infos, g.info())
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return infos, nil
}

// ActiveSet returns the set of active slot indices.
func (s *Store) ActiveSet(ctx context.Context) (*bitset.BitSet, error) {
	infos, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	set := bitset.New(uint(len(s.slots)))
	for _, info := range infos {
		set.Set(uint(info.Index))
	}
	return set, nil
}

// CountActive returns the number of active slots.
func (s *Store) CountActive(ctx context.Context) (int, error) {
	set, err := s.ActiveSet(ctx)
	if err != nil {
		return 0, err
	}
	return int(set.Count()), nil
}

// Close tears the store down: it fails pending and future event
// waits, deactivates every slot and wipes the key arena. Slots are
// locked while they are wiped, so Close waits for outstanding guards
// unless ctx is done first. A Close that fails this way leaves the
// store refusing new work; a later Close resumes with the slots that
// are not yet wiped. Once teardown has completed, Close returns nil.
func (s *Store) Close(ctx context.Context) error {
	if err := s.closeMu.Lock(ctx); err != nil {
		return errors.E(err, fmt.Sprintf("owner %d: closing key store", s.owner))
	}
	defer s.closeMu.Unlock()
	if s.torndown {
		return nil
	}
	if !s.closed.Swap(true) {
		if n := len(s.events.Close()); n > 0 {
			log.Debug.Printf("keystore: owner %d: dropped %d undelivered key events", s.owner, n)
		}
	}
	var once errors.Once
	for i := range s.slots {
		if s.wiped.Test(uint(i)) {
			continue
		}
		sl := &s.slots[i]
		if err := sl.mu.Lock(ctx); err != nil {
			once.Set(errors.E(err, fmt.Sprintf("owner %d: wiping slot %d", s.owner, i)))
			continue
		}
		sl.active = false
		sl.keyLen = 0
		clear(sl.key)
		sl.mu.Unlock()
		s.wiped.Set(uint(i))
	}
	if err := once.Err(); err != nil {
		log.Error.Printf("keystore: owner %d: %d of %d slots left to wipe", s.owner, len(s.slots)-int(s.wiped.Count()), len(s.slots))
		return err
	}
	if s.locked {
		if err := unlockMemory(s.arena); err != nil {
			log.Error.Printf("keystore: owner %d: unlocking key memory: %v", s.owner, err)
		}
		s.locked = false
	}
	s.torndown = true
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return errors.E(errors.Unavailable, fmt.Sprintf("key store of owner %d is closed", s.owner))
	}
	return nil
}
