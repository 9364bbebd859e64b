// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package keystore

import (
	"fmt"
	"time"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/must"
	"github.com/xyzzyz/cryptodev/sync/ctxsync"
)

// slot is one key record of a store. All fields but mu are guarded
// by mu. key is the slot's window into the store's key arena; its
// first keyLen bytes are meaningful iff active.
type slot struct {
	mu ctxsync.Mutex

	active    bool
	key       []byte
	keyLen    int
	alg       blockcipher.Algorithm
	createdAt time.Time
	encodes   int64
	decodes   int64
	// gen is bumped every time a key is added to the slot, so that
	// users of an earlier key can tell the slot was recycled.
	gen uint64
}

// SlotInfo describes an active slot, as shown by the status listing.
type SlotInfo struct {
	Index       int
	Alg         blockcipher.Algorithm
	CreatedAt   time.Time
	EncodeCount int64
	DecodeCount int64
}

// SlotGuard is the lock on one slot of a store. It is obtained from
// Store.AcquireFreeSlot or Store.AcquireSlot and must be released
// with Release, typically deferred. Methods other than Release and
// Index panic once the guard has been released.
type SlotGuard struct {
	store    *Store
	index    int
	released bool
}

// Index returns the index of the guarded slot.
func (g *SlotGuard) Index() int { return g.index }

// Release unlocks the slot. Release is idempotent.
func (g *SlotGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.store.slots[g.index].mu.Unlock()
}

func (g *SlotGuard) slot() *slot {
	must.True(!g.released, "keystore: use of released guard for slot ", g.index)
	return &g.store.slots[g.index]
}

// Active tells whether the slot holds a key.
func (g *SlotGuard) Active() bool { return g.slot().active }

// Gen returns the slot's generation. It changes every time a key is
// added to the slot.
func (g *SlotGuard) Gen() uint64 { return g.slot().gen }

// Algorithm returns the algorithm the slot's key was added for.
func (g *SlotGuard) Algorithm() blockcipher.Algorithm { return g.slot().alg }

// Key returns the slot's key material. The returned slice aliases
// the key arena and is valid only until the guard is released;
// callers that need the key afterwards must copy it. Key fails with
// errors.NotActive if the slot holds no key.
func (g *SlotGuard) Key() ([]byte, error) {
	s := g.slot()
	if !s.active {
		return nil, errors.E(errors.NotActive, fmt.Sprintf("slot %d", g.index))
	}
	return s.key[:s.keyLen], nil
}

// AddKey stores key for alg in the slot, resets its counters and
// announces the slot on the store's new-key event queue. The key must
// be long enough for alg. AddKey overwrites whatever the slot held.
func (g *SlotGuard) AddKey(alg blockcipher.Algorithm, key []byte) error {
	s := g.slot()
	st := g.store
	spec, err := st.ciphers.Lookup(alg)
	if err != nil {
		return err
	}
	if len(key) == 0 || len(key) > len(s.key) {
		return errors.E(errors.Invalid, fmt.Sprintf("key of %d bytes, want 1 to %d", len(key), len(s.key)))
	}
	if _, err := spec.FitKey(key); err != nil {
		return errors.E(errors.Invalid, err)
	}
	s.active = false
	copy(s.key, key)
	clear(s.key[len(key):])
	s.keyLen = len(key)
	s.alg = alg
	s.encodes, s.decodes = 0, 0
	s.createdAt = st.now()
	s.gen++
	// Announce before activating: anyone who observes the slot as
	// active can rely on the event having been queued.
	if err := st.events.Put(g.index); err != nil {
		clear(s.key)
		s.keyLen = 0
		return err
	}
	s.active = true
	st.eventer.Event("keyAdded", "owner", st.owner, "slot", g.index, "alg", spec.Name)
	return nil
}

// DeleteKey deactivates the slot. It fails with errors.NotActive if
// the slot holds no key.
func (g *SlotGuard) DeleteKey() error {
	s := g.slot()
	if !s.active {
		return errors.E(errors.NotActive, fmt.Sprintf("slot %d", g.index))
	}
	s.active = false
	clear(s.key)
	s.keyLen = 0
	g.store.eventer.Event("keyDeleted", "owner", g.store.owner, "slot", g.index)
	return nil
}

func (g *SlotGuard) info() SlotInfo {
	s := g.slot()
	return SlotInfo{
		Index:       g.index,
		Alg:         s.alg,
		CreatedAt:   s.createdAt,
		EncodeCount: s.encodes,
		DecodeCount: s.decodes,
	}
}
