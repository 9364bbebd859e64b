// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package keystore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/log"
	"github.com/xyzzyz/cryptodev/sync/multierror"
	"golang.org/x/sync/errgroup"
)

// Registry maps owners to their key stores. It is safe for
// concurrent use.
type Registry struct {
	opts Options

	mu     sync.Mutex
	stores map[OwnerID]*Store
	closed bool
}

// NewRegistry returns an empty registry whose stores are configured
// by opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:   opts.withDefaults(),
		stores: make(map[OwnerID]*Store),
	}
}

// GetOrCreate returns the store of owner, creating it on first use.
// Concurrent callers for the same owner always get the same store.
// GetOrCreate fails with errors.Unavailable after Close.
func (r *Registry) GetOrCreate(owner OwnerID) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.E(errors.Unavailable, "key registry is closed")
	}
	if s, ok := r.stores[owner]; ok {
		return s, nil
	}
	s := NewStore(owner, r.opts)
	r.stores[owner] = s
	log.Debug.Printf("keystore: created store for owner %d with %d slots", owner, len(s.slots))
	r.opts.Eventer.Event("storeCreated", "owner", owner, "slots", len(s.slots))
	return s, nil
}

// Lookup returns the store of owner if it exists.
func (r *Registry) Lookup(owner OwnerID) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[owner]
	return s, ok
}

// Owners returns the owners with a store, in ascending order.
func (r *Registry) Owners() []OwnerID {
	r.mu.Lock()
	owners := make([]OwnerID, 0, len(r.stores))
	for owner := range r.stores {
		owners = append(owners, owner)
	}
	r.mu.Unlock()
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// Close closes every store in parallel and makes the registry refuse
// further lookups. Sessions should be closed before the registry.
// Stores that fail to close stay registered, so that a later Close
// retries them.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	var (
		g    errgroup.Group
		errs = multierror.NewBuilder(8)
	)
	closed := make([]bool, len(stores))
	for i, s := range stores {
		i, s := i, s
		g.Go(func() error {
			if err := s.Close(ctx); err != nil {
				errs.Add(errors.E(err, fmt.Sprintf("closing store of owner %d", s.owner)))
				return nil
			}
			closed[i] = true
			return nil
		})
	}
	_ = g.Wait()
	var n int
	r.mu.Lock()
	for i, s := range stores {
		if closed[i] {
			delete(r.stores, s.owner)
			n++
		}
	}
	r.mu.Unlock()
	if n > 0 {
		log.Printf("keystore: closed %d stores", n)
	}
	return errs.Err()
}
