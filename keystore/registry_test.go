// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package keystore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/eventlog"
	"github.com/xyzzyz/cryptodev/keystore"
	"golang.org/x/sync/errgroup"
)

func TestGetOrCreateIsAtomic(t *testing.T) {
	var events eventlog.Recorder
	r := keystore.NewRegistry(keystore.Options{Slots: 4, Eventer: &events})
	const (
		owners  = 4
		callers = 16
	)
	var (
		mu     sync.Mutex
		stores = make(map[keystore.OwnerID]map[*keystore.Store]bool)
		g      errgroup.Group
	)
	for i := 0; i < owners*callers; i++ {
		owner := keystore.OwnerID(i % owners)
		g.Go(func() error {
			s, err := r.GetOrCreate(owner)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if stores[owner] == nil {
				stores[owner] = make(map[*keystore.Store]bool)
			}
			stores[owner][s] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for owner, set := range stores {
		expect.EQ(t, len(set), 1, "owner %d", owner)
		for s := range set {
			expect.EQ(t, s.Owner(), owner)
		}
	}
	expect.EQ(t, r.Owners(), []keystore.OwnerID{0, 1, 2, 3})
	expect.EQ(t, len(events.Events("storeCreated")), owners)
}

func TestOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	r := keystore.NewRegistry(keystore.Options{Slots: 4})
	a, err := r.GetOrCreate(1)
	require.NoError(t, err)
	b, err := r.GetOrCreate(2)
	require.NoError(t, err)

	var g errgroup.Group
	for _, s := range []*keystore.Store{a, a, a, b} {
		s := s
		g.Go(func() error {
			_, err := s.AddKey(ctx, blockcipher.DES, desKey)
			return err
		})
	}
	require.NoError(t, g.Wait())

	n, err := a.CountActive(ctx)
	require.NoError(t, err)
	expect.EQ(t, n, 3)
	n, err = b.CountActive(ctx)
	require.NoError(t, err)
	expect.EQ(t, n, 1)

	require.NoError(t, b.DeleteKey(ctx, 0))
	err = b.DeleteKey(ctx, 1)
	expect.True(t, errors.Is(errors.NotActive, err))
	n, err = a.CountActive(ctx)
	require.NoError(t, err)
	expect.EQ(t, n, 3)

	_, ok := r.Lookup(3)
	expect.False(t, ok)
	s, ok := r.Lookup(1)
	expect.True(t, ok)
	expect.True(t, s == a)
}

func TestRegistryClose(t *testing.T) {
	ctx := context.Background()
	r := keystore.NewRegistry(keystore.Options{Slots: 4, LockMemory: true})
	for owner := keystore.OwnerID(0); owner < 3; owner++ {
		s, err := r.GetOrCreate(owner)
		require.NoError(t, err)
		_, err = s.AddKey(ctx, blockcipher.AES, make([]byte, 32))
		require.NoError(t, err)
	}
	s, _ := r.Lookup(0)
	require.NoError(t, r.Close(ctx))
	require.NoError(t, r.Close(ctx))

	_, err := r.GetOrCreate(0)
	expect.True(t, errors.Is(errors.Unavailable, err))
	_, err = s.AddKey(ctx, blockcipher.AES, make([]byte, 32))
	expect.True(t, errors.Is(errors.Unavailable, err))
	_, err = s.NextNewKeyEvent(ctx)
	expect.True(t, errors.Is(errors.Unavailable, err))
}

func TestRegistryCloseRetriesFailedStores(t *testing.T) {
	r := keystore.NewRegistry(keystore.Options{Slots: 2})
	a, err := r.GetOrCreate(1)
	require.NoError(t, err)
	_, err = r.GetOrCreate(2)
	require.NoError(t, err)
	g, err := a.AcquireSlot(context.Background(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = r.Close(ctx)
	expect.True(t, errors.Is(errors.Canceled, err), "err=%v", err)
	expect.HasSubstr(t, err.Error(), "closing store of owner 1")
	expect.EQ(t, r.Owners(), []keystore.OwnerID{1})
	_, err = r.GetOrCreate(3)
	expect.True(t, errors.Is(errors.Unavailable, err))

	g.Release()
	require.NoError(t, r.Close(context.Background()))
	expect.EQ(t, r.Owners(), []keystore.OwnerID{})
	_, ok := r.Lookup(1)
	expect.False(t, ok)
}
