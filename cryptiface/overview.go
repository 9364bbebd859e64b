// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"context"
	"io"

	"github.com/xyzzyz/cryptodev/keystore"
	"github.com/xyzzyz/cryptodev/tsv"
)

// Overview writes the status listing of owner's keys to w, one line
// per active slot:
//
//	index	algorithm	created (unix seconds)	encodes	decodes
//
// An owner without a store has an empty listing.
func (s *Service) Overview(ctx context.Context, owner keystore.OwnerID, w io.Writer) error {
	store, ok := s.registry.Lookup(owner)
	if !ok {
		return nil
	}
	infos, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	tw := tsv.NewWriter(w)
	for _, info := range infos {
		tw.WriteInt64(int64(info.Index))
		tw.WriteString(info.Alg.String())
		tw.WriteInt64(info.CreatedAt.Unix())
		tw.WriteInt64(info.EncodeCount)
		tw.WriteInt64(info.DecodeCount)
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Usage writes one line per owner with a key store to w, in owner
// order:
//
//	owner	active slots	free slots	undelivered key events
func (s *Service) Usage(ctx context.Context, w io.Writer) error {
	tw := tsv.NewWriter(w)
	for _, owner := range s.registry.Owners() {
		store, ok := s.registry.Lookup(owner)
		if !ok {
			continue
		}
		active, err := store.CountActive(ctx)
		if err != nil {
			return err
		}
		tw.WriteUint64(uint64(owner))
		tw.WriteInt64(int64(active))
		tw.WriteInt64(int64(store.NumSlots() - active))
		tw.WriteInt64(int64(store.PendingEvents()))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
