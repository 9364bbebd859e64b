// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package keystore

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
)

func TestCloseResumesWipe(t *testing.T) {
	ctx := context.Background()
	s := NewStore(1, Options{Slots: 3, MaxKeyLen: 16})
	key := bytes.Repeat([]byte{0xa5}, 16)
	for i := 0; i < 3; i++ {
		_, err := s.AddKey(ctx, blockcipher.AES, key)
		require.NoError(t, err)
	}
	g, err := s.AcquireSlot(ctx, 1)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err = s.Close(short)
	expect.True(t, errors.Is(errors.Canceled, err))
	expect.False(t, s.torndown)
	expect.EQ(t, s.wiped.Count(), uint(2))
	expect.False(t, s.wiped.Test(1))
	expect.True(t, s.slots[1].active)
	expect.EQ(t, s.slots[1].key, key)

	g.Release()
	require.NoError(t, s.Close(ctx))
	expect.True(t, s.torndown)
	for i := range s.slots {
		expect.False(t, s.slots[i].active, "slot %d", i)
	}
	expect.EQ(t, s.arena, make([]byte, len(s.arena)))
}
