// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockciphertest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/blockcipher/blockciphertest"
)

func TestGatedEngine(t *testing.T) {
	e := blockciphertest.NewGatedEngine(blockcipher.NewSoftEngine(nil))
	h, err := e.NewHandle(blockcipher.DES)
	require.NoError(t, err)
	defer h.Close()
	require.NoError(t, h.SetKey([]byte("01234567")))

	done := make(chan error, 1)
	go func() { done <- h.Transform([][]byte{make([]byte, 8)}, 8, blockcipher.Encrypt) }()
	<-e.Entered()
	select {
	case <-done:
		t.Fatal("transform passed a closed gate")
	case <-time.After(5 * time.Millisecond):
	}
	e.Release()
	e.Release()
	require.NoError(t, <-done)
}
