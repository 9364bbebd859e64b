// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blockcipher_test

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"encoding/hex"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	assert.NoError(t, err)
	return b
}

func TestDESKnownAnswer(t *testing.T) {
	e := blockcipher.NewSoftEngine(nil)
	h, err := e.NewHandle(blockcipher.DES)
	assert.NoError(t, err)
	defer h.Close()
	assert.NoError(t, h.SetKey(mustHex(t, "133457799bbcdff1")))
	buf := mustHex(t, "0123456789abcdef")
	assert.NoError(t, h.Transform([][]byte{buf}, len(buf), blockcipher.Encrypt))
	expect.EQ(t, hex.EncodeToString(buf), "85e813540f0ab405")
	assert.NoError(t, h.Transform([][]byte{buf}, len(buf), blockcipher.Decrypt))
	expect.EQ(t, hex.EncodeToString(buf), "0123456789abcdef")
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	e := blockcipher.NewSoftEngine(nil)
	for _, alg := range blockcipher.Default.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			spec, err := e.Spec(alg)
			assert.NoError(t, err)
			key := make([]byte, spec.KeySizes[len(spec.KeySizes)-1])
			for i := range key {
				key[i] = byte(i*7 + 1)
			}
			h, err := e.NewHandle(alg)
			assert.NoError(t, err)
			defer h.Close()
			expect.EQ(t, h.Algorithm(), alg)
			expect.EQ(t, h.BlockSize(), spec.BlockSize)
			assert.NoError(t, h.SetKey(key))

			plain := bytes.Repeat([]byte("cryptodev"), 128)[:spec.BlockSize*40]
			chunks := [][]byte{
				append([]byte(nil), plain[:spec.BlockSize*32]...),
				append([]byte(nil), plain[spec.BlockSize*32:]...),
			}
			assert.NoError(t, h.Transform(chunks, len(plain), blockcipher.Encrypt))
			expect.False(t, bytes.Equal(bytes.Join(chunks, nil), plain))
			assert.NoError(t, h.Transform(chunks, len(plain), blockcipher.Decrypt))
			expect.EQ(t, bytes.Join(chunks, nil), plain)
		})
	}
}

func TestTransformOnlyTouchesLength(t *testing.T) {
	e := blockcipher.NewSoftEngine(nil)
	h, err := e.NewHandle(blockcipher.DES)
	assert.NoError(t, err)
	assert.NoError(t, h.SetKey([]byte("deadbeef")))
	buf := make([]byte, 32)
	assert.NoError(t, h.Transform([][]byte{buf}, 8, blockcipher.Encrypt))
	expect.EQ(t, buf[8:], make([]byte, 24))

	block, err := des.NewCipher([]byte("deadbeef"))
	assert.NoError(t, err)
	want := make([]byte, 8)
	block.Encrypt(want, make([]byte, 8))
	expect.EQ(t, buf[:8], want)
}

func TestTransformErrors(t *testing.T) {
	e := blockcipher.NewSoftEngine(nil)
	h, err := e.NewHandle(blockcipher.AES)
	assert.NoError(t, err)

	err = h.Transform([][]byte{make([]byte, 16)}, 16, blockcipher.Encrypt)
	expect.True(t, errors.Is(errors.Cipher, err))

	assert.NoError(t, h.SetKey(make([]byte, 16)))
	for _, c := range []struct {
		chunks [][]byte
		length int
	}{
		{[][]byte{make([]byte, 32)}, 5},
		{[][]byte{make([]byte, 16)}, 32},
		{[][]byte{make([]byte, 8), make([]byte, 24)}, 32},
	} {
		err := h.Transform(c.chunks, c.length, blockcipher.Encrypt)
		expect.True(t, errors.Is(errors.Cipher, err))
	}
	err = h.Transform([][]byte{make([]byte, 16)}, 16, blockcipher.Direction(9))
	expect.True(t, errors.Is(errors.Cipher, err))
}

func TestSetKeyErrors(t *testing.T) {
	e := blockcipher.NewSoftEngine(nil)
	h, err := e.NewHandle(blockcipher.DES)
	assert.NoError(t, err)
	expect.True(t, errors.Is(errors.Cipher, h.SetKey(make([]byte, 7))))
	expect.True(t, errors.Is(errors.Cipher, h.SetKey(make([]byte, 128))))

	_, err = e.NewHandle(blockcipher.Algorithm(99))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = e.Spec(blockcipher.Algorithm(-1))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestFitKey(t *testing.T) {
	spec, err := blockcipher.Default.Lookup(blockcipher.AES)
	assert.NoError(t, err)
	for _, c := range []struct {
		n, want int
	}{
		{16, 16}, {20, 16}, {24, 24}, {31, 24}, {32, 32}, {128, 32},
	} {
		key, err := spec.FitKey(make([]byte, c.n))
		assert.NoError(t, err)
		expect.EQ(t, len(key), c.want)
	}
	_, err = spec.FitKey(make([]byte, 15))
	expect.True(t, errors.Is(errors.Cipher, err))

	des, err := blockcipher.Default.Lookup(blockcipher.DES)
	assert.NoError(t, err)
	key, err := des.FitKey(bytes.Repeat([]byte{0xab}, 128))
	assert.NoError(t, err)
	expect.EQ(t, key, bytes.Repeat([]byte{0xab}, 8))
}

func TestRegistry(t *testing.T) {
	r := blockcipher.NewRegistry()
	newBlock := func(key []byte) (cipher.Block, error) { return des.NewCipher(key) }
	assert.NoError(t, r.Register(blockcipher.DES, blockcipher.Spec{Name: "des", BlockSize: 8, KeySizes: []int{8}, NewBlock: newBlock}))
	expect.True(t, errors.Is(errors.Invalid, r.Register(blockcipher.DES, blockcipher.Spec{Name: "other", BlockSize: 8, KeySizes: []int{8}, NewBlock: newBlock})))
	expect.True(t, errors.Is(errors.Invalid, r.Register(blockcipher.AES, blockcipher.Spec{Name: "des", BlockSize: 8, KeySizes: []int{8}, NewBlock: newBlock})))
	expect.True(t, errors.Is(errors.Invalid, r.Register(blockcipher.AES, blockcipher.Spec{Name: "aes"})))

	alg, err := r.LookupName("des")
	assert.NoError(t, err)
	expect.EQ(t, alg, blockcipher.DES)
	_, err = r.LookupName("rot13")
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.EQ(t, r.Algorithms(), []blockcipher.Algorithm{blockcipher.DES})

	expect.EQ(t, blockcipher.DES.String(), "des")
	expect.EQ(t, blockcipher.Algorithm(42).String(), "alg(42)")
	expect.EQ(t, blockcipher.Decrypt.String(), "decrypt")
}
