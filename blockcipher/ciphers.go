// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blockcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"

	"github.com/xyzzyz/cryptodev/must"
	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/tea"
	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"
)

func keyRange(lo, hi int) []int {
	sizes := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		sizes = append(sizes, n)
	}
	return sizes
}

func init() {
	builtin := []struct {
		alg  Algorithm
		spec Spec
	}{
		{DES, Spec{"des", des.BlockSize, []int{8}, des.NewCipher}},
		{TripleDES, Spec{"des3_ede", des.BlockSize, []int{24}, des.NewTripleDESCipher}},
		{AES, Spec{"aes", aes.BlockSize, []int{16, 24, 32}, aes.NewCipher}},
		{Blowfish, Spec{"blowfish", blowfish.BlockSize, keyRange(4, 56), func(key []byte) (cipher.Block, error) {
			return blowfish.NewCipher(key)
		}}},
		{CAST5, Spec{"cast5", cast5.BlockSize, []int{cast5.KeySize}, func(key []byte) (cipher.Block, error) {
			return cast5.NewCipher(key)
		}}},
		{XTEA, Spec{"xtea", xtea.BlockSize, []int{16}, func(key []byte) (cipher.Block, error) {
			return xtea.NewCipher(key)
		}}},
		{TEA, Spec{"tea", tea.BlockSize, []int{tea.KeySize}, tea.NewCipher}},
		{Twofish, Spec{"twofish", twofish.BlockSize, []int{16, 24, 32}, func(key []byte) (cipher.Block, error) {
			return twofish.NewCipher(key)
		}}},
	}
	for _, b := range builtin {
		must.Nil(Default.Register(b.alg, b.spec), "registering ", b.spec.Name)
	}
}
