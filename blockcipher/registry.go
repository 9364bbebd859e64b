// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blockcipher

import (
	"crypto/cipher"
	"fmt"
	"sort"
	"sync"

	"github.com/xyzzyz/cryptodev/errors"
)

// Algorithm is the numeric identifier of a block cipher as it appears
// on the control surface. DES is 0, as in the reference client
// library.
type Algorithm int

const (
	DES Algorithm = iota
	TripleDES
	AES
	Blowfish
	CAST5
	XTEA
	TEA
	Twofish
)

// String returns the registered name of a, or a placeholder for
// unknown algorithms.
func (a Algorithm) String() string {
	if spec, err := Default.Lookup(a); err == nil {
		return spec.Name
	}
	return fmt.Sprintf("alg(%d)", int(a))
}

// Spec describes a registered block cipher.
type Spec struct {
	// Name is the cipher's name, e.g. "des".
	Name string
	// BlockSize is the cipher block size in bytes.
	BlockSize int
	// KeySizes lists the accepted key lengths in bytes, ascending.
	KeySizes []int
	// NewBlock constructs the cipher for a key of one of KeySizes.
	NewBlock func(key []byte) (cipher.Block, error)
}

// FitKey returns the key the cipher is keyed with when it is given
// the stored key material: the leading bytes of key, of the largest
// accepted length not exceeding len(key). FitKey fails with
// errors.Cipher if key is shorter than every accepted length.
func (s Spec) FitKey(key []byte) ([]byte, error) {
	for i := len(s.KeySizes) - 1; i >= 0; i-- {
		if n := s.KeySizes[i]; n <= len(key) {
			return key[:n], nil
		}
	}
	return nil, errors.E(errors.Cipher, fmt.Sprintf("%s: key of %d bytes is too short, need at least %d", s.Name, len(key), s.KeySizes[0]))
}

// Registry is a table of block ciphers, keyed by algorithm id and by
// name. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	specs  map[Algorithm]Spec
	byName map[string]Algorithm
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:  make(map[Algorithm]Spec),
		byName: make(map[string]Algorithm),
	}
}

// Default is the registry holding the built-in ciphers.
var Default = NewRegistry()

// Register registers spec under alg.
func (r *Registry) Register(alg Algorithm, spec Spec) error {
	if spec.BlockSize <= 0 || len(spec.KeySizes) == 0 || spec.NewBlock == nil {
		return errors.E(errors.Invalid, "blockcipher: incomplete spec for", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, present := r.specs[alg]; present {
		return errors.E(errors.Invalid, fmt.Sprintf("blockcipher: algorithm %d already registered", int(alg)))
	}
	if _, present := r.byName[spec.Name]; present {
		return errors.E(errors.Invalid, "blockcipher: already registered:", spec.Name)
	}
	sizes := append([]int(nil), spec.KeySizes...)
	sort.Ints(sizes)
	spec.KeySizes = sizes
	r.specs[alg] = spec
	r.byName[spec.Name] = alg
	return nil
}

// Lookup returns the spec registered under alg. Unknown algorithms
// fail with errors.Invalid.
func (r *Registry) Lookup(alg Algorithm) (Spec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.specs[alg]
	if !ok {
		return Spec{}, errors.E(errors.Invalid, fmt.Sprintf("blockcipher: unsupported algorithm %d", int(alg)))
	}
	return spec, nil
}

// LookupName returns the algorithm registered under name.
func (r *Registry) LookupName(name string) (Algorithm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alg, ok := r.byName[name]
	if !ok {
		return 0, errors.E(errors.Invalid, "blockcipher: unsupported algorithm", name)
	}
	return alg, nil
}

// Algorithms returns the registered algorithms in ascending id order.
func (r *Registry) Algorithms() []Algorithm {
	r.mu.Lock()
	algs := make([]Algorithm, 0, len(r.specs))
	for alg := range r.specs {
		algs = append(algs, alg)
	}
	r.mu.Unlock()
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}
