// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package blockcipher is the cipher engine behind cryptodev sessions.
// It keeps a registry of block ciphers and hands out handles that,
// once keyed, transform block-aligned buffers in place in ECB mode.
//
// The session layer only depends on the Engine and Handle interfaces,
// so a hardware-backed engine can be substituted for SoftEngine.
package blockcipher

import (
	"crypto/cipher"
	"fmt"

	"github.com/xyzzyz/cryptodev/errors"
)

// Direction selects encryption or decryption.
type Direction int

const (
	Encrypt Direction = iota
	Decrypt
)

func (d Direction) String() string {
	switch d {
	case Encrypt:
		return "encrypt"
	case Decrypt:
		return "decrypt"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Engine allocates cipher handles.
type Engine interface {
	// Spec returns the description of alg. Unknown algorithms fail
	// with errors.Invalid.
	Spec(alg Algorithm) (Spec, error)
	// NewHandle allocates an unkeyed handle for alg. Unknown
	// algorithms fail with errors.Invalid.
	NewHandle(alg Algorithm) (Handle, error)
	// Algorithms returns the algorithms the engine supports, in
	// ascending id order.
	Algorithms() []Algorithm
}

// Handle is a configured cipher. A Handle is not safe for concurrent
// use; sessions serialize access to it.
type Handle interface {
	// Algorithm returns the algorithm the handle was allocated for.
	Algorithm() Algorithm
	// BlockSize returns the cipher block size in bytes.
	BlockSize() int
	// SetKey keys the handle. Key lengths the cipher does not accept
	// fail with errors.Cipher.
	SetKey(key []byte) error
	// Transform transforms the first length bytes of the concatenation
	// of chunks in place. length must be a multiple of the block size
	// and every chunk but the last one touched must be block aligned;
	// violations, or a missing key, fail with errors.Cipher.
	Transform(chunks [][]byte, length int, dir Direction) error
	// Close releases the handle and its key material.
	Close()
}

// SoftEngine is an Engine backed by the software ciphers of a
// Registry.
type SoftEngine struct {
	reg *Registry
}

// NewSoftEngine returns an engine over reg; a nil reg selects Default.
func NewSoftEngine(reg *Registry) *SoftEngine {
	if reg == nil {
		reg = Default
	}
	return &SoftEngine{reg: reg}
}

var _ Engine = (*SoftEngine)(nil)

// Spec implements Engine.
func (e *SoftEngine) Spec(alg Algorithm) (Spec, error) {
	return e.reg.Lookup(alg)
}

// Algorithms implements Engine.
func (e *SoftEngine) Algorithms() []Algorithm { return e.reg.Algorithms() }

// NewHandle implements Engine.
func (e *SoftEngine) NewHandle(alg Algorithm) (Handle, error) {
	spec, err := e.reg.Lookup(alg)
	if err != nil {
		return nil, err
	}
	return &ecbHandle{alg: alg, spec: spec}, nil
}

type ecbHandle struct {
	alg   Algorithm
	spec  Spec
	key   []byte
	block cipher.Block
}

func (h *ecbHandle) Algorithm() Algorithm { return h.alg }

func (h *ecbHandle) BlockSize() int { return h.spec.BlockSize }

func (h *ecbHandle) SetKey(key []byte) error {
	if !h.acceptsKeyLen(len(key)) {
		return errors.E(errors.Cipher, fmt.Sprintf("%s: invalid key length %d", h.spec.Name, len(key)))
	}
	block, err := h.spec.NewBlock(key)
	if err != nil {
		return errors.E(errors.Cipher, err, h.spec.Name+": key setup")
	}
	h.wipe()
	h.key = append([]byte(nil), key...)
	h.block = block
	return nil
}

func (h *ecbHandle) acceptsKeyLen(n int) bool {
	for _, size := range h.spec.KeySizes {
		if size == n {
			return true
		}
	}
	return false
}

func (h *ecbHandle) Transform(chunks [][]byte, length int, dir Direction) error {
	if h.block == nil {
		return errors.E(errors.Cipher, h.spec.Name+": transform without key")
	}
	bs := h.spec.BlockSize
	if length < 0 || length%bs != 0 {
		return errors.E(errors.Cipher, fmt.Sprintf("%s: length %d is not a multiple of the block size %d", h.spec.Name, length, bs))
	}
	var xform func(dst, src []byte)
	switch dir {
	case Encrypt:
		xform = h.block.Encrypt
	case Decrypt:
		xform = h.block.Decrypt
	default:
		return errors.E(errors.Cipher, "invalid direction", dir.String())
	}
	remaining := length
	for _, chunk := range chunks {
		if remaining == 0 {
			break
		}
		n := len(chunk)
		if n > remaining {
			n = remaining
		}
		if n%bs != 0 {
			return errors.E(errors.Cipher, fmt.Sprintf("%s: chunk of %d bytes splits a block", h.spec.Name, len(chunk)))
		}
		for off := 0; off < n; off += bs {
			xform(chunk[off:off+bs], chunk[off:off+bs])
		}
		remaining -= n
	}
	if remaining != 0 {
		return errors.E(errors.Cipher, fmt.Sprintf("%s: length %d exceeds the buffer by %d bytes", h.spec.Name, length, remaining))
	}
	return nil
}

func (h *ecbHandle) Close() {
	h.wipe()
	h.block = nil
}

func (h *ecbHandle) wipe() {
	clear(h.key)
	h.key = nil
}
