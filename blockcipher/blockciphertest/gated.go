// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package blockciphertest provides engines for testing code that
// drives blockcipher handles.
package blockciphertest

import (
	"sync"

	"github.com/xyzzyz/cryptodev/blockcipher"
)

// GatedEngine wraps an Engine so that every Transform blocks until
// Release is called. Tests use it to hold a write in flight.
type GatedEngine struct {
	blockcipher.Engine

	entered     chan struct{}
	release     chan struct{}
	releaseOnce sync.Once
}

// NewGatedEngine returns a gated engine over e.
func NewGatedEngine(e blockcipher.Engine) *GatedEngine {
	return &GatedEngine{
		Engine:  e,
		entered: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

// NewHandle implements blockcipher.Engine.
func (e *GatedEngine) NewHandle(alg blockcipher.Algorithm) (blockcipher.Handle, error) {
	h, err := e.Engine.NewHandle(alg)
	if err != nil {
		return nil, err
	}
	return &gatedHandle{Handle: h, engine: e}, nil
}

// Entered receives a value each time a Transform starts waiting on
// the gate.
func (e *GatedEngine) Entered() <-chan struct{} { return e.entered }

// Release opens the gate for every blocked and future Transform.
func (e *GatedEngine) Release() {
	e.releaseOnce.Do(func() { close(e.release) })
}

type gatedHandle struct {
	blockcipher.Handle
	engine *GatedEngine
}

func (h *gatedHandle) Transform(chunks [][]byte, length int, dir blockcipher.Direction) error {
	select {
	case h.engine.entered <- struct{}{}:
	default:
	}
	<-h.engine.release
	return h.Handle.Transform(chunks, length, dir)
}
