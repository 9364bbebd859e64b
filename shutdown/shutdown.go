// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package shutdown collects the teardown hooks of a process. Services
// register their teardown when they are created; binaries call Run
// on their way out.
package shutdown

import (
	"context"
	"sync"

	"github.com/xyzzyz/cryptodev/log"
)

// Func is the type of function run on shutdowns.
type Func func(ctx context.Context) error

var (
	mu    sync.Mutex
	funcs []Func
)

// Register registers f to be run by Run. Functions run in the reverse
// order of registration.
func Register(f Func) {
	mu.Lock()
	funcs = append(funcs, f)
	mu.Unlock()
}

// Run runs and forgets the registered functions. Errors are logged;
// the first one is returned.
func Run(ctx context.Context) error {
	mu.Lock()
	fns := funcs
	funcs = nil
	mu.Unlock()
	var first error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](ctx); err != nil {
			log.Error.Printf("shutdown: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
