// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package multierror gathers the errors of a set of parallel teardown
// operations into one error value.
package multierror

import (
	"fmt"
	"strings"
	"sync"
)

// Builder collects errors. It is safe for concurrent use, so that
// goroutines in a fan-out can report into the same Builder:
//
//	b := multierror.NewBuilder(4)
//	for _, s := range stores {
//		g.Go(func() error { b.Add(s.Close(ctx)); return nil })
//	}
//	g.Wait()
//	return b.Err()
type Builder struct {
	mu      sync.Mutex
	max     int
	errs    []error
	dropped int
}

// NewBuilder returns a Builder that retains up to max errors. Errors
// past max are only counted.
func NewBuilder(max int) *Builder {
	if max < 1 {
		max = 1
	}
	return &Builder{max: max}
}

// Add records err. Nil errors are ignored, and an *Error is flattened
// into its parts. Add returns the Builder so calls can be chained.
func (b *Builder) Add(err error) *Builder {
	if err == nil {
		return b
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := err.(*Error); ok {
		for _, e := range m.errs {
			b.addLocked(e)
		}
		b.dropped += m.dropped
		return b
	}
	b.addLocked(err)
	return b
}

func (b *Builder) addLocked(err error) {
	if len(b.errs) == b.max {
		b.dropped++
		return
	}
	b.errs = append(b.errs, err)
}

// Err returns nil if no error was added, the error itself if exactly
// one was, and an *Error otherwise.
func (b *Builder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case len(b.errs) == 0:
		return nil
	case len(b.errs) == 1 && b.dropped == 0:
		return b.errs[0]
	}
	return &Error{errs: append([]error(nil), b.errs...), dropped: b.dropped}
}

// Error is a set of errors.
type Error struct {
	errs    []error
	dropped int
}

// Errors returns the retained errors.
func (e *Error) Errors() []error { return e.errs }

// Unwrap returns the retained errors, for use by errors.Is and
// errors.As in the standard library.
func (e *Error) Unwrap() []error { return e.errs }

func (e *Error) Error() string {
	s := make([]string, len(e.errs))
	for i, err := range e.errs {
		s[i] = err.Error()
	}
	msg := "[" + strings.Join(s, "\n") + "]"
	if e.dropped > 0 {
		msg += fmt.Sprintf(" [plus %d other error(s)]", e.dropped)
	}
	return msg
}
