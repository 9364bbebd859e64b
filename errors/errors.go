// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors implements the error type used throughout cryptodev.
// Every error carries a Kind that tells the caller which class of
// failure occurred (an invalid argument, an inactive key slot, a
// canceled wait, a cipher failure, ...). Errors can be chained, thus
// attributing one error to another, and the kind of a chain is the
// kind of its outermost non-Other link.
//
// Callers classify errors with Is:
//
//	if errors.Is(errors.NotActive, err) {
//		...
//	}
package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/xyzzyz/cryptodev/log"
)

// Separator defines the separation string inserted between
// chained errors in error messages.
var Separator = ":\n\t"

// Kind defines the class of an error. Kinds are stable and are
// mapped onto status codes by the control surface.
type Kind int

const (
	// Other indicates an unknown error.
	Other Kind = iota
	// Canceled indicates that a wait for a lock or a queue was
	// interrupted by context cancellation or a deadline.
	Canceled
	// Invalid indicates that the caller supplied an invalid algorithm,
	// slot index, key or operation.
	Invalid
	// NotActive indicates an operation on a key slot that holds no key.
	NotActive
	// ResourcesExhausted indicates that no free key slot remains.
	ResourcesExhausted
	// OOM indicates that a buffer or queue entry could not be allocated.
	OOM
	// Cipher indicates a key setup or transform failure reported by
	// the cipher engine.
	Cipher
	// NotConfigured indicates a data transfer on a session that has
	// no current key.
	NotConfigured
	// NotSupported indicates an unimplemented operation.
	NotSupported
	// Unavailable indicates use of a component after teardown.
	Unavailable

	maxKind
)

var kinds = map[Kind]string{
	Other:              "unknown error",
	Canceled:           "operation was canceled",
	Invalid:            "invalid argument",
	NotActive:          "key slot is not active",
	ResourcesExhausted: "no free key slot",
	OOM:                "out of memory",
	Cipher:             "cipher error",
	NotConfigured:      "session is not configured",
	NotSupported:       "operation not supported",
	Unavailable:        "resource unavailable",
}

// String returns a human-readable explanation of the error kind k.
func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the standard error type, carrying a kind, an optional
// message and an optional underlying error. Errors should be
// constructed by E.
type Error struct {
	// Kind is the error's class.
	Kind Kind
	// Message is an optional message associated with this error.
	Message string
	// Err is the error that caused this error, if any.
	Err error
}

// E constructs a new error from the provided arguments.
// Arguments are interpreted according to their types:
//
//   - Kind: sets the Error's kind
//   - string: sets the Error's message; multiple strings are
//     separated by a single space
//   - *Error: copies the error and sets it as the cause
//   - error: sets the Error's cause
//
// If a kind is not provided and the cause is another *Error, the new
// error inherits the cause's kind. A cause of context.Canceled or
// context.DeadlineExceeded is classified as Canceled.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args")
	}
	e := new(Error)
	var msg strings.Builder
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case string:
			if msg.Len() > 0 {
				msg.WriteString(" ")
			}
			msg.WriteString(arg)
		case *Error:
			copy := *arg
			if len(args) == 1 {
				return &copy
			}
			e.Err = &copy
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Error.Printf("errors.E: bad call (type %T) from %s:%d: %v", arg, file, line, arg)
			return &Error{
				Kind:    Invalid,
				Message: fmt.Sprintf("unknown type %T, value %v in error call", arg, arg),
			}
		}
	}
	e.Message = msg.String()
	if e.Err == nil {
		return e
	}
	switch prev := e.Err.(type) {
	case *Error:
		if prev.Kind == e.Kind || e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		}
	default:
		if e.Kind != Other {
			break
		}
		if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
			e.Kind = Canceled
		}
	}
	return e
}

// Recover recovers any error into an *Error. If err is already an
// *Error it is returned unchanged; otherwise it is wrapped.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if err, ok := err.(*Error); ok {
		return err
	}
	return E(err).(*Error)
}

// Error returns a human readable string describing this error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b bytes.Buffer
	e.writeError(&b)
	return b.String()
}

func (e *Error) writeError(b *bytes.Buffer) {
	if e.Message != "" {
		pad(b, ": ")
		b.WriteString(e.Message)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err == nil {
		return
	}
	if err, ok := e.Err.(*Error); ok {
		pad(b, Separator)
		b.WriteString(err.Error())
	} else {
		pad(b, ": ")
		b.WriteString(e.Err.Error())
	}
}

// Unwrap returns the cause of e, so that the standard library's
// errors.Is and errors.As can traverse the chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is tells whether an error has a specified kind, except for the
// indeterminate kind Other. In the case an error has kind Other, the
// chain is traversed until a non-Other error is encountered.
func Is(kind Kind, err error) bool {
	if err == nil {
		return false
	}
	return is(kind, Recover(err))
}

func is(kind Kind, e *Error) bool {
	if e.Kind != Other {
		return e.Kind == kind
	}
	if e2, ok := e.Err.(*Error); ok {
		return is(kind, e2)
	}
	return false
}

// KindOf returns the effective kind of err: the kind of the first
// link in its chain that is not Other.
func KindOf(err error) Kind {
	for e := Recover(err); e != nil; {
		if e.Kind != Other {
			return e.Kind
		}
		next, ok := e.Err.(*Error)
		if !ok {
			break
		}
		e = next
	}
	return Other
}

// New is synonymous with errors.New, and is provided here so that
// users need only import one errors package.
func New(msg string) error {
	return errors.New(msg)
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}
