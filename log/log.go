// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package log provides leveled logging for cryptodev. Output goes to
// an Outputter; the default one writes through Go's standard log
// package, and binaries replace it (see package cmdutil) to route
// output to vlog.
//
// Key material is never passed to this package.
package log

import (
	"fmt"
	"os"
	"sync/atomic"
)

// An Outputter provides a destination for leveled log output.
type Outputter interface {
	// Level returns the level at which the outputter is accepting
	// messages.
	Level() Level

	// Output writes the provided message at the provided calldepth
	// and level. The message is dropped if the outputter is not
	// logging at that level.
	Output(calldepth int, level Level, s string) error
}

type outputterBox struct{ Outputter }

var out atomic.Value

func init() {
	out.Store(outputterBox{gologOutputter{}})
}

func current() Outputter {
	return out.Load().(outputterBox).Outputter
}

// SetOutputter installs a new outputter and returns the previous one.
// It is safe to call concurrently with log output.
func SetOutputter(newOut Outputter) Outputter {
	return out.Swap(outputterBox{newOut}).(outputterBox).Outputter
}

// At returns whether the logger is currently logging at the provided level.
func At(level Level) bool {
	return level <= current().Level()
}

// Output outputs a log message at the provided level and call depth.
func Output(calldepth int, level Level, s string) error {
	return current().Output(calldepth+1, level, s)
}

// A Level is a log verbosity level. If the outputter is logging at
// level L, then all messages with level M <= L are written.
type Level int

const (
	// Off never outputs messages.
	Off = Level(-3)
	// Error outputs error messages.
	Error = Level(-2)
	// Info outputs informational messages. This is the standard
	// logging level.
	Info = Level(0)
	// Debug outputs messages intended for debugging.
	Debug = Level(1)
)

// String returns the string representation of the level l.
func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	}
	if l < 0 {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return fmt.Sprintf("debug%d", l)
}

// Print formats a message in the manner of fmt.Sprint and outputs it
// at level l.
func (l Level) Print(v ...interface{}) {
	if At(l) {
		_ = current().Output(2, l, fmt.Sprint(v...))
	}
}

// Printf formats a message in the manner of fmt.Sprintf and outputs
// it at level l.
func (l Level) Printf(format string, v ...interface{}) {
	if At(l) {
		_ = current().Output(2, l, fmt.Sprintf(format, v...))
	}
}

// Print formats a message in the manner of fmt.Sprint and outputs it
// at the Info level.
func Print(v ...interface{}) {
	if At(Info) {
		_ = current().Output(2, Info, fmt.Sprint(v...))
	}
}

// Printf formats a message in the manner of fmt.Sprintf and outputs
// it at the Info level.
func Printf(format string, v ...interface{}) {
	if At(Info) {
		_ = current().Output(2, Info, fmt.Sprintf(format, v...))
	}
}

// Fatal formats a message in the manner of fmt.Sprint, outputs it at
// the error level and then calls os.Exit(1).
func Fatal(v ...interface{}) {
	_ = current().Output(2, Error, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf formats a message in the manner of fmt.Sprintf, outputs it
// at the error level and then calls os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	_ = current().Output(2, Error, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Panicf formats a message in the manner of fmt.Sprintf, outputs it
// at the error level and then panics.
func Panicf(format string, v ...interface{}) {
	s := fmt.Sprintf(format, v...)
	_ = current().Output(2, Error, s)
	panic(s)
}
