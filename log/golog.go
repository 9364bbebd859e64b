// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package log

import (
	"flag"
	"fmt"
	"io"
	golog "log"
	"sync/atomic"
)

var golevel atomic.Int64

var flagsAdded atomic.Bool

// Output flags for the Go standard logger.
const (
	Ldate         = golog.Ldate
	Ltime         = golog.Ltime
	Lmicroseconds = golog.Lmicroseconds
	Lshortfile    = golog.Lshortfile
	LstdFlags     = golog.LstdFlags
)

// SetFlags sets the output flags for the Go standard logger.
func SetFlags(flag int) { golog.SetFlags(flag) }

// SetOutput sets the output destination for the Go standard logger.
func SetOutput(w io.Writer) { golog.SetOutput(w) }

// SetPrefix sets the output prefix for the Go standard logger.
func SetPrefix(prefix string) { golog.SetPrefix(prefix) }

// SetLevel sets the level of the default outputter.
func SetLevel(level Level) { golevel.Store(int64(level)) }

// ParseLevel parses one of "off", "error", "info" or "debug".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off":
		return Off, nil
	case "error":
		return Error, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	}
	return Off, fmt.Errorf("invalid log level %q", s)
}

// AddFlags registers the -log flag on fs. It may be called once per
// process; later calls are reported and ignored.
func AddFlags(fs *flag.FlagSet) {
	if !flagsAdded.CompareAndSwap(false, true) {
		Error.Printf("log.AddFlags: called twice")
		return
	}
	fs.Var(levelFlag{}, "log", "set log level (off, error, info, debug)")
}

type levelFlag struct{}

func (levelFlag) String() string { return Level(golevel.Load()).String() }

func (levelFlag) Set(s string) error {
	l, err := ParseLevel(s)
	if err != nil {
		return err
	}
	SetLevel(l)
	return nil
}

// Get implements flag.Getter.
func (levelFlag) Get() interface{} { return Level(golevel.Load()) }

type gologOutputter struct{}

func (gologOutputter) Level() Level { return Level(golevel.Load()) }

func (gologOutputter) Output(calldepth int, level Level, s string) error {
	if Level(golevel.Load()) < level {
		return nil
	}
	return golog.Output(calldepth+1, s)
}
