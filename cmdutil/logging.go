// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package cmdutil provides utility routines for implementing the
// cryptodev command line tools.
package cmdutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/xyzzyz/cryptodev/log"
	"v.io/x/lib/vlog"
)

// Fatalf mirrors log.Fatalf with no prefix and no timestamp.
func Fatalf(format string, args ...interface{}) {
	m := fmt.Sprintf(format, args...)
	fmt.Fprint(os.Stderr, strings.TrimSuffix(m, "\n")+"\n")
	vlog.FlushLog()
	os.Exit(1)
}

// VlogOutputter is a log.Outputter backed by vlog. It logs at the
// Debug level when vlog verbosity is at least 1.
type VlogOutputter struct{}

// Level implements log.Outputter.
func (VlogOutputter) Level() log.Level {
	if vlog.V(1) {
		return log.Debug
	}
	return log.Info
}

// Output implements log.Outputter.
func (VlogOutputter) Output(calldepth int, level log.Level, s string) error {
	// vlog depth 0 is the caller of the vlog function, one frame less
	// than in the log package.
	switch level {
	case log.Off:
	case log.Error:
		vlog.ErrorDepth(calldepth, s)
	case log.Info:
		vlog.InfoDepth(calldepth, s)
	default:
		vlog.VI(vlog.Level(level)).InfoDepth(calldepth, s)
	}
	return nil
}
