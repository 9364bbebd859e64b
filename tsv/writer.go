// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package tsv writes tab separated lines one field at a time. It
// renders the status listing of key slots.
//
// Usage is similar to bufio.Writer, except that in place of Write
// there are typed WriteString, WriteInt64, etc. methods which append
// one field to the current line, and EndLine finishes the line.
package tsv

import (
	"bufio"
	"io"
	"strconv"
)

// Writer appends fields to a line and writes finished lines to an
// underlying io.Writer. The first write error is sticky: later lines
// are dropped and Flush returns it.
type Writer struct {
	w    *bufio.Writer
	line []byte
	err  error
}

// NewWriter creates a new tsv.Writer from an io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:    bufio.NewWriter(w),
		line: make([]byte, 0, 128),
	}
}

// WriteString appends s and a tab to the current line.
func (w *Writer) WriteString(s string) {
	w.line = append(w.line, s...)
	w.line = append(w.line, '\t')
}

// WriteInt64 appends the decimal form of i and a tab to the current
// line.
func (w *Writer) WriteInt64(i int64) {
	w.line = strconv.AppendInt(w.line, i, 10)
	w.line = append(w.line, '\t')
}

// WriteUint64 appends the decimal form of ui and a tab to the current
// line.
func (w *Writer) WriteUint64(ui uint64) {
	w.line = strconv.AppendUint(w.line, ui, 10)
	w.line = append(w.line, '\t')
}

// EndLine finishes the current line. It must be nonempty.
func (w *Writer) EndLine() error {
	w.line[len(w.line)-1] = '\n'
	if w.err == nil {
		_, w.err = w.w.Write(w.line)
	}
	w.line = w.line[:0]
	return w.err
}

// Flush flushes all finished lines.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}
