// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package session

import (
	"context"

	"github.com/xyzzyz/cryptodev/errors"
)

// ReadResult copies up to len(p) bytes of the oldest queued result
// into p. The result is dequeued once all of it has been read. It
// returns 0 if no result is queued; it never blocks.
func (s *Session) ReadResult(p []byte) (int, error) {
	if s.State() == Closed {
		return 0, errors.E(errors.Unavailable, "session is closed")
	}
	var n int
	s.results.Consume(func(head **result) bool {
		r := *head
		n = r.read(p)
		if !r.done() {
			return false
		}
		s.pending.Add(-int64(r.held))
		r.wipe()
		return true
	})
	return n, nil
}

// ReadWait is like ReadResult, but blocks until a result is queued.
// It returns errors.Canceled if ctx is done first and
// errors.Unavailable if the session is closed while it waits.
func (s *Session) ReadWait(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if err := s.results.Wait(ctx); err != nil {
			return 0, err
		}
		n, err := s.ReadResult(p)
		if n > 0 || err != nil {
			return n, err
		}
		// Another reader took the result.
	}
}

// NumResults returns the number of queued results.
func (s *Session) NumResults() int { return s.results.Len() }

// PendingBytes returns the buffer memory held by queued results.
func (s *Session) PendingBytes() int64 { return s.pending.Load() }

// SizeResults would report the lengths of the count oldest results.
// It is not supported.
func (s *Session) SizeResults(count int) ([]int, error) {
	return nil, errors.E(errors.NotSupported, "size of results")
}
