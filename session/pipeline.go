// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"fmt"

	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/log"
)

// result is one transformed write. Its first length bytes, spread
// over chunks, are readable; off is the read cursor.
type result struct {
	chunks [][]byte
	length int
	off    int
	// held is the buffer memory charged against MaxPendingBytes.
	held int
}

// read copies unread bytes into p and advances the cursor.
func (r *result) read(p []byte) int {
	var n int
	for n < len(p) && r.off < r.length {
		chunkSize := len(r.chunks[0])
		chunk := r.chunks[r.off/chunkSize]
		lo := r.off % chunkSize
		hi := len(chunk)
		if rest := r.length - r.off; hi-lo > rest {
			hi = lo + rest
		}
		m := copy(p[n:], chunk[lo:hi])
		n += m
		r.off += m
	}
	return n
}

func (r *result) done() bool { return r.off >= r.length }

func (r *result) wipe() {
	for _, c := range r.chunks {
		clear(c)
	}
	r.chunks = nil
}

// Write transforms data with the session's current key and queues the
// result. data is split into ChunkSize buffers, the last one zero
// padded, and the transformed length is len(data) rounded up to the
// cipher block size. Write returns len(data) on success. Writes on one
// session are serialized and their results are queued in the order
// the writes were admitted.
//
// Write fails with errors.NotConfigured before SetCurrent,
// errors.OOM if the unread results would exceed MaxPendingBytes,
// errors.Cipher if the transform fails and errors.Canceled if ctx is
// done while waiting for a lock. Failed writes queue nothing.
func (s *Session) Write(ctx context.Context, data []byte) (int, error) {
	if err := s.writeMu.Lock(ctx); err != nil {
		return 0, err
	}
	defer s.writeMu.Unlock()
	switch s.State() {
	case Closed:
		return 0, errors.E(errors.Unavailable, "session is closed")
	case Unconfigured:
		return 0, errors.E(errors.NotConfigured, "write before a key was set")
	}
	if len(data) == 0 {
		return 0, nil
	}
	bs := s.handle.BlockSize()
	length := (len(data) + bs - 1) / bs * bs
	r, err := s.newResult(length)
	if err != nil {
		return 0, err
	}
	for i, off := 0, 0; off < len(data); i, off = i+1, off+s.opts.ChunkSize {
		copy(r.chunks[i], data[off:])
	}
	if err := s.handle.Transform(r.chunks, length, s.dir); err != nil {
		r.wipe()
		return 0, errors.E(err, fmt.Sprintf("%s of %d bytes", s.dir, len(data)))
	}
	// The key may have been deleted or replaced since SetCurrent; only
	// the key that was used is charged.
	if _, err := s.store.ChargeUse(ctx, s.slot, s.gen, s.dir); err != nil {
		r.wipe()
		return 0, err
	}
	if err := s.results.Put(r); err != nil {
		r.wipe()
		return 0, err
	}
	s.pending.Add(int64(r.held))
	log.Debug.Printf("session: owner %d: queued %d bytes from a %d byte write", s.Owner(), length, len(data))
	return len(data), nil
}

func (s *Session) newResult(length int) (*result, error) {
	n := (length + s.opts.ChunkSize - 1) / s.opts.ChunkSize
	held := n * s.opts.ChunkSize
	if pending := s.pending.Load(); pending+int64(held) > int64(s.opts.MaxPendingBytes) {
		return nil, errors.E(errors.OOM, fmt.Sprintf("%d bytes of unread results, a %d byte write would exceed the limit of %d",
			pending, held, s.opts.MaxPendingBytes))
	}
	r := &result{chunks: make([][]byte, n), length: length, held: held}
	for i := range r.chunks {
		r.chunks[i] = make([]byte, s.opts.ChunkSize)
	}
	return r, nil
}
