// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"context"
	"fmt"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/keystore"
	"github.com/xyzzyz/cryptodev/log"
	"github.com/xyzzyz/cryptodev/session"
)

// Handle is an open handle of a Service. Control commands, writes and
// reads on one handle share one cipher session.
type Handle struct {
	svc     *Service
	store   *keystore.Store
	session *session.Session
}

var _ Device = (*Handle)(nil)

// Owner returns the owner the handle was opened for.
func (h *Handle) Owner() keystore.OwnerID { return h.store.Owner() }

// Ioctl executes the control command cmd with the fixed-layout
// argument arg. Its integer result is the new slot index for
// CmdAddKey, the number of queued results for CmdNumResults and zero
// otherwise.
func (h *Handle) Ioctl(ctx context.Context, cmd Command, arg []byte) (int, error) {
	n, err := h.ioctl(ctx, cmd, arg)
	if err != nil {
		log.Debug.Printf("cryptiface: owner %d: %s: %v", h.Owner(), cmd, err)
	}
	return n, err
}

func (h *Handle) ioctl(ctx context.Context, cmd Command, arg []byte) (int, error) {
	switch cmd {
	case CmdSetCurrent:
		var a SetCurrentArgs
		if _, err := decodeArgs(cmd, arg, &a); err != nil {
			return 0, err
		}
		dir := blockcipher.Decrypt
		if a.Encrypt != 0 {
			dir = blockcipher.Encrypt
		}
		return 0, h.session.SetCurrent(ctx, blockcipher.Algorithm(a.Algorithm), int(a.Slot), dir)
	case CmdAddKey:
		var a AddKeyArgs
		rest, err := decodeArgs(cmd, arg, &a)
		if err != nil {
			return 0, err
		}
		if uint64(a.KeySize) > uint64(len(rest)) {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("%s: key size %d exceeds the %d bytes supplied", cmd, a.KeySize, len(rest)))
		}
		key, err := keystore.ParseHexKey(string(rest[:a.KeySize]), h.store.MaxKeyLen())
		if err != nil {
			return 0, err
		}
		defer clear(key)
		return h.store.AddKey(ctx, blockcipher.Algorithm(a.Algorithm), key)
	case CmdDelKey:
		var a DelKeyArgs
		if _, err := decodeArgs(cmd, arg, &a); err != nil {
			return 0, err
		}
		if _, err := h.svc.engine.Spec(blockcipher.Algorithm(a.Algorithm)); err != nil {
			return 0, err
		}
		return 0, h.store.DeleteKey(ctx, int(a.Slot))
	case CmdNumResults:
		return h.session.NumResults(), nil
	case CmdSizeResults:
		var a SizeResultsArgs
		if _, err := decodeArgs(cmd, arg, &a); err != nil {
			return 0, err
		}
		_, err := h.session.SizeResults(int(a.Count))
		return 0, err
	}
	return 0, errors.E(errors.Invalid, "unknown command", cmd.String())
}

// Write transforms p with the handle's current key and queues the
// result. See session.Session.Write.
func (h *Handle) Write(ctx context.Context, p []byte) (int, error) {
	return h.session.Write(ctx, p)
}

// Read copies the oldest queued result, or as much of it as fits,
// into p. It returns 0 if no result is queued.
func (h *Handle) Read(p []byte) (int, error) {
	return h.session.ReadResult(p)
}

// ReadWait is like Read but waits for a result to be queued.
func (h *Handle) ReadWait(ctx context.Context, p []byte) (int, error) {
	return h.session.ReadWait(ctx, p)
}

// Close closes the handle, dropping unread results.
func (h *Handle) Close(ctx context.Context) error {
	if err := h.session.Close(ctx); err != nil {
		return err
	}
	h.svc.forget(h)
	return nil
}
