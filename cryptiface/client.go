// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"context"
	"fmt"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
)

// Device accepts control commands. *Handle implements it.
type Device interface {
	Ioctl(ctx context.Context, cmd Command, arg []byte) (int, error)
}

// SetCurrent makes the key in slot id, used with alg, the current key
// of d, encrypting if encrypt is set and decrypting otherwise.
func SetCurrent(ctx context.Context, d Device, alg blockcipher.Algorithm, id int, encrypt bool) error {
	a := SetCurrentArgs{Algorithm: int32(alg), Slot: int32(id)}
	if encrypt {
		a.Encrypt = 1
	}
	_, err := d.Ioctl(ctx, CmdSetCurrent, encodeArgs(a, nil))
	return err
}

// AddKey adds the hex encoded key for alg and returns its slot id.
func AddKey(ctx context.Context, d Device, alg blockcipher.Algorithm, key string) (int, error) {
	a := AddKeyArgs{Algorithm: int32(alg), KeySize: uint32(len(key))}
	return d.Ioctl(ctx, CmdAddKey, encodeArgs(a, []byte(key)))
}

// DelKey deletes the key in slot id.
func DelKey(ctx context.Context, d Device, alg blockcipher.Algorithm, id int) error {
	_, err := d.Ioctl(ctx, CmdDelKey, encodeArgs(DelKeyArgs{Algorithm: int32(alg), Slot: int32(id)}, nil))
	return err
}

// NumResults returns the number of results queued on d.
func NumResults(ctx context.Context, d Device) (int, error) {
	return d.Ioctl(ctx, CmdNumResults, nil)
}

// SizeResults returns the lengths of the n oldest results queued on d.
// Devices do not currently support it.
func SizeResults(ctx context.Context, d Device, n int) ([]int, error) {
	if n < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("negative result count %d", n))
	}
	if _, err := d.Ioctl(ctx, CmdSizeResults, encodeArgs(SizeResultsArgs{Count: int32(n)}, nil)); err != nil {
		return nil, err
	}
	return make([]int, 0, n), nil
}
