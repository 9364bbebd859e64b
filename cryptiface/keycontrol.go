// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/keystore"
)

// minReadLen is the smallest buffer ReadNextKey accepts.
const minReadLen = 11

// KeyControl is the line-oriented key channel of one owner and
// algorithm. Writing "A<hex key>" adds a key, writing "D<index>"
// deletes one; reading waits for the next key added by the owner.
type KeyControl struct {
	store *keystore.Store
	alg   blockcipher.Algorithm
}

// KeyControl returns the key channel of owner for alg.
func (s *Service) KeyControl(owner keystore.OwnerID, alg blockcipher.Algorithm) (*KeyControl, error) {
	if _, err := s.engine.Spec(alg); err != nil {
		return nil, err
	}
	store, err := s.store(owner)
	if err != nil {
		return nil, err
	}
	return &KeyControl{store: store, alg: alg}, nil
}

// Write executes one command line and returns len(line). A trailing
// newline is allowed.
func (k *KeyControl) Write(ctx context.Context, line []byte) (int, error) {
	if len(line) < 2 {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("command of %d bytes is too short", len(line)))
	}
	// Operation byte, the longest key in hex and a newline.
	if limit := 2*k.store.MaxKeyLen() + 2; len(line) > limit {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("command of %d bytes exceeds %d", len(line), limit))
	}
	switch line[0] {
	case 'A':
		key, err := keystore.ParseHexKey(string(line[1:]), k.store.MaxKeyLen())
		if err != nil {
			return 0, err
		}
		defer clear(key)
		if _, err := k.store.AddKey(ctx, k.alg, key); err != nil {
			return 0, err
		}
	case 'D':
		index, err := keystore.ParseIndex(string(line[1:]), k.store.NumSlots())
		if err != nil {
			return 0, err
		}
		if err := k.store.DeleteKey(ctx, index); err != nil {
			return 0, err
		}
	default:
		return 0, errors.E(errors.Invalid, fmt.Sprintf("unknown operation %q", line[0]))
	}
	return len(line), nil
}

// NextKey waits for the owner's next new key and returns its slot
// index. Each new key is reported once.
func (k *KeyControl) NextKey(ctx context.Context) (int, error) {
	return k.store.NextNewKeyEvent(ctx)
}

// ReadNextKey is NextKey for byte-oriented readers: it writes the
// decimal index into p, which must hold at least 11 bytes.
func (k *KeyControl) ReadNextKey(ctx context.Context, p []byte) (int, error) {
	if len(p) < minReadLen {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("read buffer of %d bytes, want at least %d", len(p), minReadLen))
	}
	index, err := k.NextKey(ctx)
	if err != nil {
		return 0, err
	}
	return copy(p, strconv.Itoa(index)), nil
}
