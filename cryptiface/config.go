// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"flag"
	"fmt"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/eventlog"
	"github.com/xyzzyz/cryptodev/keystore"
	"github.com/xyzzyz/cryptodev/session"
)

// Config configures a Service.
type Config struct {
	// Slots is the number of key slots of each owner.
	Slots int
	// MaxKeyLen is the longest key, in bytes, that can be added.
	MaxKeyLen int
	// ChunkSize is the size of the buffers writes are split into.
	ChunkSize int
	// MaxPendingBytes bounds the memory held by the unread results of
	// one handle.
	MaxPendingBytes int
	// LockMemory locks key memory so that it is never swapped out.
	LockMemory bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Slots:           keystore.DefaultSlots,
		MaxKeyLen:       keystore.MaxKeyLen,
		ChunkSize:       session.DefaultChunkSize,
		MaxPendingBytes: session.DefaultMaxPendingBytes,
		LockMemory:      true,
	}
}

// RegisterFlags registers flags for every field of c on fs. The
// current values of c are the flag defaults. Flag names are prefixed
// with prefix.
func (c *Config) RegisterFlags(fs *flag.FlagSet, prefix string) {
	fs.IntVar(&c.Slots, prefix+"slots", c.Slots, "number of key slots per owner")
	fs.IntVar(&c.MaxKeyLen, prefix+"max-key-len", c.MaxKeyLen, "maximum key length in bytes")
	fs.IntVar(&c.ChunkSize, prefix+"chunk-size", c.ChunkSize, "size of the buffers writes are split into")
	fs.IntVar(&c.MaxPendingBytes, prefix+"max-pending-bytes", c.MaxPendingBytes, "maximum buffer memory held by the unread results of a handle")
	fs.BoolVar(&c.LockMemory, prefix+"lock-memory", c.LockMemory, "lock key memory into RAM")
}

// Validate checks that c is usable with the software engine over
// blockcipher.Default.
func (c Config) Validate() error {
	return c.ValidateEngine(blockcipher.NewSoftEngine(nil))
}

// ValidateEngine checks that c is usable with engine: every value
// must be positive and the chunk size a multiple of the block size of
// every algorithm engine supports.
func (c Config) ValidateEngine(engine blockcipher.Engine) error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"slots", c.Slots},
		{"max-key-len", c.MaxKeyLen},
		{"chunk-size", c.ChunkSize},
		{"max-pending-bytes", c.MaxPendingBytes},
	} {
		if f.value <= 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("config: %s must be positive, got %d", f.name, f.value))
		}
	}
	if c.MaxPendingBytes < c.ChunkSize {
		return errors.E(errors.Invalid, fmt.Sprintf("config: max-pending-bytes %d is less than chunk-size %d", c.MaxPendingBytes, c.ChunkSize))
	}
	for _, alg := range engine.Algorithms() {
		spec, err := engine.Spec(alg)
		if err != nil {
			return err
		}
		if c.ChunkSize%spec.BlockSize != 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("config: chunk-size %d is not a multiple of the %s block size %d", c.ChunkSize, spec.Name, spec.BlockSize))
		}
	}
	return nil
}

func (c Config) keystoreOptions(eventer eventlog.Eventer) keystore.Options {
	return keystore.Options{
		Slots:      c.Slots,
		MaxKeyLen:  c.MaxKeyLen,
		LockMemory: c.LockMemory,
		Eventer:    eventer,
	}
}

func (c Config) sessionOptions(eventer eventlog.Eventer) session.Options {
	return session.Options{
		ChunkSize:       c.ChunkSize,
		MaxPendingBytes: c.MaxPendingBytes,
		Eventer:         eventer,
	}
}
