// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/xyzzyz/cryptodev/errors"
)

// Command is a control command number. Commands are encoded like
// Linux ioctl request numbers: transfer direction, argument size, the
// magic byte 0xCC and the command's ordinal.
type Command uint32

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	magic = 0xCC

	setCurrentArgsSize  = 12
	addKeyArgsSize      = 8
	delKeyArgsSize      = 8
	sizeResultsArgsSize = 4
)

// The control commands.
const (
	CmdSetCurrent  Command = iocWrite<<30 | setCurrentArgsSize<<16 | magic<<8 | 0
	CmdAddKey      Command = iocWrite<<30 | addKeyArgsSize<<16 | magic<<8 | 1
	CmdDelKey      Command = iocWrite<<30 | delKeyArgsSize<<16 | magic<<8 | 2
	CmdNumResults  Command = iocNone<<30 | magic<<8 | 3
	CmdSizeResults Command = iocRead<<30 | sizeResultsArgsSize<<16 | magic<<8 | 4
)

// Nr returns the command's ordinal.
func (c Command) Nr() int { return int(c & 0xff) }

// ArgSize returns the size of the command's fixed argument layout.
func (c Command) ArgSize() int { return int(c >> 16 & 0x3fff) }

func (c Command) String() string {
	switch c {
	case CmdSetCurrent:
		return "SetCurrent"
	case CmdAddKey:
		return "AddKey"
	case CmdDelKey:
		return "DelKey"
	case CmdNumResults:
		return "NumResults"
	case CmdSizeResults:
		return "SizeResults"
	}
	return fmt.Sprintf("command(%#x)", uint32(c))
}

// Command arguments are little endian, fixed layout structures of
// 32-bit fields. AddKey is followed by KeySize bytes of hex key.

// SetCurrentArgs are the arguments of CmdSetCurrent.
type SetCurrentArgs struct {
	Algorithm int32
	Slot      int32
	// Encrypt is nonzero to encrypt, zero to decrypt.
	Encrypt int32
}

// AddKeyArgs is the fixed part of the arguments of CmdAddKey.
type AddKeyArgs struct {
	Algorithm int32
	KeySize   uint32
}

// DelKeyArgs are the arguments of CmdDelKey.
type DelKeyArgs struct {
	Algorithm int32
	Slot      int32
}

// SizeResultsArgs are the arguments of CmdSizeResults.
type SizeResultsArgs struct {
	Count int32
}

func encodeArgs(args interface{}, trailer []byte) []byte {
	var b bytes.Buffer
	// Writes of fixed-size structs to a bytes.Buffer cannot fail.
	_ = binary.Write(&b, binary.LittleEndian, args)
	b.Write(trailer)
	return b.Bytes()
}

// decodeArgs decodes the fixed layout of cmd from arg into args and
// returns the bytes that follow it.
func decodeArgs(cmd Command, arg []byte, args interface{}) ([]byte, error) {
	n := cmd.ArgSize()
	if len(arg) < n {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: argument of %d bytes, want %d", cmd, len(arg), n))
	}
	if err := binary.Read(bytes.NewReader(arg[:n]), binary.LittleEndian, args); err != nil {
		return nil, errors.E(errors.Invalid, err, cmd.String())
	}
	return arg[n:], nil
}
