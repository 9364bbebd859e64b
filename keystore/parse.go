// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package keystore

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/xyzzyz/cryptodev/errors"
)

// ParseHexKey decodes a key given as an even number of hexadecimal
// digits, at most 2*maxLen of them. A single trailing newline is
// ignored.
func ParseHexKey(s string, maxLen int) ([]byte, error) {
	s = strings.TrimSuffix(s, "\n")
	switch {
	case s == "":
		return nil, errors.E(errors.Invalid, "empty key")
	case len(s)%2 == 1:
		return nil, errors.E(errors.Invalid, fmt.Sprintf("key has an odd number (%d) of hex digits", len(s)))
	case len(s) > 2*maxLen:
		return nil, errors.E(errors.Invalid, fmt.Sprintf("key of %d bytes exceeds the maximum of %d", len(s)/2, maxLen))
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "key is not hexadecimal")
	}
	return key, nil
}

// ParseIndex parses a decimal slot index in [0, n). A single trailing
// newline is ignored.
func ParseIndex(s string, n int) (int, error) {
	s = strings.TrimSuffix(s, "\n")
	index, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return -1, errors.E(errors.Invalid, err, "slot index")
	}
	if int(index) >= n {
		return -1, errors.E(errors.Invalid, fmt.Sprintf("slot index %d out of range [0, %d)", index, n))
	}
	return int(index), nil
}
