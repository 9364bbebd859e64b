// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package keystore_test

import (
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/keystore"
)

func TestParseHexKey(t *testing.T) {
	for _, c := range []struct {
		in   string
		want string
		ok   bool
	}{
		{"DEADBABEDEADBEEF", "deadbabedeadbeef", true},
		{"deadbeef\n", "deadbeef", true},
		{strings.Repeat("00", 128), strings.Repeat("00", 128), true},
		{strings.Repeat("00", 129), "", false},
		{"", "", false},
		{"\n", "", false},
		{"abc", "", false},
		{"zz", "", false},
		{"dead beef", "", false},
	} {
		key, err := keystore.ParseHexKey(c.in, keystore.MaxKeyLen)
		if !c.ok {
			expect.True(t, errors.Is(errors.Invalid, err), "input %q: %v", c.in, err)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		expect.EQ(t, hex.EncodeToString(key), c.want)
	}
}

func TestParseHexKeyFuzz(t *testing.T) {
	fz := fuzz.New().NilChance(0).NumElements(1, keystore.MaxKeyLen)
	for i := 0; i < 500; i++ {
		var b []byte
		fz.Fuzz(&b)
		s := hex.EncodeToString(b)
		if i%2 == 1 {
			s = strings.ToUpper(s)
		}
		key, err := keystore.ParseHexKey(s, keystore.MaxKeyLen)
		require.NoError(t, err)
		assert.Equal(t, b, key)
	}
}

func TestParseIndex(t *testing.T) {
	for _, c := range []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"127", 127},
		{"5\n", 5},
		{"128", -1},
		{"-1", -1},
		{"", -1},
		{"1x", -1},
		{" 3", -1},
		{"99999999999999999999", -1},
	} {
		got, err := keystore.ParseIndex(c.in, keystore.DefaultSlots)
		if c.want < 0 {
			expect.True(t, errors.Is(errors.Invalid, err), "input %q", c.in)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		expect.EQ(t, got, c.want)
	}
}

func TestParseIndexFuzz(t *testing.T) {
	fz := fuzz.New().NilChance(0)
	for i := 0; i < 500; i++ {
		var n uint16
		fz.Fuzz(&n)
		got, err := keystore.ParseIndex(strconv.Itoa(int(n)), keystore.DefaultSlots)
		if int(n) < keystore.DefaultSlots {
			require.NoError(t, err)
			assert.Equal(t, int(n), got)
		} else {
			assert.True(t, errors.Is(errors.Invalid, err))
		}
	}
}
