// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package must_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xyzzyz/cryptodev/must"
)

func TestMust(t *testing.T) {
	var got string
	old := must.Func
	defer func() { must.Func = old }()
	must.Func = func(_ int, v ...interface{}) { got = fmt.Sprint(v...) }

	must.Nil(nil)
	must.True(true)
	must.Truef(true, "unused %d", 1)
	assert.Equal(t, "", got)

	must.Nil(errors.New("boom"), "closing store")
	assert.Equal(t, "closing store: boom", got)
	must.True(false)
	assert.Equal(t, "must: assertion failed", got)
	must.Truef(false, "slot %d released twice", 7)
	assert.Equal(t, "slot 7 released twice", got)
}

func TestMustPanics(t *testing.T) {
	assert.Panics(t, func() { must.True(false, "guard released twice") })
}
