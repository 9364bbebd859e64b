// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyzzyz/cryptodev/errors"
	"v.io/x/lib/cmdline"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &cmdline.Env{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		Vars:   map[string]string{},
	}
	err := cmdline.ParseAndRun(newCmdRoot(), env, args)
	return stdout.String(), err
}

func TestDemo(t *testing.T) {
	out, err := run(t, "", "demo", "-lock-memory=false", "-owner=1000")
	require.NoError(t, err)
	expect.HasSubstr(t, out, "plaintext:")
	expect.HasSubstr(t, out, "cryptiface.NumResults() = 1")
	expect.HasSubstr(t, out, "encrypted:")
	decrypted := out[strings.Index(out, "decrypted:"):]
	expect.HasSubstr(t, decrypted, "|LOL WAT CO JA WI|")
	assert.Regexp(t, `\n0\tdes\t\d+\t1\t1\n$`, out)
}

func TestDemoAES(t *testing.T) {
	out, err := run(t, "", "demo", "-lock-memory=false", "-alg=aes", "-key="+strings.Repeat("0f", 16), "secret")
	require.NoError(t, err)
	expect.HasSubstr(t, out, "|secret|")
	assert.Regexp(t, `\n0\taes\t\d+\t1\t1\n$`, out)

	_, err = run(t, "", "demo", "-lock-memory=false", "-alg=rot13")
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestOverview(t *testing.T) {
	out, err := run(t, "ADEADBABEDEADBEEF\nA0011223344556677\n\nD0\n", "overview", "-lock-memory=false", "-alg=des")
	require.NoError(t, err)
	assert.Regexp(t, `^1\tdes\t\d+\t0\t0\n$`, out)

	_, err = run(t, "ADEADBABEDEADBEEF\nQ\n", "overview", "-lock-memory=false")
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.HasSubstr(t, err.Error(), "stdin line 2")
}

func TestShell(t *testing.T) {
	config.LockMemory = false
	algFlag = "des"
	ownerFlag = 42
	waitFlag = 50 * time.Millisecond
	var out bytes.Buffer
	sh, err := newShell(&out)
	require.NoError(t, err)

	for _, c := range []struct {
		input string
		want  string
		kind  errors.Kind
	}{
		{"help", "make a key current", errors.Other},
		{"algs", "blowfish", errors.Other},
		{"add des DEADBABEDEADBEEF", "slot 0", errors.Other},
		{"write hello", "", errors.NotConfigured},
		{"use des 0 enc", "", errors.Other},
		{"write hello", "wrote 5 bytes", errors.Other},
		{"count", "1", errors.Other},
		{"read", "00000000", errors.Other},
		{"wait 8", "", errors.Canceled},
		{"ctl A0011223344556677", "", errors.Other},
		{"next", "new key in slot 0", errors.Other},
		{"next", "new key in slot 1", errors.Other},
		{"ls", "1\tdes\t", errors.Other},
		{"usage", "42\t2\t126\t0\n", errors.Other},
		{"use des 0 dec", "", errors.Other},
		{"writehex zz", "", errors.Invalid},
		{"del des 0", "", errors.Other},
		{"use des 0 enc", "", errors.NotActive},
		{"use des 0 sideways", "", errors.Invalid},
		{"frobnicate", "", errors.Invalid},
	} {
		out.Reset()
		quit, err := sh.exec(c.input)
		expect.False(t, quit)
		if c.kind == errors.Other {
			require.NoError(t, err, c.input)
		} else {
			expect.EQ(t, errors.KindOf(err), c.kind, "%s: %v", c.input, err)
		}
		expect.HasSubstr(t, out.String(), c.want)
	}
	quit, err := sh.exec("quit")
	require.NoError(t, err)
	expect.True(t, quit)
	expect.EQ(t, sh.complete("wr"), []string{"write", "writehex"})
	expect.EQ(t, sh.complete("us"), []string{"usage", "use"})

	require.NoError(t, sh.close())
	_, err = sh.exec("write late")
	expect.True(t, errors.Is(errors.Unavailable, err), "err=%v", err)
	require.NoError(t, sh.close())
}
