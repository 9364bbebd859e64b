// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xyzzyz/cryptodev/cmdutil"
	"github.com/xyzzyz/cryptodev/cryptiface"
	"github.com/xyzzyz/cryptodev/errors"
	"v.io/x/lib/cmdline"
)

const demoMessage = "LOL WAT CO JA WIDZAM\n\x00"

func newCmdDemo() *cmdline.Command {
	cmd := &cmdline.Command{
		Runner:   cmdutil.RunnerFunc(runDemo),
		Name:     "demo",
		Short:    "Encrypt and decrypt a message through one handle",
		ArgsName: "[message]",
		Long: `
Demo adds a key, encrypts the message with it, reads the result back,
decrypts that and prints every stage as a hex dump.
`,
	}
	addCommonFlags(&cmd.Flags)
	cmd.Flags.StringVar(&keyFlag, "key", "DEADBABEDEADBEEF", "hex encoded key")
	return cmd
}

func runDemo(env *cmdline.Env, args []string) (err error) {
	if len(args) > 1 {
		return env.UsageErrorf("demo takes at most one argument")
	}
	message := []byte(demoMessage)
	if len(args) == 1 {
		message = []byte(args[0])
	}
	alg, err := algorithm()
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	ctx := context.Background()
	h, err := svc.Open(owner())
	if err != nil {
		return err
	}
	defer errors.CleanUp(func() error { return h.Close(ctx) }, &err)

	id, err := cryptiface.AddKey(ctx, h, alg, keyFlag)
	if err != nil {
		return errors.E(err, "cryptiface.AddKey")
	}
	if err := cryptiface.SetCurrent(ctx, h, alg, id, true); err != nil {
		return errors.E(err, "cryptiface.SetCurrent")
	}
	fmt.Fprintf(env.Stdout, "plaintext:\n%s", hex.Dump(message))
	if _, err := h.Write(ctx, message); err != nil {
		return errors.E(err, "write")
	}
	n, err := cryptiface.NumResults(ctx, h)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "cryptiface.NumResults() = %d\n", n)
	buf := make([]byte, 10*len(message)+16)
	n, err = h.Read(buf)
	if err != nil {
		return errors.E(err, "read")
	}
	encrypted := append([]byte(nil), buf[:n]...)
	fmt.Fprintf(env.Stdout, "encrypted:\n%s", hex.Dump(encrypted))

	if err := cryptiface.SetCurrent(ctx, h, alg, id, false); err != nil {
		return errors.E(err, "cryptiface.SetCurrent")
	}
	if _, err := h.Write(ctx, encrypted); err != nil {
		return errors.E(err, "write")
	}
	n, err = h.Read(buf)
	if err != nil {
		return errors.E(err, "read")
	}
	fmt.Fprintf(env.Stdout, "decrypted:\n%s", hex.Dump(buf[:n]))
	fmt.Fprintln(env.Stdout, strings.Repeat("-", 8))
	return svc.Overview(ctx, owner(), env.Stdout)
}
