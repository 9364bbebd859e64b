// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/xyzzyz/cryptodev/cmdutil"
	"github.com/xyzzyz/cryptodev/errors"
	"v.io/x/lib/cmdline"
)

func newCmdOverview() *cmdline.Command {
	cmd := &cmdline.Command{
		Runner: cmdutil.RunnerFunc(runOverview),
		Name:   "overview",
		Short:  "Apply key control lines from stdin and list the keys",
		Long: `
Overview reads key control lines from standard input, "A<hex key>" to
add a key for -alg and "D<slot>" to delete one, and then prints one
line per active key: slot, algorithm, creation time, encode count and
decode count, separated by tabs.
`,
	}
	addCommonFlags(&cmd.Flags)
	return cmd
}

func runOverview(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("overview takes no arguments")
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
	ctl, err := svc.KeyControl(owner(), alg)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(env.Stdin)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if _, err := ctl.Write(ctx, line); err != nil {
			return errors.E(err, fmt.Sprintf("stdin line %d", lineno))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return svc.Overview(ctx, owner(), env.Stdout)
}
