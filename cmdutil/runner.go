// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmdutil

import (
	"context"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/google/gops/agent"
	"github.com/xyzzyz/cryptodev/log"
	"github.com/xyzzyz/cryptodev/shutdown"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"
)

var (
	runnerOnce sync.Once
	gopsFlag   = flag.Bool("gops", false, "enable the gops diagnostics listener")
)

// ShutdownTimeout bounds the time the shutdown hooks run by
// RunnerFunc may take.
var ShutdownTimeout = 30 * time.Second

// RunnerFunc is an adapter that turns regular functions into cmdline.Runners.
type RunnerFunc func(*cmdline.Env, []string) error

// Run implements the cmdline.Runner interface method by calling f(env, args).
// Before the first call it configures vlog from flags, routes the log
// package through vlog and, if requested by -gops or the GOPS
// environment variable, starts the gops agent. After f returns it
// runs the shutdown hooks and flushes the log.
func (f RunnerFunc) Run(env *cmdline.Env, args []string) error {
	runnerOnce.Do(func() {
		if err := vlog.ConfigureLibraryLoggerFromFlags(); err != nil {
			log.Error.Printf("configuring vlog: %v", err)
		}
		log.SetOutputter(VlogOutputter{})
		if _, ok := os.LookupEnv("GOPS"); ok || *gopsFlag {
			if err := agent.Listen(agent.Options{}); err != nil {
				log.Print(err)
			}
		}
	})
	err := f(env, args)

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if serr := shutdown.Run(ctx); err == nil {
		err = serr
	}
	vlog.FlushLog()
	return err
}
