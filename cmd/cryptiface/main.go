// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command cryptiface drives an in-process cryptodev service: it runs
// the reference client sequence, offers an interactive console over
// one handle, and prints the key status listing.
package main

import (
	"flag"
	"os"
	"regexp"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/cryptiface"
	"github.com/xyzzyz/cryptodev/eventlog"
	"github.com/xyzzyz/cryptodev/keystore"
	"github.com/xyzzyz/cryptodev/log"
	"v.io/x/lib/cmdline"
)

var (
	config    = cryptiface.DefaultConfig()
	ownerFlag int
	algFlag   string
	auditFlag bool
	keyFlag   string
)

// addCommonFlags registers the flags shared by every subcommand.
func addCommonFlags(fs *flag.FlagSet) {
	config.RegisterFlags(fs, "")
	fs.IntVar(&ownerFlag, "owner", os.Getuid(), "owner id of the keys")
	fs.StringVar(&algFlag, "alg", "des", "cipher algorithm")
	fs.BoolVar(&auditFlag, "audit", false, "log audit events")
}

func newService() (*cryptiface.Service, error) {
	var eventer eventlog.Eventer = eventlog.Nop{}
	if auditFlag {
		eventer = eventlog.Log(log.Info)
	}
	svc, err := cryptiface.New(config, nil, eventer)
	if err != nil {
		return nil, err
	}
	svc.RegisterShutdown()
	return svc, nil
}

func owner() keystore.OwnerID { return keystore.OwnerID(ownerFlag) }

func algorithm() (blockcipher.Algorithm, error) {
	return blockcipher.Default.LookupName(algFlag)
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "cryptiface",
		Short:    "Exercise a cryptodev key service",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdDemo(),
			newCmdShell(),
			newCmdOverview(),
		},
	}
}

func main() {
	cmdline.HideGlobalFlagsExcept(regexp.MustCompile(`^gops$`))
	cmdline.Main(newCmdRoot())
}
