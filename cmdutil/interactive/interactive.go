// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package interactive switches vlog's defaults so that log output
// does not interleave with an interactive console on stderr. Console
// programs import it for its side effect:
//
//	import _ "github.com/xyzzyz/cryptodev/cmdutil/interactive"
package interactive

import (
	"flag"

	// For the flag.Lookup calls.
	_ "v.io/x/lib/vlog"
)

func init() {
	for _, name := range []string{"alsologtostderr", "logtostderr"} {
		fl := flag.Lookup(name)
		fl.DefValue = "false"
		if err := fl.Value.Set(fl.DefValue); err != nil {
			panic(err)
		}
	}
}
