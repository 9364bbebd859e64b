// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cryptiface

import (
	"github.com/xyzzyz/cryptodev/errors"
	"golang.org/x/sys/unix"
)

var statusByKind = map[errors.Kind]unix.Errno{
	errors.Other:              unix.EIO,
	errors.Canceled:           unix.EINTR,
	errors.Invalid:            unix.EINVAL,
	errors.NotActive:          unix.ENOENT,
	errors.ResourcesExhausted: unix.ENOSPC,
	errors.OOM:                unix.ENOMEM,
	errors.Cipher:             unix.EIO,
	errors.NotConfigured:      unix.ENOTCONN,
	errors.NotSupported:       unix.EIO,
	errors.Unavailable:        unix.EBADF,
}

// Status returns the status code reported to device clients for err:
// zero for a nil error, otherwise an errno derived from the error's
// kind.
func Status(err error) unix.Errno {
	if err == nil {
		return 0
	}
	if errno, ok := statusByKind[errors.KindOf(err)]; ok {
		return errno
	}
	return unix.EIO
}
