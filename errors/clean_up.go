// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package errors

import "fmt"

// CleanUp is defer-able syntactic sugar that calls f and reports an
// error, if any, to *dst. Pass the caller's named return error:
//
//	func (s *Session) Close() (err error) {
//		defer errors.CleanUp(s.queue.Close, &err)
//		...
//	}
//
// If the caller returns with its own error, the error from cleanUp is
// appended to its message.
func CleanUp(cleanUp func() error, dst *error) {
	err := cleanUp()
	if err == nil {
		return
	}
	if *dst == nil {
		*dst = err
		return
	}
	*dst = E(*dst, fmt.Sprintf("second error in clean up: %v", err))
}
