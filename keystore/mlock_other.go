// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

//go:build !linux

package keystore

func lockMemory([]byte) error { return nil }

func unlockMemory([]byte) error { return nil }
