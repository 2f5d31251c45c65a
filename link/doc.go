// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link implements the JESD204B link layer: link settings and
// geometry, code group synchronization, initial lane alignment sequence,
// scrambling and frame alignment character insertion and removal.
//
// Lane symbols are octets tagged with a control flag, as exchanged with the
// 8b/10b line coding layer.
package link // import "github.com/go-lpc/jesd/link"
