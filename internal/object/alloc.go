/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "github.com/hanakeichen/rsvm-go/internal/memory"

// accountAlloc reserves size bytes against tlab (falling back to a
// direct young-space allocation if the request exceeds the TLAB's own
// capacity, per spec.md §4.1), returning the reservation's address —
// used as the allocation's identity-hash seed, per Header's doc — and
// the backing byte slice, which is only safe to reuse as an object's
// actual storage when that storage holds no object.Reference values.
// Go's garbage collector cannot scan a manually mapped region, so
// Object.Fields and a reference Array's Refs must stay ordinary
// Go-heap slices regardless of what this returns; only a primitive
// array's Bytes may be backed by it directly. tlab == nil (no thread
// context, e.g. during early bootstrap) skips accounting entirely.
func accountAlloc(tlab *memory.TLAB, size int) (uint32, []byte) {
	if tlab == nil {
		return 0, nil
	}
	addr, b := tlab.Alloc(size)
	if b == nil {
		addr, b = tlab.AllocDirect(size)
	}
	return uint32(addr), b
}
