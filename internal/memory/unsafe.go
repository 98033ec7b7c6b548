/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package memory

import "unsafe"

// sliceDataPointer returns the address of a slice's backing array,
// matching the style of artipop-jacobin/src/classloader/CPutils.go's
// own use of unsafe.Pointer to recover raw addresses from Go values.
func sliceDataPointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}
