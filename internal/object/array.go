/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "github.com/hanakeichen/rsvm-go/internal/memory"

// DataOffset is the fixed byte offset at which every array's element
// region begins, following the header and the signed 32-bit length
// field, per spec.md §3.
const DataOffset = 12

// Array is header, length, then length*elementSize element bytes. Per
// spec.md §3 element size is derived from the array class's component
// type: primitive arrays use the primitive width, reference arrays use
// pointer width. Go cannot honor "pointer width" for reference slots
// without defeating the garbage collector's reachability tracking, so
// reference-typed arrays keep their elements in Refs (GC-visible
// pointers) while every primitive array keeps elements in Bytes at
// their natural width; exactly one of the two is populated for any
// given array, chosen by the constructor (NewPrimitiveArray or
// NewReferenceArray); IsReference reports which.
type Array struct {
	Header
	Length int32
	Bytes  []byte
	Refs   []Reference
}

// RefClass implements Reference.
func (a *Array) RefClass() *Class { return a.Klass }

// NewPrimitiveArray allocates an array of length elements of elemSize
// bytes each (1, 2, 4, or 8), accounted against tlab per spec.md §4.1.
// A primitive array's element bytes carry no object.Reference values,
// so unlike NewObject's field slots, they are backed directly by the
// TLAB/young-space reservation whenever one is available.
func NewPrimitiveArray(tlab *memory.TLAB, klass *Class, length int32, elemSize int) *Array {
	size := int(length) * elemSize
	hash, bytes := accountAlloc(tlab, size)
	if len(bytes) < size {
		bytes = make([]byte, size)
	} else {
		bytes = bytes[:size]
	}
	a := &Array{Length: length, Bytes: bytes}
	a.Klass = klass
	a.SetHash(hash)
	return a
}

// NewReferenceArray allocates an array of length reference slots
// (component type may itself be a class or another array type),
// accounting the allocation against tlab per spec.md §4.1. Refs itself
// stays an ordinary Go-heap slice — see accountAlloc's doc — since it
// carries object.Reference values the garbage collector must scan.
func NewReferenceArray(tlab *memory.TLAB, klass *Class, length int32) *Array {
	hash, _ := accountAlloc(tlab, int(length)*8)
	a := &Array{Length: length, Refs: make([]Reference, length)}
	a.Klass = klass
	a.SetHash(hash)
	return a
}

// IsReference reports whether this array stores references.
func (a *Array) IsReference() bool { return a.Refs != nil }

// GetRef returns the reference stored at index, which must be in
// [0, Length) — callers are expected to have already thrown
// ArrayIndexOutOfBoundsException via the bounds check in the
// interpreter's *aload/*astore handlers.
func (a *Array) GetRef(index int32) Reference { return a.Refs[index] }

// SetRef stores a reference at index.
func (a *Array) SetRef(index int32, v Reference) { a.Refs[index] = v }
