/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object implements the canonical in-memory layout spec.md §3
// describes: the two-word header shared by every managed entity, plain
// objects, arrays, class objects, vtable blocks, methods, fields, and
// constant pools. It mirrors the field names artipop-jacobin's
// object.Object (Klass, Mark.Hash, Fields) and
// classloader.{ClData,Method,Field,CpEntry} use, generalized to carry
// real byte offsets and dispatch tables rather than the teacher's
// still-incomplete field slice.
package object

import (
	"sync/atomic"

	"github.com/hanakeichen/rsvm-go/internal/memory"
)

// Reference is anything a reference-typed slot, array element, or
// handle may point at: a plain instance, an array, a Class mirror or a
// JavaString. Each can answer RefClass(); callers that need the
// concrete shape type-switch on the value.
type Reference interface {
	RefClass() *Class
}

// Slot is a field or array-element storage cell wide enough for any
// primitive value; Ref carries a GC-visible pointer for reference-typed
// slots so the Go runtime never reclaims a reachable object even though
// Raw alone would not keep it alive. long/double values occupy exactly
// one Slot here, as they do on the interpreter's operand stack and in
// its locals (see Method.ArgSlots).
type Slot struct {
	Raw uint64
	Ref Reference
}

// Header is the two-word prefix shared by every managed entity: a
// class pointer and a mark word holding the identity hash plus
// reserved bits, per spec.md §3.
type Header struct {
	Klass *Class
	mark  uint32 // identity hash; reserved bits unused by the core
}

// Hash returns the object's identity hash, assigned once at allocation.
func (h *Header) Hash() uint32 { return atomic.LoadUint32(&h.mark) }

// SetHash installs the identity hash; called exactly once, by the
// allocator, per spec.md §3's header description.
func (h *Header) SetHash(v uint32) { atomic.StoreUint32(&h.mark, v) }

// Object is a plain instance: header followed by instance-field slots
// in link-time-computed layout. Fields are indexed by
// Field.LayoutOffset / 8 rather than by declaration order, so
// superclass and subclass fields coexist at their final positions.
type Object struct {
	Header
	Fields []Slot
}

// RefClass implements Reference.
func (o *Object) RefClass() *Class { return o.Klass }

// FieldSlot returns a pointer to the Slot backing the field at the
// given layout offset, so callers (getfield/putfield, natives) can
// both read and write through the same addressing scheme arrays use.
func (o *Object) FieldSlot(offset int) *Slot {
	idx := offset / 8
	return &o.Fields[idx]
}

// NewObject allocates a zeroed instance of size instanceSize bytes
// worth of field slots for klass, accounting the allocation against
// tlab (the calling thread's TLAB, or its backing young space for an
// oversized instance) per spec.md §4.1. Fields themselves stay an
// ordinary Go-heap slice — see accountAlloc's doc — with the
// reservation's address seeding the object's identity hash.
func NewObject(tlab *memory.TLAB, klass *Class, instanceSize int) *Object {
	n := instanceSize / 8
	if instanceSize%8 != 0 {
		n++
	}
	hash, _ := accountAlloc(tlab, instanceSize)
	obj := &Object{Fields: make([]Slot, n)}
	obj.Klass = klass
	obj.SetHash(hash)
	return obj
}
