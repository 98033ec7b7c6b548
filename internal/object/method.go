/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "github.com/hanakeichen/rsvm-go/internal/symbol"

// ExceptionTableEntry is one row of a method's exception table, per
// spec.md §3.
type ExceptionTableEntry struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType uint16 // CP index of the catch class, 0 for "any" (finally)
}

// NativeFunc is the Go-side shape every bound native method implements:
// env gives access to the VM, thread, and heap; args are already
// marshalled into Slots (receiver/class first for non-static calls),
// per spec.md §4.8's calling convention. Defined here (rather than in
// internal/native) so Method can hold a field of this type without an
// import cycle; internal/native supplies the concrete values.
type NativeFunc func(env interface{}, args []Slot) (Slot, error)

// Method is the link-time record for a declared method, per spec.md §3.
type Method struct {
	DeclClass     *Class
	Name          *symbol.Symbol
	Descriptor    *symbol.Symbol
	ParamClasses  []*Class // resolved lazily; nil entries for primitives until needed
	ParamDescs    []string
	ReturnDesc    string
	AccessFlags   AccessFlags
	MaxStack      int
	MaxLocals     int
	Code          []byte
	ExceptionTable []ExceptionTableEntry
	NativeFn      NativeFunc

	// VtableIndex caches the slot this method occupies in its declaring
	// class's vtable, set at link time for non-static, non-private,
	// non-constructor methods; -1 otherwise.
	VtableIndex int
}

func (m *Method) IsStatic() bool   { return m.AccessFlags.Has(AccStatic) }
func (m *Method) IsPrivate() bool  { return m.AccessFlags.Has(AccPrivate) }
func (m *Method) IsAbstract() bool { return m.AccessFlags.Has(AccAbstract) }
func (m *Method) IsNative() bool   { return m.AccessFlags.Has(AccNative) }
func (m *Method) IsConstructor() bool {
	return m.Name != nil && m.Name.String() == "<init>"
}
func (m *Method) IsClinit() bool {
	return m.Name != nil && m.Name.String() == "<clinit>"
}

// ArgSlots returns the number of physical interpreter stack slots the
// method's parameters occupy, not counting an implicit receiver (the
// caller adds one for non-static calls). Unlike javac's max_locals/
// max_stack accounting, a long or double occupies exactly one physical
// Slot here, since Slot.Raw is already a 64-bit machine word.
func (m *Method) ArgSlots() int {
	return len(m.ParamDescs)
}

// NameAndDescMatch reports whether this method's (name, descriptor)
// pair equals the given pair, the comparison vtable installation and
// interface resolution both perform per spec.md §4.5.
func (m *Method) NameAndDescMatch(name, desc string) bool {
	return m.Name != nil && m.Name.String() == name &&
		m.Descriptor != nil && m.Descriptor.String() == desc
}
