/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "github.com/hanakeichen/rsvm-go/internal/symbol"

// CPTag enumerates the constant-pool entry kinds spec.md §3 lists.
type CPTag byte

const (
	CPUnused CPTag = iota
	CPUtf8
	CPInteger
	CPFloat
	CPLong
	CPDouble
	CPClass
	CPString
	CPFieldref
	CPMethodref
	CPInterfaceMethodref
	CPNameAndType
	CPMethodHandle
	CPMethodType
	CPInvokeDynamic
)

// MemberRef holds the (class_index, name_and_type_index) pair of a
// Fieldref/Methodref/InterfaceMethodref entry as two separate fields.
type MemberRef struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// NameAndType holds the two UTF-8 indices a NameAndType entry points at.
type NameAndType struct {
	NameIndex uint16
	DescIndex uint16
}

// MethodHandleRef is a MethodHandle constant: a reference kind plus the
// index of the referenced member.
type MethodHandleRef struct {
	RefKind  uint8
	RefIndex uint16
}

// InvokeDynamicRef ties a BootstrapMethods table index to a
// NameAndType entry.
type InvokeDynamicRef struct {
	BootstrapIndex uint16
	NameAndType    uint16
}

// ConstantPool is a tag array plus one value slice per payload kind,
// with Slot mapping each CP index to its position in the slice its tag
// selects. Resolved values (e.g. a ClassRef's target *Class, once
// loaded) are cached in resolvedClasses, keyed by CP index, so repeat
// resolution is O(1) after the first use.
type ConstantPool struct {
	Tags []CPTag
	// values, one slice per concrete payload kind; Tags[i] selects which.
	Utf8        []*symbol.Symbol
	Integers    []int32
	Floats      []float32
	Longs       []int64
	Doubles     []float64
	Classes     []uint16 // index of the UTF8 class-name entry
	Strings     []uint16 // index of the UTF8 entry
	MemberRefs  []MemberRef
	NameAndTypes []NameAndType
	MethodHandles []MethodHandleRef
	MethodTypes []uint16
	InvokeDynamics []InvokeDynamicRef

	// slot maps a CP index to the position within the type-specific
	// slice above that Tags[i] selects.
	Slot []uint16

	resolvedClasses map[uint16]*Class
}

// NewConstantPool allocates an empty pool sized for count entries
// (index 0 is unused, matching the JVM's 1-based constant pool).
func NewConstantPool(count int) *ConstantPool {
	return &ConstantPool{
		Tags:            make([]CPTag, count),
		Slot:            make([]uint16, count),
		resolvedClasses: make(map[uint16]*Class),
	}
}

// Count returns the number of constant-pool slots, including the
// unused index 0.
func (cp *ConstantPool) Count() int { return len(cp.Tags) }

// Utf8At returns the symbol at a UTF8 constant-pool index.
func (cp *ConstantPool) Utf8At(index uint16) *symbol.Symbol {
	return cp.Utf8[cp.Slot[index]]
}

// ClassNameAt returns the symbol naming the class a Class constant at
// index refers to.
func (cp *ConstantPool) ClassNameAt(index uint16) *symbol.Symbol {
	nameIdx := cp.Classes[cp.Slot[index]]
	return cp.Utf8At(nameIdx)
}

// CacheResolvedClass records the *Class a Class constant-pool entry
// resolved to, so later resolutions of the same entry are O(1).
func (cp *ConstantPool) CacheResolvedClass(index uint16, c *Class) {
	cp.resolvedClasses[index] = c
}

// ResolvedClass returns a previously cached class resolution, if any.
func (cp *ConstantPool) ResolvedClass(index uint16) (*Class, bool) {
	c, ok := cp.resolvedClasses[index]
	return c, ok
}

// NameAndTypeAt returns the NameAndType entry a MemberRef's
// NameAndTypeIndex points to.
func (cp *ConstantPool) NameAndTypeAt(index uint16) NameAndType {
	return cp.NameAndTypes[cp.Slot[index]]
}

// MemberRefAt returns the MemberRef payload at index (valid for
// Fieldref/Methodref/InterfaceMethodref entries).
func (cp *ConstantPool) MemberRefAt(index uint16) MemberRef {
	return cp.MemberRefs[cp.Slot[index]]
}

// MemberName resolves a MemberRef entry all the way down to its
// (className, name, descriptor) triple, the runtime operation
// artipop-jacobin's CPutils.GetMethInfoFromCPmethref performs for
// method references.
func (cp *ConstantPool) MemberName(index uint16) (class, name, desc string) {
	mr := cp.MemberRefAt(index)
	class = cp.ClassNameAt(mr.ClassIndex).String()
	nt := cp.NameAndTypeAt(mr.NameAndTypeIndex)
	name = cp.Utf8At(nt.NameIndex).String()
	desc = cp.Utf8At(nt.DescIndex).String()
	return
}
