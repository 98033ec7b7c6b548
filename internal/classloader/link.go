/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

const alignQuantum = 8

// fieldLayout packs fields using an 8-byte alignment quantum with
// packed padding, per spec.md §4.5: if the current aligned slot has
// leftover room and the next field fits, it is placed there; otherwise
// a new aligned slot is opened.
type fieldLayout struct {
	next    int // next free byte, always within the current aligned slot
	padding int // bytes left unused in the current aligned slot
}

func (l *fieldLayout) place(size int) int {
	if l.padding >= size {
		offset := l.next
		l.next += size
		l.padding -= size
		return offset
	}
	// start a new aligned slot
	if l.next%alignQuantum != 0 {
		// close out the old slot
		l.next += l.padding
	}
	offset := l.next
	l.next += size
	l.padding = alignQuantum - size
	return offset
}

func (l *fieldLayout) alignedSize() int {
	if l.next%alignQuantum == 0 {
		return l.next
	}
	return l.next + (alignQuantum - l.next%alignQuantum)
}

// link transitions cls from Created to Linked, computing field layout
// and dispatch tables per spec.md §4.5. The superclass and interfaces
// must already be resolved (Super/Interfaces populated) and at least
// Linked.
func (l *Loader) link(cls *object.Class) error {
	if cls.State() != object.Created {
		return nil
	}

	super := cls.Data.Super
	if super != nil && super.State() == object.Created {
		if err := l.link(super); err != nil {
			return err
		}
	}

	if cls.IsInterface() {
		l.buildInterfaceMethodTable(cls)
	} else if !cls.IsArray() {
		if err := l.layoutFields(cls); err != nil {
			return err
		}
		if err := l.buildDispatchTables(cls); err != nil {
			return err
		}
		if err := l.resolveNativeBindings(cls); err != nil {
			return err
		}
	}

	l.accountPermanent(cls)
	cls.setState(object.Linked)
	return nil
}

// accountPermanent charges cls's own methods, fields, and constant
// pool against the loader's permanent space, per spec.md §3's
// Lifecycles ("Methods and constant pools are permanent"). The class
// object's own record is already charged by object.NewClass; this
// covers the metadata attached to it once linking has populated it.
// Nominal per-entry sizes stand in for the real in-memory footprint,
// since methods/fields/constant-pool entries stay ordinary Go-heap
// values for the same reason object.Object's fields do (see
// object.accountAlloc's doc).
func (l *Loader) accountPermanent(cls *object.Class) {
	if l.heap == nil {
		return
	}
	const methodRecord = 64
	const fieldRecord = 24
	const cpEntryRecord = 8

	size := len(cls.Data.Methods)*methodRecord + len(cls.Data.Fields)*fieldRecord
	if cls.Data.ConstantPool != nil {
		size += cls.Data.ConstantPool.Count() * cpEntryRecord
	}
	if size > 0 {
		l.heap.AllocPerm(size)
	}
}

// layoutFields assigns instance and static layout offsets, per the
// packed-padding rule above, reserving the header's width for instance
// fields and starting from the superclass's instance size.
func (l *Loader) layoutFields(cls *object.Class) error {
	const headerSize = 16 // two machine words: class pointer + mark word

	instance := fieldLayout{}
	static := fieldLayout{}

	baseInstanceSize := headerSize
	if cls.Data.Super != nil {
		baseInstanceSize = cls.Data.Super.Data.InstanceSize
	}
	instance.next = baseInstanceSize

	for _, f := range cls.Data.Fields {
		size := object.SizeOf(f.Descriptor.String())
		if f.IsStatic() {
			f.LayoutOffset = static.place(size)
		} else {
			f.LayoutOffset = instance.place(size)
		}
	}

	cls.Data.InstanceSize = instance.alignedSize() + cls.Data.MetadataOffset
	cls.Data.StaticSize = static.alignedSize()
	cls.StaticFields = make([]object.Slot, cls.Data.StaticSize/8)
	return nil
}

// buildDispatchTables computes the vtable and itable, per spec.md
// §4.5's algorithm: the vtable starts as the superclass's vtable
// (shared method pointers, copied so this class's own overrides don't
// mutate the superclass's table), own non-private/non-static/
// non-constructor methods overwrite a matching inherited slot or are
// appended, and each declared interface contributes an itable segment
// whose entries are vtable indices.
func (l *Loader) buildDispatchTables(cls *object.Class) error {
	vt := object.NewVtableBlock()
	if cls.Data.Super != nil && cls.Data.Super.Data.Vtable != nil {
		vt.Methods = append(vt.Methods, cls.Data.Super.Data.Vtable.Methods...)
		vt.Interfaces = append(vt.Interfaces, cls.Data.Super.Data.Vtable.Interfaces...)
		vt.InterfaceMethods = append(vt.InterfaceMethods, cls.Data.Super.Data.Vtable.InterfaceMethods...)
	}

	for _, m := range cls.Data.Methods {
		if m.IsPrivate() || m.IsStatic() || m.IsConstructor() || m.IsClinit() {
			continue
		}
		if idx := vt.IndexOfNameAndDesc(m.Name.String(), m.Descriptor.String()); idx >= 0 {
			vt.Methods[idx] = m
			m.VtableIndex = idx
		} else {
			m.VtableIndex = len(vt.Methods)
			vt.Methods = append(vt.Methods, m)
		}
	}

	for _, iface := range cls.Data.Interfaces {
		appendItableSegment(vt, iface)
	}

	cls.Data.Vtable = vt
	return nil
}

// appendItableSegment adds iface's itable segment to vt — one vtable
// index per iface's own declared method, in declaration order — then
// recurses into iface's own superinterfaces, per spec.md §4.5's "walk
// each declared interface's superinterface chain" rule. iface is
// skipped if a segment for it already exists, so a diamond interface
// hierarchy doesn't get duplicate segments.
func appendItableSegment(vt *object.VtableBlock, iface *object.Class) {
	for _, already := range vt.Interfaces {
		if already == iface {
			return
		}
	}

	vt.Interfaces = append(vt.Interfaces, iface)
	methods := interfaceMethods(iface)
	indices := make([]int32, len(methods))
	for ord, im := range methods {
		if idx := vt.IndexOfNameAndDesc(im.Name.String(), im.Descriptor.String()); idx >= 0 {
			indices[ord] = int32(idx)
		} else {
			indices[ord] = int32(len(vt.Methods))
			vt.Methods = append(vt.Methods, im)
		}
	}
	vt.InterfaceMethods = append(vt.InterfaceMethods, indices)

	for _, super := range iface.Data.Interfaces {
		appendItableSegment(vt, super)
	}
}

// buildInterfaceMethodTable gives an interface class a vtable of its
// own declared instance methods, in declaration order, per spec.md
// §4.7's resolution rule for invokeinterface ("the interface method's
// ordinal within its own declared method list"). Without this, every
// interface method ordinal resolves against an empty table and
// invokeinterface can never find a match.
func (l *Loader) buildInterfaceMethodTable(cls *object.Class) {
	vt := object.NewVtableBlock()
	for _, m := range interfaceMethods(cls) {
		m.VtableIndex = len(vt.Methods)
		vt.Methods = append(vt.Methods, m)
	}
	cls.Data.Vtable = vt
}

// interfaceMethods returns cls's own declared instance methods —
// excluding static methods, constructors, and <clinit> — in the order
// invokeinterface's method-ref ordinal is defined against.
func interfaceMethods(cls *object.Class) []*object.Method {
	var methods []*object.Method
	for _, m := range cls.Data.Methods {
		if m.IsStatic() || m.IsPrivate() || m.IsConstructor() || m.IsClinit() {
			continue
		}
		methods = append(methods, m)
	}
	return methods
}

// resolveNativeBindings binds every native method's NativeFn via the
// registry injected by the native package, per spec.md §4.8. Binding
// failures are deferred to first invocation (UnsatisfiedLinkError-style
// behavior) rather than failing the link step, matching the JVM's own
// lazy native resolution.
func (l *Loader) resolveNativeBindings(cls *object.Class) error {
	if l.bindNative == nil {
		return nil
	}
	for _, m := range cls.Data.Methods {
		if m.IsNative() {
			if fn, ok := l.bindNative(cls.Name(), m.Name.String(), m.Descriptor.String()); ok {
				m.NativeFn = fn
			}
		}
	}
	return nil
}

var errAbstractMethod = vmerr.New(vmerr.MethodResolutionError, "abstract method has no override")
