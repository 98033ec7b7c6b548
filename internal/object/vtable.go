/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

// VtableBlock is the per-class dispatch table spec.md §3 describes:
// the virtual method table, the transitive interface closure, and one
// vtable-slot index per interface method, segmented in
// interface-declaration order.
type VtableBlock struct {
	Methods          []*Method  // vtab_len entries, by vtable index
	Interfaces       []*Class   // ifaces_len entries
	InterfaceMethods [][]int32  // parallel to Interfaces: one vtable index per interface method, in declaration order
}

// NewVtableBlock constructs an empty block; the linker populates it.
func NewVtableBlock() *VtableBlock {
	return &VtableBlock{}
}

// IndexOf returns the vtable slot holding m, or -1.
func (v *VtableBlock) IndexOf(m *Method) int {
	for i, slot := range v.Methods {
		if slot == m {
			return i
		}
	}
	return -1
}

// IndexOfNameAndDesc returns the vtable slot whose installed method has
// the given (name, descriptor), or -1.
func (v *VtableBlock) IndexOfNameAndDesc(name, desc string) int {
	for i, slot := range v.Methods {
		if slot != nil && slot.NameAndDescMatch(name, desc) {
			return i
		}
	}
	return -1
}

// ResolveInterfaceMethod maps an interface method to the implementing
// class's vtable slot, per spec.md §3's itable layout: scan Interfaces
// for iface, then index InterfaceMethods[i][methodOrdinal].
func (v *VtableBlock) ResolveInterfaceMethod(iface *Class, methodOrdinal int) (*Method, bool) {
	for i, ic := range v.Interfaces {
		if ic == iface {
			if methodOrdinal < 0 || methodOrdinal >= len(v.InterfaceMethods[i]) {
				return nil, false
			}
			slot := v.InterfaceMethods[i][methodOrdinal]
			if int(slot) < 0 || int(slot) >= len(v.Methods) {
				return nil, false
			}
			return v.Methods[slot], true
		}
	}
	return nil, false
}

// MethodAt returns the method installed at a vtable index, or nil if
// out of range.
func (v *VtableBlock) MethodAt(index int) *Method {
	if index < 0 || index >= len(v.Methods) {
		return nil
	}
	return v.Methods[index]
}
