/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "testing"

func TestObjectFieldSlotAddressing(t *testing.T) {
	obj := NewObject(nil, nil, 24)
	s := obj.FieldSlot(8)
	s.Raw = 42
	if obj.Fields[1].Raw != 42 {
		t.Fatalf("FieldSlot(8) did not address Fields[1]")
	}
}

func TestHeaderHashRoundTrips(t *testing.T) {
	var h Header
	h.SetHash(0xCAFEBABE)
	if got := h.Hash(); got != 0xCAFEBABE {
		t.Fatalf("hash round-trip failed: got %x", got)
	}
}

func TestClassIsSubclassOf(t *testing.T) {
	object := NewClass(nil)
	base := NewClass(nil)
	base.Data.Super = object
	sub := NewClass(nil)
	sub.Data.Super = base

	if !sub.IsSubclassOf(object) {
		t.Fatalf("expected transitive subclass relationship")
	}
	if !sub.IsSubclassOf(sub) {
		t.Fatalf("a class is a subclass of itself")
	}
	if object.IsSubclassOf(sub) {
		t.Fatalf("superclass must not be a subclass of its subclass")
	}
}

func TestVtableResolveInterfaceMethod(t *testing.T) {
	mF := &Method{}
	v := &VtableBlock{
		Methods:          []*Method{mF},
		Interfaces:       []*Class{{Data: &ClassData{}}},
		InterfaceMethods: [][]int32{{0}},
	}
	iface := v.Interfaces[0]
	m, ok := v.ResolveInterfaceMethod(iface, 0)
	if !ok || m != mF {
		t.Fatalf("expected interface method to resolve to vtable slot 0")
	}
	if _, ok := v.ResolveInterfaceMethod(iface, 5); ok {
		t.Fatalf("expected out-of-range ordinal to fail")
	}
}

func TestArrayElementStorageSplitByKind(t *testing.T) {
	primClass := &Class{Data: &ClassData{}}
	prim := NewPrimitiveArray(nil, primClass, 4, 4)
	if prim.IsReference() {
		t.Fatalf("primitive array must not report as reference")
	}
	if len(prim.Bytes) != 16 {
		t.Fatalf("expected 16 bytes for 4 ints, got %d", len(prim.Bytes))
	}

	refClass := &Class{Data: &ClassData{}}
	refs := NewReferenceArray(nil, refClass, 3)
	if !refs.IsReference() {
		t.Fatalf("reference array must report as reference")
	}
	obj := NewObject(nil, nil, 8)
	refs.SetRef(1, obj)
	if refs.GetRef(1) != obj {
		t.Fatalf("reference array element round-trip failed")
	}
}
