/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/object"
)

func TestObjectHashCodeReadsHeaderMark(t *testing.T) {
	obj := object.NewObject(nil, nil, 8)
	obj.SetHash(0xCAFE)
	ret, err := objectHashCode(nil, []object.Slot{{Ref: obj}})
	if err != nil {
		t.Fatalf("objectHashCode failed: %v", err)
	}
	if ret.Raw != 0xCAFE {
		t.Fatalf("got %x, want %x", ret.Raw, 0xCAFE)
	}
}

func TestObjectHashCodeRejectsNullReceiver(t *testing.T) {
	if _, err := objectHashCode(nil, []object.Slot{{}}); err == nil {
		t.Fatalf("expected an error for a null receiver")
	}
}

func TestObjectGetClassReturnsRuntimeClass(t *testing.T) {
	cls := object.NewClass(nil)
	obj := object.NewObject(nil, cls, 8)
	ret, err := objectGetClass(nil, []object.Slot{{Ref: obj}})
	if err != nil {
		t.Fatalf("objectGetClass failed: %v", err)
	}
	if ret.Ref != cls {
		t.Fatalf("expected the object's own class back")
	}
}

func TestObjectCloneCopiesFieldsShallowly(t *testing.T) {
	cls := object.NewClass(nil)
	src := object.NewObject(nil, cls, 16)
	src.FieldSlot(0).Raw = 7
	ret, err := objectClone(nil, []object.Slot{{Ref: src}})
	if err != nil {
		t.Fatalf("objectClone failed: %v", err)
	}
	dst, ok := ret.Ref.(*object.Object)
	if !ok {
		t.Fatalf("expected a cloned *object.Object")
	}
	if dst == src {
		t.Fatalf("clone must allocate a new object")
	}
	if dst.FieldSlot(0).Raw != 7 {
		t.Fatalf("expected field values to be copied")
	}
}

func TestObjectCloneCopiesReferenceArrayElements(t *testing.T) {
	arrCls := &object.Class{Data: &object.ClassData{}}
	src := object.NewReferenceArray(nil, arrCls, 2)
	elem := object.NewObject(nil, nil, 8)
	src.SetRef(0, elem)
	ret, err := objectClone(nil, []object.Slot{{Ref: src}})
	if err != nil {
		t.Fatalf("objectClone failed: %v", err)
	}
	dst, ok := ret.Ref.(*object.Array)
	if !ok {
		t.Fatalf("expected a cloned *object.Array")
	}
	if dst == src {
		t.Fatalf("clone must allocate a new array")
	}
	if dst.GetRef(0) != elem {
		t.Fatalf("expected reference array elements to be copied")
	}
}
