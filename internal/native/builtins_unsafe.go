/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"sync/atomic"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// loadUnsafe installs jdk/internal/misc/Unsafe's natives. The
// retrieved reference pack's ScopedMemoryAccess natives are all
// registerNatives-style stubs, so the compare-and-swap bodies below
// are grounded on the field-slot addressing object.go's FieldSlot
// already exposes; the operations need atomicity, so sync/atomic is
// used directly.
func loadUnsafe(r *Registry) {
	r.registerBuiltin("jdk/internal/misc/Unsafe", "registerNatives", "()V", justReturn)
	r.registerBuiltin("jdk/internal/misc/Unsafe", "arrayBaseOffset0", "(Ljava/lang/Class;)I", unsafeArrayBaseOffset)
	r.registerBuiltin("jdk/internal/misc/Unsafe", "objectFieldOffset1",
		"(Ljava/lang/Class;Ljava/lang/String;)J", unsafeObjectFieldOffset)
	r.registerBuiltin("jdk/internal/misc/Unsafe", "compareAndSetInt",
		"(Ljava/lang/Object;JII)Z", unsafeCompareAndSetWord)
	r.registerBuiltin("jdk/internal/misc/Unsafe", "compareAndSetLong",
		"(Ljava/lang/Object;JJJ)Z", unsafeCompareAndSetWord)
	r.registerBuiltin("jdk/internal/misc/Unsafe", "getAndAddInt",
		"(Ljava/lang/Object;JI)I", unsafeGetAndAddWord)
	r.registerBuiltin("jdk/internal/misc/Unsafe", "getAndAddLong",
		"(Ljava/lang/Object;JJ)J", unsafeGetAndAddWord)
}

func unsafeArrayBaseOffset(env interface{}, args []object.Slot) (object.Slot, error) {
	return object.Slot{Raw: uint64(object.DataOffset)}, nil
}

// unsafeObjectFieldOffset returns the layout offset computed at link
// time rather than a made-up constant, so code built on top of Unsafe
// (concurrent collections, VarHandle) addresses the same slot
// getfield/putfield would.
func unsafeObjectFieldOffset(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 || args[0].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "objectFieldOffset: null class or name")
	}
	cls, ok := args[0].Ref.(*object.Class)
	if !ok {
		return object.Slot{}, vmerr.New(vmerr.ClassCastError, "objectFieldOffset: first argument is not a Class")
	}
	name := slotRefString(args[1])
	field, _ := cls.FindField(name)
	if field == nil {
		return object.Slot{}, vmerr.New(vmerr.MethodResolutionError, "objectFieldOffset: no such field "+name)
	}
	return object.Slot{Raw: uint64(field.LayoutOffset)}, nil
}

// unsafeCompareAndSetWord implements both the int and long CAS
// variants: a field slot is always a uint64 regardless of the
// narrower Java type it stores, so one atomic op covers both.
func unsafeCompareAndSetWord(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 4 || args[0].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "compareAndSet on null receiver")
	}
	obj, ok := args[0].Ref.(*object.Object)
	if !ok {
		return object.Slot{}, vmerr.New(vmerr.ClassCastError, "compareAndSet: target is not a plain object")
	}
	offset := int(args[1].Raw)
	slot := obj.FieldSlot(offset)
	expected, update := args[2].Raw, args[3].Raw
	swapped := atomic.CompareAndSwapUint64(&slot.Raw, expected, update)
	if swapped {
		return object.Slot{Raw: 1}, nil
	}
	return object.Slot{}, nil
}

func unsafeGetAndAddWord(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 3 || args[0].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "getAndAdd on null receiver")
	}
	obj, ok := args[0].Ref.(*object.Object)
	if !ok {
		return object.Slot{}, vmerr.New(vmerr.ClassCastError, "getAndAdd: target is not a plain object")
	}
	offset := int(args[1].Raw)
	slot := obj.FieldSlot(offset)
	delta := args[2].Raw
	old := atomic.AddUint64(&slot.Raw, delta) - delta
	return object.Slot{Raw: old}, nil
}

// slotRefString extracts a Go string from a Slot holding a
// java.lang.String reference, via the JavaString wrapper ldc and the
// trampoline's argument marshalling use.
func slotRefString(s object.Slot) string {
	if js, ok := s.Ref.(*object.JavaString); ok && js.Str != nil {
		return js.Str.Utf8()
	}
	return ""
}
