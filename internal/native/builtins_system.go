/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"time"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// loadLangSystem installs java/lang/System's natives. No direct
// System-natives file exists in the retrieved reference pack, so these
// bodies are grounded on the same GMeth/MethodSignatures calling shape
// javaLangThread.go and jdkInternalMiscScopedMemoryAccess.go use,
// adapted to rsvm's Slot-based marshalling.
func loadLangSystem(r *Registry) {
	r.registerBuiltin("java/lang/System", "registerNatives", "()V", justReturn)
	r.registerBuiltin("java/lang/System", "arraycopy",
		"(Ljava/lang/Object;ILjava/lang/Object;II)V", systemArraycopy)
	r.registerBuiltin("java/lang/System", "identityHashCode", "(Ljava/lang/Object;)I", systemIdentityHashCode)
	r.registerBuiltin("java/lang/System", "currentTimeMillis", "()J", systemCurrentTimeMillis)
	r.registerBuiltin("java/lang/System", "nanoTime", "()J", systemNanoTime)
}

// systemArraycopy mirrors java.lang.System.arraycopy's five-argument
// contract: (src, srcPos, dest, destPos, length). Component-type
// compatibility is the interpreter's responsibility before dispatch;
// here only bounds and shape (primitive vs. reference) are checked.
func systemArraycopy(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 5 {
		return object.Slot{}, vmerr.New(vmerr.ArrayStore, "arraycopy: too few arguments")
	}
	srcRef, destRef := args[0].Ref, args[2].Ref
	if srcRef == nil || destRef == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "arraycopy on null array")
	}
	src, ok := srcRef.(*object.Array)
	if !ok {
		return object.Slot{}, vmerr.New(vmerr.ArrayStore, "arraycopy: src is not an array")
	}
	dest, ok := destRef.(*object.Array)
	if !ok {
		return object.Slot{}, vmerr.New(vmerr.ArrayStore, "arraycopy: dest is not an array")
	}
	srcPos := int32(args[1].Raw)
	destPos := int32(args[3].Raw)
	length := int32(args[4].Raw)
	if srcPos < 0 || destPos < 0 || length < 0 ||
		srcPos+length > src.Length || destPos+length > dest.Length {
		return object.Slot{}, vmerr.New(vmerr.ArrayBounds, "arraycopy: out of bounds")
	}
	if src.IsReference() != dest.IsReference() {
		return object.Slot{}, vmerr.New(vmerr.ArrayStore, "arraycopy: incompatible array kinds")
	}
	if src.IsReference() {
		copy(dest.Refs[destPos:destPos+length], src.Refs[srcPos:srcPos+length])
	} else {
		elem := int32(1)
		if src.Length > 0 {
			elem = int32(len(src.Bytes)) / src.Length
		}
		copy(dest.Bytes[destPos*elem:(destPos+length)*elem], src.Bytes[srcPos*elem:(srcPos+length)*elem])
	}
	return object.Slot{}, nil
}

func systemIdentityHashCode(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) == 0 || args[0].Ref == nil {
		return object.Slot{}, nil
	}
	h := receiverHeader(args[0].Ref)
	if h == nil {
		return object.Slot{}, nil
	}
	return object.Slot{Raw: uint64(h.Hash())}, nil
}

func systemCurrentTimeMillis(env interface{}, args []object.Slot) (object.Slot, error) {
	return object.Slot{Raw: uint64(time.Now().UnixMilli())}, nil
}

func systemNanoTime(env interface{}, args []object.Slot) (object.Slot, error) {
	return object.Slot{Raw: uint64(time.Now().UnixNano())}, nil
}
