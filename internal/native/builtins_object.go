/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"github.com/hanakeichen/rsvm-go/internal/memory"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// justReturn is the no-op body for natives whose only job is to exist
// so invokestatic/invokevirtual resolution succeeds, mirroring
// artipop-jacobin's gfunction.justReturn (used for every
// registerNatives and most <clinit> stubs).
func justReturn(env interface{}, args []object.Slot) (object.Slot, error) {
	return object.Slot{}, nil
}

// loadLangObject installs java/lang/Object's natives.
func loadLangObject(r *Registry) {
	r.registerBuiltin("java/lang/Object", "registerNatives", "()V", justReturn)
	r.registerBuiltin("java/lang/Object", "hashCode", "()I", objectHashCode)
	r.registerBuiltin("java/lang/Object", "getClass", "()Ljava/lang/Class;", objectGetClass)
	r.registerBuiltin("java/lang/Object", "clone", "()Ljava/lang/Object;", objectClone)
	r.registerBuiltin("java/lang/Object", "notify", "()V", justReturn)
	r.registerBuiltin("java/lang/Object", "notifyAll", "()V", justReturn)
	r.registerBuiltin("java/lang/Object", "wait", "(J)V", justReturn)
}

// receiverHeader recovers the Header shared by every reference shape
// (Object, Array, Class), since args[0] — the receiver — may be any of
// them for an Object-inherited native.
func receiverHeader(ref object.Reference) *object.Header {
	switch v := ref.(type) {
	case *object.Object:
		return &v.Header
	case *object.Array:
		return &v.Header
	case *object.Class:
		return &v.Header
	default:
		return nil
	}
}

func objectHashCode(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) == 0 || args[0].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "hashCode on null receiver")
	}
	h := receiverHeader(args[0].Ref)
	if h == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "hashCode on unrecognized receiver shape")
	}
	return object.Slot{Raw: uint64(h.Hash())}, nil
}

func objectGetClass(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) == 0 || args[0].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "getClass on null receiver")
	}
	return object.Slot{Ref: args[0].Ref.RefClass()}, nil
}

// objectClone implements a shallow field copy for Object and Array
// receivers. The receiver's class is not checked for Cloneable: any
// object or array is copied.
func objectClone(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) == 0 || args[0].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "clone on null receiver")
	}
	var tlab *memory.TLAB
	if e, ok := env.(*Env); ok && e.Thread != nil {
		tlab = e.Thread.TLAB
	}
	switch src := args[0].Ref.(type) {
	case *object.Object:
		dst := object.NewObject(tlab, src.Klass, len(src.Fields)*8)
		copy(dst.Fields, src.Fields)
		return object.Slot{Ref: dst}, nil
	case *object.Array:
		if src.IsReference() {
			dst := object.NewReferenceArray(tlab, src.Klass, src.Length)
			copy(dst.Refs, src.Refs)
			return object.Slot{Ref: dst}, nil
		}
		dst := &object.Array{Length: src.Length, Bytes: append([]byte(nil), src.Bytes...)}
		dst.Klass = src.Klass
		return object.Slot{Ref: dst}, nil
	default:
		return object.Slot{}, vmerr.New(vmerr.ClassCastError, "clone on unrecognized receiver shape")
	}
}
