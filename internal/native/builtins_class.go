/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// loadClass installs java/lang/Class's reflective natives.
func loadClass(r *Registry) {
	r.registerBuiltin("java/lang/Class", "registerNatives", "()V", justReturn)
	r.registerBuiltin("java/lang/Class", "isInterface", "()Z", classIsInterface)
	r.registerBuiltin("java/lang/Class", "isArray", "()Z", classIsArray)
	r.registerBuiltin("java/lang/Class", "isPrimitive", "()Z", classIsPrimitive)
	r.registerBuiltin("java/lang/Class", "getSuperclass", "()Ljava/lang/Class;", classGetSuperclass)
	r.registerBuiltin("java/lang/Class", "isInstance", "(Ljava/lang/Object;)Z", classIsInstance)
	r.registerBuiltin("java/lang/Class", "isAssignableFrom", "(Ljava/lang/Class;)Z", classIsAssignableFrom)
}

func receiverClass(args []object.Slot) (*object.Class, error) {
	if len(args) == 0 || args[0].Ref == nil {
		return nil, vmerr.New(vmerr.NullReference, "Class native called on null receiver")
	}
	cls, ok := args[0].Ref.(*object.Class)
	if !ok {
		return nil, vmerr.New(vmerr.ClassCastError, "Class native called on non-Class receiver")
	}
	return cls, nil
}

func boolSlot(v bool) object.Slot {
	if v {
		return object.Slot{Raw: 1}
	}
	return object.Slot{}
}

func classIsInterface(env interface{}, args []object.Slot) (object.Slot, error) {
	cls, err := receiverClass(args)
	if err != nil {
		return object.Slot{}, err
	}
	return boolSlot(cls.IsInterface()), nil
}

func classIsArray(env interface{}, args []object.Slot) (object.Slot, error) {
	cls, err := receiverClass(args)
	if err != nil {
		return object.Slot{}, err
	}
	return boolSlot(cls.IsArray()), nil
}

// classIsPrimitive reports true for the preloaded primitive
// placeholder classes bootstrap.go installs: those have neither a
// superclass nor a component type and are not interfaces, which no
// ordinary loaded class satisfies simultaneously.
func classIsPrimitive(env interface{}, args []object.Slot) (object.Slot, error) {
	cls, err := receiverClass(args)
	if err != nil {
		return object.Slot{}, err
	}
	isPrim := cls.Data.Super == nil && cls.Data.ComponentType == nil && !cls.IsInterface() && cls.Name() != "java/lang/Object"
	return boolSlot(isPrim), nil
}

func classGetSuperclass(env interface{}, args []object.Slot) (object.Slot, error) {
	cls, err := receiverClass(args)
	if err != nil {
		return object.Slot{}, err
	}
	if cls.Data.Super == nil {
		return object.Slot{}, nil
	}
	return object.Slot{Ref: cls.Data.Super}, nil
}

func classIsInstance(env interface{}, args []object.Slot) (object.Slot, error) {
	cls, err := receiverClass(args)
	if err != nil {
		return object.Slot{}, err
	}
	if len(args) < 2 || args[1].Ref == nil {
		return boolSlot(false), nil
	}
	return boolSlot(args[1].Ref.RefClass().IsAssignableTo(cls)), nil
}

func classIsAssignableFrom(env interface{}, args []object.Slot) (object.Slot, error) {
	cls, err := receiverClass(args)
	if err != nil {
		return object.Slot{}, err
	}
	if len(args) < 2 || args[1].Ref == nil {
		return boolSlot(false), nil
	}
	other, ok := args[1].Ref.(*object.Class)
	if !ok {
		return object.Slot{}, vmerr.New(vmerr.ClassCastError, "isAssignableFrom: argument is not a Class")
	}
	return boolSlot(other.IsAssignableTo(cls)), nil
}
