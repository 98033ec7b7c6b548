/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/thread"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// resolveClass resolves a Class constant-pool entry to a loaded
// *object.Class, caching the result on the pool per spec.md §4.7's
// resolution-within-handlers rule ("load the referenced class if not
// yet resolved").
func (ip *Interpreter) resolveClass(f *Frame, index uint16) (*object.Class, error) {
	cp := f.Class.Data.ConstantPool
	if cls, ok := cp.ResolvedClass(index); ok {
		return cls, nil
	}
	name := cp.ClassNameAt(index).String()
	cls, err := ip.Loader.Load(name)
	if err != nil {
		return nil, vmerr.Wrap(err, "resolving class "+name)
	}
	cp.CacheResolvedClass(index, cls)
	return cls, nil
}

// resolveAndInit resolves a class reference and ensures it is
// initialized, per the `new`/getstatic/putstatic/invokestatic rule.
func (ip *Interpreter) resolveAndInit(th *thread.Thread, f *Frame, index uint16) (*object.Class, error) {
	cls, err := ip.resolveClass(f, index)
	if err != nil {
		return nil, err
	}
	if err := ip.Loader.EnsureInitialized(cls, th); err != nil {
		return nil, err
	}
	return cls, nil
}

// resolveField resolves a Fieldref constant to the declaring class and
// the Field record, by name with superclass fallback, per spec.md
// §4.7.
func (ip *Interpreter) resolveField(f *Frame, index uint16) (*object.Field, *object.Class, error) {
	cp := f.Class.Data.ConstantPool
	className, name, _ := cp.MemberName(index)
	owner, err := ip.Loader.Load(className)
	if err != nil {
		return nil, nil, vmerr.Wrap(err, "resolving field owner "+className)
	}
	field, declClass := owner.FindField(name)
	if field == nil {
		return nil, nil, vmerr.New(vmerr.MethodResolutionError, "no such field "+className+"."+name)
	}
	return field, declClass, nil
}

// resolveStaticFieldOwner returns the class whose Fieldref's declaring
// class (not merely the referenced class) owns the field's static
// storage, resolving and initializing it first.
func (ip *Interpreter) resolveStaticFieldOwner(th *thread.Thread, f *Frame, index uint16) (*object.Field, *object.Class, error) {
	cp := f.Class.Data.ConstantPool
	className, _, _ := cp.MemberName(index)
	owner, err := ip.Loader.Load(className)
	if err != nil {
		return nil, nil, vmerr.Wrap(err, "resolving field owner "+className)
	}
	if err := ip.Loader.EnsureInitialized(owner, th); err != nil {
		return nil, nil, err
	}
	field, declClass, err := ip.resolveField(f, index)
	if err != nil {
		return nil, nil, err
	}
	return field, declClass, nil
}

// resolveStaticMethod resolves an invokestatic target: looked up by
// the local method table walk (no vtable involved), with the owning
// class initialized first.
func (ip *Interpreter) resolveStaticMethod(th *thread.Thread, f *Frame, index uint16) (*object.Method, *object.Class, error) {
	cp := f.Class.Data.ConstantPool
	className, name, desc := cp.MemberName(index)
	owner, err := ip.Loader.Load(className)
	if err != nil {
		return nil, nil, vmerr.Wrap(err, "resolving method owner "+className)
	}
	if err := ip.Loader.EnsureInitialized(owner, th); err != nil {
		return nil, nil, err
	}
	m, declClass := owner.FindMethod(name, desc)
	if m == nil {
		return nil, nil, vmerr.New(vmerr.MethodResolutionError, "no such static method "+className+"."+name+desc)
	}
	return m, declClass, nil
}

// resolveSpecialMethod resolves an invokespecial target from the
// referenced class's method tables, walking its superclass chain via
// FindMethod, without virtual dispatch on the receiver.
func (ip *Interpreter) resolveSpecialMethod(f *Frame, index uint16) (*object.Method, *object.Class, error) {
	cp := f.Class.Data.ConstantPool
	className, name, desc := cp.MemberName(index)
	owner, err := ip.Loader.Load(className)
	if err != nil {
		return nil, nil, vmerr.Wrap(err, "resolving method owner "+className)
	}
	m, declClass := owner.FindMethod(name, desc)
	if m == nil {
		return nil, nil, vmerr.New(vmerr.MethodResolutionError, "no such method "+className+"."+name+desc)
	}
	return m, declClass, nil
}

// resolveVirtualVtableIndex resolves an invokevirtual target at its
// static type, yielding the vtable index the call site uses for every
// future dispatch against any receiver subclass.
func (ip *Interpreter) resolveVirtualVtableIndex(f *Frame, index uint16) (string, string, *object.Class, int, error) {
	cp := f.Class.Data.ConstantPool
	className, name, desc := cp.MemberName(index)
	owner, err := ip.Loader.Load(className)
	if err != nil {
		return "", "", nil, -1, vmerr.Wrap(err, "resolving method owner "+className)
	}
	if owner.Data.Vtable == nil {
		return "", "", nil, -1, vmerr.New(vmerr.MethodResolutionError, "class has no vtable: "+className)
	}
	idx := owner.Data.Vtable.IndexOfNameAndDesc(name, desc)
	if idx < 0 {
		return "", "", nil, -1, vmerr.New(vmerr.MethodResolutionError, "no such virtual method "+className+"."+name+desc)
	}
	return name, desc, owner, idx, nil
}

// resolveInterfaceMethod resolves an invokeinterface target: the
// interface method's ordinal within its own declared method list, used
// at the call site to map through the receiver's itable.
func (ip *Interpreter) resolveInterfaceMethod(f *Frame, index uint16) (*object.Class, int, string, string, error) {
	cp := f.Class.Data.ConstantPool
	className, name, desc := cp.MemberName(index)
	iface, err := ip.Loader.Load(className)
	if err != nil {
		return nil, -1, "", "", vmerr.Wrap(err, "resolving interface "+className)
	}
	ordinal := -1
	if iface.Data.Vtable != nil {
		for i, m := range iface.Data.Vtable.Methods {
			if m != nil && m.NameAndDescMatch(name, desc) {
				ordinal = i
				break
			}
		}
	}
	if ordinal < 0 {
		return nil, -1, "", "", vmerr.New(vmerr.MethodResolutionError, "no such interface method "+className+"."+name+desc)
	}
	return iface, ordinal, name, desc, nil
}
