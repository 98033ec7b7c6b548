/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/hanakeichen/rsvm-go/internal/classloader"
	"github.com/hanakeichen/rsvm-go/internal/native"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/strtab"
	"github.com/hanakeichen/rsvm-go/internal/thread"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// Interpreter is the per-VM evaluator spec.md §4.7 describes: a
// dispatch loop over a frame's bytecode, plus the resolution and
// invocation machinery every opcode family needs. One Interpreter
// serves every thread; per-thread state lives in *thread.Thread.
type Interpreter struct {
	Loader  *classloader.Loader
	Natives *native.Registry
	Strings *strtab.Table
}

// New constructs an interpreter bound to the given loader, native
// registry, and string table. Call Wire once, at VM startup, to hook
// it into the loader's injection points.
func New(loader *classloader.Loader, natives *native.Registry, strings *strtab.Table) *Interpreter {
	return &Interpreter{Loader: loader, Natives: natives, Strings: strings}
}

// Wire installs this interpreter as the loader's native binder and
// <clinit> executor, closing the dependency-injection loop
// classloader.Loader's bindNative/execClinit fields describe.
func (ip *Interpreter) Wire() {
	ip.Loader.SetNativeBinder(ip.Natives.Resolve)
	ip.Loader.SetClinitExecutor(ip.RunClinit)
}

// RunClinit invokes a class initializer to completion, discarding its
// (void) result. This is the function classloader.Loader.execClinit
// holds.
func (ip *Interpreter) RunClinit(th *thread.Thread, m *object.Method) error {
	_, err := ip.Invoke(th, m.DeclClass, m, nil)
	return err
}

// LoadClass implements native.VMHandle.
func (ip *Interpreter) LoadClass(name string) (*object.Class, error) {
	return ip.Loader.Load(name)
}

// NewInstance allocates (without running any constructor) an instance
// of cls off th's TLAB.
func (ip *Interpreter) NewInstance(th *thread.Thread, cls *object.Class) (*object.Object, error) {
	return object.NewObject(th.TLAB, cls, cls.Data.InstanceSize), nil
}

// Invoke runs m to completion on th, marshalling args into the
// callee's locals (receiver first for non-static methods, per spec.md
// §4.7's frame layout) and returning its result slot (zero value for
// void). Native methods execute via the trampoline instead of
// Execute.
func (ip *Interpreter) Invoke(th *thread.Thread, cls *object.Class, m *object.Method, args []object.Slot) (object.Slot, error) {
	if m.IsAbstract() {
		return object.Slot{}, vmerr.New(vmerr.MethodResolutionError, "abstract method called: "+m.Name.String())
	}
	if m.IsNative() {
		return ip.callNative(th, cls, m, args)
	}

	f := NewFrame(cls, m, nil)
	copy(f.Locals, args)
	scope := thread.NewScope(th)
	f.Scope = scope
	defer scope.Close()

	return ip.Execute(th, f)
}

// callNative invokes a bound native method, per spec.md §4.8's calling
// convention: env first (outside the Slot args, since NativeFunc
// carries it as a separate Go parameter), then the target reference
// (class for static methods, receiver for instance methods — already
// args[0] for instance calls via popArgs' withReceiver, so only the
// static case needs the class prepended here).
func (ip *Interpreter) callNative(th *thread.Thread, cls *object.Class, m *object.Method, args []object.Slot) (object.Slot, error) {
	if m.NativeFn == nil {
		return object.Slot{}, vmerr.New(vmerr.MethodResolutionError, "unbound native method: "+m.Name.String())
	}
	env := &native.Env{Thread: th, VM: ip}
	if m.IsStatic() {
		withTarget := make([]object.Slot, len(args)+1)
		withTarget[0] = object.Slot{Ref: cls}
		copy(withTarget[1:], args)
		return m.NativeFn(env, withTarget)
	}
	return m.NativeFn(env, args)
}

// popArgs pops a method's declared arguments (and, for non-static
// calls, the receiver) off the current operand stack in the right
// order: operands are pushed left-to-right by the caller, so the last
// pushed (topmost) is the last parameter.
func popArgs(f *Frame, m *object.Method, withReceiver bool) []object.Slot {
	n := m.ArgSlots()
	if withReceiver {
		n++
	}
	args := make([]object.Slot, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = f.pop()
	}
	return args
}

// pushReturn pushes a non-void return value, per the method's return
// descriptor; the value is already sitting as the callee's single
// returned Slot regardless of kind (see Slot's machine-word-wide
// representation), so this only needs to decide whether to push at
// all.
func pushReturn(f *Frame, m *object.Method, ret object.Slot) {
	if m.ReturnDesc == "" || m.ReturnDesc == "V" {
		return
	}
	f.push(ret)
}
