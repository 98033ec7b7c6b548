/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/thread"
)

// ThrownError carries a live Java exception object up through Go's own
// call stack as Invoke unwinds, per spec.md §4.7's "on miss, unwind one
// frame and retry": each Execute frame that receives one from a callee
// re-checks its own exception table at the calling instruction's pc
// before propagating further.
type ThrownError struct {
	Obj object.Reference
}

func (e *ThrownError) Error() string {
	if e.Obj == nil {
		return "uncaught exception"
	}
	return "uncaught exception: " + e.Obj.RefClass().Name()
}

// raiseIn walks f's own exception table looking for an entry covering
// pc whose catch type is absent (finally) or a superclass of obj's
// class, per spec.md §4.7's athrow description.
func (ip *Interpreter) raiseIn(f *Frame, pc int, obj object.Reference) (int, bool) {
	for _, et := range f.Method.ExceptionTable {
		if pc < et.StartPC || pc >= et.EndPC {
			continue
		}
		if et.CatchType == 0 {
			return et.HandlerPC, true
		}
		cp := f.Class.Data.ConstantPool
		catchCls, ok := cp.ResolvedClass(et.CatchType)
		if !ok {
			name := cp.ClassNameAt(et.CatchType).String()
			var err error
			catchCls, err = ip.Loader.Load(name)
			if err != nil {
				continue
			}
			cp.CacheResolvedClass(et.CatchType, catchCls)
		}
		if obj.RefClass().IsSubclassOf(catchCls) {
			return et.HandlerPC, true
		}
	}
	return 0, false
}

// fault allocates an instance of className (a standard runtime
// exception, e.g. java/lang/NullPointerException) and raises it in f.
// A nil return means the exception was caught within f; callers must
// `continue` their dispatch loop in that case without executing the
// rest of the failing instruction. A non-nil return (always
// *ThrownError, barring a class-loading failure for the exception
// class itself) must be returned immediately by the caller.
func (ip *Interpreter) fault(th *thread.Thread, f *Frame, startPC int, className string) error {
	obj, err := ip.newException(th, className)
	if err != nil {
		return err
	}
	return ip.raiseOrPropagate(f, startPC, obj)
}

func (ip *Interpreter) raiseOrPropagate(f *Frame, startPC int, obj object.Reference) error {
	if handlerPC, caught := ip.raiseIn(f, startPC, obj); caught {
		f.sp = 0
		f.pushRef(obj)
		f.pc = handlerPC
		return nil
	}
	return &ThrownError{Obj: obj}
}

// newException allocates a bare instance of a runtime exception class,
// loading and initializing it first. No constructor runs — the
// exception carries its identity and class (enough for catch-table
// matching and for printStackTrace-less propagation to the VM facade)
// but not a message or backtrace, matching spec.md §4.7's "declares
// the behaviour; the source defers full implementation" scope for
// exception handling.
func (ip *Interpreter) newException(th *thread.Thread, className string) (object.Reference, error) {
	cls, err := ip.Loader.Load(className)
	if err != nil {
		return nil, err
	}
	if err := ip.Loader.EnsureInitialized(cls, th); err != nil {
		return nil, err
	}
	return object.NewObject(th.TLAB, cls, cls.Data.InstanceSize), nil
}
