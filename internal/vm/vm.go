/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vm is the facade spec.md §4.10 describes: the single entry
// point an embedder (or cmd/rsvm) constructs, initializes, drives
// through the four call shapes, and tears down. It owns the heap, the
// classloader, the native registry, and the interpreter, wiring them
// together the way artipop-jacobin/src/classloader/classloader.go's
// Init() brings the method area, string pool, and class loaders up in
// a fixed order before anything else may run.
package vm

import (
	"github.com/hanakeichen/rsvm-go/internal/classloader"
	"github.com/hanakeichen/rsvm-go/internal/config"
	"github.com/hanakeichen/rsvm-go/internal/interp"
	"github.com/hanakeichen/rsvm-go/internal/memory"
	"github.com/hanakeichen/rsvm-go/internal/native"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/strtab"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
	"github.com/hanakeichen/rsvm-go/internal/thread"
	"github.com/hanakeichen/rsvm-go/internal/trace"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// VM is the process-wide handle. Exactly one is expected to exist at a
// time, per spec.md §4.10; nothing here prevents a second instance,
// but the heap regions a second instance reserves are independent (see
// internal/memory.Mapper), so this is a design choice rather than a
// hard constraint.
type VM struct {
	Config  *config.Config
	Heap    *memory.Heap
	Symbols *symbol.Table
	Strings *strtab.Table
	Loader  *classloader.Loader
	Natives *native.Registry
	Interp  *interp.Interpreter
	Threads *thread.Manager

	main *thread.Thread
}

// New reserves the heap and wires the classloader, native registry,
// and interpreter together, but does not run any Java code yet — that
// is Init's job, per spec.md §4.10's two-phase new()/init() split.
func New(cfg *config.Config) (*VM, error) {
	heap, err := memory.NewHeap(memory.HeapConfig{
		YoungSize: int(cfg.InitialHeap),
		OldSize:   int(cfg.MaxHeap),
		PermSize:  int(cfg.MaxHeap / 4),
		CodeSize:  1 << 20,
	})
	if err != nil {
		return nil, vmerr.Wrap(err, "vm: reserving heap")
	}

	entries, err := classloader.NewClasspath(cfg.ClassPath)
	if err != nil {
		heap.Close()
		return nil, err
	}

	symbols := symbol.NewTable()
	strings := strtab.NewTable()
	loader := classloader.NewLoader(entries, symbols, heap)
	natives := native.NewRegistry()
	interpreter := interp.New(loader, natives, strings)
	interpreter.Wire()

	return &VM{
		Config:  cfg,
		Heap:    heap,
		Symbols: symbols,
		Strings: strings,
		Loader:  loader,
		Natives: natives,
		Interp:  interpreter,
		Threads: thread.NewManager(),
	}, nil
}

// Init attaches the calling goroutine as the VM's main thread,
// installs the preloaded bootstrap classes, and brings up
// java/lang/System, per spec.md §4.10. Must run exactly once, before
// any call shape.
func (v *VM) Init() error {
	v.Loader.InstallPreloaded()

	v.main = thread.New(v.Heap.Young, v.Config.TlabSize)
	v.Threads.Attach(v.main)

	sys, err := v.Loader.Load("java/lang/System")
	if err != nil {
		trace.Warning("vm: java/lang/System unavailable, continuing without it",
			trace.WithField("error", err.Error()))
		return nil
	}
	if err := v.Loader.EnsureInitialized(sys, v.main); err != nil {
		return vmerr.Wrap(err, "vm: initializing java/lang/System")
	}
	return nil
}

// Destroy releases every heap region. The VM is unusable afterward.
func (v *VM) Destroy() {
	for _, t := range v.Threads.Threads() {
		v.Threads.Detach(t)
	}
	v.Heap.Close()
}

// MainThread returns the thread Init attached, the one every call
// shape below runs on unless the embedder manages its own threads.
func (v *VM) MainThread() *thread.Thread {
	return v.main
}

// LoadClass implements native.VMHandle and is the symbol/class lookup
// entry point spec.md §4.10 names.
func (v *VM) LoadClass(name string) (*object.Class, error) {
	return v.Loader.Load(name)
}

// NewInstance implements native.VMHandle.
func (v *VM) NewInstance(cls *object.Class) (*object.Object, error) {
	return v.Interp.NewInstance(v.main, cls)
}

// FindMethod resolves a (class, name, descriptor) triple to its
// Method and declaring Class, loading and linking the class first if
// necessary. This is the lookup the four call shapes below build on.
func (v *VM) FindMethod(className, name, desc string) (*object.Method, *object.Class, error) {
	cls, err := v.Loader.Load(className)
	if err != nil {
		return nil, nil, err
	}
	m, owner := cls.FindMethod(name, desc)
	if m == nil {
		return nil, nil, vmerr.New(vmerr.MethodResolutionError, "no such method: "+className+"."+name+desc)
	}
	return m, owner, nil
}

// CallStaticVoid runs a static method for effect, discarding its
// return value, per spec.md §4.10's call_static_void shape.
func (v *VM) CallStaticVoid(className, name, desc string, args []object.Slot) error {
	_, err := v.CallStatic(className, name, desc, args)
	return err
}

// CallStatic runs a static method and returns its result slot, per
// spec.md §4.10's call_static shape.
func (v *VM) CallStatic(className, name, desc string, args []object.Slot) (object.Slot, error) {
	m, owner, err := v.FindMethod(className, name, desc)
	if err != nil {
		return object.Slot{}, err
	}
	if !m.IsStatic() {
		return object.Slot{}, vmerr.New(vmerr.MethodResolutionError, "not a static method: "+name+desc)
	}
	if err := v.Loader.EnsureInitialized(owner, v.main); err != nil {
		return object.Slot{}, err
	}
	return v.Interp.Invoke(v.main, owner, m, args)
}

// CallObjVoid invokes an instance method on recv for effect, per
// spec.md §4.10's call_obj_void shape. recv is prepended to args as
// the receiver slot, per the interpreter's frame-layout convention.
func (v *VM) CallObjVoid(recv object.Reference, name, desc string, args []object.Slot) error {
	_, err := v.CallObj(recv, name, desc, args)
	return err
}

// CallObj invokes an instance method on recv and returns its result,
// per spec.md §4.10's call_obj shape. Dispatch is virtual: the method
// is looked up starting from recv's own runtime class, matching
// invokevirtual's resolution rule.
func (v *VM) CallObj(recv object.Reference, name, desc string, args []object.Slot) (object.Slot, error) {
	if recv == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "call on null receiver")
	}
	cls := recv.RefClass()
	m, owner := cls.FindMethod(name, desc)
	if m == nil {
		return object.Slot{}, vmerr.New(vmerr.MethodResolutionError, "no such method: "+cls.Name()+"."+name+desc)
	}
	withRecv := make([]object.Slot, len(args)+1)
	withRecv[0] = object.Slot{Ref: recv}
	copy(withRecv[1:], args)
	return v.Interp.Invoke(v.main, owner, m, withRecv)
}
