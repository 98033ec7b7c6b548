/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"strings"
	"sync"

	"github.com/hanakeichen/rsvm-go/internal/classfile"
	"github.com/hanakeichen/rsvm-go/internal/memory"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
	"github.com/hanakeichen/rsvm-go/internal/thread"
	"github.com/hanakeichen/rsvm-go/internal/trace"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// Loader is the bootstrap class loader of spec.md §4.6: an ordered
// classpath, a registry keyed by binary class name, and the link step
// of §4.5. A single mutex serializes the whole load→parse→link
// pipeline; spec.md's Non-goals exclude class unloading and concurrent
// classloader races, so contention here is not a design concern.
type Loader struct {
	classpath []Entry
	symtab    *symbol.Table
	heap      *memory.Heap

	mu       sync.Mutex
	registry map[string]*object.Class

	// bindNative resolves a native method to its Go implementation;
	// injected by the native package at VM startup (the same
	// function-pointer-in-a-struct pattern artipop-jacobin's globals
	// uses for FuncThrowException, to avoid an import cycle between
	// classloader and native).
	bindNative func(class, name, desc string) (object.NativeFunc, bool)

	// execClinit invokes a <clinit> method to completion on the given
	// thread; injected by the interp/vm package for the same reason.
	// It takes the thread explicitly (rather than the loader looking
	// one up by threadID) since explicit thread-passing is this VM's
	// substitute for native thread-local storage, per spec.md §4.9's
	// own recommendation.
	execClinit func(th *thread.Thread, m *object.Method) error
}

// NewLoader constructs a loader over the given classpath entries,
// charging every class it loads against heap's permanent space (heap
// may be nil in tests that don't need the memory subsystem). Call
// InstallPreloaded afterward to populate the primitive and bootstrap
// classes before loading any user class.
func NewLoader(classpath []Entry, symtab *symbol.Table, heap *memory.Heap) *Loader {
	return &Loader{
		classpath: classpath,
		symtab:    symtab,
		heap:      heap,
		registry:  make(map[string]*object.Class),
	}
}

// SetNativeBinder installs the native-method resolver.
func (l *Loader) SetNativeBinder(fn func(class, name, desc string) (object.NativeFunc, bool)) {
	l.bindNative = fn
}

// SetClinitExecutor installs the <clinit> invoker.
func (l *Loader) SetClinitExecutor(fn func(th *thread.Thread, m *object.Method) error) {
	l.execClinit = fn
}

// register installs a class in the registry under its binary name,
// overwriting any placeholder (used by preloaded bootstrap classes,
// which register themselves directly).
func (l *Loader) register(cls *object.Class) {
	l.registry[cls.Name()] = cls
}

// Lookup returns an already-loaded class by binary name without
// triggering a load.
func (l *Loader) Lookup(name string) (*object.Class, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.registry[name]
	return c, ok
}

// Load resolves a class by binary (slash-separated) name, consulting
// the registry first, then synthesizing an array class or parsing from
// the classpath, per spec.md §4.6. The returned class is at least
// Linked; initialization is the caller's responsibility (triggered by
// `new`, `getstatic`, `putstatic`, `invokestatic`, per spec.md §4.7).
func (l *Loader) Load(name string) (*object.Class, error) {
	name = strings.ReplaceAll(name, ".", "/")

	l.mu.Lock()
	if c, ok := l.registry[name]; ok {
		l.mu.Unlock()
		return c, nil
	}
	l.mu.Unlock()

	var cls *object.Class
	var err error
	if strings.HasPrefix(name, "[") {
		cls, err = l.loadArrayClass(name)
	} else {
		cls, err = l.loadFromClasspath(name)
	}
	if err != nil {
		return nil, err
	}

	if err := l.resolveHierarchy(cls); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.registry[name] = cls
	l.mu.Unlock()

	if err := l.link(cls); err != nil {
		return nil, err
	}
	return cls, nil
}

// loadArrayClass synthesizes an array class for a "[..." descriptor,
// recursively loading the component type, per spec.md §4.6.
func (l *Loader) loadArrayClass(name string) (*object.Class, error) {
	componentDesc, err := classfile.ComponentDescriptor(name)
	if err != nil {
		return nil, err
	}

	var component *object.Class
	if object.IsReferenceDescriptor(componentDesc) || object.Kind(componentDesc) == object.KindArray {
		compName := componentDesc
		if object.Kind(componentDesc) == object.KindReference {
			compName = strings.TrimSuffix(strings.TrimPrefix(componentDesc, "L"), ";")
		}
		component, err = l.Load(compName)
		if err != nil {
			return nil, err
		}
	} else {
		component, err = l.Load(componentDesc)
		if err != nil {
			return nil, err
		}
	}

	arrCls := object.NewClass(l.heap)
	arrCls.Data.Name = l.symtab.Intern(name)
	arrCls.Data.ComponentType = component
	objectCls, ok := l.Lookup("java/lang/Object")
	if ok {
		arrCls.Data.Super = objectCls
	}
	arrCls.setState(object.Linked)
	return arrCls, nil
}

// loadFromClasspath iterates the classpath in order; the first entry
// that opens the class wins, per spec.md §4.6.
func (l *Loader) loadFromClasspath(name string) (*object.Class, error) {
	for _, entry := range l.classpath {
		data, found, err := entry.Find(name)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		trace.Trace("classloader: loading "+name, trace.WithField("entry", entry.String()))
		cls, err := classfile.Parse(data, l.symtab, l.heap)
		if err != nil {
			return nil, vmerr.Wrap(err, "parsing "+name)
		}
		return cls, nil
	}
	return nil, vmerr.New(vmerr.ClassLinkFailed, "class not found on classpath: "+name)
}

// resolveHierarchy loads and attaches cls's superclass and interfaces
// by name, recursively. java/lang/Object (and any class loaded while
// bootstrapping it) has no superclass.
func (l *Loader) resolveHierarchy(cls *object.Class) error {
	if cls.Data.SuperName != nil && cls.Data.Super == nil {
		super, err := l.Load(cls.Data.SuperName.String())
		if err != nil {
			return vmerr.Wrap(err, "resolving superclass of "+cls.Name())
		}
		cls.Data.Super = super
	}
	for _, ifaceName := range cls.Data.InterfaceNames {
		iface, err := l.Load(ifaceName.String())
		if err != nil {
			return vmerr.Wrap(err, "resolving interface of "+cls.Name())
		}
		cls.Data.Interfaces = append(cls.Data.Interfaces, iface)
	}
	return nil
}

// EnsureInitialized runs the Created→Linked→Initializing→Initialized
// state machine's final step, per spec.md §4.5: <clinit> runs
// at-most-once, re-entrant calls from within <clinit> (same thread)
// return immediately, and concurrent callers from other threads block
// until initialization completes.
func (l *Loader) EnsureInitialized(cls *object.Class, th *thread.Thread) error {
	threadID := th.ID
	if cls.State() == object.Created {
		if err := l.link(cls); err != nil {
			return err
		}
	}

	cls.InitMu().Lock()
	for {
		switch cls.RawState() {
		case object.Initialized:
			cls.InitMu().Unlock()
			return nil
		case object.InitFailed:
			cls.InitMu().Unlock()
			return vmerr.New(vmerr.ClassInitFailed, "class previously failed to initialize: "+cls.Name())
		case object.Initializing:
			if cls.InitializingThread() == threadID {
				cls.InitMu().Unlock()
				return nil
			}
			cls.InitCond().Wait()
			continue
		default: // Linked
			cls.SetInitializing(threadID)
			cls.InitMu().Unlock()
			goto runClinit
		}
	}

runClinit:
	if cls.Data.Super != nil {
		if err := l.EnsureInitialized(cls.Data.Super, th); err != nil {
			return err
		}
	}

	var clinitErr error
	if clinit := cls.FindDeclaredMethod("<clinit>", "()V"); clinit != nil && l.execClinit != nil {
		clinitErr = l.execClinit(th, clinit)
	}

	cls.InitMu().Lock()
	if clinitErr != nil {
		cls.SetInitFailed()
		cls.InitCond().Broadcast()
		cls.InitMu().Unlock()
		return vmerr.Wrap(clinitErr, "class initializer failed for "+cls.Name())
	}
	cls.SetInitialized()
	cls.InitCond().Broadcast()
	cls.InitMu().Unlock()
	return nil
}
