/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"sync"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/thread"
)

// Env is the JNI-style environment pointer spec.md §4.8 requires every
// native function to receive: a back-reference letting the
// implementation reach the current thread (and, through it, the
// thread's TLAB and handle area). Passed as the env argument of
// object.NativeFunc.
type Env struct {
	Thread *thread.Thread
	VM     VMHandle
}

// VMHandle is the subset of the VM facade a native method may need:
// loading a class and allocating a fresh instance. Declared here
// (rather than importing internal/vm, which would cycle back to
// native) and satisfied by *vm.VM.
type VMHandle interface {
	LoadClass(name string) (*object.Class, error)
	NewInstance(cls *object.Class) (*object.Object, error)
}

// Registry is a two-tier native method table: a statically linked
// table of built-ins (installed by the load* functions in this
// package, mirroring artipop-jacobin's gfunction.MethodSignatures) and
// a dynamic fallback for libraries registered at runtime, per spec.md
// §4.8's "two places in order" resolution rule.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]object.NativeFunc
	dynamic  map[string]object.NativeFunc
}

// NewRegistry constructs an empty registry with every known built-in
// family installed.
func NewRegistry() *Registry {
	r := &Registry{
		builtins: make(map[string]object.NativeFunc),
		dynamic:  make(map[string]object.NativeFunc),
	}
	r.loadBuiltins()
	return r
}

func key(class, name, desc string) string { return class + "." + name + desc }

// registerBuiltin installs a statically linked native implementation.
func (r *Registry) registerBuiltin(class, name, desc string, fn object.NativeFunc) {
	r.builtins[key(class, name, desc)] = fn
}

// RegisterDynamic installs a native implementation supplied at
// runtime (e.g. by a ClassLoader$NativeLibrary load), taking priority
// only when no built-in exists for the same signature, per spec.md
// §4.8.
func (r *Registry) RegisterDynamic(class, name, desc string, fn object.NativeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dynamic[key(class, name, desc)] = fn
}

// Resolve looks up a native implementation by (class, name, desc),
// built-ins first. It is the function the classloader's linker calls
// through Loader.SetNativeBinder.
func (r *Registry) Resolve(class, name, desc string) (object.NativeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.builtins[key(class, name, desc)]; ok {
		return fn, true
	}
	if fn, ok := r.dynamic[key(class, name, desc)]; ok {
		return fn, true
	}
	return nil, false
}

func (r *Registry) loadBuiltins() {
	loadLangObject(r)
	loadLangSystem(r)
	loadLangThread(r)
	loadUnsafe(r)
	loadIO(r)
	loadClass(r)
}
