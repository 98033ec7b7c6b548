/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"sync"

	"github.com/hanakeichen/rsvm-go/internal/memory"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
)

// classHeaderFootprint is the nominal permanent-space charge for a
// Class object's own record, separate from the methods/fields/constant
// pool accounted for once linking completes (see
// classloader/link.go's accountPermanent).
const classHeaderFootprint = 64

// InitState is the class initialization state machine spec.md §4.5
// specifies. InitFailed is not one of the spec's four named states; it
// records that <clinit> threw, so a second initialization attempt
// (the JVM normally rethrows NoClassDefFoundError in this case rather
// than re-running <clinit>) does not silently treat the class as
// available.
type InitState int32

const (
	Created InitState = iota
	Linked
	Initializing
	Initialized
	InitFailed
)

// ClassData is the link-time record attached to every Class object:
// everything spec.md §3 describes as following the reflective Class
// fields in memory. Implemented as a Go struct field of Class rather
// than a byte-offset blob (see object.go's Header doc) — the
// class-object-is-also-a-Class-instance duality spec.md §9 describes
// is modeled by Class embedding both the reflective fields an instance
// of java.lang.Class would have (Header + Fields, for user code that
// calls getClass() methods reflectively) and ClassData itself.
type ClassData struct {
	ConstantPool    *ConstantPool
	Name            *symbol.Symbol
	Super           *Class
	SuperName       *symbol.Symbol // populated before Super resolves
	Interfaces      []*Class
	InterfaceNames  []*symbol.Symbol
	Fields          []*Field
	Methods         []*Method
	ComponentType   *Class // non-nil iff this class is an array class
	InstanceSize    int
	StaticSize      int
	MetadataOffset  int // tail bytes reserved for subsystems like thread IDs
	AccessFlags     AccessFlags
	Vtable          *VtableBlock
}

// Class is the JClass object from spec.md §3: header, initialization
// state, and the class-data block, followed by the reflective Class
// instance's own fields and then the class's static-field storage.
type Class struct {
	Header
	mu    sync.Mutex
	cond  *sync.Cond
	state InitState

	initializingThread uintptr // 0 when nobody is initializing

	Data *ClassData

	// Fields holds the reflective java.lang.Class instance fields
	// (e.g. a cached name String once bootstrapped); StaticFields holds
	// this class's own static-field storage, indexed the same way
	// Object.Fields is, by LayoutOffset/8.
	Fields       []Slot
	StaticFields []Slot
}

// NewClass allocates a Class in the Created state with an empty
// ClassData; the parser and linker populate the rest. Classes are
// permanent per spec.md §3's Lifecycles, so the class's own record is
// charged against heap's permanent space; heap == nil (a test with no
// memory subsystem wired up) skips accounting.
func NewClass(heap *memory.Heap) *Class {
	c := &Class{Data: &ClassData{}, state: Created}
	c.cond = sync.NewCond(&c.mu)
	if heap != nil {
		addr, _ := heap.AllocPerm(classHeaderFootprint)
		c.SetHash(uint32(addr))
	}
	return c
}

// RefClass implements Reference: a Class is also the reflective
// java.lang.Class instance spec.md §9 describes, so getClass() and
// friends can hand one back through the same reference-typed Slot an
// Object or Array would use.
func (c *Class) RefClass() *Class { return c.Klass }

// State returns the current initialization state.
func (c *Class) State() InitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Class) setState(s InitState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// InitMu exposes the class's own lock to the classloader's
// initialization state machine, which needs to hold it across the
// Linked→Initializing transition check and the final
// Initializing→Initialized/InitFailed transition.
func (c *Class) InitMu() *sync.Mutex { return &c.mu }

// InitCond exposes the condition variable threads block on while
// waiting for another thread's in-progress <clinit> to finish.
func (c *Class) InitCond() *sync.Cond {
	if c.cond == nil {
		c.cond = sync.NewCond(&c.mu)
	}
	return c.cond
}

// RawState reads state without locking; callers must already hold
// InitMu().
func (c *Class) RawState() InitState { return c.state }

// InitializingThread returns the thread ID currently running
// <clinit>, or 0. Callers must already hold InitMu().
func (c *Class) InitializingThread() uintptr { return c.initializingThread }

// SetInitializing transitions Linked→Initializing and records the
// initiating thread, for recursive re-entry detection. Callers must
// already hold InitMu().
func (c *Class) SetInitializing(threadID uintptr) {
	c.state = Initializing
	c.initializingThread = threadID
}

// SetInitialized transitions Initializing→Initialized. Callers must
// already hold InitMu().
func (c *Class) SetInitialized() {
	c.state = Initialized
	c.initializingThread = 0
}

// SetInitFailed transitions Initializing→InitFailed after <clinit>
// threw. Callers must already hold InitMu().
func (c *Class) SetInitFailed() {
	c.state = InitFailed
	c.initializingThread = 0
}

// IsInterface reports whether this class was declared as an interface.
func (c *Class) IsInterface() bool { return c.Data.AccessFlags.Has(AccInterface) }

// IsArray reports whether this class describes an array type.
func (c *Class) IsArray() bool { return c.Data.ComponentType != nil }

// Name returns the class's binary name.
func (c *Class) Name() string {
	if c.Data.Name == nil {
		return ""
	}
	return c.Data.Name.String()
}

// StaticFieldSlot returns a pointer to the Slot backing the static
// field at the given layout offset.
func (c *Class) StaticFieldSlot(offset int) *Slot {
	return &c.StaticFields[offset/8]
}

// FindField looks up a field by name with superclass fallback, per
// spec.md §4.7's field-resolution rule ("lookup by name with
// superclass fallback").
func (c *Class) FindField(name string) (*Field, *Class) {
	for k := c; k != nil; k = k.Data.Super {
		for _, f := range k.Data.Fields {
			if f.Name != nil && f.Name.String() == name {
				return f, k
			}
		}
	}
	return nil, nil
}

// FindDeclaredMethod looks up a method declared directly on c (no
// superclass walk), by (name, descriptor).
func (c *Class) FindDeclaredMethod(name, desc string) *Method {
	for _, m := range c.Data.Methods {
		if m.NameAndDescMatch(name, desc) {
			return m
		}
	}
	return nil
}

// FindMethod looks up a method by (name, descriptor), walking the
// superclass chain, used for invokespecial/invokestatic resolution.
func (c *Class) FindMethod(name, desc string) (*Method, *Class) {
	for k := c; k != nil; k = k.Data.Super {
		if m := k.FindDeclaredMethod(name, desc); m != nil {
			return m, k
		}
	}
	return nil, nil
}

// IsSubclassOf reports whether c is other or a subclass of other, walking
// the superclass chain — the core of instanceof/checkcast for class
// (non-interface) targets.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.Data.Super {
		if k == other {
			return true
		}
	}
	return false
}

// ImplementsInterface reports whether c's vtable-computed interface
// closure includes iface, per spec.md §3's itable layout.
func (c *Class) ImplementsInterface(iface *Class) bool {
	if c.Data.Vtable == nil {
		return false
	}
	for _, i := range c.Data.Vtable.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// IsAssignableTo reports whether a reference of class c may be
// assigned/cast to target, combining the class-hierarchy and
// interface-implementation checks checkcast/instanceof and array-store
// checks need.
func (c *Class) IsAssignableTo(target *Class) bool {
	if c == target {
		return true
	}
	if target.IsInterface() {
		return c.ImplementsInterface(target)
	}
	if c.IsArray() && target.IsArray() {
		return c.Data.ComponentType.IsAssignableTo(target.Data.ComponentType)
	}
	return c.IsSubclassOf(target)
}
