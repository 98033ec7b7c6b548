/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"github.com/hanakeichen/rsvm-go/internal/object"
)

var primitiveDescriptors = []string{"B", "C", "D", "F", "I", "J", "S", "Z", "V"}

// InstallPreloaded installs the classes spec.md §4.6 says bypass the
// parser: primitives, primitive arrays, java/lang/Object, and
// java/lang/Class. Must run before the first call to Load.
//
// java/lang/Object has no parsed class file at this point (it may
// still be loaded normally from the classpath later if the embedding
// application supplies one; the preloaded stand-in exists so every
// other class has a root to link against during early bootstrap).
// java/lang/Class is self-referential per spec.md §9: its own Header
// must point at itself. Go's GC-managed pointers make the two-phase
// preallocate-then-backpatch trick unnecessary — the self-reference is
// simply a direct assignment once the Class object exists.
func (l *Loader) InstallPreloaded() {
	object_ := object.NewClass(l.heap)
	object_.Data.Name = l.symtab.Intern("java/lang/Object")
	object_.Data.InstanceSize = 16 // header only
	object_.setState(object.Linked)
	l.register(object_)

	classClass := object.NewClass(l.heap)
	classClass.Data.Name = l.symtab.Intern("java/lang/Class")
	classClass.Data.Super = object_
	classClass.Data.InstanceSize = object_.Data.InstanceSize
	classClass.setState(object.Linked)
	classClass.Header.Klass = classClass // self-reference, per spec.md §9
	object_.Header.Klass = classClass
	l.register(classClass)

	for _, desc := range primitiveDescriptors {
		p := object.NewClass(l.heap)
		p.Data.Name = l.symtab.Intern(desc)
		p.Header.Klass = classClass
		p.setState(object.Linked)
		l.register(p)
	}

	for _, desc := range primitiveDescriptors {
		if desc == "V" {
			continue
		}
		arrName := "[" + desc
		arr := object.NewClass(l.heap)
		arr.Data.Name = l.symtab.Intern(arrName)
		arr.Data.Super = object_
		arr.Data.ComponentType, _ = l.Lookup(desc)
		arr.Header.Klass = classClass
		arr.setState(object.Linked)
		l.register(arr)
	}
}
