/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package native implements spec.md §4.8's native binding and
// trampoline layer: a symbol-name construction rule, a two-tier
// lookup (built-ins first, then a dynamically registered library),
// and the built-in method table itself. It follows the shape
// artipop-jacobin/src/gfunction lays out (MethodSignatures, a map
// keyed by the method's full signature, populated by a family of
// load* functions grouped by owning Java package). Both tiers are keyed
// by class + "." + name + descriptor; the Java_<class>_<method> symbol
// that Symbol builds is not used by Resolve or RegisterDynamic.
//
// The host C calling convention spec.md §4.8 describes (a JNI-style
// environment pointer, receiver/class second, stack-slot-pair
// marshalling for long/double) does not need a literal trampoline in
// Go: object.NativeFunc is already a Go function value carrying its
// own calling convention, and Env below is the environment pointer.
// Symbol is kept as the Java_ name construction rule; nothing in this
// package looks a native up by it.
package native

import "strings"

// Symbol builds the Java_<class>_<method> name spec.md §4.8 specifies,
// translating slashes in the binary class name to underscores.
func Symbol(class, method string) string {
	return "Java_" + strings.ReplaceAll(class, "/", "_") + "_" + method
}
