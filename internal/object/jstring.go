/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "github.com/hanakeichen/rsvm-go/internal/strtab"

// JavaString is the reference-typed wrapper around an interned
// strtab.JString, letting a platform string flow through the same
// Slot.Ref/array-element/handle storage an ordinary instance or array
// would, per spec.md §4.3's description of JString as the value
// java.lang.String instances carry. A real field-by-field
// java.lang.String instance (with a char[]/byte[] value field an
// ordinary getfield could read) is left to internal/interp's string
// bootstrapping; this wrapper is what ldc and native string arguments
// use until then.
type JavaString struct {
	Header
	Str *strtab.JString
}

// RefClass implements Reference.
func (s *JavaString) RefClass() *Class { return s.Klass }

// NewJavaString wraps an interned string for klass (java/lang/String).
func NewJavaString(klass *Class, str *strtab.JString) *JavaString {
	js := &JavaString{Str: str}
	js.Klass = klass
	return js
}
