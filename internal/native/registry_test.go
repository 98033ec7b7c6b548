/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/object"
)

func TestResolveFindsBuiltinAndMissesUnregistered(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("java/lang/Object", "hashCode", "()I"); !ok {
		t.Fatalf("expected java/lang/Object.hashCode to be a registered builtin")
	}
	if _, ok := r.Resolve("no/such/Class", "missing", "()V"); ok {
		t.Fatalf("expected unregistered signature to miss")
	}
}

func TestRegisterDynamicDoesNotShadowBuiltin(t *testing.T) {
	r := NewRegistry()
	called := false
	r.RegisterDynamic("java/lang/Object", "hashCode", "()I", func(env interface{}, args []object.Slot) (object.Slot, error) {
		called = true
		return object.Slot{}, nil
	})
	fn, ok := r.Resolve("java/lang/Object", "hashCode", "()I")
	if !ok {
		t.Fatalf("expected a resolved function")
	}
	fn(nil, nil)
	if called {
		t.Fatalf("builtin should take priority over a dynamically registered implementation")
	}
}

func TestRegisterDynamicFillsAnUnregisteredSignature(t *testing.T) {
	r := NewRegistry()
	r.RegisterDynamic("com/example/Lib", "doThing", "()V", justReturn)
	if _, ok := r.Resolve("com/example/Lib", "doThing", "()V"); !ok {
		t.Fatalf("expected dynamically registered signature to resolve")
	}
}
