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

func TestSystemArraycopyCopiesPrimitiveElements(t *testing.T) {
	cls := &object.Class{Data: &object.ClassData{}}
	src := object.NewPrimitiveArray(nil, cls, 4, 4)
	dst := object.NewPrimitiveArray(nil, cls, 4, 4)
	src.Bytes[0], src.Bytes[1], src.Bytes[2], src.Bytes[3] = 1, 2, 3, 4

	_, err := systemArraycopy(nil, []object.Slot{
		{Ref: src}, {Raw: 0}, {Ref: dst}, {Raw: 0}, {Raw: 1},
	})
	if err != nil {
		t.Fatalf("systemArraycopy failed: %v", err)
	}
	if dst.Bytes[0] != 1 || dst.Bytes[1] != 2 || dst.Bytes[2] != 3 || dst.Bytes[3] != 4 {
		t.Fatalf("expected the first element's 4 bytes to be copied, got %v", dst.Bytes[:4])
	}
}

func TestSystemArraycopyRejectsOutOfBounds(t *testing.T) {
	cls := &object.Class{Data: &object.ClassData{}}
	src := object.NewPrimitiveArray(nil, cls, 2, 4)
	dst := object.NewPrimitiveArray(nil, cls, 2, 4)
	_, err := systemArraycopy(nil, []object.Slot{
		{Ref: src}, {Raw: 0}, {Ref: dst}, {Raw: 0}, {Raw: 5},
	})
	if err == nil {
		t.Fatalf("expected an out-of-bounds error")
	}
}

func TestSystemArraycopyRejectsMismatchedArrayKinds(t *testing.T) {
	primCls := &object.Class{Data: &object.ClassData{}}
	refCls := &object.Class{Data: &object.ClassData{}}
	src := object.NewPrimitiveArray(nil, primCls, 2, 4)
	dst := object.NewReferenceArray(nil, refCls, 2)
	_, err := systemArraycopy(nil, []object.Slot{
		{Ref: src}, {Raw: 0}, {Ref: dst}, {Raw: 0}, {Raw: 1},
	})
	if err == nil {
		t.Fatalf("expected a kind-mismatch error")
	}
}

func TestSystemIdentityHashCodeOnNullReturnsZero(t *testing.T) {
	ret, err := systemIdentityHashCode(nil, []object.Slot{{}})
	if err != nil {
		t.Fatalf("systemIdentityHashCode failed: %v", err)
	}
	if ret.Raw != 0 {
		t.Fatalf("expected 0 for a null reference, got %d", ret.Raw)
	}
}
