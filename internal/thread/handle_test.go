/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/object"
)

func TestHandleRoundTrips(t *testing.T) {
	d := NewHandleData()
	obj := object.NewObject(nil, nil, 16)
	h := d.NewHandle(obj)
	if h.Get() != obj {
		t.Fatalf("handle did not round-trip the object")
	}
}

func TestHandleAreaGrowsAcrossChunks(t *testing.T) {
	d := NewHandleData()
	var last Handle
	for i := 0; i < chunkSize+5; i++ {
		last = d.NewHandle(object.NewObject(nil, nil, 8))
	}
	if len(d.chunks) != 2 {
		t.Fatalf("expected 2 chunks after %d allocations, got %d", chunkSize+5, len(d.chunks))
	}
	if last.Get() == nil {
		t.Fatalf("last handle should be valid")
	}
}

func TestHandleScopeDiscardsHandlesOnClose(t *testing.T) {
	th := &Thread{Handles: NewHandleData()}
	outer := th.Handles.NewHandle(object.NewObject(nil, nil, 8))

	scope := NewScope(th)
	for i := 0; i < 10; i++ {
		scope.New(object.NewObject(nil, nil, 8))
	}
	if len(th.Handles.chunks) == 0 || th.Handles.offset == 0 {
		t.Fatalf("expected scope allocations to extend the area")
	}
	scope.Close()

	if th.Handles.mark() != (mark{chunks: 1, offset: 1}) {
		t.Fatalf("expected area restored to pre-scope position, got %+v", th.Handles.mark())
	}
	if outer.Get() == nil {
		t.Fatalf("handle allocated before the scope must survive Close")
	}
}
