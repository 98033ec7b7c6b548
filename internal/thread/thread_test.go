/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/memory"
)

func newTestYoung(t *testing.T) *memory.SemiSpace {
	t.Helper()
	mp := memory.NewMapper()
	size := memory.PageSize() * 2
	addr, data, err := mp.Reserve(size)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if !mp.Commit(addr, size, false) {
		t.Fatalf("Commit failed")
	}
	return memory.NewSemiSpace(addr, data)
}

func TestNewAssignsDistinctIDs(t *testing.T) {
	young := newTestYoung(t)
	t1 := New(young, 4096)
	t2 := New(young, 4096)
	if t1.ID == t2.ID {
		t.Fatalf("expected distinct thread IDs, got %d twice", t1.ID)
	}
}

func TestManagerAttachDetach(t *testing.T) {
	young := newTestYoung(t)
	mgr := NewManager()
	th := New(young, 4096)
	mgr.Attach(th)
	if len(mgr.Threads()) != 1 {
		t.Fatalf("expected 1 attached thread")
	}
	mgr.Detach(th)
	if len(mgr.Threads()) != 0 {
		t.Fatalf("expected 0 attached threads after detach")
	}
}
