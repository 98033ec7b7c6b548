/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package memory

import "testing"

func TestSpaceAllocBumpsFreePointer(t *testing.T) {
	m := NewMapper()
	addr, bytes, err := m.Reserve(4096)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	defer m.Release(addr, 4096)

	s := NewSpace(addr, bytes)
	a1, b1 := s.Alloc(64)
	if a1 == nullAddress || len(b1) != 64 {
		t.Fatalf("first alloc failed: addr=%v len=%d", a1, len(b1))
	}
	a2, b2 := s.Alloc(32)
	if a2 != a1+64 {
		t.Fatalf("second alloc not contiguous: got %v want %v", a2, a1+64)
	}
	if len(b2) != 32 {
		t.Fatalf("second alloc wrong length: %d", len(b2))
	}
}

func TestSpaceAllocOverflowReturnsNil(t *testing.T) {
	m := NewMapper()
	addr, bytes, err := m.Reserve(4096)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	defer m.Release(addr, 4096)

	s := NewSpace(addr, bytes)
	_, got := s.Alloc(len(bytes) + 1)
	if got != nil {
		t.Fatalf("expected overflow to return nil, got %v", got)
	}
}

func TestTLABRefillsFromYoungSpace(t *testing.T) {
	m := NewMapper()
	addr, bytes, err := m.Reserve(1 << 16)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	defer m.Release(addr, 1<<16)

	young := NewSpace(addr, bytes)
	tlab := NewTLAB(young, 256)

	a1, b1 := tlab.Alloc(200)
	if a1 == nullAddress || len(b1) != 200 {
		t.Fatalf("tlab alloc failed")
	}
	// this allocation exceeds the remaining 56 bytes and must refill.
	a2, b2 := tlab.Alloc(100)
	if a2 == nullAddress || len(b2) != 100 {
		t.Fatalf("tlab refill alloc failed")
	}
	if young.Used() < 512 {
		t.Fatalf("expected young space to have served at least two refills, used=%d", young.Used())
	}
}

func TestSemiSpaceFlipSwapsAndResets(t *testing.T) {
	m := NewMapper()
	addr, bytes, err := m.Reserve(1 << 16)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	defer m.Release(addr, 1<<16)

	ss := NewSemiSpace(addr, bytes)
	ss.From.Alloc(128)
	oldFrom := ss.From
	ss.Flip()
	if ss.To != oldFrom {
		t.Fatalf("flip did not move old From into To")
	}
	if ss.To.Used() != 0 {
		t.Fatalf("flip did not reset new To, used=%d", ss.To.Used())
	}
}

func TestHeapRegionsAreIndependentlyAddressed(t *testing.T) {
	h, err := NewHeap(HeapConfig{
		YoungSize: 1 << 16,
		OldSize:   1 << 16,
		PermSize:  1 << 16,
		CodeSize:  1 << 16,
	})
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	defer h.Close()

	permAddr, permBytes := h.AllocPerm(64)
	codeAddr, codeBytes := h.AllocCode(64)
	if permAddr == codeAddr {
		t.Fatalf("perm and code allocations collided at same address")
	}
	if len(permBytes) != 64 || len(codeBytes) != 64 {
		t.Fatalf("unexpected allocation sizes")
	}
}
