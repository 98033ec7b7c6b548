/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package memory

import (
	"sync"

	"github.com/pkg/errors"
)

// Heap owns the four top-level regions spec.md §4.1 names: young
// (semi-space, TLAB-backed), old (reserved for promotion), permanent,
// and code. Only young + permanent + code are required for the core to
// run; old exists so promotion has somewhere to go once a collector is
// added.
type Heap struct {
	mapper *Mapper

	Young *SemiSpace
	Old   *Space
	Perm  *Space
	Code  *Space

	permMu sync.Mutex
}

// HeapConfig sizes each region; all sizes are rounded up to a multiple
// of the page size by Reserve.
type HeapConfig struct {
	YoungSize int
	OldSize   int
	PermSize  int
	CodeSize  int
}

// NewHeap reserves all four regions up front. permanent-space mutations
// are always serialized through Perm's own mutex plus Heap.permMu,
// matching spec.md §5's "Permanent space: mutex-serialized bump
// allocation" policy.
func NewHeap(cfg HeapConfig) (*Heap, error) {
	m := NewMapper()
	h := &Heap{mapper: m}

	youngAddr, youngBytes, err := m.Reserve(cfg.YoungSize)
	if err != nil {
		return nil, errors.Wrap(err, "heap: reserve young")
	}
	if ok := m.Commit(youngAddr, cfg.YoungSize, false); !ok {
		return nil, errors.New("heap: commit young failed")
	}
	h.Young = NewSemiSpace(youngAddr, youngBytes)

	oldAddr, oldBytes, err := m.Reserve(cfg.OldSize)
	if err != nil {
		return nil, errors.Wrap(err, "heap: reserve old")
	}
	m.Commit(oldAddr, cfg.OldSize, false)
	h.Old = NewSpace(oldAddr, oldBytes)

	permAddr, permBytes, err := m.Reserve(cfg.PermSize)
	if err != nil {
		return nil, errors.Wrap(err, "heap: reserve perm")
	}
	m.Commit(permAddr, cfg.PermSize, false)
	h.Perm = NewSpace(permAddr, permBytes)

	codeAddr, codeBytes, err := m.Reserve(cfg.CodeSize)
	if err != nil {
		return nil, errors.Wrap(err, "heap: reserve code")
	}
	m.Commit(codeAddr, cfg.CodeSize, true)
	h.Code = NewSpace(codeAddr, codeBytes)

	return h, nil
}

// AllocPerm bump-allocates size bytes from the permanent region. Every
// class object, method, constant pool, and symbol lives here and is
// never moved or reclaimed, per spec.md §3's Lifecycles.
func (h *Heap) AllocPerm(size int) (Address, []byte) {
	h.permMu.Lock()
	defer h.permMu.Unlock()
	return h.Perm.Alloc(size)
}

// AllocCode bump-allocates size bytes from the executable code region,
// for JIT-adjacent trampoline stubs. The core itself does not generate
// code, and nothing outside this package's tests calls AllocCode.
func (h *Heap) AllocCode(size int) (Address, []byte) {
	return h.Code.Alloc(size)
}

// Close releases every region. Called only at VM.Destroy.
func (h *Heap) Close() {
	h.mapper.Release(h.Young.From.Base(), h.Young.From.Capacity())
	h.mapper.Release(h.Young.To.Base(), h.Young.To.Capacity())
	h.mapper.Release(h.Old.Base(), h.Old.Capacity())
	h.mapper.Release(h.Perm.Base(), h.Perm.Capacity())
	h.mapper.Release(h.Code.Base(), h.Code.Capacity())
}
