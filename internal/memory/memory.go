/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package memory implements the reserve/commit/release contract spec.md
// §4.1 requires, plus the Space/SemiSpace/TLAB abstractions built on
// top of it. Regions are backed by real anonymous memory mappings via
// github.com/edsrzf/mmap-go so the page-aligned reserve/commit/release
// semantics are genuine rather than simulated with a Go slice.
package memory

import (
	"sync"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Address is a raw byte offset into a reserved region. The core never
// dereferences these directly outside the object package; memory only
// hands out and reclaims ranges.
type Address uintptr

const nullAddress Address = 0

// ReleaseCode is returned by Release so callers can distinguish "region
// not found" from a genuine unmap failure without needing error
// wrapping at every call site.
type ReleaseCode int

const (
	ReleaseOK ReleaseCode = iota
	ReleaseNotFound
	ReleaseFailed
)

var pageSize = unix.Getpagesize()

// PageSize returns the host page size. All reserve/commit/release sizes
// must be multiples of it.
func PageSize() int { return pageSize }

func alignUp(size, align int) int {
	if align <= 0 {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}

type mapping struct {
	data mmap.MMap
	addr Address
	size int
}

// Mapper owns the set of live OS mappings and exposes reserve/commit/
// release. It is the production backend for the managed-space regions
// below.
type Mapper struct {
	mu       sync.Mutex
	mappings map[Address]*mapping
}

// NewMapper constructs an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{mappings: make(map[Address]*mapping)}
}

// Reserve maps a page-aligned anonymous region of at least size bytes
// and returns its base address. The region is initially read/write,
// non-executable.
func (m *Mapper) Reserve(size int) (Address, []byte, error) {
	size = alignUp(size, pageSize)
	data, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nullAddress, nil, errors.Wrap(err, "memory: reserve failed")
	}
	addr := Address(addrOf(data))
	m.mu.Lock()
	m.mappings[addr] = &mapping{data: data, addr: addr, size: size}
	m.mu.Unlock()
	return addr, []byte(data), nil
}

// Commit toggles the executable bit on the page(s) covering [addr,
// addr+size). Non-exec commits are a no-op since Reserve already grants
// read/write; exec commits additionally mprotect the range PROT_EXEC.
func (m *Mapper) Commit(addr Address, size int, exec bool) bool {
	m.mu.Lock()
	mp, ok := m.mappings[addr]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if !exec {
		return true
	}
	prot := unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	if err := unix.Mprotect(mp.data, prot); err != nil {
		return false
	}
	return true
}

// Release unmaps the region starting at addr.
func (m *Mapper) Release(addr Address, size int) ReleaseCode {
	m.mu.Lock()
	mp, ok := m.mappings[addr]
	if ok {
		delete(m.mappings, addr)
	}
	m.mu.Unlock()
	if !ok {
		return ReleaseNotFound
	}
	if err := mp.data.Unmap(); err != nil {
		return ReleaseFailed
	}
	return ReleaseOK
}

// addrOf extracts the base address of a byte slice backed by an mmap
// region, used only to key the mappings table; the slice itself is
// what all other code actually reads and writes.
func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(sliceDataPointer(b))
}
