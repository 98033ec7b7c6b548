/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread models the per-thread interpreter state spec.md §4.9
// describes: an operand/locals stack region, a TLAB, and a handle
// area. Per spec.md §9's design note ("pass a VM handle to every
// subsystem rather than relying on a hidden global"), a *Thread is
// threaded explicitly through every call — the interpreter loop, the
// classloader's initialization state machine, and every native
// trampoline all receive it as an argument, which is what the JNI-style
// "environment pointer" of spec.md §4.8 becomes in this port. Go has no
// public thread-local-storage primitive, so there is no separate
// current()-via-TLS path to implement; Manager exists only so the VM
// facade can enumerate live threads (e.g. at shutdown).
package thread

import (
	"sync"
	"sync/atomic"

	"github.com/hanakeichen/rsvm-go/internal/memory"
)

var nextID uint64

// Thread is one VM-attached thread's interpreter state.
type Thread struct {
	ID uintptr

	TLAB    *memory.TLAB
	Handles *HandleData

	// Pending carries a thrown-but-not-yet-caught exception object
	// between the interpreter's unwinding loop and its caller; nil when
	// no exception is in flight.
	Pending interface{}
}

// New allocates a thread with its own TLAB carved from young, and an
// empty handle area.
func New(young *memory.SemiSpace, tlabSize uint64) *Thread {
	id := atomic.AddUint64(&nextID, 1)
	return &Thread{
		ID:      uintptr(id),
		TLAB:    memory.NewTLAB(young.From, int(tlabSize)),
		Handles: NewHandleData(),
	}
}

// Manager tracks every thread attached to the VM, for enumeration at
// shutdown; it does not provide a current()-via-TLS lookup (see the
// package doc).
type Manager struct {
	mu      sync.Mutex
	threads []*Thread
}

// NewManager constructs an empty thread manager.
func NewManager() *Manager {
	return &Manager{}
}

// Attach registers a newly created thread with the manager.
func (m *Manager) Attach(t *Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = append(m.threads, t)
}

// Detach removes a thread from the manager, e.g. when it exits.
func (m *Manager) Detach(t *Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, th := range m.threads {
		if th == t {
			m.threads = append(m.threads[:i], m.threads[i+1:]...)
			return
		}
	}
}

// Threads returns a snapshot of currently attached threads.
func (m *Manager) Threads() []*Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Thread, len(m.threads))
	copy(out, m.threads)
	return out
}
