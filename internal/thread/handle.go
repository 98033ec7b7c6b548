/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import "github.com/hanakeichen/rsvm-go/internal/object"

// chunkSize mirrors original_source/src/handle.rs's HANDLES_SIZE of
// 128 slots per chunk.
const chunkSize = 128

// HandleData is the chunked handle area a thread owns, per spec.md
// §4.9: a singly-linked (here, slice-of-slices) sequence of fixed-size
// slot chunks. A handle is the address of one slot; native code reads
// and writes through it rather than copying the object.Reference out,
// so a future moving collector could repoint the slot without
// invalidating callers (the current allocator never moves objects
// once committed, but the indirection costs nothing and keeps the
// door open). Slots hold object.Reference rather than *object.Object
// so a handle can address either a plain instance or an array.
type HandleData struct {
	chunks [][]object.Reference
	offset int // next free index within the last chunk
}

// NewHandleData constructs an empty handle area.
func NewHandleData() *HandleData {
	return &HandleData{}
}

// Handle is the address of one slot in a handle area.
type Handle struct {
	slot *object.Reference
}

// Get dereferences the handle.
func (h Handle) Get() object.Reference {
	if h.slot == nil {
		return nil
	}
	return *h.slot
}

// Set installs a new value through the handle.
func (h Handle) Set(v object.Reference) {
	*h.slot = v
}

// IsNull reports whether this is the null handle.
func (h Handle) IsNull() bool { return h.slot == nil }

// NewHandle allocates a slot in the area's current (top) chunk,
// growing the area with a fresh chunk when the current one is full.
func (d *HandleData) NewHandle(obj object.Reference) Handle {
	if len(d.chunks) == 0 || d.offset == chunkSize {
		d.chunks = append(d.chunks, make([]object.Reference, chunkSize))
		d.offset = 0
	}
	slot := &d.chunks[len(d.chunks)-1][d.offset]
	*slot = obj
	d.offset++
	return Handle{slot: slot}
}

// mark is a resumable position in the handle area: the chunk count and
// offset within the last chunk at some point in time.
type mark struct {
	chunks int
	offset int
}

func (d *HandleData) mark() mark {
	return mark{chunks: len(d.chunks), offset: d.offset}
}

func (d *HandleData) restore(m mark) {
	if len(d.chunks) > m.chunks {
		d.chunks = d.chunks[:m.chunks]
	}
	d.offset = m.offset
}

// HandleScope records the handle area's position at entry and, on
// Close, restores it — discarding every handle allocated within the
// scope, per spec.md §4.9.
type HandleScope struct {
	data *HandleData
	prev mark
}

// NewScope opens a handle scope over the thread's handle area.
func NewScope(t *Thread) *HandleScope {
	return &HandleScope{data: t.Handles, prev: t.Handles.mark()}
}

// New allocates a handle within this scope.
func (s *HandleScope) New(obj object.Reference) Handle {
	return s.data.NewHandle(obj)
}

// Close discards every handle allocated since the scope was opened.
func (s *HandleScope) Close() {
	s.data.restore(s.prev)
}
