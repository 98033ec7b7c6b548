/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile decodes the binary class-file format (major
// versions 45-57) into object.Class values, per spec.md §4.4. It
// follows artipop-jacobin/src/classloader/classloader.go's two-pass
// shape (parse, then format-check) but folds structural checks into
// the parse itself where the teacher's formatCheck_test.go shows they
// belong (bad magic, bad version, truncated streams, malformed
// descriptors, bad constant-pool indices all abort the same way).
package classfile

import (
	"encoding/binary"

	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// Reader exposes the byte-stream primitives spec.md §4.4 requires of
// a class reader: read_u8/u16/u32, peek_n, skip, available.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps a raw class-file byte slice.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Available returns the number of unread bytes.
func (r *Reader) Available() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Available() < n {
		return vmerr.New(vmerr.ClassFileInvalid, "truncated class file")
	}
	return nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64, used for Long/Double constants
// which occupy two constant-pool slots but one 8-byte payload.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// PeekN returns the next n bytes without advancing the position.
func (r *Reader) PeekN(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	return r.buf[r.pos : r.pos+n], nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int { return r.pos }
