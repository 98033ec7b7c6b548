/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package symbol interns UTF-8 byte sequences as Symbols with O(1)
// identity equality, per spec.md §4.3. Symbols back every class,
// method, and field name referenced from a constant pool, matching
// the role artipop-jacobin's jacobin/stringPool plays for class names
// (stringPool.GetStringPointer, referenced throughout
// classloader/classloader.go).
package symbol

import (
	"github.com/hanakeichen/rsvm-go/internal/hashtable"
)

// Symbol is an interned, immutable byte sequence with a precomputed
// hash. Two Symbol pointers are equal iff their contents are equal.
type Symbol struct {
	Bytes []byte
	Hash  int32
}

// String returns the symbol's content as a Go string (a copy).
func (s *Symbol) String() string { return string(s.Bytes) }

// Hash computes the FNV-like hash spec.md §4.3 specifies: start at 0,
// for each code point h = (h XOR cp) * 0x01000193. Iterating by code
// point (rather than by byte) is what lets strtab.HashUTF16 agree with
// this hash for any BMP-only content, satisfying the symbol-to-string
// correspondence spec.md §4.3 requires.
func Hash(b []byte) int32 {
	var h uint32 = 0
	for _, cp := range string(b) {
		h ^= uint32(cp)
		h *= 0x01000193
	}
	return int32(h)
}

type ops struct{}

func (ops) HashKey(key string) int32 {
	return Hash([]byte(key))
}

func (ops) EntryEqualsKey(e hashtable.Entry, key string) bool {
	return e.(*Symbol).String() == key
}

func (ops) NewEntryWithKey(key string, hash int32) hashtable.Entry {
	b := make([]byte, len(key))
	copy(b, key)
	return &Symbol{Bytes: b, Hash: hash}
}

// Table is the process-wide symbol table. Symbols live for the VM's
// lifetime, so the table never evicts.
type Table struct {
	tbl *hashtable.Table[string]
}

// NewTable constructs an empty symbol table.
func NewTable() *Table {
	return &Table{tbl: hashtable.New[string](ops{}, 4096)}
}

// Intern returns the canonical Symbol for s, creating one on first use.
// This is the table's only mutator, per spec.md §4.3.
func (t *Table) Intern(s string) *Symbol {
	return t.tbl.GetOrInsert(s).(*Symbol)
}

// InternBytes is Intern for already-decoded UTF-8 bytes (e.g. the
// class-file parser reading a Utf8 constant-pool entry); it converts b
// to a string, which copies it.
func (t *Table) InternBytes(b []byte) *Symbol {
	return t.Intern(string(b))
}

// Lookup returns the existing Symbol for s without interning, or nil.
func (t *Table) Lookup(s string) *Symbol {
	if e, ok := t.tbl.Get(s); ok {
		return e.(*Symbol)
	}
	return nil
}

// Len reports how many distinct symbols are interned.
func (t *Table) Len() int { return t.tbl.Len() }
