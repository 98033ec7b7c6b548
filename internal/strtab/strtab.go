/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package strtab interns the platform string type (JString) by UTF-16
// content, per spec.md §4.3. UTF-8⇄UTF-16 conversion uses the standard
// library's unicode/utf16 rather than hand-rolling surrogate-pair
// handling.
package strtab

import (
	"unicode/utf16"

	"github.com/hanakeichen/rsvm-go/internal/hashtable"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
)

// JString is the platform string representation: UTF-16 code units
// plus a cached hash, mirroring java.lang.String's char[]-backed value
// field from spec.md §3.
type JString struct {
	Units []uint16
	Hash  int32
}

// Utf8 renders the string's UTF-16 content as a UTF-8 Go string.
func (s *JString) Utf8() string {
	return string(utf16.Decode(s.Units))
}

// HashUTF16 computes the same FNV-like hash symbol.Hash uses, but
// walking UTF-16 units directly instead of decoded runes: for each unit
// h = (h XOR unit) * 0x01000193. For any BMP-only content (one code
// point per UTF-16 unit, no surrogate pairs) this produces the same
// value as symbol.Hash over the equivalent UTF-8 bytes, so that
// hash_utf16(symbol.to_utf16()) == symbol.hash holds per spec.md §4.3's
// symbol-to-string correspondence.
func HashUTF16(units []uint16) int32 {
	var h uint32 = 0
	for _, u := range units {
		h ^= uint32(u)
		h *= 0x01000193
	}
	return int32(h)
}

// unitsFromUTF8 constructs the UTF-16 unit sequence for a UTF-8 string
// using utf16.Encode; it does no hashing (see HashUTF16).
func unitsFromUTF8(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

type ops struct{}

func (ops) HashKey(key []uint16) int32 { return HashUTF16(key) }

func (ops) EntryEqualsKey(e hashtable.Entry, key []uint16) bool {
	js := e.(*JString)
	if len(js.Units) != len(key) {
		return false
	}
	for i := range key {
		if js.Units[i] != key[i] {
			return false
		}
	}
	return true
}

func (ops) NewEntryWithKey(key []uint16, hash int32) hashtable.Entry {
	units := make([]uint16, len(key))
	copy(units, key)
	return &JString{Units: units, Hash: hash}
}

// Table is the process-wide string intern pool.
type Table struct {
	tbl *hashtable.Table[[]uint16]
}

// NewTable constructs an empty string table.
func NewTable() *Table {
	return &Table{tbl: hashtable.New[[]uint16](ops{}, 1024)}
}

// Intern returns the canonical JString for the given UTF-8 content,
// creating a permanent one on first use.
func (t *Table) Intern(content string) *JString {
	return t.tbl.GetOrInsert(unitsFromUTF8(content)).(*JString)
}

// InternExisting canonicalizes an already-built JString by content,
// returning the table's existing instance if one matches, or otherwise
// registering a new JString holding a copy of js's units. js itself is
// never registered, so the result is not js unless js came from this
// table.
func (t *Table) InternExisting(js *JString) *JString {
	return t.tbl.GetOrInsert(js.Units).(*JString)
}

// FromSymbol materializes a permanent JString for a Symbol's content,
// whose hash equals the symbol's hash for BMP-only content (both are
// the same FNV-like walk, symbol.Hash over code points and HashUTF16
// over UTF-16 units — see HashUTF16). It does not
// check the table for an existing equal-content entry first, matching
// spec.md §4.3's description of from_symbol as a materializing
// operation distinct from intern.
func (t *Table) FromSymbol(sym *symbol.Symbol) *JString {
	units := unitsFromUTF8(sym.String())
	return &JString{Units: units, Hash: HashUTF16(units)}
}

// Len reports how many distinct strings are interned.
func (t *Table) Len() int { return t.tbl.Len() }
