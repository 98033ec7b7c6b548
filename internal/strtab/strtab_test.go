/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package strtab

import (
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/symbol"
)

func TestInternReturnsEqualContent(t *testing.T) {
	tbl := NewTable()
	s := tbl.Intern("Hello")
	if s.Utf8() != "Hello" {
		t.Fatalf("interned content mismatch: got %q", s.Utf8())
	}
}

func TestInternIsCanonicalByContent(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("duplicate")
	b := tbl.Intern("duplicate")
	if a != b {
		t.Fatalf("expected same JString instance for equal content")
	}
}

func TestFromSymbolHashMatchesSymbolHash(t *testing.T) {
	symTbl := symbol.NewTable()
	strTbl := NewTable()

	for _, name := range []string{"java/lang/String", "main", "fib"} {
		sym := symTbl.Intern(name)
		js := strTbl.FromSymbol(sym)
		if js.Hash != sym.Hash {
			t.Fatalf("hash mismatch for %q: symbol=%d string=%d", name, sym.Hash, js.Hash)
		}
		if js.Utf8() != name {
			t.Fatalf("content mismatch for %q: got %q", name, js.Utf8())
		}
	}
}

func TestInternExistingCanonicalizes(t *testing.T) {
	tbl := NewTable()
	first := tbl.Intern("shared")
	second := &JString{Units: append([]uint16(nil), first.Units...), Hash: first.Hash}
	canon := tbl.InternExisting(second)
	if canon != first {
		t.Fatalf("expected InternExisting to return the already-canonical instance")
	}
}
