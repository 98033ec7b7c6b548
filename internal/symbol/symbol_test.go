/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package symbol

import "testing"

func TestInternIdentityImpliesContentEquality(t *testing.T) {
	tbl := NewTable()
	cases := [][2]string{
		{"java/lang/Object", "java/lang/Object"},
		{"(I)V", "(I)V"},
	}
	for _, c := range cases {
		a := tbl.Intern(c[0])
		b := tbl.Intern(c[1])
		if a != b {
			t.Fatalf("equal content %q/%q interned to different symbols", c[0], c[1])
		}
	}
}

func TestInternDistinctContentDistinctSymbols(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("foo")
	b := tbl.Intern("bar")
	if a == b {
		t.Fatalf("distinct content interned to the same symbol")
	}
}

func TestLookupMissWithoutInterning(t *testing.T) {
	tbl := NewTable()
	if tbl.Lookup("never-interned") != nil {
		t.Fatalf("expected nil for a symbol never interned")
	}
	if tbl.Len() != 0 {
		t.Fatalf("Lookup must not intern, got len=%d", tbl.Len())
	}
}
