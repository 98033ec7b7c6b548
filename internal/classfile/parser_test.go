/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/symbol"
)

// classBuilder assembles class-file bytes by hand, the way
// formatCheck_test.go exercises the teacher's parser against
// hand-built constant pools rather than real javac output.
type classBuilder struct {
	buf bytes.Buffer
}

func (b *classBuilder) u8(v byte)    { b.buf.WriteByte(v) }
func (b *classBuilder) u16(v uint16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *classBuilder) u32(v uint32) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *classBuilder) utf8(s string) {
	b.u8(1)
	b.u16(uint16(len(s)))
	b.buf.WriteString(s)
}
func (b *classBuilder) classRef(nameIdx uint16) {
	b.u8(7)
	b.u16(nameIdx)
}
func (b *classBuilder) bytes() []byte { return b.buf.Bytes() }

// buildMinimalClass assembles a class file for:
//
//	public class Main extends java/lang/Object {
//	    public Main() { return; }
//	}
func buildMinimalClass() []byte {
	var b classBuilder
	b.u32(magic)
	b.u16(0)      // minor
	b.u16(52)     // major
	b.u16(8)      // constant_pool_count (7 entries + unused slot 0)
	b.utf8("Main")               // #1
	b.classRef(1)                // #2 Main
	b.utf8("java/lang/Object")   // #3
	b.classRef(3)                // #4 java/lang/Object
	b.utf8("<init>")             // #5
	b.utf8("()V")                // #6
	b.utf8("Code")               // #7
	b.u16(0x0021)                // access_flags: public, super
	b.u16(2)                     // this_class
	b.u16(4)                     // super_class
	b.u16(0)                     // interfaces_count
	b.u16(0)                     // fields_count
	b.u16(1)                     // methods_count
	b.u16(0x0001)                // method access_flags: public
	b.u16(5)                     // name_index <init>
	b.u16(6)                     // descriptor_index ()V
	b.u16(1)                     // method attributes_count
	b.u16(7)                     // Code attribute name_index
	b.u32(13)                    // attribute_length
	b.u16(1)                     // max_stack
	b.u16(1)                     // max_locals
	b.u32(1)                     // code_length
	b.u8(0xb1)                   // return
	b.u16(0)                     // exception_table_length
	b.u16(0)                     // Code attributes_count
	b.u16(0)                     // class attributes_count
	return b.bytes()
}

func TestParseMinimalClass(t *testing.T) {
	symtab := symbol.NewTable()
	cls, err := Parse(buildMinimalClass(), symtab, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cls.Name() != "Main" {
		t.Fatalf("got name %q, want Main", cls.Name())
	}
	if cls.Data.SuperName.String() != "java/lang/Object" {
		t.Fatalf("got super %q, want java/lang/Object", cls.Data.SuperName.String())
	}
	if len(cls.Data.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(cls.Data.Methods))
	}
	m := cls.Data.Methods[0]
	if m.Name.String() != "<init>" || m.ReturnDesc != "V" {
		t.Fatalf("unexpected method %+v", m)
	}
	if len(m.Code) != 1 || m.Code[0] != 0xb1 {
		t.Fatalf("unexpected code bytes %v", m.Code)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	bad := append([]byte(nil), buildMinimalClass()...)
	bad[0] = 0x00
	if _, err := Parse(bad, symbol.NewTable(), nil); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	bad := append([]byte(nil), buildMinimalClass()...)
	binary.BigEndian.PutUint16(bad[6:8], 10) // major version 10, below minMajor
	if _, err := Parse(bad, symbol.NewTable(), nil); err == nil {
		t.Fatalf("expected error for unsupported major version")
	}
}

func TestParseRejectsTruncatedStream(t *testing.T) {
	full := buildMinimalClass()
	truncated := full[:len(full)-10]
	if _, err := Parse(truncated, symbol.NewTable(), nil); err == nil {
		t.Fatalf("expected error for truncated class file")
	}
}

func TestParseInternsSymbolsAcrossClasses(t *testing.T) {
	symtab := symbol.NewTable()
	cls1, err := Parse(buildMinimalClass(), symtab, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cls2, err := Parse(buildMinimalClass(), symtab, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cls1.Data.SuperName != cls2.Data.SuperName {
		t.Fatalf("expected shared symbol table to intern identical super names identically")
	}
}
