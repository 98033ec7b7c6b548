/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/classloader"
	"github.com/hanakeichen/rsvm-go/internal/native"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/strtab"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
	"github.com/hanakeichen/rsvm-go/internal/thread"
)

// cbuf is a tiny big-endian class-file byte builder, mirroring
// classloader_test.go's helper of the same name and shape (kept
// package-local rather than exported, since both packages only need it
// for test fixtures).
type cbuf struct{ b bytes.Buffer }

func (c *cbuf) u8(v byte)    { c.b.WriteByte(v) }
func (c *cbuf) u16(v uint16) { binary.Write(&c.b, binary.BigEndian, v) }
func (c *cbuf) u32(v uint32) { binary.Write(&c.b, binary.BigEndian, v) }
func (c *cbuf) utf8(s string) {
	c.u8(1)
	c.u16(uint16(len(s)))
	c.b.WriteString(s)
}
func (c *cbuf) classRef(nameIdx uint16) {
	c.u8(7)
	c.u16(nameIdx)
}

// runMethod builds a Frame for a method with the given bytecode and
// runs it to completion, the same minimal fixture shape
// classloader_test.go's buildClass uses for the parser, but skipping
// the class-file encoding step since none of these cases touch the
// constant pool.
func runMethod(t *testing.T, code []byte, maxStack, maxLocals int, locals []object.Slot) (object.Slot, error) {
	t.Helper()
	ip := &Interpreter{}
	m := &object.Method{
		Code:      code,
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
		ReturnDesc: "I",
	}
	f := NewFrame(nil, m, nil)
	copy(f.Locals, locals)
	return ip.Execute(&thread.Thread{ID: 1}, f)
}

func TestExecuteArithmetic(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want int32
	}{
		{
			name: "iadd",
			// bipush 20; bipush 22; iadd; ireturn
			code: []byte{opBipush, 20, opBipush, 22, opIadd, opIreturn},
			want: 42,
		},
		{
			name: "isub_imul",
			// bipush 10; bipush 3; isub; bipush 6; imul; ireturn -> (10-3)*6=42
			code: []byte{opBipush, 10, opBipush, 3, opIsub, opBipush, 6, opImul, opIreturn},
			want: 42,
		},
		{
			name: "ineg",
			code: []byte{opBipush, 42, opIneg, opIreturn},
			want: -42,
		},
		{
			name: "irem",
			// bipush 17; bipush 5; irem; bipush 8; iadd; ireturn -> (17%5)+8 = 10
			code: []byte{opBipush, 17, opBipush, 5, opIrem, opBipush, 8, opIadd, opIreturn},
			want: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret, err := runMethod(t, tt.code, 4, 0, nil)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if got := int32(uint32(ret.Raw)); got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

// TestExecuteLoopSumsViaBranch sums 1..10 with a local counter and an
// accumulator, exercising iload/istore, iinc, and if_icmple's backward
// branch target arithmetic.
func TestExecuteLoopSumsViaBranch(t *testing.T) {
	// locals: 0=i, 1=sum
	// 0: iconst_0        -> sum=0 init value pushed
	// 1: istore_1
	// 2: iconst_1        -> i=1
	// 3: istore_0
	// loop (pc=4):
	// 4: iload_1
	// 5: iload_0
	// 6: iadd
	// 7: istore_1
	// 8: iinc 0, 1
	// 11: iload_0
	// 12: bipush 10
	// 14: if_icmple -> loop (pc=4)
	// 17: iload_1
	// 18: ireturn
	code := []byte{
		opIconst0, opIstore1,
		opIconst1, opIstore0,
		// loop:
		opIload1, opIload0, opIadd, opIstore1,
		opIinc, 0, 1,
		opIload0, opBipush, 10, opIfIcmple, 0, 0, // branch operand bytes at indices 15,16; filled below
		opIload1, opIreturn,
	}
	// if_icmple's branch offset is a signed 16-bit value added to the
	// opcode's own pc (14), targeting pc=4: offset = 4-14 = -10. The
	// opcode is at index 14, so its two operand bytes are 15 and 16.
	off := int16(4 - 14)
	code[15] = byte(off >> 8)
	code[16] = byte(off)

	ret, err := runMethod(t, code, 4, 2, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := int32(uint32(ret.Raw)); got != 55 {
		t.Fatalf("got %d, want 55", got)
	}
}

// TestExecuteArrayStoreLoadRoundTrips exercises newarray, iastore, and
// iaload against a primitive int array.
func TestExecuteArrayStoreLoadRoundTrips(t *testing.T) {
	symtab := symbol.NewTable()
	entries, err := classloader.NewClasspath(nil)
	if err != nil {
		t.Fatalf("NewClasspath failed: %v", err)
	}
	loader := classloader.NewLoader(entries, symtab, nil)
	loader.InstallPreloaded()
	natives := native.NewRegistry()
	ip := New(loader, natives, strtab.NewTable())
	ip.Wire()

	// bipush 5; newarray int; dup; bipush 3; bipush 99; iastore
	// dup; bipush 3; iaload; ireturn
	code := []byte{
		opBipush, 5, opNewarray, atInt,
		opDup, opBipush, 3, opBipush, 99, opIastore,
		opDup, opBipush, 3, opIaload, opIreturn,
	}
	m := &object.Method{Code: code, MaxStack: 5, MaxLocals: 0, ReturnDesc: "I"}
	f := NewFrame(nil, m, nil)
	ret, err := ip.Execute(&thread.Thread{ID: 1}, f)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := int32(uint32(ret.Raw)); got != 99 {
		t.Fatalf("got %d, want 99", got)
	}
}

// TestExecuteCatchesThrownException exercises athrow and the
// exception-table unwind-and-retry path: the NPE fault path loads
// java/lang/NullPointerException off a temp classpath the way a real
// boot classpath would supply it, then a catch-all handler
// (CatchType 0) swallows it.
func TestExecuteCatchesThrownException(t *testing.T) {
	// 0: aconst_null
	// 1: athrow        -> NPE, caught by handler at pc=2
	// handler (pc=2): pop (discard exception ref); bipush 7; ireturn
	ip := newTestInterpreterWithNPE(t)

	code := []byte{
		opAconstNull, opAthrow,
		opPop, opBipush, 7, opIreturn,
	}
	m := &object.Method{
		Code:      code,
		MaxStack:  2,
		MaxLocals: 0,
		ReturnDesc: "I",
		ExceptionTable: []object.ExceptionTableEntry{
			{StartPC: 0, EndPC: 2, HandlerPC: 2, CatchType: 0},
		},
	}
	f := NewFrame(nil, m, nil)
	ret, err := ip.Execute(&thread.Thread{ID: 1}, f)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := int32(uint32(ret.Raw)); got != 7 {
		t.Fatalf("got %d, want 7 (handler did not run)", got)
	}
}

// TestExecuteReturnsThrownErrorWhenUncaught verifies that an exception
// with no matching handler propagates out of Execute as a *ThrownError
// rather than a generic error, so a caller up the Go call stack can
// decide whether its own frame catches it.
func TestExecuteReturnsThrownErrorWhenUncaught(t *testing.T) {
	ip := newTestInterpreterWithNPE(t)
	code := []byte{opAconstNull, opAthrow}
	m := &object.Method{Code: code, MaxStack: 2, MaxLocals: 0, ReturnDesc: "V"}
	f := NewFrame(nil, m, nil)
	_, err := ip.Execute(&thread.Thread{ID: 1}, f)
	if err == nil {
		t.Fatalf("expected an error")
	}
	te, ok := err.(*ThrownError)
	if !ok {
		t.Fatalf("expected *ThrownError, got %T", err)
	}
	if te.Obj == nil {
		t.Fatalf("expected a synthesized NullPointerException object")
	}
}

// npeClassBytes assembles a minimal "class java/lang/NullPointerException
// extends java/lang/Object" class file, the same shape
// classloader_test.go's buildClass uses, so ip.fault's NPE path can
// load it off a real temp classpath instead of needing a live JDK.
func npeClassBytes() []byte {
	var c cbuf
	c.u32(0xCAFEBABE)
	c.u16(0)
	c.u16(52)
	c.u16(8)
	c.utf8("java/lang/NullPointerException")
	c.classRef(1)
	c.utf8("java/lang/Object")
	c.classRef(3)
	c.utf8("<init>")
	c.utf8("()V")
	c.utf8("Code")
	c.u16(0x0021)
	c.u16(2)
	c.u16(4)
	c.u16(0)
	c.u16(0)
	c.u16(1)
	c.u16(0x0001)
	c.u16(5)
	c.u16(6)
	c.u16(1)
	c.u16(7)
	c.u32(13)
	c.u16(1)
	c.u16(1)
	c.u32(1)
	c.u8(0xb1)
	c.u16(0)
	c.u16(0)
	c.u16(0)
	return c.b.Bytes()
}

// newTestInterpreterWithNPE builds an Interpreter whose classloader can
// resolve java/lang/NullPointerException off a temp-dir classpath, for
// tests exercising the runtime-fault path (athrow of a null reference,
// array bounds, etc.).
func newTestInterpreterWithNPE(t *testing.T) *Interpreter {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "java", "lang")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "NullPointerException.class"), npeClassBytes(), 0o644); err != nil {
		t.Fatalf("write class failed: %v", err)
	}

	entries, err := classloader.NewClasspath([]string{dir})
	if err != nil {
		t.Fatalf("NewClasspath failed: %v", err)
	}
	symtab := symbol.NewTable()
	loader := classloader.NewLoader(entries, symtab, nil)
	loader.InstallPreloaded()
	natives := native.NewRegistry()
	ip := New(loader, natives, strtab.NewTable())
	ip.Wire()
	return ip
}
