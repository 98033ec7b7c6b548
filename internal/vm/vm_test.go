/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package vm

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/config"
	"github.com/hanakeichen/rsvm-go/internal/object"
)

// cbuf is the same minimal big-endian class-file byte builder
// classloader_test.go and interp's interpreter_test.go use, kept
// package-local since it has no runtime use outside test fixtures.
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

// buildClassWithMethod assembles "class name extends java/lang/Object"
// carrying a no-op <init> plus one extra method of the caller's own
// bytecode, the same constant-pool shape classloader_test.go's
// buildClass uses, with a second method appended.
func buildClassWithMethod(name string, methodName, methodDesc string, accessFlags uint16, code []byte, maxStack, maxLocals uint16) []byte {
	var c cbuf
	c.u32(0xCAFEBABE)
	c.u16(0)
	c.u16(52)
	c.u16(10) // constant_pool_count
	c.utf8(name)
	c.classRef(1)
	c.utf8("java/lang/Object")
	c.classRef(3)
	c.utf8("<init>")
	c.utf8("()V")
	c.utf8("Code")
	c.utf8(methodName)
	c.utf8(methodDesc)

	c.u16(0x0021) // access_flags: ACC_PUBLIC | ACC_SUPER
	c.u16(2)      // this_class
	c.u16(4)      // super_class
	c.u16(0)      // interfaces_count
	c.u16(0)      // fields_count
	c.u16(2)      // methods_count

	// <init>
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

	// the caller's method
	c.u16(accessFlags)
	c.u16(8)
	c.u16(9)
	c.u16(1)
	c.u16(7)
	c.u32(uint32(12 + len(code)))
	c.u16(maxStack)
	c.u16(maxLocals)
	c.u32(uint32(len(code)))
	c.b.Write(code)
	c.u16(0)
	c.u16(0)

	c.u16(0) // class attributes_count
	return c.b.Bytes()
}

func newTestConfig(t *testing.T, classes map[string][]byte) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, bytes := range classes {
		path := filepath.Join(dir, name+".class")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, bytes, 0o644); err != nil {
			t.Fatalf("write class failed: %v", err)
		}
	}
	return config.Init(&config.Config{ClassPath: []string{dir}})
}

func newTestVM(t *testing.T, classes map[string][]byte) *VM {
	t.Helper()
	cfg := newTestConfig(t, classes)
	machine, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(machine.Destroy)
	if err := machine.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return machine
}

func TestCallStaticInvokesAStaticMethod(t *testing.T) {
	// iload_0; iload_1; iadd; ireturn
	code := []byte{0x1a, 0x1b, 0x60, 0xac}
	classBytes := buildClassWithMethod("Calc", "add", "(II)I", 0x0009, code, 2, 2)
	machine := newTestVM(t, map[string][]byte{"Calc": classBytes})

	ret, err := machine.CallStatic("Calc", "add", "(II)I", []object.Slot{
		{Raw: uint64(uint32(20))},
		{Raw: uint64(uint32(22))},
	})
	if err != nil {
		t.Fatalf("CallStatic failed: %v", err)
	}
	if got := int32(uint32(ret.Raw)); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestCallStaticRejectsInstanceMethod(t *testing.T) {
	code := []byte{0x1a, 0xac} // iload_0; ireturn (never reached, it's rejected first)
	classBytes := buildClassWithMethod("NotStatic", "get", "()I", 0x0001, code, 1, 1)
	machine := newTestVM(t, map[string][]byte{"NotStatic": classBytes})

	if _, err := machine.CallStatic("NotStatic", "get", "()I", nil); err == nil {
		t.Fatalf("expected an error calling an instance method as static")
	}
}

func TestCallObjDispatchesOnReceiversRuntimeClass(t *testing.T) {
	// bipush 7; ireturn
	code := []byte{0x10, 7, 0xac}
	classBytes := buildClassWithMethod("Greeter", "greet", "()I", 0x0001, code, 1, 1)
	machine := newTestVM(t, map[string][]byte{"Greeter": classBytes})

	cls, err := machine.LoadClass("Greeter")
	if err != nil {
		t.Fatalf("LoadClass failed: %v", err)
	}
	recv, err := machine.NewInstance(cls)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}

	ret, err := machine.CallObj(recv, "greet", "()I", nil)
	if err != nil {
		t.Fatalf("CallObj failed: %v", err)
	}
	if got := int32(uint32(ret.Raw)); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestCallObjRejectsNullReceiver(t *testing.T) {
	machine := newTestVM(t, nil)
	if _, err := machine.CallObj(nil, "greet", "()I", nil); err == nil {
		t.Fatalf("expected an error calling a method on a null receiver")
	}
}

func TestFindMethodReportsUnresolvedMethod(t *testing.T) {
	classBytes := buildClassWithMethod("Empty", "unused", "()V", 0x0001, []byte{0xb1}, 1, 1)
	machine := newTestVM(t, map[string][]byte{"Empty": classBytes})

	if _, _, err := machine.FindMethod("Empty", "missing", "()V"); err == nil {
		t.Fatalf("expected an error resolving a nonexistent method")
	}
}
