/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
	"github.com/hanakeichen/rsvm-go/internal/thread"
)

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

// buildClass assembles a minimal "class Name extends java/lang/Object"
// with a single public no-arg method, the same shape
// classfile/parser_test.go uses.
func buildClass(name string) []byte {
	var c cbuf
	c.u32(0xCAFEBABE)
	c.u16(0)
	c.u16(52)
	c.u16(8)
	c.utf8(name)
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

func newTestLoader(t *testing.T) (*Loader, *symbol.Table) {
	t.Helper()
	dir := t.TempDir()
	entries, err := NewClasspath([]string{dir})
	if err != nil {
		t.Fatalf("NewClasspath failed: %v", err)
	}
	symtab := symbol.NewTable()
	l := NewLoader(entries, symtab, nil)
	l.InstallPreloaded()
	return l, symtab
}

func writeClass(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, buildClass(name), 0o644); err != nil {
		t.Fatalf("write class failed: %v", err)
	}
}

func TestInstallPreloadedRegistersObjectAndClass(t *testing.T) {
	l, _ := newTestLoader(t)
	obj, ok := l.Lookup("java/lang/Object")
	if !ok {
		t.Fatalf("expected java/lang/Object to be preloaded")
	}
	cls, ok := l.Lookup("java/lang/Class")
	if !ok {
		t.Fatalf("expected java/lang/Class to be preloaded")
	}
	if cls.Header.Klass != cls {
		t.Fatalf("java/lang/Class must be its own Klass, got %v", cls.Header.Klass)
	}
	if obj.Header.Klass != cls {
		t.Fatalf("java/lang/Object's Klass must be java/lang/Class")
	}
}

func TestLoadFromDirectoryParsesAndLinks(t *testing.T) {
	dir := t.TempDir()
	entries, err := NewClasspath([]string{dir})
	if err != nil {
		t.Fatalf("NewClasspath failed: %v", err)
	}
	symtab := symbol.NewTable()
	l := NewLoader(entries, symtab, nil)
	l.InstallPreloaded()
	writeClass(t, dir, "Main")

	cls, err := l.Load("Main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cls.State() != object.Linked {
		t.Fatalf("expected Linked state, got %v", cls.State())
	}
	if cls.Data.Super == nil || cls.Data.Super.Name() != "java/lang/Object" {
		t.Fatalf("expected super to resolve to java/lang/Object")
	}

	again, err := l.Load("Main")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != cls {
		t.Fatalf("expected registry to return the same class instance")
	}
}

func TestLoadArrayClassSynthesizesComponent(t *testing.T) {
	l, _ := newTestLoader(t)
	arr, err := l.Load("[I")
	if err != nil {
		t.Fatalf("Load array class failed: %v", err)
	}
	if !arr.IsArray() {
		t.Fatalf("expected array class")
	}
	if arr.Data.ComponentType == nil || arr.Data.ComponentType.Name() != "I" {
		t.Fatalf("expected component type I, got %v", arr.Data.ComponentType)
	}
}

func TestFieldLayoutPacksPadding(t *testing.T) {
	l, symtab := newTestLoader(t)
	super, _ := l.Lookup("java/lang/Object")

	cls := object.NewClass(nil)
	cls.Data.Super = super
	cls.Data.Fields = []*object.Field{
		{Name: symtab.Intern("a"), Descriptor: symtab.Intern("B")}, // 1 byte
		{Name: symtab.Intern("b"), Descriptor: symtab.Intern("B")}, // 1 byte, packs into same slot
		{Name: symtab.Intern("c"), Descriptor: symtab.Intern("J")}, // 8 bytes, new slot
	}

	if err := l.layoutFields(cls); err != nil {
		t.Fatalf("layoutFields failed: %v", err)
	}
	a := cls.Data.Fields[0].LayoutOffset
	b := cls.Data.Fields[1].LayoutOffset
	c := cls.Data.Fields[2].LayoutOffset
	if a != 16 || b != 17 {
		t.Fatalf("expected a,b packed at 16,17, got %d,%d", a, b)
	}
	if c != 24 {
		t.Fatalf("expected c in its own aligned slot at 24, got %d", c)
	}
	if cls.Data.InstanceSize != 32 {
		t.Fatalf("expected instance size 32, got %d", cls.Data.InstanceSize)
	}
}

func TestBuildDispatchTablesOverridesBySignature(t *testing.T) {
	l, symtab := newTestLoader(t)
	super, _ := l.Lookup("java/lang/Object")

	base := object.NewClass(nil)
	base.Data.Super = super
	baseMethod := &object.Method{Name: symtab.Intern("greet"), Descriptor: symtab.Intern("()V")}
	base.Data.Methods = []*object.Method{baseMethod}
	if err := l.buildDispatchTables(base); err != nil {
		t.Fatalf("buildDispatchTables(base) failed: %v", err)
	}
	base.setState(object.Linked)

	sub := object.NewClass(nil)
	sub.Data.Super = base
	overrideMethod := &object.Method{Name: symtab.Intern("greet"), Descriptor: symtab.Intern("()V")}
	extraMethod := &object.Method{Name: symtab.Intern("extra"), Descriptor: symtab.Intern("()V")}
	sub.Data.Methods = []*object.Method{overrideMethod, extraMethod}
	if err := l.buildDispatchTables(sub); err != nil {
		t.Fatalf("buildDispatchTables(sub) failed: %v", err)
	}

	if len(sub.Data.Vtable.Methods) != 2 {
		t.Fatalf("expected vtable of length 2, got %d", len(sub.Data.Vtable.Methods))
	}
	if sub.Data.Vtable.Methods[0] != overrideMethod {
		t.Fatalf("expected override to occupy the inherited slot")
	}
	if overrideMethod.VtableIndex != baseMethod.VtableIndex {
		t.Fatalf("expected override to reuse the base method's vtable index")
	}
	if sub.Data.Vtable.Methods[1] != extraMethod {
		t.Fatalf("expected new method appended at index 1")
	}
}

func TestEnsureInitializedRunsClinitOnce(t *testing.T) {
	l, symtab := newTestLoader(t)
	super, _ := l.Lookup("java/lang/Object")

	cls := object.NewClass(nil)
	cls.Data.Name = symtab.Intern("Init")
	cls.Data.Super = super
	clinit := &object.Method{Name: symtab.Intern("<clinit>"), Descriptor: symtab.Intern("()V")}
	cls.Data.Methods = []*object.Method{clinit}

	runs := 0
	l.SetClinitExecutor(func(th *thread.Thread, m *object.Method) error {
		runs++
		return nil
	})

	th := &thread.Thread{ID: 1}
	if err := l.EnsureInitialized(cls, th); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}
	if err := l.EnsureInitialized(cls, th); err != nil {
		t.Fatalf("second EnsureInitialized failed: %v", err)
	}
	if runs != 1 {
		t.Fatalf("expected <clinit> to run exactly once, ran %d times", runs)
	}
	if cls.State() != object.Initialized {
		t.Fatalf("expected Initialized state, got %v", cls.State())
	}
}
