/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"math"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/thread"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// execLdc pushes the constant at a Class/String/Integer/Float entry,
// per spec.md §4.7. Strings materialize lazily into an interned
// object.JavaString on first use.
func (ip *Interpreter) execLdc(f *Frame, index uint16) error {
	cp := f.Class.Data.ConstantPool
	switch cp.Tags[index] {
	case object.CPInteger:
		f.pushInt(cp.Integers[cp.Slot[index]])
	case object.CPFloat:
		f.pushFloat(cp.Floats[cp.Slot[index]])
	case object.CPString:
		utf8Idx := cp.Strings[cp.Slot[index]]
		content := cp.Utf8At(utf8Idx).String()
		js := ip.Strings.Intern(content)
		strCls, err := ip.Loader.Load("java/lang/String")
		if err != nil {
			return err
		}
		f.pushRef(object.NewJavaString(strCls, js))
	case object.CPClass:
		cls, err := ip.resolveClass(f, index)
		if err != nil {
			return err
		}
		f.pushRef(cls)
	default:
		return vmerr.New(vmerr.ClassFileInvalid, "ldc on non-loadable constant")
	}
	return nil
}

// execLdc2 pushes a wide (long or double) constant; unlike ldc this
// family never faults, since only numeric tags are legal here.
func (ip *Interpreter) execLdc2(f *Frame, index uint16) {
	cp := f.Class.Data.ConstantPool
	switch cp.Tags[index] {
	case object.CPLong:
		f.pushLong(cp.Longs[cp.Slot[index]])
	case object.CPDouble:
		f.pushDouble(cp.Doubles[cp.Slot[index]])
	}
}

func (ip *Interpreter) execArrayLoad(th *thread.Thread, f *Frame, pc0 int, op byte) error {
	index := f.popInt()
	ref := f.popRef()
	if ref == nil {
		return ip.fault(th, f, pc0, "java/lang/NullPointerException")
	}
	arr, ok := ref.(*object.Array)
	if !ok {
		return vmerr.New(vmerr.ClassCastError, "array load on non-array reference")
	}
	if !arrayBoundsOK(arr, index) {
		return ip.fault(th, f, pc0, "java/lang/ArrayIndexOutOfBoundsException")
	}
	switch op {
	case opIaload:
		f.pushInt(int32(binaryLEUint32(arr.Bytes, index*4)))
	case opFaload:
		f.pushFloat(math.Float32frombits(binaryLEUint32(arr.Bytes, index*4)))
	case opLaload:
		f.pushLong(int64(binaryLEUint64(arr.Bytes, index*8)))
	case opDaload:
		f.pushDouble(math.Float64frombits(binaryLEUint64(arr.Bytes, index*8)))
	case opAaload:
		f.pushRef(arr.GetRef(index))
	case opBaload:
		f.pushInt(int32(int8(arr.Bytes[index])))
	case opCaload:
		f.pushInt(int32(binaryLEUint16(arr.Bytes, index*2)))
	case opSaload:
		f.pushInt(int32(int16(binaryLEUint16(arr.Bytes, index*2))))
	}
	return nil
}

func (ip *Interpreter) execArrayStore(th *thread.Thread, f *Frame, pc0 int, op byte) error {
	var refVal object.Reference
	var longVal int64
	var isRef, isLong bool
	switch op {
	case opAastore:
		refVal = f.popRef()
		isRef = true
	case opLastore, opDastore:
		longVal = f.popLong()
		isLong = true
	default:
		longVal = int64(f.popInt())
	}
	index := f.popInt()
	ref := f.popRef()
	if ref == nil {
		return ip.fault(th, f, pc0, "java/lang/NullPointerException")
	}
	arr, ok := ref.(*object.Array)
	if !ok {
		return vmerr.New(vmerr.ClassCastError, "array store on non-array reference")
	}
	if !arrayBoundsOK(arr, index) {
		return ip.fault(th, f, pc0, "java/lang/ArrayIndexOutOfBoundsException")
	}
	if isRef {
		if refVal != nil && !refVal.RefClass().IsAssignableTo(arr.Klass.Data.ComponentType) {
			return ip.fault(th, f, pc0, "java/lang/ArrayStoreException")
		}
		arr.SetRef(index, refVal)
		return nil
	}
	_ = isLong
	switch op {
	case opIastore:
		putLEUint32(arr.Bytes, index*4, uint32(longVal))
	case opFastore:
		putLEUint32(arr.Bytes, index*4, uint32(longVal))
	case opLastore:
		putLEUint64(arr.Bytes, index*8, uint64(longVal))
	case opDastore:
		putLEUint64(arr.Bytes, index*8, uint64(longVal))
	case opBastore:
		arr.Bytes[index] = byte(longVal)
	case opCastore, opSastore:
		putLEUint16(arr.Bytes, index*2, uint16(longVal))
	}
	return nil
}

func binaryLEUint16(b []byte, off int32) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}
func binaryLEUint32(b []byte, off int32) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}
func binaryLEUint64(b []byte, off int32) uint64 {
	lo := uint64(binaryLEUint32(b, off))
	hi := uint64(binaryLEUint32(b, off+4))
	return lo | hi<<32
}
func putLEUint16(b []byte, off int32, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}
func putLEUint32(b []byte, off int32, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}
func putLEUint64(b []byte, off int32, v uint64) {
	putLEUint32(b, off, uint32(v))
	putLEUint32(b, off+4, uint32(v>>32))
}

func (ip *Interpreter) execTableswitch(f *Frame, pc0 int) {
	alignSwitch(f, pc0)
	def := f.i32()
	low := f.i32()
	high := f.i32()
	n := int(high - low + 1)
	offsets := make([]int32, n)
	for i := range offsets {
		offsets[i] = f.i32()
	}
	key := f.popInt()
	if key < low || key > high {
		f.pc = pc0 + int(def)
		return
	}
	f.pc = pc0 + int(offsets[key-low])
}

func (ip *Interpreter) execLookupswitch(f *Frame, pc0 int) {
	alignSwitch(f, pc0)
	def := f.i32()
	npairs := f.i32()
	key := f.popInt()
	target := pc0 + int(def)
	for i := int32(0); i < npairs; i++ {
		match := f.i32()
		offset := f.i32()
		if match == key {
			target = pc0 + int(offset)
		}
	}
	f.pc = target
}

// alignSwitch skips the padding bytes between the opcode and its
// operands, which start at the next multiple of 4 counted from the
// method's own first byte.
func alignSwitch(f *Frame, pc0 int) {
	pad := (4 - (f.pc % 4)) % 4
	f.pc += pad
}

func (ip *Interpreter) execWide(f *Frame) error {
	sub := f.u8()
	if sub == opIinc {
		idx := int(f.u16())
		c := int32(f.i16())
		f.setLocalInt(idx, f.localInt(idx)+c)
		return nil
	}
	idx := int(f.u16())
	switch sub {
	case opIload:
		f.pushInt(f.localInt(idx))
	case opLload:
		f.pushLong(f.localLong(idx))
	case opFload:
		f.pushFloat(f.localFloat(idx))
	case opDload:
		f.pushDouble(f.localDouble(idx))
	case opAload:
		f.pushRef(f.localRef(idx))
	case opIstore:
		f.setLocalInt(idx, f.popInt())
	case opLstore:
		f.setLocalLong(idx, f.popLong())
	case opFstore:
		f.setLocalFloat(idx, f.popFloat())
	case opDstore:
		f.setLocalDouble(idx, f.popDouble())
	case opAstore:
		f.setLocalRef(idx, f.popRef())
	case opRet:
		f.pc = int(f.localInt(idx))
	default:
		return vmerr.New(vmerr.ClassFileInvalid, "unsupported wide opcode")
	}
	return nil
}

func cmp3(a, b int64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// fcmp implements fcmpl/fcmpg and dcmpl/dcmpg: nanResult is the value
// pushed when either operand is NaN (-1 for the 'l' forms, 1 for 'g').
func fcmp(a, b float64, nanResult int32) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return nanResult
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func truncToInt32(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

func truncToInt64(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	if v <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(v)
}

// execInvokeVirtual resolves and dispatches through the receiver's
// vtable, per spec.md §4.7.
func (ip *Interpreter) execInvokeVirtual(th *thread.Thread, f *Frame, pc0 int, idx uint16) error {
	_, _, owner, vidx, err := ip.resolveVirtualVtableIndex(f, idx)
	if err != nil {
		return err
	}
	staticTarget := owner.Data.Vtable.MethodAt(vidx)
	if staticTarget == nil {
		return vmerr.New(vmerr.MethodResolutionError, "unresolved vtable slot")
	}
	args := popArgs(f, staticTarget, true)
	receiver := args[0].Ref
	if receiver == nil {
		return ip.fault(th, f, pc0, "java/lang/NullPointerException")
	}
	actualCls := receiver.RefClass()
	target := actualCls.Data.Vtable.MethodAt(vidx)
	if target == nil {
		return vmerr.New(vmerr.MethodResolutionError, "no override at vtable slot "+actualCls.Name())
	}
	ret, err := ip.Invoke(th, target.DeclClass, target, args)
	if err != nil {
		return err
	}
	pushReturn(f, target, ret)
	return nil
}

func (ip *Interpreter) execInvokeSpecial(th *thread.Thread, f *Frame, pc0 int, idx uint16) error {
	m, declClass, err := ip.resolveSpecialMethod(f, idx)
	if err != nil {
		return err
	}
	args := popArgs(f, m, true)
	if args[0].Ref == nil {
		return ip.fault(th, f, pc0, "java/lang/NullPointerException")
	}
	ret, err := ip.Invoke(th, declClass, m, args)
	if err != nil {
		return err
	}
	pushReturn(f, m, ret)
	return nil
}

func (ip *Interpreter) execInvokeStatic(th *thread.Thread, f *Frame, idx uint16) error {
	m, declClass, err := ip.resolveStaticMethod(th, f, idx)
	if err != nil {
		return err
	}
	args := popArgs(f, m, false)
	ret, err := ip.Invoke(th, declClass, m, args)
	if err != nil {
		return err
	}
	pushReturn(f, m, ret)
	return nil
}

func (ip *Interpreter) execInvokeInterface(th *thread.Thread, f *Frame, pc0 int, idx uint16) error {
	iface, ordinal, _, _, err := ip.resolveInterfaceMethod(f, idx)
	if err != nil {
		return err
	}
	absMethod := iface.Data.Vtable.Methods[ordinal]
	args := popArgs(f, absMethod, true)
	receiver := args[0].Ref
	if receiver == nil {
		return ip.fault(th, f, pc0, "java/lang/NullPointerException")
	}
	actualCls := receiver.RefClass()
	if actualCls.Data.Vtable == nil {
		return vmerr.New(vmerr.MethodResolutionError, "receiver has no vtable")
	}
	target, ok := actualCls.Data.Vtable.ResolveInterfaceMethod(iface, ordinal)
	if !ok {
		return vmerr.New(vmerr.MethodResolutionError, "no implementation of interface method on "+actualCls.Name())
	}
	ret, err := ip.Invoke(th, target.DeclClass, target, args)
	if err != nil {
		return err
	}
	pushReturn(f, target, ret)
	return nil
}
