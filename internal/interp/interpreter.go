/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"errors"
	"math"
	"sync"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/thread"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// monitors backs monitorenter/monitorexit: one lock per object identity,
// created on first use. Not re-entrant — a thread that enters its own
// held monitor a second time blocks — which spec.md's scope for the
// interpreter leaves to a future revision; ordinary (non-recursive)
// synchronized blocks and methods work correctly.
var monitors sync.Map // map[object.Reference]*sync.Mutex

func monitorFor(ref object.Reference) *sync.Mutex {
	v, _ := monitors.LoadOrStore(ref, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Execute runs f's bytecode to completion, returning its result slot
// (zero value for void methods) or a *ThrownError if an exception
// propagated out of every frame's own exception table. It is the match
// -driven dispatch loop spec.md §4.7 describes.
func (ip *Interpreter) Execute(th *thread.Thread, f *Frame) (object.Slot, error) {
	code := f.Method.Code
	for {
		pc0 := f.pc
		op := code[f.pc]
		f.pc++

		switch op {
		case opNop:

		case opAconstNull:
			f.pushRef(nil)
		case opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
			f.pushInt(int32(op) - int32(opIconst0))
		case opLconst0:
			f.pushLong(0)
		case opLconst1:
			f.pushLong(1)
		case opFconst0:
			f.pushFloat(0)
		case opFconst1:
			f.pushFloat(1)
		case opFconst2:
			f.pushFloat(2)
		case opDconst0:
			f.pushDouble(0)
		case opDconst1:
			f.pushDouble(1)
		case opBipush:
			f.pushInt(int32(f.i8()))
		case opSipush:
			f.pushInt(int32(f.i16()))

		case opLdc:
			if err := ip.execLdc(f, uint16(f.u8())); err != nil {
				return object.Slot{}, err
			}
		case opLdcW:
			if err := ip.execLdc(f, f.u16()); err != nil {
				return object.Slot{}, err
			}
		case opLdc2W:
			ip.execLdc2(f, f.u16())

		case opIload:
			f.pushInt(f.localInt(int(f.u8())))
		case opLload:
			f.pushLong(f.localLong(int(f.u8())))
		case opFload:
			f.pushFloat(f.localFloat(int(f.u8())))
		case opDload:
			f.pushDouble(f.localDouble(int(f.u8())))
		case opAload:
			f.pushRef(f.localRef(int(f.u8())))
		case opIload0, opIload1, opIload2, opIload3:
			f.pushInt(f.localInt(int(op - opIload0)))
		case opLload0, opLload1, opLload2, opLload3:
			f.pushLong(f.localLong(int(op - opLload0)))
		case opFload0, opFload1, opFload2, opFload3:
			f.pushFloat(f.localFloat(int(op - opFload0)))
		case opDload0, opDload1, opDload2, opDload3:
			f.pushDouble(f.localDouble(int(op - opDload0)))
		case opAload0, opAload1, opAload2, opAload3:
			f.pushRef(f.localRef(int(op - opAload0)))

		case opIstore:
			f.setLocalInt(int(f.u8()), f.popInt())
		case opLstore:
			f.setLocalLong(int(f.u8()), f.popLong())
		case opFstore:
			f.setLocalFloat(int(f.u8()), f.popFloat())
		case opDstore:
			f.setLocalDouble(int(f.u8()), f.popDouble())
		case opAstore:
			f.setLocalRef(int(f.u8()), f.popRef())
		case opIstore0, opIstore1, opIstore2, opIstore3:
			f.setLocalInt(int(op-opIstore0), f.popInt())
		case opLstore0, opLstore1, opLstore2, opLstore3:
			f.setLocalLong(int(op-opLstore0), f.popLong())
		case opFstore0, opFstore1, opFstore2, opFstore3:
			f.setLocalFloat(int(op-opFstore0), f.popFloat())
		case opDstore0, opDstore1, opDstore2, opDstore3:
			f.setLocalDouble(int(op-opDstore0), f.popDouble())
		case opAstore0, opAstore1, opAstore2, opAstore3:
			f.setLocalRef(int(op-opAstore0), f.popRef())

		case opIaload, opLaload, opFaload, opDaload, opAaload, opBaload, opCaload, opSaload:
			if err := ip.execArrayLoad(th, f, pc0, op); err != nil {
				return object.Slot{}, err
			}
		case opIastore, opLastore, opFastore, opDastore, opAastore, opBastore, opCastore, opSastore:
			if err := ip.execArrayStore(th, f, pc0, op); err != nil {
				return object.Slot{}, err
			}

		case opPop:
			f.sp--
		case opPop2:
			f.sp -= 2
		case opDup:
			v := f.peek()
			f.push(v)
		case opDupX1:
			a := f.pop()
			b := f.pop()
			f.push(a)
			f.push(b)
			f.push(a)
		case opDupX2:
			a := f.pop()
			b := f.pop()
			c := f.pop()
			f.push(a)
			f.push(c)
			f.push(b)
			f.push(a)
		case opDup2:
			a := f.pop()
			b := f.pop()
			f.push(b)
			f.push(a)
			f.push(b)
			f.push(a)
		case opDup2X1:
			a := f.pop()
			b := f.pop()
			c := f.pop()
			f.push(b)
			f.push(a)
			f.push(c)
			f.push(b)
			f.push(a)
		case opDup2X2:
			a := f.pop()
			b := f.pop()
			c := f.pop()
			d := f.pop()
			f.push(b)
			f.push(a)
			f.push(d)
			f.push(c)
			f.push(b)
			f.push(a)
		case opSwap:
			a := f.pop()
			b := f.pop()
			f.push(a)
			f.push(b)

		case opIadd:
			b, a := f.popInt(), f.popInt()
			f.pushInt(a + b)
		case opLadd:
			b, a := f.popLong(), f.popLong()
			f.pushLong(a + b)
		case opFadd:
			b, a := f.popFloat(), f.popFloat()
			f.pushFloat(a + b)
		case opDadd:
			b, a := f.popDouble(), f.popDouble()
			f.pushDouble(a + b)
		case opIsub:
			b, a := f.popInt(), f.popInt()
			f.pushInt(a - b)
		case opLsub:
			b, a := f.popLong(), f.popLong()
			f.pushLong(a - b)
		case opFsub:
			b, a := f.popFloat(), f.popFloat()
			f.pushFloat(a - b)
		case opDsub:
			b, a := f.popDouble(), f.popDouble()
			f.pushDouble(a - b)
		case opImul:
			b, a := f.popInt(), f.popInt()
			f.pushInt(a * b)
		case opLmul:
			b, a := f.popLong(), f.popLong()
			f.pushLong(a * b)
		case opFmul:
			b, a := f.popFloat(), f.popFloat()
			f.pushFloat(a * b)
		case opDmul:
			b, a := f.popDouble(), f.popDouble()
			f.pushDouble(a * b)
		case opIdiv:
			b, a := f.popInt(), f.popInt()
			if b == 0 {
				if err := ip.fault(th, f, pc0, "java/lang/ArithmeticException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			f.pushInt(a / b)
		case opLdiv:
			b, a := f.popLong(), f.popLong()
			if b == 0 {
				if err := ip.fault(th, f, pc0, "java/lang/ArithmeticException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			f.pushLong(a / b)
		case opFdiv:
			b, a := f.popFloat(), f.popFloat()
			f.pushFloat(a / b)
		case opDdiv:
			b, a := f.popDouble(), f.popDouble()
			f.pushDouble(a / b)
		case opIrem:
			b, a := f.popInt(), f.popInt()
			if b == 0 {
				if err := ip.fault(th, f, pc0, "java/lang/ArithmeticException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			f.pushInt(a % b)
		case opLrem:
			b, a := f.popLong(), f.popLong()
			if b == 0 {
				if err := ip.fault(th, f, pc0, "java/lang/ArithmeticException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			f.pushLong(a % b)
		case opFrem:
			b, a := f.popFloat(), f.popFloat()
			f.pushFloat(float32(math.Mod(float64(a), float64(b))))
		case opDrem:
			b, a := f.popDouble(), f.popDouble()
			f.pushDouble(math.Mod(a, b))
		case opIneg:
			f.pushInt(-f.popInt())
		case opLneg:
			f.pushLong(-f.popLong())
		case opFneg:
			f.pushFloat(-f.popFloat())
		case opDneg:
			f.pushDouble(-f.popDouble())
		case opIshl:
			s, a := f.popInt(), f.popInt()
			f.pushInt(a << (uint32(s) & 0x1f))
		case opLshl:
			s, a := f.popInt(), f.popLong()
			f.pushLong(a << (uint32(s) & 0x3f))
		case opIshr:
			s, a := f.popInt(), f.popInt()
			f.pushInt(a >> (uint32(s) & 0x1f))
		case opLshr:
			s, a := f.popInt(), f.popLong()
			f.pushLong(a >> (uint32(s) & 0x3f))
		case opIushr:
			s, a := f.popInt(), f.popInt()
			f.pushInt(int32(uint32(a) >> (uint32(s) & 0x1f)))
		case opLushr:
			s, a := f.popInt(), f.popLong()
			f.pushLong(int64(uint64(a) >> (uint32(s) & 0x3f)))
		case opIand:
			b, a := f.popInt(), f.popInt()
			f.pushInt(a & b)
		case opLand:
			b, a := f.popLong(), f.popLong()
			f.pushLong(a & b)
		case opIor:
			b, a := f.popInt(), f.popInt()
			f.pushInt(a | b)
		case opLor:
			b, a := f.popLong(), f.popLong()
			f.pushLong(a | b)
		case opIxor:
			b, a := f.popInt(), f.popInt()
			f.pushInt(a ^ b)
		case opLxor:
			b, a := f.popLong(), f.popLong()
			f.pushLong(a ^ b)
		case opIinc:
			idx := int(f.u8())
			c := int32(f.i8())
			f.setLocalInt(idx, f.localInt(idx)+c)

		case opI2l:
			f.pushLong(int64(f.popInt()))
		case opI2f:
			f.pushFloat(float32(f.popInt()))
		case opI2d:
			f.pushDouble(float64(f.popInt()))
		case opL2i:
			f.pushInt(int32(f.popLong()))
		case opL2f:
			f.pushFloat(float32(f.popLong()))
		case opL2d:
			f.pushDouble(float64(f.popLong()))
		case opF2i:
			f.pushInt(truncToInt32(float64(f.popFloat())))
		case opF2l:
			f.pushLong(truncToInt64(float64(f.popFloat())))
		case opF2d:
			f.pushDouble(float64(f.popFloat()))
		case opD2i:
			f.pushInt(truncToInt32(f.popDouble()))
		case opD2l:
			f.pushLong(truncToInt64(f.popDouble()))
		case opD2f:
			f.pushFloat(float32(f.popDouble()))
		case opI2b:
			f.pushInt(int32(int8(f.popInt())))
		case opI2c:
			f.pushInt(int32(uint16(f.popInt())))
		case opI2s:
			f.pushInt(int32(int16(f.popInt())))

		case opLcmp:
			b, a := f.popLong(), f.popLong()
			f.pushInt(cmp3(a, b))
		case opFcmpl:
			b, a := f.popFloat(), f.popFloat()
			f.pushInt(fcmp(float64(a), float64(b), -1))
		case opFcmpg:
			b, a := f.popFloat(), f.popFloat()
			f.pushInt(fcmp(float64(a), float64(b), 1))
		case opDcmpl:
			b, a := f.popDouble(), f.popDouble()
			f.pushInt(fcmp(a, b, -1))
		case opDcmpg:
			b, a := f.popDouble(), f.popDouble()
			f.pushInt(fcmp(a, b, 1))

		case opIfeq:
			target := pc0 + int(f.i16())
			if f.popInt() == 0 {
				f.pc = target
			}
		case opIfne:
			target := pc0 + int(f.i16())
			if f.popInt() != 0 {
				f.pc = target
			}
		case opIflt:
			target := pc0 + int(f.i16())
			if f.popInt() < 0 {
				f.pc = target
			}
		case opIfge:
			target := pc0 + int(f.i16())
			if f.popInt() >= 0 {
				f.pc = target
			}
		case opIfgt:
			target := pc0 + int(f.i16())
			if f.popInt() > 0 {
				f.pc = target
			}
		case opIfle:
			target := pc0 + int(f.i16())
			if f.popInt() <= 0 {
				f.pc = target
			}
		case opIfIcmpeq:
			target := pc0 + int(f.i16())
			b, a := f.popInt(), f.popInt()
			if a == b {
				f.pc = target
			}
		case opIfIcmpne:
			target := pc0 + int(f.i16())
			b, a := f.popInt(), f.popInt()
			if a != b {
				f.pc = target
			}
		case opIfIcmplt:
			target := pc0 + int(f.i16())
			b, a := f.popInt(), f.popInt()
			if a < b {
				f.pc = target
			}
		case opIfIcmpge:
			target := pc0 + int(f.i16())
			b, a := f.popInt(), f.popInt()
			if a >= b {
				f.pc = target
			}
		case opIfIcmpgt:
			target := pc0 + int(f.i16())
			b, a := f.popInt(), f.popInt()
			if a > b {
				f.pc = target
			}
		case opIfIcmple:
			target := pc0 + int(f.i16())
			b, a := f.popInt(), f.popInt()
			if a <= b {
				f.pc = target
			}
		case opIfAcmpeq:
			target := pc0 + int(f.i16())
			b, a := f.popRef(), f.popRef()
			if a == b {
				f.pc = target
			}
		case opIfAcmpne:
			target := pc0 + int(f.i16())
			b, a := f.popRef(), f.popRef()
			if a != b {
				f.pc = target
			}
		case opIfnull:
			target := pc0 + int(f.i16())
			if f.popRef() == nil {
				f.pc = target
			}
		case opIfnonnull:
			target := pc0 + int(f.i16())
			if f.popRef() != nil {
				f.pc = target
			}
		case opGoto:
			f.pc = pc0 + int(f.i16())
		case opGotoW:
			f.pc = pc0 + int(f.i32())
		case opJsr:
			ret := f.pc + 2
			f.pc = pc0 + int(f.i16())
			f.pushInt(int32(ret))
		case opJsrW:
			ret := f.pc + 4
			f.pc = pc0 + int(f.i32())
			f.pushInt(int32(ret))
		case opRet:
			f.pc = int(f.localInt(int(f.u8())))

		case opTableswitch:
			ip.execTableswitch(f, pc0)
		case opLookupswitch:
			ip.execLookupswitch(f, pc0)

		case opIreturn:
			return object.Slot{Raw: f.pop().Raw}, nil
		case opLreturn:
			return object.Slot{Raw: f.pop().Raw}, nil
		case opFreturn:
			return object.Slot{Raw: f.pop().Raw}, nil
		case opDreturn:
			return object.Slot{Raw: f.pop().Raw}, nil
		case opAreturn:
			return object.Slot{Ref: f.popRef()}, nil
		case opReturn:
			return object.Slot{}, nil

		case opGetstatic:
			idx := f.u16()
			field, owner, err := ip.resolveStaticFieldOwner(th, f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			f.push(*owner.StaticFieldSlot(field.LayoutOffset))
		case opPutstatic:
			idx := f.u16()
			field, owner, err := ip.resolveStaticFieldOwner(th, f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			val := f.pop()
			*owner.StaticFieldSlot(field.LayoutOffset) = val
		case opGetfield:
			idx := f.u16()
			field, _, err := ip.resolveField(f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			ref := f.popRef()
			if ref == nil {
				if err := ip.fault(th, f, pc0, "java/lang/NullPointerException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			obj, ok := ref.(*object.Object)
			if !ok {
				return object.Slot{}, vmerr.New(vmerr.ClassCastError, "getfield on non-object reference")
			}
			f.push(*obj.FieldSlot(field.LayoutOffset))
		case opPutfield:
			idx := f.u16()
			field, _, err := ip.resolveField(f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			val := f.pop()
			ref := f.popRef()
			if ref == nil {
				if err := ip.fault(th, f, pc0, "java/lang/NullPointerException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			obj, ok := ref.(*object.Object)
			if !ok {
				return object.Slot{}, vmerr.New(vmerr.ClassCastError, "putfield on non-object reference")
			}
			*obj.FieldSlot(field.LayoutOffset) = val

		case opInvokevirtual:
			idx := f.u16()
			if err := ip.execInvokeVirtual(th, f, pc0, idx); err != nil {
				if ip.handleThrown(f, pc0, err) {
					continue
				}
				return object.Slot{}, err
			}
		case opInvokespecial:
			idx := f.u16()
			if err := ip.execInvokeSpecial(th, f, pc0, idx); err != nil {
				if ip.handleThrown(f, pc0, err) {
					continue
				}
				return object.Slot{}, err
			}
		case opInvokestatic:
			idx := f.u16()
			if err := ip.execInvokeStatic(th, f, idx); err != nil {
				if ip.handleThrown(f, pc0, err) {
					continue
				}
				return object.Slot{}, err
			}
		case opInvokeinterface:
			idx := f.u16()
			f.u8() // count, unused: ArgSlots is derived from the resolved method
			f.u8() // reserved zero byte
			if err := ip.execInvokeInterface(th, f, pc0, idx); err != nil {
				if ip.handleThrown(f, pc0, err) {
					continue
				}
				return object.Slot{}, err
			}
		case opInvokedynamic:
			f.u16()
			f.u8()
			f.u8()
			if err := ip.fault(th, f, pc0, "java/lang/UnsupportedOperationException"); err != nil {
				return object.Slot{}, err
			}

		case opNew:
			idx := f.u16()
			cls, err := ip.resolveAndInit(th, f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			f.pushRef(object.NewObject(th.TLAB, cls, cls.Data.InstanceSize))
		case opNewarray:
			atype := f.u8()
			length := f.popInt()
			if length < 0 {
				if err := ip.fault(th, f, pc0, "java/lang/NegativeArraySizeException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			desc, err := primitiveAtypeDescriptor(atype)
			if err != nil {
				return object.Slot{}, err
			}
			arrCls, err := ip.Loader.Load("[" + desc)
			if err != nil {
				return object.Slot{}, err
			}
			f.pushRef(newPrimitiveArrayOfKind(th.TLAB, arrCls, desc, length))
		case opAnewarray:
			idx := f.u16()
			component, err := ip.resolveClass(f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			length := f.popInt()
			if length < 0 {
				if err := ip.fault(th, f, pc0, "java/lang/NegativeArraySizeException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			arrCls, err := ip.Loader.Load(arrayClassDescriptor(component))
			if err != nil {
				return object.Slot{}, err
			}
			f.pushRef(object.NewReferenceArray(th.TLAB, arrCls, length))
		case opMultianewarray:
			idx := f.u16()
			dims := int(f.u8())
			cls, err := ip.resolveClass(f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			lengths := make([]int32, dims)
			for i := dims - 1; i >= 0; i-- {
				lengths[i] = f.popInt()
			}
			arr, err := ip.allocMultiArray(th.TLAB, cls, lengths)
			if err != nil {
				if err := ip.fault(th, f, pc0, "java/lang/NegativeArraySizeException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			f.pushRef(arr)
		case opArraylength:
			ref := f.popRef()
			if ref == nil {
				if err := ip.fault(th, f, pc0, "java/lang/NullPointerException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			arr, ok := ref.(*object.Array)
			if !ok {
				return object.Slot{}, vmerr.New(vmerr.ClassCastError, "arraylength on non-array reference")
			}
			f.pushInt(arr.Length)

		case opAthrow:
			obj := f.popRef()
			if obj == nil {
				if err := ip.fault(th, f, pc0, "java/lang/NullPointerException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			if err := ip.raiseOrPropagate(f, pc0, obj); err != nil {
				return object.Slot{}, err
			}

		case opCheckcast:
			idx := f.u16()
			cls, err := ip.resolveClass(f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			ref := f.peek().Ref
			if ref != nil && !ref.RefClass().IsAssignableTo(cls) {
				if err := ip.fault(th, f, pc0, "java/lang/ClassCastException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
		case opInstanceof:
			idx := f.u16()
			cls, err := ip.resolveClass(f, idx)
			if err != nil {
				return object.Slot{}, err
			}
			ref := f.popRef()
			f.pushBool(ref != nil && ref.RefClass().IsAssignableTo(cls))

		case opMonitorenter:
			ref := f.popRef()
			if ref == nil {
				if err := ip.fault(th, f, pc0, "java/lang/NullPointerException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			monitorFor(ref).Lock()
		case opMonitorexit:
			ref := f.popRef()
			if ref == nil {
				if err := ip.fault(th, f, pc0, "java/lang/NullPointerException"); err != nil {
					return object.Slot{}, err
				}
				continue
			}
			monitorFor(ref).Unlock()

		case opWide:
			if err := ip.execWide(f); err != nil {
				return object.Slot{}, err
			}

		default:
			return object.Slot{}, vmerr.New(vmerr.ClassFileInvalid, "unimplemented opcode")
		}
	}
}

// handleThrown checks whether err is a *ThrownError f's own exception
// table catches; if so it installs the handler pc and returns true so
// the caller can `continue` its dispatch loop instead of propagating.
func (ip *Interpreter) handleThrown(f *Frame, pc0 int, err error) bool {
	var te *ThrownError
	if !errors.As(err, &te) {
		return false
	}
	handlerPC, caught := ip.raiseIn(f, pc0, te.Obj)
	if !caught {
		return false
	}
	f.sp = 0
	f.pushRef(te.Obj)
	f.pc = handlerPC
	return true
}

