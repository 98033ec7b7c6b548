/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"encoding/binary"
	"math"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/thread"
)

// Frame is one call's activation record, per spec.md §4.7: a locals
// region, an operand stack, and the out-of-band metadata (declaring
// class, method, caller frame, Java-top flag, handle-scope snapshot)
// the spec groups separately from the two slot regions. Go's own call
// stack already provides prev_sp/prev_bp/prev_pc bookkeeping via the
// Prev pointer and the interpreter's recursive Execute call, so those
// three saved registers the spec names are implicit rather than
// fields here.
type Frame struct {
	Class  *object.Class
	Method *object.Method
	Locals []object.Slot
	Stack  []object.Slot
	sp     int
	pc     int
	Prev   *Frame

	// IsJavaTop marks the frame the interpreter loop was entered with
	// directly from a native call shape (vm.call_static, etc.); when
	// this frame returns, Execute exits rather than resuming a caller
	// frame.
	IsJavaTop bool

	Scope *thread.HandleScope
}

// NewFrame allocates a callee frame sized per the method's own
// max_locals/max_stack, as computed by the class-file parser.
func NewFrame(cls *object.Class, m *object.Method, prev *Frame) *Frame {
	return &Frame{
		Class:  cls,
		Method: m,
		Locals: make([]object.Slot, m.MaxLocals),
		Stack:  make([]object.Slot, m.MaxStack+1),
		Prev:   prev,
	}
}

func (f *Frame) push(s object.Slot) { f.Stack[f.sp] = s; f.sp++ }
func (f *Frame) pop() object.Slot   { f.sp--; return f.Stack[f.sp] }
func (f *Frame) peek() object.Slot  { return f.Stack[f.sp-1] }

func (f *Frame) pushInt(v int32)  { f.push(object.Slot{Raw: uint64(uint32(v))}) }
func (f *Frame) popInt() int32    { return int32(uint32(f.pop().Raw)) }
func (f *Frame) pushLong(v int64) { f.push(object.Slot{Raw: uint64(v)}) }
func (f *Frame) popLong() int64   { return int64(f.pop().Raw) }

func (f *Frame) pushFloat(v float32) { f.push(object.Slot{Raw: uint64(math.Float32bits(v))}) }
func (f *Frame) popFloat() float32   { return math.Float32frombits(uint32(f.pop().Raw)) }
func (f *Frame) pushDouble(v float64) { f.push(object.Slot{Raw: math.Float64bits(v)}) }
func (f *Frame) popDouble() float64   { return math.Float64frombits(f.pop().Raw) }

func (f *Frame) pushRef(r object.Reference) { f.push(object.Slot{Ref: r}) }
func (f *Frame) popRef() object.Reference   { return f.pop().Ref }

func (f *Frame) pushBool(b bool) {
	if b {
		f.pushInt(1)
	} else {
		f.pushInt(0)
	}
}

// code addressing; every opcode handler reads its operands through
// these, per spec.md §4.7's "pc positioned immediately after the
// opcode byte" contract.
func (f *Frame) u8() byte {
	v := f.Method.Code[f.pc]
	f.pc++
	return v
}

func (f *Frame) i8() int8 { return int8(f.u8()) }

func (f *Frame) u16() uint16 {
	v := binary.BigEndian.Uint16(f.Method.Code[f.pc:])
	f.pc += 2
	return v
}

func (f *Frame) i16() int16 { return int16(f.u16()) }

func (f *Frame) u32() uint32 {
	v := binary.BigEndian.Uint32(f.Method.Code[f.pc:])
	f.pc += 4
	return v
}

func (f *Frame) i32() int32 { return int32(f.u32()) }

func (f *Frame) localInt(i int) int32       { return int32(uint32(f.Locals[i].Raw)) }
func (f *Frame) setLocalInt(i int, v int32) { f.Locals[i] = object.Slot{Raw: uint64(uint32(v))} }
func (f *Frame) localLong(i int) int64      { return int64(f.Locals[i].Raw) }
func (f *Frame) setLocalLong(i int, v int64) { f.Locals[i] = object.Slot{Raw: uint64(v)} }
func (f *Frame) localFloat(i int) float32   { return math.Float32frombits(uint32(f.Locals[i].Raw)) }
func (f *Frame) setLocalFloat(i int, v float32) {
	f.Locals[i] = object.Slot{Raw: uint64(math.Float32bits(v))}
}
func (f *Frame) localDouble(i int) float64 { return math.Float64frombits(f.Locals[i].Raw) }
func (f *Frame) setLocalDouble(i int, v float64) {
	f.Locals[i] = object.Slot{Raw: math.Float64bits(v)}
}
func (f *Frame) localRef(i int) object.Reference       { return f.Locals[i].Ref }
func (f *Frame) setLocalRef(i int, r object.Reference) { f.Locals[i] = object.Slot{Ref: r} }
