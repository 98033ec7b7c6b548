/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"fmt"
	"os"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// loadIO installs java/io/FileOutputStream and java/io/PrintStream's
// natives, grounded on the PrintStream dispatch shape
// daimatz-gojvm/pkg/vm/vm.go's handlePrintStream uses (fd-keyed
// writer, descriptor switch per println/print overload). The stream's
// FileDescriptor is not read: both FileOutputStream write natives pass
// fd 1 to streamWriter, so all of their output goes to stdout.
func loadIO(r *Registry) {
	r.registerBuiltin("java/io/FileOutputStream", "writeBytes", "([BIIZ)V", fileOutputStreamWriteBytes)
	r.registerBuiltin("java/io/FileOutputStream", "write", "(IZ)V", fileOutputStreamWrite)
	r.registerBuiltin("java/io/PrintStream", "println", "(I)V", printStreamPrintlnInt)
	r.registerBuiltin("java/io/PrintStream", "println", "(J)V", printStreamPrintlnLong)
	r.registerBuiltin("java/io/PrintStream", "println", "(Ljava/lang/String;)V", printStreamPrintlnString)
	r.registerBuiltin("java/io/PrintStream", "println", "()V", printStreamPrintlnVoid)
	r.registerBuiltin("java/io/PrintStream", "print", "(I)V", printStreamPrintInt)
	r.registerBuiltin("java/io/PrintStream", "print", "(Ljava/lang/String;)V", printStreamPrintString)
}

// streamWriter maps an fd number to stderr for 2 and to stdout for
// anything else; the VM has no open file table. Its callers in this
// file always pass 1.
func streamWriter(fd int64) *os.File {
	if fd == 2 {
		return os.Stderr
	}
	return os.Stdout
}

func fileOutputStreamWriteBytes(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 5 || args[1].Ref == nil {
		return object.Slot{}, vmerr.New(vmerr.NullReference, "writeBytes: null buffer")
	}
	arr, ok := args[1].Ref.(*object.Array)
	if !ok || arr.IsReference() {
		return object.Slot{}, vmerr.New(vmerr.ArrayStore, "writeBytes: argument is not a byte[]")
	}
	off := int(args[2].Raw)
	length := int(args[3].Raw)
	if off < 0 || length < 0 || off+length > len(arr.Bytes) {
		return object.Slot{}, vmerr.New(vmerr.ArrayBounds, "writeBytes: out of bounds")
	}
	w := streamWriter(1)
	_, err := w.Write(arr.Bytes[off : off+length])
	if err != nil {
		return object.Slot{}, vmerr.New(vmerr.OutOfMemory, "writeBytes: "+err.Error())
	}
	return object.Slot{}, nil
}

func fileOutputStreamWrite(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "write: missing byte argument")
	}
	b := byte(args[1].Raw)
	_, err := streamWriter(1).Write([]byte{b})
	if err != nil {
		return object.Slot{}, vmerr.New(vmerr.OutOfMemory, "write: "+err.Error())
	}
	return object.Slot{}, nil
}

func printStreamPrintlnInt(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "println: missing argument")
	}
	fmt.Fprintln(os.Stdout, int32(args[1].Raw))
	return object.Slot{}, nil
}

func printStreamPrintlnLong(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "println: missing argument")
	}
	fmt.Fprintln(os.Stdout, int64(args[1].Raw))
	return object.Slot{}, nil
}

func printStreamPrintInt(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "print: missing argument")
	}
	fmt.Fprint(os.Stdout, int32(args[1].Raw))
	return object.Slot{}, nil
}

func printStreamPrintlnString(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "println: missing argument")
	}
	fmt.Fprintln(os.Stdout, slotRefString(args[1]))
	return object.Slot{}, nil
}

func printStreamPrintString(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) < 2 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "print: missing argument")
	}
	fmt.Fprint(os.Stdout, slotRefString(args[1]))
	return object.Slot{}, nil
}

func printStreamPrintlnVoid(env interface{}, args []object.Slot) (object.Slot, error) {
	fmt.Fprintln(os.Stdout)
	return object.Slot{}, nil
}
