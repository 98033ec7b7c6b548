/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vmerr holds the typed error kinds from which the interpreter
// constructs thrown Java exceptions, plus a class-format-error helper
// in the teacher's style.
package vmerr

import (
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
)

// Kind distinguishes the error categories spec.md §7 lists. The
// interpreter and classloader use these to decide which Throwable, if
// any, a given failure surfaces as.
type Kind int

const (
	ClassFileInvalid Kind = iota
	ClassLinkFailed
	ClassInitFailed
	MethodResolutionError
	NullReference
	ArrayBounds
	ArrayStore
	ArithmeticError
	ClassCastError
	OutOfMemory
	FormatViolation
)

func (k Kind) String() string {
	switch k {
	case ClassFileInvalid:
		return "ClassFileInvalid"
	case ClassLinkFailed:
		return "ClassLinkFailed"
	case ClassInitFailed:
		return "ClassInitFailed"
	case MethodResolutionError:
		return "MethodResolutionError"
	case NullReference:
		return "NullReference"
	case ArrayBounds:
		return "ArrayBounds"
	case ArrayStore:
		return "ArrayStore"
	case ArithmeticError:
		return "ArithmeticError"
	case ClassCastError:
		return "ClassCastError"
	case OutOfMemory:
		return "OutOfMemory"
	case FormatViolation:
		return "FormatViolation"
	default:
		return "Unknown"
	}
}

// VMError is the typed error every subsystem returns instead of a bare
// string error. Kind lets callers recover the category with errors.As
// without parsing messages.
type VMError struct {
	Kind Kind
	Msg  string
	loc  string
}

func (e *VMError) Error() string {
	if e.loc != "" {
		return e.Kind.String() + ": " + e.Msg + " (" + e.loc + ")"
	}
	return e.Kind.String() + ": " + e.Msg
}

// New constructs a VMError of the given kind, tagging it with the
// caller's file and line the way the teacher's cfe() does.
func New(kind Kind, msg string) error {
	e := &VMError{Kind: kind, Msg: msg}
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			file, line := fn.FileLine(pc)
			e.loc = filepath.Base(file) + ":" + strconv.Itoa(line)
		}
	}
	return e
}

// Wrap attaches additional context to an existing error without losing
// the original Kind, via github.com/pkg/errors so the full cause chain
// remains inspectable with errors.Cause.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Is reports whether err (or any error it wraps) is a VMError of kind k.
func Is(err error, k Kind) bool {
	for err != nil {
		if ve, ok := err.(*VMError); ok {
			return ve.Kind == k
		}
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = causer(err)
		}
		if cause == err || cause == nil {
			return false
		}
		err = cause
	}
	return false
}

func causer(err error) error {
	type causerIface interface{ Cause() error }
	if c, ok := err.(causerIface); ok {
		return c.Cause()
	}
	return nil
}

// CFE constructs a ClassFileInvalid error tagged with the caller's
// location, mirroring artipop-jacobin's classloader.cfe/CFE helpers.
func CFE(msg string) error {
	e := &VMError{Kind: ClassFileInvalid, Msg: "class format error: " + msg}
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			file, line := fn.FileLine(pc)
			e.loc = filepath.Base(file) + ":" + strconv.Itoa(line)
		}
	}
	return e
}
