/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// FieldDescriptor splits a single field descriptor starting at offset 0
// of desc, returning the descriptor text consumed and an error for any
// malformed input, per spec.md §4.4's descriptor parser: primitive
// letters are self-contained, "L...;" runs to the next semicolon, "["
// recursively consumes the component type but the array's own
// descriptor is the full "[..." run.
func FieldDescriptor(desc string) (consumed string, err error) {
	if desc == "" {
		return "", vmerr.CFE("empty descriptor")
	}
	switch object.Kind(desc) {
	case object.KindByte, object.KindChar, object.KindDouble, object.KindFloat,
		object.KindInt, object.KindLong, object.KindShort, object.KindBoolean, object.KindVoid:
		return desc[:1], nil
	case object.KindReference:
		i := 1
		for i < len(desc) && desc[i] != ';' {
			i++
		}
		if i >= len(desc) {
			return "", vmerr.CFE("unterminated reference descriptor: " + desc)
		}
		return desc[:i+1], nil
	case object.KindArray:
		inner, err := FieldDescriptor(desc[1:])
		if err != nil {
			return "", err
		}
		return "[" + inner, nil
	default:
		return "", vmerr.CFE("malformed descriptor: " + desc)
	}
}

// MethodDescriptor decodes "(ParamDesc*)ReturnDesc" into the ordered
// parameter descriptor list and the return descriptor, per spec.md
// §4.4's "(" and ")" explicit-token handling.
func MethodDescriptor(desc string) (params []string, ret string, err error) {
	if len(desc) < 2 || desc[0] != '(' {
		return nil, "", vmerr.CFE("malformed method descriptor: " + desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		consumed, err := FieldDescriptor(desc[i:])
		if err != nil {
			return nil, "", err
		}
		params = append(params, consumed)
		i += len(consumed)
	}
	if i >= len(desc) || desc[i] != ')' {
		return nil, "", vmerr.CFE("unterminated parameter list: " + desc)
	}
	i++
	retDesc, err := FieldDescriptor(desc[i:])
	if err != nil {
		return nil, "", err
	}
	if i+len(retDesc) != len(desc) {
		return nil, "", vmerr.CFE("trailing bytes after return descriptor: " + desc)
	}
	return params, retDesc, nil
}

// ComponentDescriptor strips one leading '[' and returns the component
// type's descriptor, used by newarray/anewarray/multianewarray and by
// array-class synthesis in the classloader.
func ComponentDescriptor(arrayDesc string) (string, error) {
	if object.Kind(arrayDesc) != object.KindArray {
		return "", vmerr.CFE("not an array descriptor: " + arrayDesc)
	}
	return arrayDesc[1:], nil
}
