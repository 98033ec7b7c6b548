/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/hanakeichen/rsvm-go/internal/memory"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// primitiveAtypeDescriptor maps a newarray type tag to its field
// descriptor letter, per the class-file format's atype encoding.
func primitiveAtypeDescriptor(atype byte) (string, error) {
	switch atype {
	case atBoolean:
		return "Z", nil
	case atChar:
		return "C", nil
	case atFloat:
		return "F", nil
	case atDouble:
		return "D", nil
	case atByte:
		return "B", nil
	case atShort:
		return "S", nil
	case atInt:
		return "I", nil
	case atLong:
		return "J", nil
	default:
		return "", vmerr.New(vmerr.ClassFileInvalid, "invalid newarray type")
	}
}

// arrayClassDescriptor builds the "[..." descriptor one more array
// dimension over component denotes, per spec.md §4.6's array-class
// naming: "[" + the component's own descriptor form for primitives and
// nested arrays, "[L...;" for ordinary classes.
func arrayClassDescriptor(component *object.Class) string {
	if component.IsArray() {
		return "[" + component.Name()
	}
	if isPrimitiveClassName(component.Name()) {
		return "[" + component.Name()
	}
	return "[L" + component.Name() + ";"
}

func isPrimitiveClassName(name string) bool {
	return len(name) == 1 && object.Kind(name) != object.KindReference
}

// newPrimitiveArrayOfKind allocates a primitive array, using
// object.SizeOf for element width.
func newPrimitiveArrayOfKind(tlab *memory.TLAB, cls *object.Class, desc string, length int32) *object.Array {
	return object.NewPrimitiveArray(tlab, cls, length, object.SizeOf(desc))
}

// allocMultiArray recursively allocates a multidimensional array:
// lengths[0] is this level's own length; lengths[1:] describe the
// inner dimensions, applied to each of this level's elements, per
// spec.md §4.7's multianewarray description ("top is innermost" — the
// caller is expected to have already reordered lengths so index 0 is
// outermost). Every level is allocated off the same tlab as the
// top-level array.
func (ip *Interpreter) allocMultiArray(tlab *memory.TLAB, cls *object.Class, lengths []int32) (object.Reference, error) {
	if lengths[0] < 0 {
		return nil, vmerr.New(vmerr.ArrayBounds, "negative array size")
	}
	component := cls.Data.ComponentType
	if len(lengths) == 1 {
		if component != nil && (component.IsArray() || !isPrimitiveClassName(component.Name())) {
			return object.NewReferenceArray(tlab, cls, lengths[0]), nil
		}
		return newPrimitiveArrayOfKind(tlab, cls, componentDescLetter(component), lengths[0]), nil
	}
	arr := object.NewReferenceArray(tlab, cls, lengths[0])
	for i := int32(0); i < lengths[0]; i++ {
		inner, err := ip.allocMultiArray(tlab, component, lengths[1:])
		if err != nil {
			return nil, err
		}
		arr.SetRef(i, inner)
	}
	return arr, nil
}

func componentDescLetter(cls *object.Class) string {
	if cls == nil {
		return "I"
	}
	return cls.Name()
}

// arrayBoundsOK reports whether index lies within [0, arr.Length). It
// does not check arr for nil; callers do that and raise the
// NullPointerException/ArrayIndexOutOfBoundsException faults themselves.
func arrayBoundsOK(arr *object.Array, index int32) bool {
	return index >= 0 && index < arr.Length
}
