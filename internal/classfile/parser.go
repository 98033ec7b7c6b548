/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"math"

	"github.com/hanakeichen/rsvm-go/internal/memory"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/symbol"
	"github.com/hanakeichen/rsvm-go/internal/trace"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

const (
	magic      = 0xCAFEBABE
	minMajor   = 45
	maxMajor   = 57
)

// Parse decodes a complete class file, per spec.md §4.4's algorithm
// sketch, returning an unlinked *object.Class (Super/Interfaces left as
// name symbols for the linker to resolve against the loader). heap
// charges the class object itself against permanent space, per
// spec.md §3's Lifecycles (heap may be nil in tests that don't need
// the memory subsystem).
func Parse(buf []byte, symtab *symbol.Table, heap *memory.Heap) (*object.Class, error) {
	r := NewReader(buf)

	m, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, vmerr.New(vmerr.ClassFileInvalid, "bad magic number")
	}
	_, err = r.ReadU16() // minor version, not checked
	if err != nil {
		return nil, err
	}
	major, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if major < minMajor || major > maxMajor {
		return nil, vmerr.New(vmerr.ClassFileInvalid, "unsupported major version")
	}

	cp, err := parseConstantPool(r, symtab)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	thisClassIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	superClassIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}

	cls := object.NewClass(heap)
	cls.Data.ConstantPool = cp
	cls.Data.AccessFlags = object.AccessFlags(accessFlags)
	if err := checkCPIndex(cp, thisClassIdx, object.CPClass); err != nil {
		return nil, err
	}
	cls.Data.Name = cp.ClassNameAt(thisClassIdx)

	if superClassIdx != 0 {
		if err := checkCPIndex(cp, superClassIdx, object.CPClass); err != nil {
			return nil, err
		}
		cls.Data.SuperName = cp.ClassNameAt(superClassIdx)
	}

	ifaceCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		if err := checkCPIndex(cp, idx, object.CPClass); err != nil {
			return nil, err
		}
		cls.Data.InterfaceNames = append(cls.Data.InterfaceNames, cp.ClassNameAt(idx))
	}

	fields, err := parseFields(r, cp)
	if err != nil {
		return nil, err
	}
	cls.Data.Fields = fields

	methods, err := parseMethods(r, cp, cls)
	if err != nil {
		return nil, err
	}
	cls.Data.Methods = methods

	// class attributes: consumed and, for the interpreted subset, kept
	// only insofar as they influence nothing the interpreter needs;
	// spec.md §6 says the rest are "consumed and ignored".
	attrCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(attrCount); i++ {
		if err := skipAttribute(r, cp); err != nil {
			return nil, err
		}
	}

	trace.Trace("classfile: parsed "+cls.Name(), trace.WithField("component", "classfile"))
	return cls, nil
}

func checkCPIndex(cp *object.ConstantPool, idx uint16, want object.CPTag) error {
	if int(idx) <= 0 || int(idx) >= cp.Count() {
		return vmerr.New(vmerr.ClassFileInvalid, "constant-pool index out of range")
	}
	if cp.Tags[idx] != want {
		return vmerr.New(vmerr.ClassFileInvalid, "constant-pool entry has wrong tag")
	}
	return nil
}

// parseConstantPool parses the constant pool, interning every Utf8
// entry through symtab and skipping the slot following a Long/Double
// entry, per spec.md §4.4 step 2.
func parseConstantPool(r *Reader, symtab *symbol.Table) (*object.ConstantPool, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cp := object.NewConstantPool(int(count))

	for i := 1; i < int(count); i++ {
		tag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 1: // Utf8
			length, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			raw, err := r.ReadBytes(int(length))
			if err != nil {
				return nil, err
			}
			sym := symtab.InternBytes(raw)
			cp.Tags[i] = object.CPUtf8
			cp.Slot[i] = uint16(len(cp.Utf8))
			cp.Utf8 = append(cp.Utf8, sym)

		case 3: // Integer
			v, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPInteger
			cp.Slot[i] = uint16(len(cp.Integers))
			cp.Integers = append(cp.Integers, int32(v))

		case 4: // Float
			v, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPFloat
			cp.Slot[i] = uint16(len(cp.Floats))
			cp.Floats = append(cp.Floats, math.Float32frombits(v))

		case 5: // Long
			v, err := r.ReadU64()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPLong
			cp.Slot[i] = uint16(len(cp.Longs))
			cp.Longs = append(cp.Longs, int64(v))
			i++ // Long/Double consume two indices

		case 6: // Double
			v, err := r.ReadU64()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPDouble
			cp.Slot[i] = uint16(len(cp.Doubles))
			cp.Doubles = append(cp.Doubles, math.Float64frombits(v))
			i++

		case 7: // Class
			nameIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPClass
			cp.Slot[i] = uint16(len(cp.Classes))
			cp.Classes = append(cp.Classes, nameIdx)

		case 8: // String
			utf8Idx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPString
			cp.Slot[i] = uint16(len(cp.Strings))
			cp.Strings = append(cp.Strings, utf8Idx)

		case 9, 10, 11: // Fieldref, Methodref, InterfaceMethodref
			classIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			natIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			kind := object.CPFieldref
			switch tag {
			case 10:
				kind = object.CPMethodref
			case 11:
				kind = object.CPInterfaceMethodref
			}
			cp.Tags[i] = kind
			cp.Slot[i] = uint16(len(cp.MemberRefs))
			cp.MemberRefs = append(cp.MemberRefs, object.MemberRef{ClassIndex: classIdx, NameAndTypeIndex: natIdx})

		case 12: // NameAndType
			nameIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			descIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPNameAndType
			cp.Slot[i] = uint16(len(cp.NameAndTypes))
			cp.NameAndTypes = append(cp.NameAndTypes, object.NameAndType{NameIndex: nameIdx, DescIndex: descIdx})

		case 15: // MethodHandle
			refKind, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			refIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPMethodHandle
			cp.Slot[i] = uint16(len(cp.MethodHandles))
			cp.MethodHandles = append(cp.MethodHandles, object.MethodHandleRef{RefKind: refKind, RefIndex: refIdx})

		case 16: // MethodType
			descIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPMethodType
			cp.Slot[i] = uint16(len(cp.MethodTypes))
			cp.MethodTypes = append(cp.MethodTypes, descIdx)

		case 18: // InvokeDynamic
			bsIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			natIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			cp.Tags[i] = object.CPInvokeDynamic
			cp.Slot[i] = uint16(len(cp.InvokeDynamics))
			cp.InvokeDynamics = append(cp.InvokeDynamics, object.InvokeDynamicRef{BootstrapIndex: bsIdx, NameAndType: natIdx})

		default:
			return nil, vmerr.New(vmerr.ClassFileInvalid, "unknown constant-pool tag")
		}
	}
	return cp, nil
}

func parseFields(r *Reader, cp *object.ConstantPool) ([]*object.Field, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	fields := make([]*object.Field, 0, count)
	for i := 0; i < int(count); i++ {
		accessFlags, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		if err := checkCPIndex(cp, nameIdx, object.CPUtf8); err != nil {
			return nil, err
		}
		if err := checkCPIndex(cp, descIdx, object.CPUtf8); err != nil {
			return nil, err
		}
		desc := cp.Utf8At(descIdx).String()
		if _, err := FieldDescriptor(desc); err != nil {
			return nil, err
		}

		f := &object.Field{
			AccessFlags: object.AccessFlags(accessFlags),
			Name:        cp.Utf8At(nameIdx),
			Descriptor:  cp.Utf8At(descIdx),
			ConstIndex:  -1,
		}

		attrCount, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		for j := 0; j < int(attrCount); j++ {
			name, content, err := readAttribute(r, cp)
			if err != nil {
				return nil, err
			}
			if name == "ConstantValue" && len(content) == 2 {
				f.ConstIndex = int(content[0])<<8 | int(content[1])
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseMethods(r *Reader, cp *object.ConstantPool, owner *object.Class) ([]*object.Method, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	methods := make([]*object.Method, 0, count)
	for i := 0; i < int(count); i++ {
		accessFlags, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		if err := checkCPIndex(cp, nameIdx, object.CPUtf8); err != nil {
			return nil, err
		}
		if err := checkCPIndex(cp, descIdx, object.CPUtf8); err != nil {
			return nil, err
		}
		descStr := cp.Utf8At(descIdx).String()
		params, ret, err := MethodDescriptor(descStr)
		if err != nil {
			return nil, err
		}

		m := &object.Method{
			DeclClass:   owner,
			Name:        cp.Utf8At(nameIdx),
			Descriptor:  cp.Utf8At(descIdx),
			ParamDescs:  params,
			ReturnDesc:  ret,
			AccessFlags: object.AccessFlags(accessFlags),
			VtableIndex: -1,
		}

		attrCount, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		for j := 0; j < int(attrCount); j++ {
			name, err := peekAttributeName(r, cp)
			if err != nil {
				return nil, err
			}
			if name == "Code" {
				if err := parseCodeAttribute(r, cp, m); err != nil {
					return nil, err
				}
			} else {
				if _, _, err := readAttribute(r, cp); err != nil {
					return nil, err
				}
			}
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// peekAttributeName reads the attribute_name_index that prefixes every
// attribute without consuming the rest, so the caller can branch on the
// name before deciding how to parse the body.
func peekAttributeName(r *Reader, cp *object.ConstantPool) (string, error) {
	peeked, err := r.PeekN(2)
	if err != nil {
		return "", err
	}
	nameIdx := uint16(peeked[0])<<8 | uint16(peeked[1])
	if err := checkCPIndex(cp, nameIdx, object.CPUtf8); err != nil {
		return "", err
	}
	return cp.Utf8At(nameIdx).String(), nil
}

// readAttribute consumes one attribute (name + length-prefixed body)
// and returns its name and raw content, for attributes the parser does
// not specially decode.
func readAttribute(r *Reader, cp *object.ConstantPool) (name string, content []byte, err error) {
	nameIdx, err := r.ReadU16()
	if err != nil {
		return "", nil, err
	}
	if err := checkCPIndex(cp, nameIdx, object.CPUtf8); err != nil {
		return "", nil, err
	}
	name = cp.Utf8At(nameIdx).String()
	length, err := r.ReadU32()
	if err != nil {
		return "", nil, err
	}
	content, err = r.ReadBytes(int(length))
	if err != nil {
		return "", nil, err
	}
	return name, content, nil
}

func skipAttribute(r *Reader, cp *object.ConstantPool) error {
	_, _, err := readAttribute(r, cp)
	return err
}

// parseCodeAttribute decodes max_stack, max_locals, the code array, and
// the exception table, per spec.md §4.4 step 6; the code bytes are
// copied inline into the method's own storage.
func parseCodeAttribute(r *Reader, cp *object.ConstantPool, m *object.Method) error {
	nameIdx, err := r.ReadU16()
	if err != nil {
		return err
	}
	if err := checkCPIndex(cp, nameIdx, object.CPUtf8); err != nil {
		return err
	}
	if _, err := r.ReadU32(); err != nil { // attribute_length, recomputed implicitly
		return err
	}

	maxStack, err := r.ReadU16()
	if err != nil {
		return err
	}
	maxLocals, err := r.ReadU16()
	if err != nil {
		return err
	}
	codeLen, err := r.ReadU32()
	if err != nil {
		return err
	}
	code, err := r.ReadBytes(int(codeLen))
	if err != nil {
		return err
	}
	m.MaxStack = int(maxStack)
	m.MaxLocals = int(maxLocals)
	m.Code = append([]byte(nil), code...)

	excCount, err := r.ReadU16()
	if err != nil {
		return err
	}
	for i := 0; i < int(excCount); i++ {
		startPC, err := r.ReadU16()
		if err != nil {
			return err
		}
		endPC, err := r.ReadU16()
		if err != nil {
			return err
		}
		handlerPC, err := r.ReadU16()
		if err != nil {
			return err
		}
		catchType, err := r.ReadU16()
		if err != nil {
			return err
		}
		m.ExceptionTable = append(m.ExceptionTable, object.ExceptionTableEntry{
			StartPC:   int(startPC),
			EndPC:     int(endPC),
			HandlerPC: int(handlerPC),
			CatchType: catchType,
		})
	}

	// the Code attribute has its own sub-attributes (e.g.
	// LineNumberTable, StackMapTable); consumed and ignored for
	// execution purposes, per spec.md §4.4 step 6.
	subAttrCount, err := r.ReadU16()
	if err != nil {
		return err
	}
	for i := 0; i < int(subAttrCount); i++ {
		if err := skipAttribute(r, cp); err != nil {
			return err
		}
	}
	return nil
}
