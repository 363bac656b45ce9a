// Package bytecode implements a minimal, in-process JVM class-file
// parser: enough of the constant pool to extract UTF-8 constants, method
// references, and nearby integer constants for keysize correlation. Code
// attributes are not read. It is not a general-purpose class-file library.
package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Constant pool tag values, per the JVM class file format (JVMS 4.4).
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// cpEntry is one constant-pool slot. Long/Double entries occupy two
// slots per JVMS 4.4.5; the second slot is left zero-valued.
type cpEntry struct {
	tag              byte
	utf8             string
	classNameIdx     uint16 // tagClass: index of the UTF8 name
	nameAndTypeIdx   uint16 // tagMethodref/tagFieldref: index of a NameAndType
	classRefIdx      uint16 // tagMethodref/tagFieldref: index of a Class
	nameIdx, typeIdx uint16 // tagNameAndType
	intVal           int32
}

// MethodRef is a resolved method reference: "pkg/Class" + "method".
type MethodRef struct {
	Class  string // internal form, slashes, e.g. "java/security/KeyPairGenerator"
	Method string
}

// ClassFile holds everything this scanner needs out of a parsed .class:
// every UTF-8 constant (for regex scanning), every resolved method
// reference, and every integer constant, each in constant-pool
// declaration order, so callers can search "near" a given method
// reference in the constant table.
type ClassFile struct {
	Utf8Constants  []string
	MethodRefs     []MethodRef
	IntConstants   []int32
	// order lists the UTF-8, method-ref and integer entries in pool
	// declaration order, each pointing at its position in the slice above,
	// used to correlate a method ref's pool position with nearby
	// string/int constants.
	order []cpOrderEntry
}

type cpOrderEntry struct {
	kind byte // 'u' utf8, 'm' methodref, 'i' integer
	pos  int  // index into the respective slice above
}

// Parse reads a .class file's constant pool. If the magic number, a tag or
// a length field is malformed or the data is truncated, it returns a nil
// ClassFile and a non-nil error; nothing of a partly read pool is kept.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{data: data}
	magic, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("bytecode: reading magic: %w", err)
	}
	if magic != 0xCAFEBABE {
		return nil, fmt.Errorf("bytecode: bad magic %#x", magic)
	}
	if _, err := r.u2(); err != nil { // minor version
		return nil, err
	}
	if _, err := r.u2(); err != nil { // major version
		return nil, err
	}
	count, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("bytecode: reading constant pool count: %w", err)
	}

	// Constant pool entries are 1-indexed; index 0 is unused.
	pool := make([]cpEntry, count)
	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, fmt.Errorf("bytecode: reading tag at index %d: %w", i, err)
		}
		switch tag {
		case tagUtf8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, utf8: string(b)}
		case tagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, intVal: int32(v)}
		case tagFloat:
			if _, err := r.u4(); err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag}
		case tagLong, tagDouble:
			if _, err := r.u4(); err != nil {
				return nil, err
			}
			if _, err := r.u4(); err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag}
			i++ // occupies two slots
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, classNameIdx: idx}
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			classIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			ntIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, classRefIdx: classIdx, nameAndTypeIdx: ntIdx}
		case tagNameAndType:
			nameIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			typeIdx, err := r.u2()
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, nameIdx: nameIdx, typeIdx: typeIdx}
		case tagMethodHandle:
			if _, err := r.u1(); err != nil {
				return nil, err
			}
			if _, err := r.u2(); err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag}
		case tagInvokeDynamic:
			if _, err := r.u2(); err != nil {
				return nil, err
			}
			if _, err := r.u2(); err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag}
		default:
			return nil, fmt.Errorf("bytecode: unknown constant tag %d at index %d", tag, i)
		}
	}

	cf := &ClassFile{}
	for i := uint16(1); i < count; i++ {
		switch pool[i].tag {
		case tagUtf8:
			cf.Utf8Constants = append(cf.Utf8Constants, pool[i].utf8)
			cf.order = append(cf.order, cpOrderEntry{'u', len(cf.Utf8Constants) - 1})
		case tagInteger:
			cf.IntConstants = append(cf.IntConstants, pool[i].intVal)
			cf.order = append(cf.order, cpOrderEntry{'i', len(cf.IntConstants) - 1})
		case tagMethodref, tagInterfaceMethodref:
			ref, ok := resolveMethodRef(pool, pool[i])
			if ok {
				cf.MethodRefs = append(cf.MethodRefs, ref)
				cf.order = append(cf.order, cpOrderEntry{'m', len(cf.MethodRefs) - 1})
			}
		}
	}
	return cf, nil
}

func resolveMethodRef(pool []cpEntry, e cpEntry) (MethodRef, bool) {
	if int(e.classRefIdx) >= len(pool) || int(e.nameAndTypeIdx) >= len(pool) {
		return MethodRef{}, false
	}
	classEntry := pool[e.classRefIdx]
	if classEntry.tag != tagClass || int(classEntry.classNameIdx) >= len(pool) {
		return MethodRef{}, false
	}
	className := pool[classEntry.classNameIdx].utf8

	ntEntry := pool[e.nameAndTypeIdx]
	if ntEntry.tag != tagNameAndType || int(ntEntry.nameIdx) >= len(pool) {
		return MethodRef{}, false
	}
	methodName := pool[ntEntry.nameIdx].utf8
	return MethodRef{Class: className, Method: methodName}, true
}

// NearbyInts returns up to window integer constants that appear at or
// after the given MethodRefs index in constant-pool declaration order,
// used to correlate a KeyPairGenerator.initialize(I)V reference with the
// keysize literal that follows it.
func (cf *ClassFile) NearbyInts(methodRefPos, window int) []int32 {
	var found []int32
	afterTarget := false
	seenMethodRef := 0
	taken := 0
	for _, o := range cf.order {
		if o.kind == 'm' {
			if seenMethodRef == methodRefPos {
				afterTarget = true
			}
			seenMethodRef++
			continue
		}
		if afterTarget && o.kind == 'i' {
			found = append(found, cf.IntConstants[o.pos])
			taken++
			if taken >= window {
				break
			}
		}
	}
	return found
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) u1() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("bytecode: unexpected EOF reading u1 at %d", r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("bytecode: unexpected EOF reading u2 at %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("bytecode: unexpected EOF reading u4 at %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("bytecode: unexpected EOF reading %d bytes at %d", n, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
