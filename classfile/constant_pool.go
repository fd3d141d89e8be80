package classfile

import (
	"math"

	"github.com/javelin-rt/javelin/classfile/internal/binary"
	"github.com/javelin-rt/javelin/errors"
)

// Constant is a constant pool entry. The concrete type is determined by the
// tag byte on disk.
type Constant interface {
	Tag() uint8
}

// Utf8Constant holds a decoded modified-UTF-8 string (tag 1).
type Utf8Constant struct {
	Value string
}

// IntegerConstant holds a 32-bit integer (tag 3).
type IntegerConstant struct {
	Value int32
}

// FloatConstant holds a 32-bit IEEE 754 float (tag 4).
type FloatConstant struct {
	Value float32
}

// LongConstant holds a 64-bit integer (tag 5). It occupies two pool slots.
type LongConstant struct {
	Value int64
}

// DoubleConstant holds a 64-bit IEEE 754 float (tag 6). It occupies two
// pool slots.
type DoubleConstant struct {
	Value float64
}

// ClassConstant references a class or interface by name (tag 7).
type ClassConstant struct {
	NameIndex uint16
}

// StringConstant references a Utf8 entry holding a string literal (tag 8).
type StringConstant struct {
	StringIndex uint16
}

// FieldrefConstant references a field of a class (tag 9).
type FieldrefConstant struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// MethodrefConstant references a method of a class (tag 10).
type MethodrefConstant struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// InterfaceMethodrefConstant references a method of an interface (tag 11).
type InterfaceMethodrefConstant struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// NameAndTypeConstant pairs a name with a field or method descriptor (tag 12).
type NameAndTypeConstant struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

// MethodHandleConstant denotes a method handle (tag 15).
type MethodHandleConstant struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

// MethodTypeConstant denotes a method type (tag 16).
type MethodTypeConstant struct {
	DescriptorIndex uint16
}

// DynamicConstant denotes a dynamically-computed constant (tag 17).
type DynamicConstant struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// InvokeDynamicConstant denotes a dynamically-computed call site (tag 18).
type InvokeDynamicConstant struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// ModuleConstant references a module by name (tag 19).
type ModuleConstant struct {
	NameIndex uint16
}

// PackageConstant references a package by name (tag 20).
type PackageConstant struct {
	NameIndex uint16
}

func (*Utf8Constant) Tag() uint8               { return TagUtf8 }
func (*IntegerConstant) Tag() uint8            { return TagInteger }
func (*FloatConstant) Tag() uint8              { return TagFloat }
func (*LongConstant) Tag() uint8               { return TagLong }
func (*DoubleConstant) Tag() uint8             { return TagDouble }
func (*ClassConstant) Tag() uint8              { return TagClass }
func (*StringConstant) Tag() uint8             { return TagString }
func (*FieldrefConstant) Tag() uint8           { return TagFieldref }
func (*MethodrefConstant) Tag() uint8          { return TagMethodref }
func (*InterfaceMethodrefConstant) Tag() uint8 { return TagInterfaceMethodref }
func (*NameAndTypeConstant) Tag() uint8        { return TagNameAndType }
func (*MethodHandleConstant) Tag() uint8       { return TagMethodHandle }
func (*MethodTypeConstant) Tag() uint8         { return TagMethodType }
func (*DynamicConstant) Tag() uint8            { return TagDynamic }
func (*InvokeDynamicConstant) Tag() uint8      { return TagInvokeDynamic }
func (*ModuleConstant) Tag() uint8             { return TagModule }
func (*PackageConstant) Tag() uint8            { return TagPackage }

// ConstantPool holds the decoded pool, indexed from 1 as in the file format.
// Slot 0 is always nil, and the slot following a Long or Double entry is nil
// because the format reserves it.
type ConstantPool struct {
	entries []Constant
}

// NewConstantPool builds a pool from entries numbered from 1. The reserved
// continuation slot after each Long and Double entry is inserted
// automatically.
func NewConstantPool(entries ...Constant) *ConstantPool {
	slots := make([]Constant, 1, len(entries)+1)
	for _, c := range entries {
		slots = append(slots, c)
		if c != nil && (c.Tag() == TagLong || c.Tag() == TagDouble) {
			slots = append(slots, nil)
		}
	}
	return &ConstantPool{entries: slots}
}

// Count returns the number of pool slots, reserved slots included. Valid
// indices run from 1 through Count.
func (p *ConstantPool) Count() int {
	return len(p.entries) - 1
}

// Entry returns the entry at the given index, or nil when the index is zero,
// out of range, or a reserved continuation slot.
func (p *ConstantPool) Entry(index uint16) Constant {
	if int(index) >= len(p.entries) {
		return nil
	}
	return p.entries[index]
}

// Utf8 resolves the given index to a Utf8 entry's value.
func (p *ConstantPool) Utf8(index uint16) (string, error) {
	c := p.Entry(index)
	if c == nil {
		return "", errors.ExpectedString(index, 0)
	}
	u, ok := c.(*Utf8Constant)
	if !ok {
		return "", errors.ExpectedString(index, c.Tag())
	}
	return u.Value, nil
}

// ClassName resolves the given index through a Class entry to its name.
func (p *ConstantPool) ClassName(index uint16) (string, error) {
	c := p.Entry(index)
	if c == nil {
		return "", errors.WrongConstantType([]string{"constant_pool"}, index, TagClass, 0)
	}
	cls, ok := c.(*ClassConstant)
	if !ok {
		return "", errors.WrongConstantType([]string{"constant_pool"}, index, TagClass, c.Tag())
	}
	return p.Utf8(cls.NameIndex)
}

// NameAndType resolves the given index through a NameAndType entry to its
// name and descriptor strings.
func (p *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	c := p.Entry(index)
	if c == nil {
		return "", "", errors.WrongConstantType([]string{"constant_pool"}, index, TagNameAndType, 0)
	}
	nt, ok := c.(*NameAndTypeConstant)
	if !ok {
		return "", "", errors.WrongConstantType([]string{"constant_pool"}, index, TagNameAndType, c.Tag())
	}
	if name, err = p.Utf8(nt.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = p.Utf8(nt.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

func decodeConstantPool(r *binary.Reader) (*ConstantPool, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Path("constant_pool").
			Detail("constant_pool_count must be at least 1").
			Build()
	}

	entries := make([]Constant, 1, count)
	for len(entries) < int(count) {
		index := len(entries)
		tag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		c, err := decodeConstant(r, tag, index)
		if err != nil {
			return nil, err
		}
		entries = append(entries, c)

		if tag == TagLong || tag == TagDouble {
			// The second slot of an 8-byte entry is unusable. A Long or
			// Double in the final slot would push the continuation past
			// the declared count.
			if len(entries) == int(count) {
				return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
					Path("constant_pool").
					Detail("Long/Double entry at #%d leaves no room for its second slot", index).
					Build()
			}
			entries = append(entries, nil)
		}
	}

	return &ConstantPool{entries: entries}, nil
}

func decodeConstant(r *binary.Reader, tag uint8, index int) (Constant, error) {
	switch tag {
	case TagUtf8:
		length, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		pos := r.Position()
		data, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		s, ok := decodeModifiedUTF8(data)
		if !ok {
			return nil, errors.InvalidUTF8(pos, data)
		}
		return &Utf8Constant{Value: s}, nil

	case TagInteger:
		v, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		return &IntegerConstant{Value: v}, nil

	case TagFloat:
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &FloatConstant{Value: math.Float32frombits(v)}, nil

	case TagLong:
		v, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		return &LongConstant{Value: int64(v)}, nil

	case TagDouble:
		v, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		return &DoubleConstant{Value: math.Float64frombits(v)}, nil

	case TagClass:
		nameIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &ClassConstant{NameIndex: nameIndex}, nil

	case TagString:
		stringIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &StringConstant{StringIndex: stringIndex}, nil

	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		classIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		natIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFieldref:
			return &FieldrefConstant{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		case TagMethodref:
			return &MethodrefConstant{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		default:
			return &InterfaceMethodrefConstant{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		}

	case TagNameAndType:
		nameIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		descIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &NameAndTypeConstant{NameIndex: nameIndex, DescriptorIndex: descIndex}, nil

	case TagMethodHandle:
		kind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		refIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &MethodHandleConstant{ReferenceKind: kind, ReferenceIndex: refIndex}, nil

	case TagMethodType:
		descIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &MethodTypeConstant{DescriptorIndex: descIndex}, nil

	case TagDynamic, TagInvokeDynamic:
		bsmIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		natIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		if tag == TagDynamic {
			return &DynamicConstant{BootstrapMethodAttrIndex: bsmIndex, NameAndTypeIndex: natIndex}, nil
		}
		return &InvokeDynamicConstant{BootstrapMethodAttrIndex: bsmIndex, NameAndTypeIndex: natIndex}, nil

	case TagModule:
		nameIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &ModuleConstant{NameIndex: nameIndex}, nil

	case TagPackage:
		nameIndex, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &PackageConstant{NameIndex: nameIndex}, nil

	default:
		return nil, errors.UnknownConstantPoolTag(tag, index)
	}
}
