package classfile

import (
	"github.com/javelin-rt/javelin/classfile/internal/binary"
	"github.com/javelin-rt/javelin/errors"
)

// RawAttribute is the opaque fallback for attribute names the decoder does
// not recognize. The payload is retained untouched so encoding reproduces it.
type RawAttribute struct {
	AttrInfo
	Data []byte
}

// ConstantValueAttribute is the initial value of a static field.
type ConstantValueAttribute struct {
	AttrInfo
	ValueIndex uint16
}

// ExceptionHandler is one entry of a Code attribute's exception table.
// CatchType zero means the handler catches everything.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// CodeAttribute holds a method body. Code stays raw; use Instructions to
// decode it on demand.
type CodeAttribute struct {
	AttrInfo
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
	MaxStack       uint16
	MaxLocals      uint16
}

// Instructions decodes the code array.
func (c *CodeAttribute) Instructions() ([]Instruction, error) {
	return DecodeInstructions(c.Code)
}

// VerificationType is one verification_type_info record. Index holds the
// constant pool index for Object entries and the code offset for
// Uninitialized entries; it is zero otherwise.
type VerificationType struct {
	Tag   uint8
	Index uint16
}

// StackMapFrame is one frame of a StackMapTable. FrameType preserves the
// on-disk tag; OffsetDelta, Locals and Stack hold whichever parts the tag
// implies.
type StackMapFrame struct {
	Locals      []VerificationType
	Stack       []VerificationType
	OffsetDelta uint16
	FrameType   uint8
}

// StackMapTableAttribute carries type-checking frames for a Code attribute.
type StackMapTableAttribute struct {
	AttrInfo
	Frames []StackMapFrame
}

// ExceptionsAttribute lists the checked exceptions a method may throw.
type ExceptionsAttribute struct {
	AttrInfo
	ExceptionIndexTable []uint16
}

// InnerClass is one entry of an InnerClasses attribute.
type InnerClass struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags uint16
}

// InnerClassesAttribute records nesting relationships.
type InnerClassesAttribute struct {
	AttrInfo
	Classes []InnerClass
}

// EnclosingMethodAttribute marks a local or anonymous class.
type EnclosingMethodAttribute struct {
	AttrInfo
	ClassIndex  uint16
	MethodIndex uint16
}

// SyntheticAttribute marks a compiler-generated member. It has no payload.
type SyntheticAttribute struct {
	AttrInfo
}

// SignatureAttribute carries a generic signature.
type SignatureAttribute struct {
	AttrInfo
	SignatureIndex uint16
}

// SourceFileAttribute names the source file the class was compiled from.
type SourceFileAttribute struct {
	AttrInfo
	SourceFileIndex uint16
}

// LineNumberEntry maps a code offset to a source line.
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// LineNumberTableAttribute maps code offsets to source lines.
type LineNumberTableAttribute struct {
	AttrInfo
	Entries []LineNumberEntry
}

// LocalVariableEntry describes one local variable's live range.
type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

// LocalVariableTableAttribute names a method's local variables.
type LocalVariableTableAttribute struct {
	AttrInfo
	Entries []LocalVariableEntry
}

// LocalVariableTypeEntry is LocalVariableEntry with a generic signature in
// place of the descriptor.
type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

// LocalVariableTypeTableAttribute carries generic signatures for locals.
type LocalVariableTypeTableAttribute struct {
	AttrInfo
	Entries []LocalVariableTypeEntry
}

// DeprecatedAttribute marks a deprecated member. It has no payload.
type DeprecatedAttribute struct {
	AttrInfo
}

// AnnotationsAttribute holds RuntimeVisibleAnnotations or
// RuntimeInvisibleAnnotations; the attribute name distinguishes the two.
type AnnotationsAttribute struct {
	AttrInfo
	Annotations []Annotation
}

// ParameterAnnotationsAttribute holds per-parameter annotation lists for
// RuntimeVisibleParameterAnnotations or its invisible twin.
type ParameterAnnotationsAttribute struct {
	AttrInfo
	Parameters [][]Annotation
}

// TypeAnnotationsAttribute holds RuntimeVisibleTypeAnnotations or its
// invisible twin.
type TypeAnnotationsAttribute struct {
	AttrInfo
	Annotations []TypeAnnotation
}

// AnnotationDefaultAttribute holds the default value of an annotation
// interface element.
type AnnotationDefaultAttribute struct {
	AttrInfo
	Default ElementValue
}

// BootstrapMethod is one entry of a BootstrapMethods attribute.
type BootstrapMethod struct {
	Arguments []uint16
	MethodRef uint16
}

// BootstrapMethodsAttribute lists bootstrap method specifiers referenced by
// Dynamic and InvokeDynamic constants.
type BootstrapMethodsAttribute struct {
	AttrInfo
	Methods []BootstrapMethod
}

// MethodParameter is one entry of a MethodParameters attribute. A zero
// NameIndex means the parameter has no name.
type MethodParameter struct {
	NameIndex   uint16
	AccessFlags uint16
}

// MethodParametersAttribute records formal parameter names and flags.
type MethodParametersAttribute struct {
	AttrInfo
	Parameters []MethodParameter
}

// NestHostAttribute names the nest host of this class.
type NestHostAttribute struct {
	AttrInfo
	HostClassIndex uint16
}

// NestMembersAttribute lists the members of the nest this class hosts.
type NestMembersAttribute struct {
	AttrInfo
	Classes []uint16
}

// PermittedSubclassesAttribute lists the classes allowed to extend a sealed
// class.
type PermittedSubclassesAttribute struct {
	AttrInfo
	Classes []uint16
}

func decodeAttributes(r *binary.Reader, cp *ConstantPool, opts DecodeOptions) ([]Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := decodeAttribute(r, cp, opts)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// decodeAttribute reads one attribute. The payload is bounded to the
// declared length; a known shape that consumes more or less than that is a
// length mismatch.
func decodeAttribute(r *binary.Reader, cp *ConstantPool, opts DecodeOptions) (Attribute, error) {
	nameIndex, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	name, err := cp.Utf8(nameIndex)
	if err != nil {
		return nil, err
	}
	sub, err := r.Sub(int(length))
	if err != nil {
		return nil, err
	}

	info := AttrInfo{NameIndex: nameIndex, Name: name}

	var a Attribute
	switch name {
	case AttrConstantValue:
		a, err = decodeConstantValue(sub, info)
	case AttrCode:
		a, err = decodeCode(sub, cp, opts, info)
	case AttrStackMapTable:
		a, err = decodeStackMapTable(sub, info)
	case AttrExceptions:
		a, err = decodeExceptions(sub, info)
	case AttrInnerClasses:
		a, err = decodeInnerClasses(sub, info)
	case AttrEnclosingMethod:
		a, err = decodeEnclosingMethod(sub, info)
	case AttrSynthetic:
		a = &SyntheticAttribute{AttrInfo: info}
	case AttrSignature:
		a, err = decodeSignature(sub, info)
	case AttrSourceFile:
		a, err = decodeSourceFile(sub, info)
	case AttrLineNumberTable:
		a, err = decodeLineNumberTable(sub, info)
	case AttrLocalVariableTable:
		a, err = decodeLocalVariableTable(sub, info)
	case AttrLocalVariableTypeTable:
		a, err = decodeLocalVariableTypeTable(sub, info)
	case AttrDeprecated:
		a = &DeprecatedAttribute{AttrInfo: info}
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		a, err = decodeAnnotationsAttr(sub, info)
	case AttrRuntimeVisibleParameterAnnotations, AttrRuntimeInvisibleParameterAnnotations:
		a, err = decodeParameterAnnotationsAttr(sub, info)
	case AttrRuntimeVisibleTypeAnnotations, AttrRuntimeInvisibleTypeAnnotations:
		a, err = decodeTypeAnnotationsAttr(sub, info)
	case AttrAnnotationDefault:
		a, err = decodeAnnotationDefault(sub, info)
	case AttrBootstrapMethods:
		a, err = decodeBootstrapMethods(sub, info)
	case AttrMethodParameters:
		a, err = decodeMethodParameters(sub, info)
	case AttrNestHost:
		a, err = decodeNestHost(sub, info)
	case AttrNestMembers, AttrPermittedSubclasses:
		a, err = decodeClassList(sub, info)
	default:
		if opts.StrictAttributes {
			return nil, errors.UnknownAttribute(name)
		}
		data, err := sub.ReadBytes(sub.Remaining())
		if err != nil {
			return nil, err
		}
		return &RawAttribute{AttrInfo: info, Data: data}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := sub.ExpectConsumed(name); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeConstantValue(r *binary.Reader, info AttrInfo) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &ConstantValueAttribute{AttrInfo: info, ValueIndex: idx}, nil
}

func decodeCode(r *binary.Reader, cp *ConstantPool, opts DecodeOptions, info AttrInfo) (Attribute, error) {
	maxStack, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	code, err := r.ReadBytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	handlerCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	handlers := make([]ExceptionHandler, handlerCount)
	for i := range handlers {
		if handlers[i].StartPC, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if handlers[i].EndPC, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if handlers[i].HandlerPC, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if handlers[i].CatchType, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	attrs, err := decodeAttributes(r, cp, opts)
	if err != nil {
		return nil, err
	}
	return &CodeAttribute{
		AttrInfo:       info,
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: handlers,
		Attributes:     attrs,
	}, nil
}

func decodeStackMapTable(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	frames := make([]StackMapFrame, count)
	for i := range frames {
		if frames[i], err = decodeStackMapFrame(r); err != nil {
			return nil, err
		}
	}
	return &StackMapTableAttribute{AttrInfo: info, Frames: frames}, nil
}

func decodeStackMapFrame(r *binary.Reader) (StackMapFrame, error) {
	var f StackMapFrame
	t, err := r.ReadU8()
	if err != nil {
		return f, err
	}
	f.FrameType = t

	switch {
	case t <= FrameSameMax:
		f.OffsetDelta = uint16(t)

	case t <= FrameSameLocals1StackMax:
		f.OffsetDelta = uint16(t - FrameSameLocals1StackMin)
		if f.Stack, err = decodeVerificationTypes(r, 1); err != nil {
			return f, err
		}

	case t < FrameSameLocals1StackExtended:
		return f, errors.UnknownFrameTag(t)

	case t == FrameSameLocals1StackExtended:
		if f.OffsetDelta, err = r.ReadU16(); err != nil {
			return f, err
		}
		if f.Stack, err = decodeVerificationTypes(r, 1); err != nil {
			return f, err
		}

	case t <= FrameChopMax, t == FrameSameExtended:
		if f.OffsetDelta, err = r.ReadU16(); err != nil {
			return f, err
		}

	case t <= FrameAppendMax:
		if f.OffsetDelta, err = r.ReadU16(); err != nil {
			return f, err
		}
		if f.Locals, err = decodeVerificationTypes(r, int(t-FrameSameExtended)); err != nil {
			return f, err
		}

	default: // full_frame
		if f.OffsetDelta, err = r.ReadU16(); err != nil {
			return f, err
		}
		nLocals, err := r.ReadU16()
		if err != nil {
			return f, err
		}
		if f.Locals, err = decodeVerificationTypes(r, int(nLocals)); err != nil {
			return f, err
		}
		nStack, err := r.ReadU16()
		if err != nil {
			return f, err
		}
		if f.Stack, err = decodeVerificationTypes(r, int(nStack)); err != nil {
			return f, err
		}
	}
	return f, nil
}

func decodeVerificationTypes(r *binary.Reader, n int) ([]VerificationType, error) {
	types := make([]VerificationType, n)
	for i := range types {
		tag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		if tag > ItemUninitialized {
			return nil, errors.UnknownVerificationType(tag)
		}
		types[i].Tag = tag
		if tag == ItemObject || tag == ItemUninitialized {
			if types[i].Index, err = r.ReadU16(); err != nil {
				return nil, err
			}
		}
	}
	return types, nil
}

func decodeExceptions(r *binary.Reader, info AttrInfo) (Attribute, error) {
	table, err := decodeU16Table(r)
	if err != nil {
		return nil, err
	}
	return &ExceptionsAttribute{AttrInfo: info, ExceptionIndexTable: table}, nil
}

func decodeInnerClasses(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	classes := make([]InnerClass, count)
	for i := range classes {
		if classes[i].InnerClassInfoIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if classes[i].OuterClassInfoIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if classes[i].InnerNameIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if classes[i].InnerClassAccessFlags, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	return &InnerClassesAttribute{AttrInfo: info, Classes: classes}, nil
}

func decodeEnclosingMethod(r *binary.Reader, info AttrInfo) (Attribute, error) {
	classIndex, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	methodIndex, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &EnclosingMethodAttribute{AttrInfo: info, ClassIndex: classIndex, MethodIndex: methodIndex}, nil
}

func decodeSignature(r *binary.Reader, info AttrInfo) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &SignatureAttribute{AttrInfo: info, SignatureIndex: idx}, nil
}

func decodeSourceFile(r *binary.Reader, info AttrInfo) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &SourceFileAttribute{AttrInfo: info, SourceFileIndex: idx}, nil
}

func decodeLineNumberTable(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]LineNumberEntry, count)
	for i := range entries {
		if entries[i].StartPC, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].LineNumber, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	return &LineNumberTableAttribute{AttrInfo: info, Entries: entries}, nil
}

func decodeLocalVariableTable(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]LocalVariableEntry, count)
	for i := range entries {
		if entries[i].StartPC, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].Length, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].NameIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].DescriptorIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].Index, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	return &LocalVariableTableAttribute{AttrInfo: info, Entries: entries}, nil
}

func decodeLocalVariableTypeTable(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]LocalVariableTypeEntry, count)
	for i := range entries {
		if entries[i].StartPC, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].Length, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].NameIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].SignatureIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if entries[i].Index, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	return &LocalVariableTypeTableAttribute{AttrInfo: info, Entries: entries}, nil
}

func decodeBootstrapMethods(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, count)
	for i := range methods {
		if methods[i].MethodRef, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if methods[i].Arguments, err = decodeU16Table(r); err != nil {
			return nil, err
		}
	}
	return &BootstrapMethodsAttribute{AttrInfo: info, Methods: methods}, nil
}

func decodeMethodParameters(r *binary.Reader, info AttrInfo) (Attribute, error) {
	// Unlike every other attribute, the count here is a single byte.
	count, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	params := make([]MethodParameter, count)
	for i := range params {
		if params[i].NameIndex, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if params[i].AccessFlags, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	return &MethodParametersAttribute{AttrInfo: info, Parameters: params}, nil
}

func decodeNestHost(r *binary.Reader, info AttrInfo) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &NestHostAttribute{AttrInfo: info, HostClassIndex: idx}, nil
}

func decodeClassList(r *binary.Reader, info AttrInfo) (Attribute, error) {
	classes, err := decodeU16Table(r)
	if err != nil {
		return nil, err
	}
	if info.Name == AttrNestMembers {
		return &NestMembersAttribute{AttrInfo: info, Classes: classes}, nil
	}
	return &PermittedSubclassesAttribute{AttrInfo: info, Classes: classes}, nil
}

func decodeU16Table(r *binary.Reader) ([]uint16, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	table := make([]uint16, count)
	for i := range table {
		if table[i], err = r.ReadU16(); err != nil {
			return nil, err
		}
	}
	return table, nil
}
