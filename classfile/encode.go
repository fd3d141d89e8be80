package classfile

import (
	"math"

	"github.com/javelin-rt/javelin/classfile/internal/binary"
	"github.com/javelin-rt/javelin/errors"
)

// Encode serializes the class back to the binary format. A decoded class
// that has not been modified encodes to the exact input bytes.
func (cf *ClassFile) Encode() ([]byte, error) {
	w := binary.NewWriter()
	w.U32(Magic)
	w.U16(cf.MinorVersion)
	w.U16(cf.MajorVersion)

	if err := encodeConstantPool(w, cf.ConstantPool); err != nil {
		return nil, err
	}

	w.U16(cf.AccessFlags)
	w.U16(cf.ThisClass)
	w.U16(cf.SuperClass)

	w.U16(uint16(len(cf.Interfaces)))
	for _, idx := range cf.Interfaces {
		w.U16(idx)
	}

	w.U16(uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		if err := encodeMember(w, f.AccessFlags, f.NameIndex, f.DescriptorIndex, f.Attributes); err != nil {
			return nil, err
		}
	}

	w.U16(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		if err := encodeMember(w, m.AccessFlags, m.NameIndex, m.DescriptorIndex, m.Attributes); err != nil {
			return nil, err
		}
	}

	if err := encodeAttributes(w, cf.Attributes); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeMember(w *binary.Writer, flags, nameIndex, descIndex uint16, attrs []Attribute) error {
	w.U16(flags)
	w.U16(nameIndex)
	w.U16(descIndex)
	return encodeAttributes(w, attrs)
}

func encodeConstantPool(w *binary.Writer, p *ConstantPool) error {
	w.U16(uint16(len(p.entries)))
	for i := 1; i < len(p.entries); i++ {
		c := p.entries[i]
		if c == nil {
			// continuation slot, no bytes on disk
			continue
		}
		if err := encodeConstant(w, c); err != nil {
			return err
		}
	}
	return nil
}

func encodeConstant(w *binary.Writer, c Constant) error {
	w.U8(c.Tag())
	switch c := c.(type) {
	case *Utf8Constant:
		data := encodeModifiedUTF8(c.Value)
		if len(data) > math.MaxUint16 {
			return errors.New(errors.PhaseEncode, errors.KindLengthMismatch).
				Detail("Utf8 constant needs %d bytes, limit is %d", len(data), math.MaxUint16).
				Build()
		}
		w.U16(uint16(len(data)))
		w.WriteBytes(data)
	case *IntegerConstant:
		w.S32(c.Value)
	case *FloatConstant:
		w.U32(math.Float32bits(c.Value))
	case *LongConstant:
		w.U64(uint64(c.Value))
	case *DoubleConstant:
		w.U64(math.Float64bits(c.Value))
	case *ClassConstant:
		w.U16(c.NameIndex)
	case *StringConstant:
		w.U16(c.StringIndex)
	case *FieldrefConstant:
		w.U16(c.ClassIndex)
		w.U16(c.NameAndTypeIndex)
	case *MethodrefConstant:
		w.U16(c.ClassIndex)
		w.U16(c.NameAndTypeIndex)
	case *InterfaceMethodrefConstant:
		w.U16(c.ClassIndex)
		w.U16(c.NameAndTypeIndex)
	case *NameAndTypeConstant:
		w.U16(c.NameIndex)
		w.U16(c.DescriptorIndex)
	case *MethodHandleConstant:
		w.U8(c.ReferenceKind)
		w.U16(c.ReferenceIndex)
	case *MethodTypeConstant:
		w.U16(c.DescriptorIndex)
	case *DynamicConstant:
		w.U16(c.BootstrapMethodAttrIndex)
		w.U16(c.NameAndTypeIndex)
	case *InvokeDynamicConstant:
		w.U16(c.BootstrapMethodAttrIndex)
		w.U16(c.NameAndTypeIndex)
	case *ModuleConstant:
		w.U16(c.NameIndex)
	case *PackageConstant:
		w.U16(c.NameIndex)
	default:
		return errors.New(errors.PhaseEncode, errors.KindUnknownTag).
			Detail("unsupported constant type %T", c).
			Build()
	}
	return nil
}

func encodeAttributes(w *binary.Writer, attrs []Attribute) error {
	w.U16(uint16(len(attrs)))
	for _, a := range attrs {
		if err := encodeAttribute(w, a); err != nil {
			return err
		}
	}
	return nil
}

func encodeAttribute(w *binary.Writer, a Attribute) error {
	header, ok := a.(interface{ info() AttrInfo })
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindUnknownAttribute).
			Detail("attribute type %T does not embed AttrInfo", a).
			Build()
	}

	body := binary.NewWriter()
	if err := encodeAttributeBody(body, a); err != nil {
		return err
	}

	w.U16(header.info().NameIndex)
	w.U32(uint32(body.Len()))
	w.WriteBytes(body.Bytes())
	return nil
}

func encodeAttributeBody(w *binary.Writer, attr Attribute) error {
	switch a := attr.(type) {
	case *RawAttribute:
		w.WriteBytes(a.Data)

	case *ConstantValueAttribute:
		w.U16(a.ValueIndex)

	case *CodeAttribute:
		w.U16(a.MaxStack)
		w.U16(a.MaxLocals)
		w.U32(uint32(len(a.Code)))
		w.WriteBytes(a.Code)
		w.U16(uint16(len(a.ExceptionTable)))
		for _, h := range a.ExceptionTable {
			w.U16(h.StartPC)
			w.U16(h.EndPC)
			w.U16(h.HandlerPC)
			w.U16(h.CatchType)
		}
		return encodeAttributes(w, a.Attributes)

	case *StackMapTableAttribute:
		w.U16(uint16(len(a.Frames)))
		for _, f := range a.Frames {
			if err := encodeStackMapFrame(w, f); err != nil {
				return err
			}
		}

	case *ExceptionsAttribute:
		encodeU16Table(w, a.ExceptionIndexTable)

	case *InnerClassesAttribute:
		w.U16(uint16(len(a.Classes)))
		for _, c := range a.Classes {
			w.U16(c.InnerClassInfoIndex)
			w.U16(c.OuterClassInfoIndex)
			w.U16(c.InnerNameIndex)
			w.U16(c.InnerClassAccessFlags)
		}

	case *EnclosingMethodAttribute:
		w.U16(a.ClassIndex)
		w.U16(a.MethodIndex)

	case *SyntheticAttribute, *DeprecatedAttribute:
		// no payload

	case *SignatureAttribute:
		w.U16(a.SignatureIndex)

	case *SourceFileAttribute:
		w.U16(a.SourceFileIndex)

	case *LineNumberTableAttribute:
		w.U16(uint16(len(a.Entries)))
		for _, e := range a.Entries {
			w.U16(e.StartPC)
			w.U16(e.LineNumber)
		}

	case *LocalVariableTableAttribute:
		w.U16(uint16(len(a.Entries)))
		for _, e := range a.Entries {
			w.U16(e.StartPC)
			w.U16(e.Length)
			w.U16(e.NameIndex)
			w.U16(e.DescriptorIndex)
			w.U16(e.Index)
		}

	case *LocalVariableTypeTableAttribute:
		w.U16(uint16(len(a.Entries)))
		for _, e := range a.Entries {
			w.U16(e.StartPC)
			w.U16(e.Length)
			w.U16(e.NameIndex)
			w.U16(e.SignatureIndex)
			w.U16(e.Index)
		}

	case *AnnotationsAttribute:
		return encodeAnnotations(w, a.Annotations)

	case *ParameterAnnotationsAttribute:
		w.U8(uint8(len(a.Parameters)))
		for _, param := range a.Parameters {
			if err := encodeAnnotations(w, param); err != nil {
				return err
			}
		}

	case *TypeAnnotationsAttribute:
		w.U16(uint16(len(a.Annotations)))
		for _, ta := range a.Annotations {
			if err := encodeTypeAnnotation(w, ta); err != nil {
				return err
			}
		}

	case *AnnotationDefaultAttribute:
		return encodeElementValue(w, a.Default)

	case *BootstrapMethodsAttribute:
		w.U16(uint16(len(a.Methods)))
		for _, m := range a.Methods {
			w.U16(m.MethodRef)
			encodeU16Table(w, m.Arguments)
		}

	case *MethodParametersAttribute:
		w.U8(uint8(len(a.Parameters)))
		for _, p := range a.Parameters {
			w.U16(p.NameIndex)
			w.U16(p.AccessFlags)
		}

	case *NestHostAttribute:
		w.U16(a.HostClassIndex)

	case *NestMembersAttribute:
		encodeU16Table(w, a.Classes)

	case *PermittedSubclassesAttribute:
		encodeU16Table(w, a.Classes)

	default:
		return errors.New(errors.PhaseEncode, errors.KindUnknownAttribute).
			Detail("unsupported attribute type %T", attr).
			Build()
	}
	return nil
}

func encodeU16Table(w *binary.Writer, table []uint16) {
	w.U16(uint16(len(table)))
	for _, v := range table {
		w.U16(v)
	}
}

func encodeStackMapFrame(w *binary.Writer, f StackMapFrame) error {
	t := f.FrameType
	w.U8(t)

	switch {
	case t <= FrameSameMax:

	case t <= FrameSameLocals1StackMax:
		return encodeVerificationTypes(w, f.Stack)

	case t < FrameSameLocals1StackExtended:
		return errors.New(errors.PhaseEncode, errors.KindUnknownFrameTag).
			Detail("frame_type %d is reserved", t).
			Build()

	case t == FrameSameLocals1StackExtended:
		w.U16(f.OffsetDelta)
		return encodeVerificationTypes(w, f.Stack)

	case t <= FrameChopMax, t == FrameSameExtended:
		w.U16(f.OffsetDelta)

	case t <= FrameAppendMax:
		w.U16(f.OffsetDelta)
		return encodeVerificationTypes(w, f.Locals)

	default: // full_frame
		w.U16(f.OffsetDelta)
		w.U16(uint16(len(f.Locals)))
		if err := encodeVerificationTypes(w, f.Locals); err != nil {
			return err
		}
		w.U16(uint16(len(f.Stack)))
		return encodeVerificationTypes(w, f.Stack)
	}
	return nil
}

func encodeVerificationTypes(w *binary.Writer, types []VerificationType) error {
	for _, vt := range types {
		if vt.Tag > ItemUninitialized {
			return errors.New(errors.PhaseEncode, errors.KindUnknownVerifType).
				Detail("tag %d", vt.Tag).
				Build()
		}
		w.U8(vt.Tag)
		if vt.Tag == ItemObject || vt.Tag == ItemUninitialized {
			w.U16(vt.Index)
		}
	}
	return nil
}

func encodeAnnotations(w *binary.Writer, anns []Annotation) error {
	w.U16(uint16(len(anns)))
	for _, a := range anns {
		if err := encodeAnnotation(w, a); err != nil {
			return err
		}
	}
	return nil
}

func encodeAnnotation(w *binary.Writer, a Annotation) error {
	w.U16(a.TypeIndex)
	w.U16(uint16(len(a.Elements)))
	for _, e := range a.Elements {
		w.U16(e.NameIndex)
		if err := encodeElementValue(w, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func encodeElementValue(w *binary.Writer, v ElementValue) error {
	w.U8(v.Tag)
	switch v.Tag {
	case ElemByte, ElemChar, ElemDouble, ElemFloat, ElemInt, ElemLong, ElemShort, ElemBoolean, ElemString:
		w.U16(v.ConstIndex)
	case ElemEnum:
		w.U16(v.TypeNameIndex)
		w.U16(v.ConstNameIndex)
	case ElemClass:
		w.U16(v.ClassIndex)
	case ElemAnnot:
		return encodeAnnotation(w, *v.Annotation)
	case ElemArray:
		w.U16(uint16(len(v.Values)))
		for _, nested := range v.Values {
			if err := encodeElementValue(w, nested); err != nil {
				return err
			}
		}
	default:
		return errors.UnknownElementValue(v.Tag)
	}
	return nil
}

func encodeTypeAnnotation(w *binary.Writer, ta TypeAnnotation) error {
	w.U8(ta.TargetType)
	if err := encodeTargetInfo(w, ta.TargetType, ta.TargetInfo); err != nil {
		return err
	}
	w.U8(uint8(len(ta.TypePath)))
	for _, seg := range ta.TypePath {
		w.U8(seg.Kind)
		w.U8(seg.ArgumentIndex)
	}
	return encodeAnnotation(w, ta.Annotation)
}

func encodeTargetInfo(w *binary.Writer, targetType uint8, ti TargetInfo) error {
	switch targetType {
	case TargetTypeParamClass, TargetTypeParamMethod:
		w.U8(ti.TypeParameterIndex)
	case TargetSupertype:
		w.U16(ti.SupertypeIndex)
	case TargetTypeParamBoundClass, TargetTypeParamBoundMethod:
		w.U8(ti.TypeParameterIndex)
		w.U8(ti.BoundIndex)
	case TargetEmptyField, TargetEmptyReturn, TargetEmptyReceiver:
	case TargetFormalParameter:
		w.U8(ti.FormalParameterIndex)
	case TargetThrows:
		w.U16(ti.ThrowsTypeIndex)
	case TargetLocalVar, TargetResourceVar:
		w.U16(uint16(len(ti.LocalVars)))
		for _, lv := range ti.LocalVars {
			w.U16(lv.StartPC)
			w.U16(lv.Length)
			w.U16(lv.Index)
		}
	case TargetExceptionParam:
		w.U16(ti.ExceptionTableIndex)
	case TargetInstanceof, TargetNew, TargetMethodRefNew, TargetMethodRefIdentifier:
		w.U16(ti.Offset)
	case TargetCast, TargetConstructorArgument, TargetMethodArgument,
		TargetMethodRefNewArgument, TargetMethodRefMethodArgument:
		w.U16(ti.Offset)
		w.U8(ti.TypeArgumentIndex)
	default:
		return errors.UnknownTargetType(targetType)
	}
	return nil
}
