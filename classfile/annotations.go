package classfile

import (
	"github.com/javelin-rt/javelin/classfile/internal/binary"
	"github.com/javelin-rt/javelin/errors"
)

// Annotation is one annotation record.
type Annotation struct {
	Elements  []ElementValuePair
	TypeIndex uint16
}

// ElementValuePair is one named element of an annotation.
type ElementValuePair struct {
	Value     ElementValue
	NameIndex uint16
}

// ElementValue is a tagged annotation element value. The tag byte selects
// which of the remaining fields carry the payload.
type ElementValue struct {
	Annotation     *Annotation    // '@'
	Values         []ElementValue // '['
	ConstIndex     uint16         // primitive tags and 's'
	TypeNameIndex  uint16         // 'e'
	ConstNameIndex uint16         // 'e'
	ClassIndex     uint16         // 'c'
	Tag            byte
}

// TypePathSegment is one step of a type_path.
type TypePathSegment struct {
	Kind          uint8
	ArgumentIndex uint8
}

// LocalVarTarget is one range of a localvar_target.
type LocalVarTarget struct {
	StartPC uint16
	Length  uint16
	Index   uint16
}

// TargetInfo is the target_info union of a type annotation. The
// TypeAnnotation's TargetType selects which fields are meaningful.
type TargetInfo struct {
	LocalVars            []LocalVarTarget
	SupertypeIndex       uint16
	ThrowsTypeIndex      uint16
	ExceptionTableIndex  uint16
	Offset               uint16
	TypeParameterIndex   uint8
	BoundIndex           uint8
	FormalParameterIndex uint8
	TypeArgumentIndex    uint8
}

// TypeAnnotation is one type annotation record.
type TypeAnnotation struct {
	Annotation
	TypePath   []TypePathSegment
	TargetInfo TargetInfo
	TargetType uint8
}

func decodeAnnotationsAttr(r *binary.Reader, info AttrInfo) (Attribute, error) {
	anns, err := decodeAnnotations(r)
	if err != nil {
		return nil, err
	}
	return &AnnotationsAttribute{AttrInfo: info, Annotations: anns}, nil
}

func decodeParameterAnnotationsAttr(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	params := make([][]Annotation, count)
	for i := range params {
		if params[i], err = decodeAnnotations(r); err != nil {
			return nil, err
		}
	}
	return &ParameterAnnotationsAttribute{AttrInfo: info, Parameters: params}, nil
}

func decodeTypeAnnotationsAttr(r *binary.Reader, info AttrInfo) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	anns := make([]TypeAnnotation, count)
	for i := range anns {
		if anns[i], err = decodeTypeAnnotation(r); err != nil {
			return nil, err
		}
	}
	return &TypeAnnotationsAttribute{AttrInfo: info, Annotations: anns}, nil
}

func decodeAnnotationDefault(r *binary.Reader, info AttrInfo) (Attribute, error) {
	v, err := decodeElementValue(r, 0)
	if err != nil {
		return nil, err
	}
	return &AnnotationDefaultAttribute{AttrInfo: info, Default: v}, nil
}

// maxAnnotationDepth bounds the element-value/annotation mutual recursion so
// a crafted attribute cannot nest its way into a stack overflow.
const maxAnnotationDepth = 64

func decodeAnnotations(r *binary.Reader) ([]Annotation, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	anns := make([]Annotation, count)
	for i := range anns {
		if anns[i], err = decodeAnnotation(r, 0); err != nil {
			return nil, err
		}
	}
	return anns, nil
}

func decodeAnnotation(r *binary.Reader, depth int) (Annotation, error) {
	var a Annotation
	if depth > maxAnnotationDepth {
		return a, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Offset(r.Position()).
			Detail("annotation nesting deeper than %d levels", maxAnnotationDepth).
			Build()
	}
	typeIndex, err := r.ReadU16()
	if err != nil {
		return a, err
	}
	count, err := r.ReadU16()
	if err != nil {
		return a, err
	}
	a.TypeIndex = typeIndex
	a.Elements = make([]ElementValuePair, count)
	for i := range a.Elements {
		if a.Elements[i].NameIndex, err = r.ReadU16(); err != nil {
			return a, err
		}
		if a.Elements[i].Value, err = decodeElementValue(r, depth+1); err != nil {
			return a, err
		}
	}
	return a, nil
}

func decodeElementValue(r *binary.Reader, depth int) (ElementValue, error) {
	var v ElementValue
	if depth > maxAnnotationDepth {
		return v, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
			Offset(r.Position()).
			Detail("annotation nesting deeper than %d levels", maxAnnotationDepth).
			Build()
	}
	tag, err := r.ReadU8()
	if err != nil {
		return v, err
	}
	v.Tag = tag

	switch tag {
	case ElemByte, ElemChar, ElemDouble, ElemFloat, ElemInt, ElemLong, ElemShort, ElemBoolean, ElemString:
		if v.ConstIndex, err = r.ReadU16(); err != nil {
			return v, err
		}

	case ElemEnum:
		if v.TypeNameIndex, err = r.ReadU16(); err != nil {
			return v, err
		}
		if v.ConstNameIndex, err = r.ReadU16(); err != nil {
			return v, err
		}

	case ElemClass:
		if v.ClassIndex, err = r.ReadU16(); err != nil {
			return v, err
		}

	case ElemAnnot:
		nested, err := decodeAnnotation(r, depth+1)
		if err != nil {
			return v, err
		}
		v.Annotation = &nested

	case ElemArray:
		count, err := r.ReadU16()
		if err != nil {
			return v, err
		}
		v.Values = make([]ElementValue, count)
		for i := range v.Values {
			if v.Values[i], err = decodeElementValue(r, depth+1); err != nil {
				return v, err
			}
		}

	default:
		return v, errors.UnknownElementValue(tag)
	}
	return v, nil
}

func decodeTypeAnnotation(r *binary.Reader) (TypeAnnotation, error) {
	var ta TypeAnnotation
	targetType, err := r.ReadU8()
	if err != nil {
		return ta, err
	}
	ta.TargetType = targetType

	if ta.TargetInfo, err = decodeTargetInfo(r, targetType); err != nil {
		return ta, err
	}
	if ta.TypePath, err = decodeTypePath(r); err != nil {
		return ta, err
	}
	if ta.Annotation, err = decodeAnnotation(r, 0); err != nil {
		return ta, err
	}
	return ta, nil
}

func decodeTargetInfo(r *binary.Reader, targetType uint8) (TargetInfo, error) {
	var ti TargetInfo
	var err error

	switch targetType {
	case TargetTypeParamClass, TargetTypeParamMethod:
		ti.TypeParameterIndex, err = r.ReadU8()

	case TargetSupertype:
		ti.SupertypeIndex, err = r.ReadU16()

	case TargetTypeParamBoundClass, TargetTypeParamBoundMethod:
		if ti.TypeParameterIndex, err = r.ReadU8(); err != nil {
			return ti, err
		}
		ti.BoundIndex, err = r.ReadU8()

	case TargetEmptyField, TargetEmptyReturn, TargetEmptyReceiver:
		// empty_target

	case TargetFormalParameter:
		ti.FormalParameterIndex, err = r.ReadU8()

	case TargetThrows:
		ti.ThrowsTypeIndex, err = r.ReadU16()

	case TargetLocalVar, TargetResourceVar:
		count, err := r.ReadU16()
		if err != nil {
			return ti, err
		}
		ti.LocalVars = make([]LocalVarTarget, count)
		for i := range ti.LocalVars {
			if ti.LocalVars[i].StartPC, err = r.ReadU16(); err != nil {
				return ti, err
			}
			if ti.LocalVars[i].Length, err = r.ReadU16(); err != nil {
				return ti, err
			}
			if ti.LocalVars[i].Index, err = r.ReadU16(); err != nil {
				return ti, err
			}
		}

	case TargetExceptionParam:
		ti.ExceptionTableIndex, err = r.ReadU16()

	case TargetInstanceof, TargetNew, TargetMethodRefNew, TargetMethodRefIdentifier:
		ti.Offset, err = r.ReadU16()

	case TargetCast, TargetConstructorArgument, TargetMethodArgument,
		TargetMethodRefNewArgument, TargetMethodRefMethodArgument:
		if ti.Offset, err = r.ReadU16(); err != nil {
			return ti, err
		}
		ti.TypeArgumentIndex, err = r.ReadU8()

	default:
		return ti, errors.UnknownTargetType(targetType)
	}
	return ti, err
}

func decodeTypePath(r *binary.Reader) ([]TypePathSegment, error) {
	count, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	path := make([]TypePathSegment, count)
	for i := range path {
		kind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		if kind > PathTypeArgument {
			return nil, errors.UnknownTypePath(kind)
		}
		path[i].Kind = kind
		if path[i].ArgumentIndex, err = r.ReadU8(); err != nil {
			return nil, err
		}
	}
	return path, nil
}
