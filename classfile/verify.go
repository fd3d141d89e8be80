package classfile

import (
	"fmt"

	"github.com/javelin-rt/javelin/errors"
)

// expectTag resolves a constant pool index and checks its tag against the
// accepted set. The first accepted tag is the one reported on mismatch.
func expectTag(cp *ConstantPool, path []string, index uint16, want ...uint8) (Constant, *errors.Error) {
	if index == 0 || int(index) > cp.Count() {
		return nil, errors.OutOfBounds(path, index, cp.Count())
	}
	c := cp.Entry(index)
	if c == nil {
		return nil, errors.ReservedSlot(path, index)
	}
	for _, w := range want {
		if c.Tag() == w {
			return c, nil
		}
	}
	return nil, errors.WrongConstantType(path, index, want[0], c.Tag())
}

func cpPath(index int, field string) []string {
	return []string{"constant_pool", fmt.Sprintf("#%d", index), field}
}

func childPath(path []string, elem string) []string {
	return append(path[:len(path):len(path)], elem)
}

// Verify checks every cross-reference between pool entries: indices in
// bounds, no references into the second slot of a Long or Double, and each
// reference resolving to an entry of the required tag. Unlike
// VerifyStructure it does not stop at the first defect; every issue found
// is aggregated into a single VerificationError.
func (p *ConstantPool) Verify() error {
	var issues []*errors.Error
	check := func(path []string, index uint16, want ...uint8) {
		if _, issue := expectTag(p, path, index, want...); issue != nil {
			issues = append(issues, issue)
		}
	}

	for i := 1; i < len(p.entries); i++ {
		switch c := p.entries[i].(type) {
		case nil:
			// continuation slot of the previous Long/Double
		case *Utf8Constant, *IntegerConstant, *FloatConstant, *LongConstant, *DoubleConstant:
			// self-contained
		case *ClassConstant:
			check(cpPath(i, "name_index"), c.NameIndex, TagUtf8)
		case *StringConstant:
			check(cpPath(i, "string_index"), c.StringIndex, TagUtf8)
		case *FieldrefConstant:
			check(cpPath(i, "class_index"), c.ClassIndex, TagClass)
			check(cpPath(i, "name_and_type_index"), c.NameAndTypeIndex, TagNameAndType)
		case *MethodrefConstant:
			check(cpPath(i, "class_index"), c.ClassIndex, TagClass)
			check(cpPath(i, "name_and_type_index"), c.NameAndTypeIndex, TagNameAndType)
		case *InterfaceMethodrefConstant:
			check(cpPath(i, "class_index"), c.ClassIndex, TagClass)
			check(cpPath(i, "name_and_type_index"), c.NameAndTypeIndex, TagNameAndType)
		case *NameAndTypeConstant:
			check(cpPath(i, "name_index"), c.NameIndex, TagUtf8)
			check(cpPath(i, "descriptor_index"), c.DescriptorIndex, TagUtf8)
		case *MethodHandleConstant:
			path := cpPath(i, "reference_index")
			switch c.ReferenceKind {
			case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
				check(path, c.ReferenceIndex, TagFieldref)
			case RefInvokeVirtual, RefNewInvokeSpecial:
				check(path, c.ReferenceIndex, TagMethodref)
			case RefInvokeStatic, RefInvokeSpecial:
				check(path, c.ReferenceIndex, TagMethodref, TagInterfaceMethodref)
			case RefInvokeInterface:
				check(path, c.ReferenceIndex, TagInterfaceMethodref)
			default:
				issues = append(issues, errors.UnknownReferenceKind(c.ReferenceKind, i))
			}
		case *MethodTypeConstant:
			check(cpPath(i, "descriptor_index"), c.DescriptorIndex, TagUtf8)
		case *DynamicConstant:
			check(cpPath(i, "name_and_type_index"), c.NameAndTypeIndex, TagNameAndType)
		case *InvokeDynamicConstant:
			check(cpPath(i, "name_and_type_index"), c.NameAndTypeIndex, TagNameAndType)
		case *ModuleConstant:
			check(cpPath(i, "name_index"), c.NameIndex, TagUtf8)
		case *PackageConstant:
			check(cpPath(i, "name_index"), c.NameIndex, TagUtf8)
		}
	}

	if len(issues) > 0 {
		return &errors.VerificationError{Issues: issues}
	}
	return nil
}

// VerifyConstantPool runs the enumerate-all pool pass. See
// ConstantPool.Verify.
func (cf *ClassFile) VerifyConstantPool() error {
	return cf.ConstantPool.Verify()
}

// VerifyStructure checks everything above the pool: access flag legality,
// that each index used by the class body resolves to the right kind of
// entry, descriptor grammar, bytecode decodability and bootstrap method
// references. It stops at the first defect. Run VerifyConstantPool first;
// this pass assumes the pool's internal references are sound.
func (cf *ClassFile) VerifyStructure() error {
	v := &structureVerifier{cf: cf, cp: cf.ConstantPool, bootstrapCount: -1}
	if bsm, ok := FindAttribute(cf.Attributes, AttrBootstrapMethods).(*BootstrapMethodsAttribute); ok {
		v.bootstrapCount = len(bsm.Methods)
	}
	return v.run()
}

type structureVerifier struct {
	cf *ClassFile
	cp *ConstantPool

	// bootstrapCount is -1 when the class carries no BootstrapMethods
	// attribute.
	bootstrapCount int
}

func (v *structureVerifier) expect(path []string, index uint16, want ...uint8) error {
	if _, issue := expectTag(v.cp, path, index, want...); issue != nil {
		return issue
	}
	return nil
}

func (v *structureVerifier) run() error {
	cf := v.cf

	if err := ValidateClassAccessFlags(cf.AccessFlags); err != nil {
		return err
	}
	if err := v.expect([]string{"this_class"}, cf.ThisClass, TagClass); err != nil {
		return err
	}
	if cf.SuperClass != 0 {
		if err := v.expect([]string{"super_class"}, cf.SuperClass, TagClass); err != nil {
			return err
		}
	}
	for i, idx := range cf.Interfaces {
		if err := v.expect([]string{"interfaces", fmt.Sprintf("[%d]", i)}, idx, TagClass); err != nil {
			return err
		}
	}

	if err := v.verifyBootstrapUsers(); err != nil {
		return err
	}

	for i, f := range cf.Fields {
		if err := v.verifyField(i, f); err != nil {
			return err
		}
	}
	for i, m := range cf.Methods {
		if err := v.verifyMethod(i, m); err != nil {
			return err
		}
	}
	return v.verifyAttributes([]string{"attributes"}, cf.Attributes)
}

// verifyBootstrapUsers checks that every Dynamic and InvokeDynamic constant
// points at an existing BootstrapMethods entry.
func (v *structureVerifier) verifyBootstrapUsers() error {
	for i := 1; i <= v.cp.Count(); i++ {
		var bsmIndex uint16
		switch c := v.cp.Entry(uint16(i)).(type) {
		case *DynamicConstant:
			bsmIndex = c.BootstrapMethodAttrIndex
		case *InvokeDynamicConstant:
			bsmIndex = c.BootstrapMethodAttrIndex
		default:
			continue
		}
		if v.bootstrapCount < 0 || int(bsmIndex) >= v.bootstrapCount {
			return errors.New(errors.PhaseVerify, errors.KindOutOfBounds).
				Path(cpPath(i, "bootstrap_method_attr_index")...).
				Value(bsmIndex).
				Detail("bootstrap method %d out of range (class declares %d)", bsmIndex, max(v.bootstrapCount, 0)).
				Build()
		}
	}
	return nil
}

func (v *structureVerifier) verifyField(i int, f *FieldInfo) error {
	path := []string{"fields", fmt.Sprintf("[%d]", i)}
	if err := ValidateFieldAccessFlags(f.AccessFlags); err != nil {
		return err
	}
	if err := v.expect(childPath(path, "name_index"), f.NameIndex, TagUtf8); err != nil {
		return err
	}
	if err := v.expect(childPath(path, "descriptor_index"), f.DescriptorIndex, TagUtf8); err != nil {
		return err
	}
	desc, err := v.cp.Utf8(f.DescriptorIndex)
	if err != nil {
		return err
	}
	if !ValidFieldDescriptor(desc) {
		return errors.BadDescriptor(childPath(path, "descriptor"), desc)
	}
	return v.verifyAttributes(childPath(path, "attributes"), f.Attributes)
}

func (v *structureVerifier) verifyMethod(i int, m *MethodInfo) error {
	path := []string{"methods", fmt.Sprintf("[%d]", i)}
	if err := ValidateMethodAccessFlags(m.AccessFlags); err != nil {
		return err
	}
	if err := v.expect(childPath(path, "name_index"), m.NameIndex, TagUtf8); err != nil {
		return err
	}
	if err := v.expect(childPath(path, "descriptor_index"), m.DescriptorIndex, TagUtf8); err != nil {
		return err
	}
	desc, err := v.cp.Utf8(m.DescriptorIndex)
	if err != nil {
		return err
	}
	if !ValidMethodDescriptor(desc) {
		return errors.BadDescriptor(childPath(path, "descriptor"), desc)
	}
	return v.verifyAttributes(childPath(path, "attributes"), m.Attributes)
}

func (v *structureVerifier) verifyAttributes(path []string, attrs []Attribute) error {
	for _, a := range attrs {
		if err := v.verifyAttribute(childPath(path, a.AttributeName()), a); err != nil {
			return err
		}
	}
	return nil
}

func (v *structureVerifier) verifyAttribute(path []string, attr Attribute) error {
	switch a := attr.(type) {
	case *ConstantValueAttribute:
		return v.expect(childPath(path, "constantvalue_index"), a.ValueIndex,
			TagInteger, TagFloat, TagLong, TagDouble, TagString)

	case *CodeAttribute:
		return v.verifyCode(path, a)

	case *StackMapTableAttribute:
		for _, f := range a.Frames {
			for _, vt := range f.Locals {
				if err := v.verifyVerificationType(path, vt); err != nil {
					return err
				}
			}
			for _, vt := range f.Stack {
				if err := v.verifyVerificationType(path, vt); err != nil {
					return err
				}
			}
		}

	case *ExceptionsAttribute:
		for i, idx := range a.ExceptionIndexTable {
			if err := v.expect(childPath(path, fmt.Sprintf("[%d]", i)), idx, TagClass); err != nil {
				return err
			}
		}

	case *InnerClassesAttribute:
		for i, c := range a.Classes {
			p := childPath(path, fmt.Sprintf("[%d]", i))
			if err := v.expect(childPath(p, "inner_class_info_index"), c.InnerClassInfoIndex, TagClass); err != nil {
				return err
			}
			if c.OuterClassInfoIndex != 0 {
				if err := v.expect(childPath(p, "outer_class_info_index"), c.OuterClassInfoIndex, TagClass); err != nil {
					return err
				}
			}
			if c.InnerNameIndex != 0 {
				if err := v.expect(childPath(p, "inner_name_index"), c.InnerNameIndex, TagUtf8); err != nil {
					return err
				}
			}
		}

	case *EnclosingMethodAttribute:
		if err := v.expect(childPath(path, "class_index"), a.ClassIndex, TagClass); err != nil {
			return err
		}
		if a.MethodIndex != 0 {
			return v.expect(childPath(path, "method_index"), a.MethodIndex, TagNameAndType)
		}

	case *SignatureAttribute:
		return v.expect(childPath(path, "signature_index"), a.SignatureIndex, TagUtf8)

	case *SourceFileAttribute:
		return v.expect(childPath(path, "sourcefile_index"), a.SourceFileIndex, TagUtf8)

	case *LocalVariableTableAttribute:
		for i, e := range a.Entries {
			p := childPath(path, fmt.Sprintf("[%d]", i))
			if err := v.expect(childPath(p, "name_index"), e.NameIndex, TagUtf8); err != nil {
				return err
			}
			if err := v.expect(childPath(p, "descriptor_index"), e.DescriptorIndex, TagUtf8); err != nil {
				return err
			}
		}

	case *LocalVariableTypeTableAttribute:
		for i, e := range a.Entries {
			p := childPath(path, fmt.Sprintf("[%d]", i))
			if err := v.expect(childPath(p, "name_index"), e.NameIndex, TagUtf8); err != nil {
				return err
			}
			if err := v.expect(childPath(p, "signature_index"), e.SignatureIndex, TagUtf8); err != nil {
				return err
			}
		}

	case *AnnotationsAttribute:
		for _, ann := range a.Annotations {
			if err := v.verifyAnnotation(path, ann); err != nil {
				return err
			}
		}

	case *ParameterAnnotationsAttribute:
		for _, param := range a.Parameters {
			for _, ann := range param {
				if err := v.verifyAnnotation(path, ann); err != nil {
					return err
				}
			}
		}

	case *TypeAnnotationsAttribute:
		for _, ta := range a.Annotations {
			if err := v.verifyAnnotation(path, ta.Annotation); err != nil {
				return err
			}
		}

	case *AnnotationDefaultAttribute:
		return v.verifyElementValue(path, a.Default)

	case *BootstrapMethodsAttribute:
		for i, m := range a.Methods {
			p := childPath(path, fmt.Sprintf("[%d]", i))
			if err := v.expect(childPath(p, "bootstrap_method_ref"), m.MethodRef, TagMethodHandle); err != nil {
				return err
			}
			for j, arg := range m.Arguments {
				if err := v.expect(childPath(p, fmt.Sprintf("arguments[%d]", j)), arg,
					TagInteger, TagFloat, TagLong, TagDouble, TagClass, TagString,
					TagMethodHandle, TagMethodType, TagDynamic); err != nil {
					return err
				}
			}
		}

	case *MethodParametersAttribute:
		for i, p := range a.Parameters {
			if err := ValidateParameterAccessFlags(p.AccessFlags); err != nil {
				return err
			}
			if p.NameIndex != 0 {
				if err := v.expect(childPath(path, fmt.Sprintf("[%d]", i)), p.NameIndex, TagUtf8); err != nil {
					return err
				}
			}
		}

	case *NestHostAttribute:
		return v.expect(childPath(path, "host_class_index"), a.HostClassIndex, TagClass)

	case *NestMembersAttribute:
		for i, idx := range a.Classes {
			if err := v.expect(childPath(path, fmt.Sprintf("[%d]", i)), idx, TagClass); err != nil {
				return err
			}
		}

	case *PermittedSubclassesAttribute:
		for i, idx := range a.Classes {
			if err := v.expect(childPath(path, fmt.Sprintf("[%d]", i)), idx, TagClass); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *structureVerifier) verifyCode(path []string, c *CodeAttribute) error {
	ins, err := c.Instructions()
	if err != nil {
		return err
	}
	for _, i := range ins {
		if err := v.verifyInstruction(path, i); err != nil {
			return err
		}
	}
	for i, h := range c.ExceptionTable {
		if h.CatchType != 0 {
			p := childPath(path, fmt.Sprintf("exception_table[%d].catch_type", i))
			if err := v.expect(p, h.CatchType, TagClass); err != nil {
				return err
			}
		}
	}
	return v.verifyAttributes(childPath(path, "attributes"), c.Attributes)
}

// verifyInstruction checks that a constant-referencing instruction points at
// an entry of the kind its opcode requires.
func (v *structureVerifier) verifyInstruction(path []string, i Instruction) error {
	var index uint16
	switch imm := i.Imm.(type) {
	case ConstImm:
		index = imm.Index
	case InvokeInterfaceImm:
		index = imm.Index
	case InvokeDynamicImm:
		index = imm.Index
	case MultiANewArrayImm:
		index = imm.Index
	default:
		return nil
	}
	p := childPath(path, fmt.Sprintf("@%d", i.Offset))

	switch i.Opcode {
	case OpLdc, OpLdcW:
		return v.expect(p, index, TagInteger, TagFloat, TagString, TagClass,
			TagMethodHandle, TagMethodType, TagDynamic)
	case OpLdc2W:
		return v.expect(p, index, TagLong, TagDouble, TagDynamic)
	case OpGetstatic, OpPutstatic, OpGetfield, OpPutfield:
		return v.expect(p, index, TagFieldref)
	case OpInvokevirtual:
		return v.expect(p, index, TagMethodref)
	case OpInvokespecial, OpInvokestatic:
		return v.expect(p, index, TagMethodref, TagInterfaceMethodref)
	case OpInvokeinterface:
		return v.expect(p, index, TagInterfaceMethodref)
	case OpInvokedynamic:
		return v.expect(p, index, TagInvokeDynamic)
	case OpNew, OpAnewarray, OpCheckcast, OpInstanceof, OpMultianewarray:
		return v.expect(p, index, TagClass)
	}
	return nil
}

func (v *structureVerifier) verifyVerificationType(path []string, vt VerificationType) error {
	if vt.Tag == ItemObject {
		return v.expect(childPath(path, "cpool_index"), vt.Index, TagClass)
	}
	return nil
}

func (v *structureVerifier) verifyAnnotation(path []string, a Annotation) error {
	if err := v.expect(childPath(path, "type_index"), a.TypeIndex, TagUtf8); err != nil {
		return err
	}
	for _, e := range a.Elements {
		if err := v.expect(childPath(path, "element_name_index"), e.NameIndex, TagUtf8); err != nil {
			return err
		}
		if err := v.verifyElementValue(path, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (v *structureVerifier) verifyElementValue(path []string, ev ElementValue) error {
	switch ev.Tag {
	case ElemByte, ElemChar, ElemInt, ElemShort, ElemBoolean:
		return v.expect(childPath(path, "const_value_index"), ev.ConstIndex, TagInteger)
	case ElemDouble:
		return v.expect(childPath(path, "const_value_index"), ev.ConstIndex, TagDouble)
	case ElemFloat:
		return v.expect(childPath(path, "const_value_index"), ev.ConstIndex, TagFloat)
	case ElemLong:
		return v.expect(childPath(path, "const_value_index"), ev.ConstIndex, TagLong)
	case ElemString:
		return v.expect(childPath(path, "const_value_index"), ev.ConstIndex, TagUtf8)
	case ElemEnum:
		if err := v.expect(childPath(path, "type_name_index"), ev.TypeNameIndex, TagUtf8); err != nil {
			return err
		}
		return v.expect(childPath(path, "const_name_index"), ev.ConstNameIndex, TagUtf8)
	case ElemClass:
		return v.expect(childPath(path, "class_info_index"), ev.ClassIndex, TagUtf8)
	case ElemAnnot:
		return v.verifyAnnotation(path, *ev.Annotation)
	case ElemArray:
		for _, nested := range ev.Values {
			if err := v.verifyElementValue(path, nested); err != nil {
				return err
			}
		}
	}
	return nil
}
