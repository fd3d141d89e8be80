package classfile

import (
	"fmt"
	"strings"
)

// DescribeConstant renders one pool entry for display, resolving the names
// it points at. Unresolvable references render as bare indices instead of
// failing; display is best effort by design.
func DescribeConstant(cp *ConstantPool, index uint16) string {
	switch c := cp.Entry(index).(type) {
	case nil:
		return "<unusable>"
	case *Utf8Constant:
		return fmt.Sprintf("Utf8 %q", c.Value)
	case *IntegerConstant:
		return fmt.Sprintf("Integer %d", c.Value)
	case *FloatConstant:
		return fmt.Sprintf("Float %g", c.Value)
	case *LongConstant:
		return fmt.Sprintf("Long %d", c.Value)
	case *DoubleConstant:
		return fmt.Sprintf("Double %g", c.Value)
	case *ClassConstant:
		return fmt.Sprintf("Class %s", utf8OrIndex(cp, c.NameIndex))
	case *StringConstant:
		return fmt.Sprintf("String %s", utf8OrIndex(cp, c.StringIndex))
	case *FieldrefConstant:
		return fmt.Sprintf("Fieldref %s", refString(cp, c.ClassIndex, c.NameAndTypeIndex))
	case *MethodrefConstant:
		return fmt.Sprintf("Methodref %s", refString(cp, c.ClassIndex, c.NameAndTypeIndex))
	case *InterfaceMethodrefConstant:
		return fmt.Sprintf("InterfaceMethodref %s", refString(cp, c.ClassIndex, c.NameAndTypeIndex))
	case *NameAndTypeConstant:
		return fmt.Sprintf("NameAndType %s:%s", utf8OrIndex(cp, c.NameIndex), utf8OrIndex(cp, c.DescriptorIndex))
	case *MethodHandleConstant:
		return fmt.Sprintf("MethodHandle kind=%d #%d", c.ReferenceKind, c.ReferenceIndex)
	case *MethodTypeConstant:
		return fmt.Sprintf("MethodType %s", utf8OrIndex(cp, c.DescriptorIndex))
	case *DynamicConstant:
		return fmt.Sprintf("Dynamic bsm=%d #%d", c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
	case *InvokeDynamicConstant:
		return fmt.Sprintf("InvokeDynamic bsm=%d #%d", c.BootstrapMethodAttrIndex, c.NameAndTypeIndex)
	case *ModuleConstant:
		return fmt.Sprintf("Module %s", utf8OrIndex(cp, c.NameIndex))
	case *PackageConstant:
		return fmt.Sprintf("Package %s", utf8OrIndex(cp, c.NameIndex))
	default:
		return fmt.Sprintf("tag(%d)", c.Tag())
	}
}

func utf8OrIndex(cp *ConstantPool, index uint16) string {
	if s, err := cp.Utf8(index); err == nil {
		return s
	}
	return fmt.Sprintf("#%d", index)
}

func classOrIndex(cp *ConstantPool, index uint16) string {
	if s, err := cp.ClassName(index); err == nil {
		return s
	}
	return fmt.Sprintf("#%d", index)
}

func refString(cp *ConstantPool, classIndex, natIndex uint16) string {
	name, desc := fmt.Sprintf("#%d", natIndex), ""
	if nt, ok := cp.Entry(natIndex).(*NameAndTypeConstant); ok {
		name = utf8OrIndex(cp, nt.NameIndex)
		desc = ":" + utf8OrIndex(cp, nt.DescriptorIndex)
	}
	return fmt.Sprintf("%s.%s%s", classOrIndex(cp, classIndex), name, desc)
}

// Disassemble renders the whole class in a javap-like layout: header,
// constant pool, fields and method bodies.
func Disassemble(cf *ClassFile) string {
	var b strings.Builder
	cp := cf.ConstantPool

	fmt.Fprintf(&b, "class %s\n", classOrIndex(cp, cf.ThisClass))
	fmt.Fprintf(&b, "  version: %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	fmt.Fprintf(&b, "  flags: (0x%04X) %s\n", cf.AccessFlags, FormatClassFlags(cf.AccessFlags))
	if cf.SuperClass != 0 {
		fmt.Fprintf(&b, "  extends %s\n", classOrIndex(cp, cf.SuperClass))
	}
	for _, idx := range cf.Interfaces {
		fmt.Fprintf(&b, "  implements %s\n", classOrIndex(cp, idx))
	}

	b.WriteString("\nConstant pool:\n")
	for i := 1; i <= cp.Count(); i++ {
		if cp.Entry(uint16(i)) == nil {
			continue
		}
		fmt.Fprintf(&b, "  #%d = %s\n", i, DescribeConstant(cp, uint16(i)))
	}

	if len(cf.Fields) > 0 {
		b.WriteString("\nFields:\n")
		for _, f := range cf.Fields {
			fmt.Fprintf(&b, "  %s %s %s\n",
				FormatFieldFlags(f.AccessFlags),
				utf8OrIndex(cp, f.DescriptorIndex),
				utf8OrIndex(cp, f.NameIndex))
		}
	}

	b.WriteString("\nMethods:\n")
	for _, m := range cf.Methods {
		fmt.Fprintf(&b, "  %s %s%s\n",
			FormatMethodFlags(m.AccessFlags),
			utf8OrIndex(cp, m.NameIndex),
			utf8OrIndex(cp, m.DescriptorIndex))
		if code := m.Code(); code != nil {
			disassembleCode(&b, cp, code)
		}
	}

	return b.String()
}

// DisassembleMethod renders a single method the way Disassemble does.
func DisassembleMethod(cf *ClassFile, m *MethodInfo) string {
	var b strings.Builder
	cp := cf.ConstantPool

	fmt.Fprintf(&b, "%s %s%s\n",
		FormatMethodFlags(m.AccessFlags),
		utf8OrIndex(cp, m.NameIndex),
		utf8OrIndex(cp, m.DescriptorIndex))
	if code := m.Code(); code != nil {
		disassembleCode(&b, cp, code)
	} else {
		b.WriteString("    <no code>\n")
	}
	return b.String()
}

func disassembleCode(b *strings.Builder, cp *ConstantPool, code *CodeAttribute) {
	fmt.Fprintf(b, "    stack=%d, locals=%d\n", code.MaxStack, code.MaxLocals)
	ins, err := code.Instructions()
	if err != nil {
		fmt.Fprintf(b, "    <undecodable code: %v>\n", err)
		return
	}
	for _, i := range ins {
		fmt.Fprintf(b, "    %4d: %s%s\n", i.Offset, i.String(), instructionComment(cp, i))
	}
	for _, h := range code.ExceptionTable {
		target := "any"
		if h.CatchType != 0 {
			target = classOrIndex(cp, h.CatchType)
		}
		fmt.Fprintf(b, "    try %d..%d -> %d catch %s\n", h.StartPC, h.EndPC, h.HandlerPC, target)
	}
}

// instructionComment resolves an instruction's constant pool operand, the
// way javap appends "// Method foo" to invoke instructions.
func instructionComment(cp *ConstantPool, i Instruction) string {
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
		return ""
	}
	return "  // " + DescribeConstant(cp, index)
}
