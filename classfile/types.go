// Package classfile decodes, verifies and re-encodes JVM class files.
//
// Decoding is permissive: any input that is structurally well-formed parses,
// even when constant pool references dangle or access flag combinations are
// illegal. Callers that want stronger guarantees run the verification passes
// (VerifyConstantPool, VerifyStructure) after decoding, or use
// ParseClassVerify which does both.
package classfile

// ClassFile is the decoded form of a single class file. Field order mirrors
// the on-disk layout so Encode can reproduce the input byte for byte.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []*FieldInfo
	Methods      []*MethodInfo
	Attributes   []Attribute
}

// FieldInfo is one entry of the fields table.
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// MethodInfo is one entry of the methods table.
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Name resolves the field name through the constant pool.
func (f *FieldInfo) Name(cp *ConstantPool) (string, error) {
	return cp.Utf8(f.NameIndex)
}

// Descriptor resolves the field descriptor through the constant pool.
func (f *FieldInfo) Descriptor(cp *ConstantPool) (string, error) {
	return cp.Utf8(f.DescriptorIndex)
}

// Name resolves the method name through the constant pool.
func (m *MethodInfo) Name(cp *ConstantPool) (string, error) {
	return cp.Utf8(m.NameIndex)
}

// Descriptor resolves the method descriptor through the constant pool.
func (m *MethodInfo) Descriptor(cp *ConstantPool) (string, error) {
	return cp.Utf8(m.DescriptorIndex)
}

// Code returns the method's Code attribute, or nil for abstract and native
// methods.
func (m *MethodInfo) Code() *CodeAttribute {
	for _, attr := range m.Attributes {
		if code, ok := attr.(*CodeAttribute); ok {
			return code
		}
	}
	return nil
}

// ClassName resolves the name of this_class.
func (c *ClassFile) ClassName() (string, error) {
	return c.ConstantPool.ClassName(c.ThisClass)
}

// SuperClassName resolves the name of super_class. It returns "" for
// java/lang/Object, whose super_class index is zero.
func (c *ClassFile) SuperClassName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.ConstantPool.ClassName(c.SuperClass)
}

// InterfaceNames resolves every direct superinterface name.
func (c *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(c.Interfaces))
	for _, idx := range c.Interfaces {
		name, err := c.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Attribute is implemented by every attribute shape, decoded or opaque.
type Attribute interface {
	// AttributeName returns the resolved attribute name.
	AttributeName() string
}

// AttrInfo is the header common to every attribute. NameIndex is retained so
// encoding reproduces the original bytes without touching the constant pool.
type AttrInfo struct {
	NameIndex uint16
	Name      string
}

// AttributeName returns the resolved attribute name.
func (a AttrInfo) AttributeName() string { return a.Name }

func (a AttrInfo) info() AttrInfo { return a }

// FindAttribute returns the first attribute with the given name, or nil.
func FindAttribute(attrs []Attribute, name string) Attribute {
	for _, attr := range attrs {
		if attr.AttributeName() == name {
			return attr
		}
	}
	return nil
}
