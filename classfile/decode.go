package classfile

import (
	"io"

	"go.uber.org/zap"

	"github.com/javelin-rt/javelin/classfile/internal/binary"
	"github.com/javelin-rt/javelin/errors"
)

// DecodeOptions controls decoding behavior.
type DecodeOptions struct {
	// Logger receives decode diagnostics. Nil means the package logger.
	Logger *zap.Logger

	// StrictAttributes turns unrecognized attribute names into decode
	// errors instead of opaque raw attributes.
	StrictAttributes bool
}

// ParseClass decodes a class file with default options. Decoding is
// permissive about semantics: constant pool references are stored as read
// and access flags are not checked. Run VerifyConstantPool and
// VerifyStructure for those guarantees.
func ParseClass(data []byte) (*ClassFile, error) {
	return ParseClassWithOptions(data, DecodeOptions{})
}

// ParseClassWithOptions decodes a class file.
func ParseClassWithOptions(data []byte, opts DecodeOptions) (*ClassFile, error) {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}

	r := binary.NewReader(data)

	magic, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, errors.BadMagicNumber(magic)
	}

	cf := &ClassFile{}
	if cf.MinorVersion, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = r.ReadU16(); err != nil {
		return nil, err
	}

	if cf.ConstantPool, err = decodeConstantPool(r); err != nil {
		return nil, err
	}

	if cf.AccessFlags, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = r.ReadU16(); err != nil {
		return nil, err
	}

	if cf.Interfaces, err = decodeU16Table(r); err != nil {
		return nil, err
	}

	fieldCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cf.Fields = make([]*FieldInfo, fieldCount)
	for i := range cf.Fields {
		flags, nameIndex, descIndex, attrs, err := decodeMember(r, cf.ConstantPool, opts)
		if err != nil {
			return nil, err
		}
		cf.Fields[i] = &FieldInfo{AccessFlags: flags, NameIndex: nameIndex, DescriptorIndex: descIndex, Attributes: attrs}
	}

	methodCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cf.Methods = make([]*MethodInfo, methodCount)
	for i := range cf.Methods {
		flags, nameIndex, descIndex, attrs, err := decodeMember(r, cf.ConstantPool, opts)
		if err != nil {
			return nil, err
		}
		cf.Methods[i] = &MethodInfo{AccessFlags: flags, NameIndex: nameIndex, DescriptorIndex: descIndex, Attributes: attrs}
	}

	if cf.Attributes, err = decodeAttributes(r, cf.ConstantPool, opts); err != nil {
		return nil, err
	}

	// The class structure must account for every input byte.
	if r.Remaining() != 0 {
		return nil, errors.LengthMismatch("class_file", len(data), r.Position())
	}

	log.Debug("decoded class file",
		zap.Uint16("major", cf.MajorVersion),
		zap.Uint16("minor", cf.MinorVersion),
		zap.Int("constants", cf.ConstantPool.Count()),
		zap.Int("fields", len(cf.Fields)),
		zap.Int("methods", len(cf.Methods)))

	return cf, nil
}

// ParseClassVerify decodes a class file and runs both verification passes.
func ParseClassVerify(data []byte) (*ClassFile, error) {
	cf, err := ParseClass(data)
	if err != nil {
		return nil, err
	}
	if err := cf.VerifyConstantPool(); err != nil {
		return nil, err
	}
	if err := cf.VerifyStructure(); err != nil {
		return nil, err
	}
	return cf, nil
}

// ReadClass decodes a class file from a reader.
func ReadClass(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.IO(err)
	}
	return ParseClass(data)
}

func decodeMember(r *binary.Reader, cp *ConstantPool, opts DecodeOptions) (flags, nameIndex, descIndex uint16, attrs []Attribute, err error) {
	if flags, err = r.ReadU16(); err != nil {
		return
	}
	if nameIndex, err = r.ReadU16(); err != nil {
		return
	}
	if descIndex, err = r.ReadU16(); err != nil {
		return
	}
	attrs, err = decodeAttributes(r, cp, opts)
	return
}
