package classfile_test

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/javelin-rt/javelin/classfile"
	"github.com/javelin-rt/javelin/errors"
)

// minimalClass is a public class Hello extending java/lang/Object with no
// members.
func minimalClass() *classfile.ClassFile {
	return &classfile.ClassFile{
		MajorVersion: 52,
		ConstantPool: classfile.NewConstantPool(
			&classfile.Utf8Constant{Value: "Hello"},            // #1
			&classfile.ClassConstant{NameIndex: 1},             // #2
			&classfile.Utf8Constant{Value: "java/lang/Object"}, // #3
			&classfile.ClassConstant{NameIndex: 3},             // #4
		),
		AccessFlags: classfile.AccPublic | classfile.AccSuper,
		ThisClass:   2,
		SuperClass:  4,
	}
}

func encode(t *testing.T, cf *classfile.ClassFile) []byte {
	t.Helper()
	data, err := cf.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func isKind(err error, phase errors.Phase, kind errors.Kind) bool {
	return stderrors.Is(err, &errors.Error{Phase: phase, Kind: kind})
}

func TestParseMinimalClass(t *testing.T) {
	cf, err := classfile.ParseClass(encode(t, minimalClass()))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}

	if cf.MajorVersion != 52 {
		t.Errorf("expected major version 52, got %d", cf.MajorVersion)
	}
	name, err := cf.ClassName()
	if err != nil {
		t.Fatalf("ClassName: %v", err)
	}
	if name != "Hello" {
		t.Errorf("expected class Hello, got %q", name)
	}
	super, err := cf.SuperClassName()
	if err != nil {
		t.Fatalf("SuperClassName: %v", err)
	}
	if super != "java/lang/Object" {
		t.Errorf("expected super java/lang/Object, got %q", super)
	}
	if cf.ConstantPool.Count() != 4 {
		t.Errorf("expected 4 pool slots, got %d", cf.ConstantPool.Count())
	}
}

func TestParseBadMagic(t *testing.T) {
	data := encode(t, minimalClass())
	data[0] = 0xDE

	_, err := classfile.ParseClass(data)
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindBadMagic) {
		t.Errorf("expected bad_magic_number, got %v", err)
	}
}

func TestParseTruncated(t *testing.T) {
	data := encode(t, minimalClass())

	// Every strict prefix must fail cleanly, never panic.
	for i := 0; i < len(data); i++ {
		if _, err := classfile.ParseClass(data[:i]); err == nil {
			t.Errorf("prefix of %d byte(s) decoded without error", i)
		}
	}
}

func TestParseTrailingBytes(t *testing.T) {
	data := append(encode(t, minimalClass()), 0x00)

	_, err := classfile.ParseClass(data)
	if err == nil {
		t.Fatal("expected error for trailing bytes")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindLengthMismatch) {
		t.Errorf("expected length_mismatch, got %v", err)
	}
}

func TestParseUnknownConstantTag(t *testing.T) {
	data := encode(t, minimalClass())
	// The first pool entry's tag byte sits right after magic, versions and
	// the pool count.
	data[10] = 13

	_, err := classfile.ParseClass(data)
	if err == nil {
		t.Fatal("expected error for unassigned tag")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindUnknownTag) {
		t.Errorf("expected unknown_constant_pool_tag, got %v", err)
	}
}

func TestLongOccupiesTwoSlots(t *testing.T) {
	cf := minimalClass()
	cf.ConstantPool = classfile.NewConstantPool(
		&classfile.Utf8Constant{Value: "Hello"},            // #1
		&classfile.ClassConstant{NameIndex: 1},             // #2
		&classfile.Utf8Constant{Value: "java/lang/Object"}, // #3
		&classfile.ClassConstant{NameIndex: 3},             // #4
		&classfile.LongConstant{Value: -7},                 // #5 and #6
		&classfile.DoubleConstant{Value: 2.5},              // #7 and #8
		&classfile.Utf8Constant{Value: "tail"},             // #9
	)

	parsed, err := classfile.ParseClass(encode(t, cf))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}
	cp := parsed.ConstantPool

	if cp.Count() != 9 {
		t.Fatalf("expected 9 pool slots, got %d", cp.Count())
	}
	long, ok := cp.Entry(5).(*classfile.LongConstant)
	if !ok || long.Value != -7 {
		t.Errorf("slot 5: expected Long -7, got %#v", cp.Entry(5))
	}
	if cp.Entry(6) != nil {
		t.Errorf("slot 6 should be the Long's reserved slot, got %#v", cp.Entry(6))
	}
	if cp.Entry(8) != nil {
		t.Errorf("slot 8 should be the Double's reserved slot, got %#v", cp.Entry(8))
	}
	if u, ok := cp.Entry(9).(*classfile.Utf8Constant); !ok || u.Value != "tail" {
		t.Errorf("slot 9: expected Utf8 tail, got %#v", cp.Entry(9))
	}
}

func TestUnknownAttributeKeptOpaque(t *testing.T) {
	cf := minimalClass()
	cf.ConstantPool = classfile.NewConstantPool(
		&classfile.Utf8Constant{Value: "Hello"},            // #1
		&classfile.ClassConstant{NameIndex: 1},             // #2
		&classfile.Utf8Constant{Value: "java/lang/Object"}, // #3
		&classfile.ClassConstant{NameIndex: 3},             // #4
		&classfile.Utf8Constant{Value: "VendorSpecific"},   // #5
	)
	cf.Attributes = []classfile.Attribute{
		&classfile.RawAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 5, Name: "VendorSpecific"},
			Data:     []byte{0x01, 0x02, 0x03},
		},
	}
	data := encode(t, cf)

	parsed, err := classfile.ParseClass(data)
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}
	raw, ok := parsed.Attributes[0].(*classfile.RawAttribute)
	if !ok {
		t.Fatalf("expected RawAttribute, got %T", parsed.Attributes[0])
	}
	if raw.AttributeName() != "VendorSpecific" {
		t.Errorf("expected name VendorSpecific, got %q", raw.AttributeName())
	}
	if len(raw.Data) != 3 || raw.Data[0] != 0x01 {
		t.Errorf("payload not preserved: %v", raw.Data)
	}

	_, err = classfile.ParseClassWithOptions(data, classfile.DecodeOptions{StrictAttributes: true})
	if err == nil {
		t.Fatal("strict mode should reject unknown attributes")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindUnknownAttribute) {
		t.Errorf("expected unknown_attribute, got %v", err)
	}
}

func TestAttributeLengthMismatch(t *testing.T) {
	cf := minimalClass()
	cf.ConstantPool = classfile.NewConstantPool(
		&classfile.Utf8Constant{Value: "Hello"},            // #1
		&classfile.ClassConstant{NameIndex: 1},             // #2
		&classfile.Utf8Constant{Value: "java/lang/Object"}, // #3
		&classfile.ClassConstant{NameIndex: 3},             // #4
		&classfile.Utf8Constant{Value: "SourceFile"},       // #5
		&classfile.Utf8Constant{Value: "Hello.java"},       // #6
	)
	cf.Attributes = []classfile.Attribute{
		&classfile.SourceFileAttribute{
			AttrInfo:        classfile.AttrInfo{NameIndex: 5, Name: classfile.AttrSourceFile},
			SourceFileIndex: 6,
		},
	}
	data := encode(t, cf)

	// The class ends with the attribute: name_index(2) length(4) payload(2).
	// Grow the declared length from 2 to 3 and pad the payload; the
	// SourceFile shape consumes only 2 of the 3 bytes.
	data[len(data)-3] = 0x03
	data = append(data, 0x00)

	_, err := classfile.ParseClass(data)
	if err == nil {
		t.Fatal("expected error for attribute length mismatch")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindLengthMismatch) {
		t.Errorf("expected length_mismatch, got %v", err)
	}
}

func TestReadClass(t *testing.T) {
	data := encode(t, minimalClass())
	cf, err := classfile.ReadClass(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadClass: %v", err)
	}
	if name, _ := cf.ClassName(); name != "Hello" {
		t.Errorf("expected Hello, got %q", name)
	}
}
