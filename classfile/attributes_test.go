package classfile_test

import (
	"testing"

	"github.com/javelin-rt/javelin/classfile"
	"github.com/javelin-rt/javelin/errors"
)

// classWithMethod builds a class with one method whose Code attribute
// carries the given nested pieces.
func classWithMethod(code *classfile.CodeAttribute, extraConstants ...classfile.Constant) *classfile.ClassFile {
	entries := []classfile.Constant{
		&classfile.Utf8Constant{Value: "Hello"},            // #1
		&classfile.ClassConstant{NameIndex: 1},             // #2
		&classfile.Utf8Constant{Value: "java/lang/Object"}, // #3
		&classfile.ClassConstant{NameIndex: 3},             // #4
		&classfile.Utf8Constant{Value: "run"},              // #5
		&classfile.Utf8Constant{Value: "()V"},              // #6
		&classfile.Utf8Constant{Value: "Code"},             // #7
	}
	entries = append(entries, extraConstants...)
	return &classfile.ClassFile{
		MajorVersion: 52,
		ConstantPool: classfile.NewConstantPool(entries...),
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
		ThisClass:    2,
		SuperClass:   4,
		Methods: []*classfile.MethodInfo{
			{
				AccessFlags:     classfile.AccPublic,
				NameIndex:       5,
				DescriptorIndex: 6,
				Attributes:      []classfile.Attribute{code},
			},
		},
	}
}

func codeAttr(code []byte) *classfile.CodeAttribute {
	return &classfile.CodeAttribute{
		AttrInfo:  classfile.AttrInfo{NameIndex: 7, Name: classfile.AttrCode},
		MaxStack:  2,
		MaxLocals: 1,
		Code:      code,
	}
}

func TestDecodeCodeAttribute(t *testing.T) {
	code := codeAttr([]byte{classfile.OpIconst0, classfile.OpPop, classfile.OpReturn})
	code.ExceptionTable = []classfile.ExceptionHandler{
		{StartPC: 0, EndPC: 2, HandlerPC: 2, CatchType: 0},
	}

	parsed, err := classfile.ParseClass(encode(t, classWithMethod(code)))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}

	got := parsed.Methods[0].Code()
	if got == nil {
		t.Fatal("Code() returned nil")
	}
	if got.MaxStack != 2 || got.MaxLocals != 1 {
		t.Errorf("expected stack=2 locals=1, got %d %d", got.MaxStack, got.MaxLocals)
	}
	if len(got.Code) != 3 {
		t.Errorf("expected 3 code bytes, got %d", len(got.Code))
	}
	if len(got.ExceptionTable) != 1 || got.ExceptionTable[0].EndPC != 2 {
		t.Errorf("exception table not preserved: %+v", got.ExceptionTable)
	}

	ins, err := got.Instructions()
	if err != nil {
		t.Fatalf("Instructions: %v", err)
	}
	if len(ins) != 3 || ins[2].Opcode != classfile.OpReturn {
		t.Errorf("unexpected instructions: %v", ins)
	}
}

func TestDecodeNestedCodeAttributes(t *testing.T) {
	code := codeAttr([]byte{classfile.OpReturn})
	code.Attributes = []classfile.Attribute{
		&classfile.LineNumberTableAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 8, Name: classfile.AttrLineNumberTable},
			Entries:  []classfile.LineNumberEntry{{StartPC: 0, LineNumber: 42}},
		},
	}
	cf := classWithMethod(code,
		&classfile.Utf8Constant{Value: "LineNumberTable"}, // #8
	)

	parsed, err := classfile.ParseClass(encode(t, cf))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}

	got := parsed.Methods[0].Code()
	lnt, ok := classfile.FindAttribute(got.Attributes, classfile.AttrLineNumberTable).(*classfile.LineNumberTableAttribute)
	if !ok {
		t.Fatalf("expected LineNumberTable, got %T", got.Attributes[0])
	}
	if len(lnt.Entries) != 1 || lnt.Entries[0].LineNumber != 42 {
		t.Errorf("line table not preserved: %+v", lnt.Entries)
	}
}

func TestDecodeStackMapTable(t *testing.T) {
	code := codeAttr([]byte{classfile.OpReturn})
	code.Attributes = []classfile.Attribute{
		&classfile.StackMapTableAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 8, Name: classfile.AttrStackMapTable},
			Frames: []classfile.StackMapFrame{
				{FrameType: 5, OffsetDelta: 5}, // same_frame
				{FrameType: 66, OffsetDelta: 2, Stack: []classfile.VerificationType{ // same_locals_1_stack_item
					{Tag: classfile.ItemObject, Index: 2},
				}},
				{FrameType: 255, OffsetDelta: 9, // full_frame
					Locals: []classfile.VerificationType{{Tag: classfile.ItemInteger}},
					Stack:  []classfile.VerificationType{{Tag: classfile.ItemLong}},
				},
			},
		},
	}
	cf := classWithMethod(code,
		&classfile.Utf8Constant{Value: "StackMapTable"}, // #8
	)

	parsed, err := classfile.ParseClass(encode(t, cf))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}

	got := parsed.Methods[0].Code()
	smt, ok := classfile.FindAttribute(got.Attributes, classfile.AttrStackMapTable).(*classfile.StackMapTableAttribute)
	if !ok {
		t.Fatal("expected StackMapTable attribute")
	}
	if len(smt.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(smt.Frames))
	}
	if smt.Frames[0].OffsetDelta != 5 {
		t.Errorf("same_frame delta: expected 5, got %d", smt.Frames[0].OffsetDelta)
	}
	if len(smt.Frames[1].Stack) != 1 || smt.Frames[1].Stack[0].Index != 2 {
		t.Errorf("same_locals_1 stack: %+v", smt.Frames[1].Stack)
	}
	if len(smt.Frames[2].Locals) != 1 || smt.Frames[2].Locals[0].Tag != classfile.ItemInteger {
		t.Errorf("full_frame locals: %+v", smt.Frames[2].Locals)
	}
}

func TestDecodeBootstrapMethods(t *testing.T) {
	cf := minimalClass()
	cf.ConstantPool = classfile.NewConstantPool(
		&classfile.Utf8Constant{Value: "Hello"},            // #1
		&classfile.ClassConstant{NameIndex: 1},             // #2
		&classfile.Utf8Constant{Value: "java/lang/Object"}, // #3
		&classfile.ClassConstant{NameIndex: 3},             // #4
		&classfile.Utf8Constant{Value: "BootstrapMethods"}, // #5
		&classfile.Utf8Constant{Value: "m"},                // #6
		&classfile.Utf8Constant{Value: "()V"},              // #7
		&classfile.NameAndTypeConstant{NameIndex: 6, DescriptorIndex: 7},   // #8
		&classfile.MethodrefConstant{ClassIndex: 2, NameAndTypeIndex: 8},   // #9
		&classfile.MethodHandleConstant{ReferenceKind: 6, ReferenceIndex: 9}, // #10
		&classfile.IntegerConstant{Value: 17},              // #11
	)
	cf.Attributes = []classfile.Attribute{
		&classfile.BootstrapMethodsAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 5, Name: classfile.AttrBootstrapMethods},
			Methods: []classfile.BootstrapMethod{
				{MethodRef: 10, Arguments: []uint16{11}},
			},
		},
	}

	parsed, err := classfile.ParseClass(encode(t, cf))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}
	bsm, ok := classfile.FindAttribute(parsed.Attributes, classfile.AttrBootstrapMethods).(*classfile.BootstrapMethodsAttribute)
	if !ok {
		t.Fatal("expected BootstrapMethods attribute")
	}
	if len(bsm.Methods) != 1 || bsm.Methods[0].MethodRef != 10 {
		t.Fatalf("bootstrap methods not preserved: %+v", bsm.Methods)
	}
	if len(bsm.Methods[0].Arguments) != 1 || bsm.Methods[0].Arguments[0] != 11 {
		t.Errorf("arguments not preserved: %v", bsm.Methods[0].Arguments)
	}

	if err := parsed.VerifyStructure(); err != nil {
		t.Errorf("structure should verify: %v", err)
	}
}

func TestDecodeMethodParameters(t *testing.T) {
	code := codeAttr([]byte{classfile.OpReturn})
	cf := classWithMethod(code,
		&classfile.Utf8Constant{Value: "MethodParameters"}, // #8
		&classfile.Utf8Constant{Value: "arg0"},             // #9
	)
	cf.Methods[0].Attributes = append(cf.Methods[0].Attributes,
		&classfile.MethodParametersAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 8, Name: classfile.AttrMethodParameters},
			Parameters: []classfile.MethodParameter{
				{NameIndex: 9, AccessFlags: classfile.AccFinal},
			},
		})

	parsed, err := classfile.ParseClass(encode(t, cf))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}
	mp, ok := classfile.FindAttribute(parsed.Methods[0].Attributes, classfile.AttrMethodParameters).(*classfile.MethodParametersAttribute)
	if !ok {
		t.Fatal("expected MethodParameters attribute")
	}
	if len(mp.Parameters) != 1 || mp.Parameters[0].NameIndex != 9 || mp.Parameters[0].AccessFlags != classfile.AccFinal {
		t.Errorf("parameters not preserved: %+v", mp.Parameters)
	}
}

// Element values nest through arrays and annotations at three input bytes
// per level, so decode caps the recursion depth rather than trusting the
// input not to blow the stack.
func TestAnnotationNestingDepthLimit(t *testing.T) {
	value := classfile.ElementValue{Tag: classfile.ElemInt, ConstIndex: 9}
	for i := 0; i < 200; i++ {
		value = classfile.ElementValue{Tag: classfile.ElemArray, Values: []classfile.ElementValue{value}}
	}

	cf := classWithMethod(codeAttr([]byte{classfile.OpReturn}),
		&classfile.Utf8Constant{Value: "AnnotationDefault"}, // #8
		&classfile.IntegerConstant{Value: 1},                // #9
	)
	cf.Methods[0].Attributes = append(cf.Methods[0].Attributes,
		&classfile.AnnotationDefaultAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 8, Name: classfile.AttrAnnotationDefault},
			Default:  value,
		})

	_, err := classfile.ParseClass(encode(t, cf))
	if err == nil {
		t.Fatal("expected error for deeply nested annotation default")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindLengthMismatch) {
		t.Errorf("expected length_mismatch, got %v", err)
	}
}

func TestDecodeAnnotations(t *testing.T) {
	cf := minimalClass()
	cf.ConstantPool = classfile.NewConstantPool(
		&classfile.Utf8Constant{Value: "Hello"},                     // #1
		&classfile.ClassConstant{NameIndex: 1},                      // #2
		&classfile.Utf8Constant{Value: "java/lang/Object"},          // #3
		&classfile.ClassConstant{NameIndex: 3},                      // #4
		&classfile.Utf8Constant{Value: "RuntimeVisibleAnnotations"}, // #5
		&classfile.Utf8Constant{Value: "LDeprecated;"},              // #6
		&classfile.Utf8Constant{Value: "since"},                     // #7
		&classfile.Utf8Constant{Value: "9"},                         // #8
	)
	cf.Attributes = []classfile.Attribute{
		&classfile.AnnotationsAttribute{
			AttrInfo: classfile.AttrInfo{NameIndex: 5, Name: classfile.AttrRuntimeVisibleAnnotations},
			Annotations: []classfile.Annotation{
				{
					TypeIndex: 6,
					Elements: []classfile.ElementValuePair{
						{NameIndex: 7, Value: classfile.ElementValue{Tag: classfile.ElemString, ConstIndex: 8}},
					},
				},
			},
		},
	}

	parsed, err := classfile.ParseClass(encode(t, cf))
	if err != nil {
		t.Fatalf("ParseClass: %v", err)
	}
	ra, ok := classfile.FindAttribute(parsed.Attributes, classfile.AttrRuntimeVisibleAnnotations).(*classfile.AnnotationsAttribute)
	if !ok {
		t.Fatal("expected AnnotationsAttribute")
	}
	if len(ra.Annotations) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(ra.Annotations))
	}
	ann := ra.Annotations[0]
	if ann.TypeIndex != 6 || len(ann.Elements) != 1 {
		t.Fatalf("annotation not preserved: %+v", ann)
	}
	if ann.Elements[0].Value.Tag != classfile.ElemString || ann.Elements[0].Value.ConstIndex != 8 {
		t.Errorf("element value not preserved: %+v", ann.Elements[0].Value)
	}

	if err := parsed.VerifyStructure(); err != nil {
		t.Errorf("structure should verify: %v", err)
	}
}
