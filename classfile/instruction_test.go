package classfile_test

import (
	"bytes"
	"testing"

	"github.com/javelin-rt/javelin/classfile"
	"github.com/javelin-rt/javelin/errors"
)

func TestDecodeInstructionsBasic(t *testing.T) {
	code := []byte{
		classfile.OpIconst0,
		classfile.OpIstore1,
		classfile.OpIinc, 0x01, 0xFF, // iinc 1, -1
		classfile.OpGoto, 0xFF, 0xFB, // goto -5 (back to iconst_0... offset 5, target 0)
		classfile.OpReturn,
	}

	ins, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if len(ins) != 5 {
		t.Fatalf("expected 5 instructions, got %d", len(ins))
	}

	wantOffsets := []int{0, 1, 2, 5, 8}
	for i, want := range wantOffsets {
		if ins[i].Offset != want {
			t.Errorf("instruction %d: expected offset %d, got %d", i, want, ins[i].Offset)
		}
	}

	iinc, ok := ins[2].Imm.(classfile.IincImm)
	if !ok {
		t.Fatalf("expected IincImm, got %T", ins[2].Imm)
	}
	if iinc.Index != 1 || iinc.Const != -1 {
		t.Errorf("iinc: expected index 1 const -1, got %d %d", iinc.Index, iinc.Const)
	}

	branch, ok := ins[3].Imm.(classfile.BranchImm)
	if !ok {
		t.Fatalf("expected BranchImm, got %T", ins[3].Imm)
	}
	if branch.Offset != -5 {
		t.Errorf("goto: expected relative offset -5, got %d", branch.Offset)
	}
	if target := ins[3].Offset + int(branch.Offset); target != 0 {
		t.Errorf("goto: expected absolute target 0, got %d", target)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, err := classfile.DecodeInstructions([]byte{classfile.OpNop, 0xCB})
	if err == nil {
		t.Fatal("expected error for opcode 0xCB")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindUnknownOpcode) {
		t.Errorf("expected unknown_opcode, got %v", err)
	}
}

func TestDecodeTruncatedOperand(t *testing.T) {
	_, err := classfile.DecodeInstructions([]byte{classfile.OpSipush, 0x01})
	if err == nil {
		t.Fatal("expected error for truncated sipush")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindUnexpectedEOS) {
		t.Errorf("expected unexpected_end_of_stream, got %v", err)
	}
}

// tableswitch padding depends on the opcode's own offset; exercise all four
// alignments by shifting the switch with leading nops.
func TestTableswitchAlignment(t *testing.T) {
	for nops := 0; nops < 4; nops++ {
		code := make([]byte, 0, 32)
		for i := 0; i < nops; i++ {
			code = append(code, classfile.OpNop)
		}
		switchOffset := len(code)
		code = append(code, classfile.OpTableswitch)
		pad := (4 - (switchOffset+1)%4) % 4
		for i := 0; i < pad; i++ {
			code = append(code, 0x00)
		}
		code = append(code,
			0x00, 0x00, 0x00, 0x10, // default +16
			0x00, 0x00, 0x00, 0x01, // low 1
			0x00, 0x00, 0x00, 0x02, // high 2
			0x00, 0x00, 0x00, 0x14, // offset for 1
			0x00, 0x00, 0x00, 0x18, // offset for 2
		)

		ins, err := classfile.DecodeInstructions(code)
		if err != nil {
			t.Fatalf("nops=%d: DecodeInstructions: %v", nops, err)
		}
		sw := ins[len(ins)-1]
		if sw.Offset != switchOffset {
			t.Fatalf("nops=%d: expected switch at %d, got %d", nops, switchOffset, sw.Offset)
		}
		imm, ok := sw.Imm.(classfile.TableSwitchImm)
		if !ok {
			t.Fatalf("nops=%d: expected TableSwitchImm, got %T", nops, sw.Imm)
		}
		if imm.Low != 1 || imm.High != 2 || imm.Default != 16 {
			t.Errorf("nops=%d: bad header: low=%d high=%d default=%d", nops, imm.Low, imm.High, imm.Default)
		}
		if len(imm.Offsets) != 2 || imm.Offsets[0] != 20 || imm.Offsets[1] != 24 {
			t.Errorf("nops=%d: bad offsets: %v", nops, imm.Offsets)
		}

		// Re-encoding must reproduce the input padding byte for byte.
		out, err := classfile.EncodeInstructions(ins)
		if err != nil {
			t.Fatalf("nops=%d: EncodeInstructions: %v", nops, err)
		}
		if !bytes.Equal(out, code) {
			t.Errorf("nops=%d: round trip mismatch:\n in  %x\n out %x", nops, code, out)
		}
	}
}

func TestLookupswitch(t *testing.T) {
	code := []byte{
		classfile.OpLookupswitch,
		0x00, 0x00, 0x00, // padding to offset 4
		0x00, 0x00, 0x00, 0x1C, // default +28
		0x00, 0x00, 0x00, 0x02, // 2 pairs
		0x00, 0x00, 0x00, 0x0A, 0x00, 0x00, 0x00, 0x20, // 10 -> +32
		0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x24, // -1 -> +36
	}

	ins, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	imm, ok := ins[0].Imm.(classfile.LookupSwitchImm)
	if !ok {
		t.Fatalf("expected LookupSwitchImm, got %T", ins[0].Imm)
	}
	if imm.Default != 28 {
		t.Errorf("expected default 28, got %d", imm.Default)
	}
	if len(imm.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(imm.Pairs))
	}
	if imm.Pairs[1].Match != -1 || imm.Pairs[1].Offset != 36 {
		t.Errorf("bad second pair: %+v", imm.Pairs[1])
	}
}

func TestWidePrefix(t *testing.T) {
	code := []byte{
		classfile.OpWide, classfile.OpIload, 0x01, 0x00, // wide iload 256
		classfile.OpWide, classfile.OpIinc, 0x00, 0x05, 0xFF, 0x00, // wide iinc 5, -256
	}

	ins, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if len(ins) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(ins))
	}

	load, ok := ins[0].Imm.(classfile.WideImm)
	if !ok || load.Opcode != classfile.OpIload || load.Index != 256 {
		t.Errorf("wide iload: got %#v", ins[0].Imm)
	}
	inc, ok := ins[1].Imm.(classfile.WideImm)
	if !ok || inc.Opcode != classfile.OpIinc || inc.Index != 5 || inc.Const != -256 {
		t.Errorf("wide iinc: got %#v", ins[1].Imm)
	}
	if ins[1].Offset != 4 {
		t.Errorf("expected second instruction at offset 4, got %d", ins[1].Offset)
	}

	// wide before an opcode that does not take it
	_, err = classfile.DecodeInstructions([]byte{classfile.OpWide, classfile.OpNop, 0x00, 0x00})
	if err == nil {
		t.Error("expected error for wide nop")
	}
}

// A switch header can declare two billion operands in a handful of bytes;
// the declared size must be checked against the bytes actually present
// before anything is allocated.
func TestSwitchDeclaredSizeBounds(t *testing.T) {
	tableswitch := []byte{
		classfile.OpTableswitch,
		0x00, 0x00, 0x00, // padding
		0x00, 0x00, 0x00, 0x00, // default
		0x00, 0x00, 0x00, 0x00, // low 0
		0x7F, 0xFF, 0xFF, 0xFE, // high 2147483646
		0x00,
	}
	_, err := classfile.DecodeInstructions(tableswitch)
	if err == nil {
		t.Fatal("expected error for oversized tableswitch range")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindLengthMismatch) {
		t.Errorf("expected length_mismatch, got %v", err)
	}

	lookupswitch := []byte{
		classfile.OpLookupswitch,
		0x00, 0x00, 0x00, // padding
		0x00, 0x00, 0x00, 0x00, // default
		0x7F, 0xFF, 0xFF, 0xFF, // npairs 2147483647
	}
	_, err = classfile.DecodeInstructions(lookupswitch)
	if err == nil {
		t.Fatal("expected error for oversized lookupswitch pair count")
	}
	if !isKind(err, errors.PhaseDecode, errors.KindLengthMismatch) {
		t.Errorf("expected length_mismatch, got %v", err)
	}
}

// The format requires the trailing operand bytes of invokeinterface and
// invokedynamic, and all switch padding, to be zero. Accepting anything else
// would break the decode/encode byte-identity guarantee.
func TestMandatedZeroBytes(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"invokeinterface", []byte{classfile.OpInvokeinterface, 0x00, 0x09, 0x02, 0x7F}},
		{"invokedynamic", []byte{classfile.OpInvokedynamic, 0x00, 0x0B, 0x01, 0x00}},
		{"switch padding", []byte{
			classfile.OpTableswitch,
			0xAA, 0x00, 0x00, // nonzero padding byte
			0x00, 0x00, 0x00, 0x08, // default
			0x00, 0x00, 0x00, 0x00, // low 0
			0x00, 0x00, 0x00, 0x00, // high 0
			0x00, 0x00, 0x00, 0x0C, // offset for 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classfile.DecodeInstructions(tt.code)
			if err == nil {
				t.Fatal("expected error for nonzero mandated-zero byte")
			}
			if !isKind(err, errors.PhaseDecode, errors.KindLengthMismatch) {
				t.Errorf("expected length_mismatch, got %v", err)
			}
		})
	}
}

func TestInstructionString(t *testing.T) {
	code := []byte{
		classfile.OpAload0,
		classfile.OpGetfield, 0x00, 0x07,
		classfile.OpIfnull, 0x00, 0x06,
		classfile.OpBipush, 0xFE,
	}
	ins, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}

	want := []string{"aload_0", "getfield #7", "ifnull 10", "bipush -2"}
	for i, w := range want {
		if got := ins[i].String(); got != w {
			t.Errorf("instruction %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestInvokeImmediates(t *testing.T) {
	code := []byte{
		classfile.OpInvokeinterface, 0x00, 0x09, 0x02, 0x00,
		classfile.OpInvokedynamic, 0x00, 0x0B, 0x00, 0x00,
	}
	ins, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}

	ii, ok := ins[0].Imm.(classfile.InvokeInterfaceImm)
	if !ok || ii.Index != 9 || ii.Count != 2 {
		t.Errorf("invokeinterface: got %#v", ins[0].Imm)
	}
	id, ok := ins[1].Imm.(classfile.InvokeDynamicImm)
	if !ok || id.Index != 11 {
		t.Errorf("invokedynamic: got %#v", ins[1].Imm)
	}

	out, err := classfile.EncodeInstructions(ins)
	if err != nil {
		t.Fatalf("EncodeInstructions: %v", err)
	}
	if !bytes.Equal(out, code) {
		t.Errorf("round trip mismatch:\n in  %x\n out %x", code, out)
	}
}
