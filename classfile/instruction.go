package classfile

import (
	"fmt"

	"github.com/javelin-rt/javelin/classfile/internal/binary"
	"github.com/javelin-rt/javelin/errors"
)

// Instruction is one decoded bytecode instruction. Offset is the byte
// position of the opcode within the method's code array. Branch immediates
// stay relative to that offset, exactly as stored on disk, so decoding and
// re-encoding a method never rewrites a jump.
type Instruction struct {
	Imm    any
	Offset int
	Opcode byte
}

// Immediate types carried in Instruction.Imm. Opcodes with no operands have
// a nil Imm.
type (
	// ByteImm is the operand of bipush.
	ByteImm struct {
		Value int8
	}

	// ShortImm is the operand of sipush.
	ShortImm struct {
		Value int16
	}

	// LocalImm is a local variable index (iload, astore, ret, ...).
	LocalImm struct {
		Index uint8
	}

	// ConstImm is a constant pool index. For ldc the index is stored as a
	// single byte on disk; the opcode determines the encoded width.
	ConstImm struct {
		Index uint16
	}

	// BranchImm is a jump offset relative to the instruction's own offset.
	// 16-bit branches are sign-extended; goto_w and jsr_w use the full
	// 32 bits.
	BranchImm struct {
		Offset int32
	}

	// IincImm is the operand pair of iinc.
	IincImm struct {
		Index uint8
		Const int8
	}

	// InvokeInterfaceImm is the operand of invokeinterface. The encoding
	// ends with a byte the format requires to be zero; decode rejects
	// anything else, so the byte is not retained.
	InvokeInterfaceImm struct {
		Index uint16
		Count uint8
	}

	// InvokeDynamicImm is the operand of invokedynamic. The encoding ends
	// with two bytes the format requires to be zero; decode rejects anything
	// else, so the bytes are not retained.
	InvokeDynamicImm struct {
		Index uint16
	}

	// NewArrayImm is the primitive element type of newarray.
	NewArrayImm struct {
		AType uint8
	}

	// MultiANewArrayImm is the operand pair of multianewarray.
	MultiANewArrayImm struct {
		Index      uint16
		Dimensions uint8
	}

	// TableSwitchImm is the jump table of tableswitch. Default and Offsets
	// are relative to the instruction offset; Offsets[i] is the target for
	// match value Low+i.
	TableSwitchImm struct {
		Offsets []int32
		Default int32
		Low     int32
		High    int32
	}

	// MatchOffset is one lookupswitch pair.
	MatchOffset struct {
		Match  int32
		Offset int32
	}

	// LookupSwitchImm is the jump table of lookupswitch. Default and pair
	// offsets are relative to the instruction offset.
	LookupSwitchImm struct {
		Pairs   []MatchOffset
		Default int32
	}

	// WideImm is the modified instruction of a wide prefix. Const is only
	// meaningful when Opcode is iinc.
	WideImm struct {
		Opcode byte
		Index  uint16
		Const  int16
	}
)

// DecodeInstructions decodes a method's code array into instructions.
// Decoding is strict about opcode validity and operand completeness but does
// not check that branch targets land on instruction boundaries; that is the
// bytecode verifier's job, not the decoder's.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	ins := make([]Instruction, 0, len(code)/2)
	for r.Remaining() > 0 {
		offset := r.Position()
		op, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		imm, err := decodeImmediate(r, op, offset)
		if err != nil {
			return nil, err
		}
		ins = append(ins, Instruction{Offset: offset, Opcode: op, Imm: imm})
	}
	return ins, nil
}

func decodeImmediate(r *binary.Reader, op byte, offset int) (any, error) {
	switch op {
	case OpBipush:
		v, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return ByteImm{Value: int8(v)}, nil

	case OpSipush:
		v, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return ShortImm{Value: int16(v)}, nil

	case OpLdc:
		v, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return ConstImm{Index: uint16(v)}, nil

	case OpLdcW, OpLdc2W,
		OpGetstatic, OpPutstatic, OpGetfield, OpPutfield,
		OpInvokevirtual, OpInvokespecial, OpInvokestatic,
		OpNew, OpAnewarray, OpCheckcast, OpInstanceof:
		v, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return ConstImm{Index: v}, nil

	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore,
		OpRet:
		v, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return LocalImm{Index: v}, nil

	case OpIinc:
		index, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		c, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return IincImm{Index: index, Const: int8(c)}, nil

	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
		OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple,
		OpIfAcmpeq, OpIfAcmpne,
		OpGoto, OpJsr, OpIfnull, OpIfnonnull:
		v, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return BranchImm{Offset: int32(int16(v))}, nil

	case OpGotoW, OpJsrW:
		v, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		return BranchImm{Offset: v}, nil

	case OpInvokeinterface:
		index, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		count, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		if err := expectZeroBytes(r, 1, "invokeinterface", offset); err != nil {
			return nil, err
		}
		return InvokeInterfaceImm{Index: index, Count: count}, nil

	case OpInvokedynamic:
		index, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		if err := expectZeroBytes(r, 2, "invokedynamic", offset); err != nil {
			return nil, err
		}
		return InvokeDynamicImm{Index: index}, nil

	case OpNewarray:
		v, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return NewArrayImm{AType: v}, nil

	case OpMultianewarray:
		index, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		dims, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return MultiANewArrayImm{Index: index, Dimensions: dims}, nil

	case OpWide:
		return decodeWide(r, offset)

	case OpTableswitch:
		if err := skipSwitchPadding(r, offset); err != nil {
			return nil, err
		}
		def, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		low, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		high, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		if low > high {
			return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
				Offset(offset).
				Detail("tableswitch low %d greater than high %d", low, high).
				Build()
		}
		n := int(int64(high) - int64(low) + 1)
		// The declared range cannot name more targets than there are bytes
		// left to hold them; checking first keeps the allocation bounded by
		// the input size.
		if n > r.Remaining()/4 {
			return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
				Offset(offset).
				Detail("tableswitch declares %d targets with %d bytes remaining", n, r.Remaining()).
				Build()
		}
		offsets := make([]int32, n)
		for i := range offsets {
			if offsets[i], err = r.ReadS32(); err != nil {
				return nil, err
			}
		}
		return TableSwitchImm{Default: def, Low: low, High: high, Offsets: offsets}, nil

	case OpLookupswitch:
		if err := skipSwitchPadding(r, offset); err != nil {
			return nil, err
		}
		def, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		npairs, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		if npairs < 0 {
			return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
				Offset(offset).
				Detail("lookupswitch declares %d pairs", npairs).
				Build()
		}
		if int(npairs) > r.Remaining()/8 {
			return nil, errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
				Offset(offset).
				Detail("lookupswitch declares %d pairs with %d bytes remaining", npairs, r.Remaining()).
				Build()
		}
		pairs := make([]MatchOffset, npairs)
		for i := range pairs {
			if pairs[i].Match, err = r.ReadS32(); err != nil {
				return nil, err
			}
			if pairs[i].Offset, err = r.ReadS32(); err != nil {
				return nil, err
			}
		}
		return LookupSwitchImm{Default: def, Pairs: pairs}, nil

	default:
		if Mnemonic(op) == "" {
			return nil, errors.UnknownOpcode(op, offset)
		}
		return nil, nil
	}
}

func decodeWide(r *binary.Reader, offset int) (any, error) {
	op, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore,
		OpRet:
		index, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return WideImm{Opcode: op, Index: index}, nil

	case OpIinc:
		index, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		c, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return WideImm{Opcode: op, Index: index, Const: int16(c)}, nil

	default:
		return nil, errors.New(errors.PhaseDecode, errors.KindUnknownOpcode).
			Offset(offset).
			Value(op).
			Detail("opcode 0x%02X cannot follow a wide prefix", op).
			Build()
	}
}

// skipSwitchPadding consumes the alignment bytes between a switch opcode and
// its 32-bit default. The operands start at the next multiple of four
// relative to the start of the code array. The padding must be zero; the
// encoder emits zeros, so anything else could not re-encode byte-identically.
func skipSwitchPadding(r *binary.Reader, offset int) error {
	return expectZeroBytes(r, (4-(offset+1)%4)%4, "switch padding", offset)
}

func expectZeroBytes(r *binary.Reader, n int, what string, offset int) error {
	data, err := r.ReadBytes(n)
	if err != nil {
		return err
	}
	for _, b := range data {
		if b != 0 {
			return errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
				Offset(offset).
				Detail("%s byte must be zero, got 0x%02X", what, b).
				Build()
		}
	}
	return nil
}

// EncodeInstructions re-encodes instructions into a code array. Each
// instruction must carry the offset it will actually encode at; offsets are
// what keep relative branches and switch padding stable.
func EncodeInstructions(ins []Instruction) ([]byte, error) {
	w := binary.NewWriter()
	for _, i := range ins {
		if w.Len() != i.Offset {
			return nil, errors.New(errors.PhaseEncode, errors.KindLengthMismatch).
				Detail("instruction %s carries offset %d but encodes at %d", Mnemonic(i.Opcode), i.Offset, w.Len()).
				Build()
		}
		if err := encodeInstruction(w, i); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func encodeInstruction(w *binary.Writer, i Instruction) error {
	w.U8(i.Opcode)

	switch imm := i.Imm.(type) {
	case nil:

	case ByteImm:
		w.U8(uint8(imm.Value))

	case ShortImm:
		w.U16(uint16(imm.Value))

	case LocalImm:
		w.U8(imm.Index)

	case ConstImm:
		if i.Opcode == OpLdc {
			if imm.Index > 0xFF {
				return errors.New(errors.PhaseEncode, errors.KindLengthMismatch).
					Detail("ldc index %d does not fit in one byte", imm.Index).
					Build()
			}
			w.U8(uint8(imm.Index))
		} else {
			w.U16(imm.Index)
		}

	case BranchImm:
		if i.Opcode == OpGotoW || i.Opcode == OpJsrW {
			w.S32(imm.Offset)
		} else {
			w.U16(uint16(int16(imm.Offset)))
		}

	case IincImm:
		w.U8(imm.Index)
		w.U8(uint8(imm.Const))

	case InvokeInterfaceImm:
		w.U16(imm.Index)
		w.U8(imm.Count)
		w.U8(0)

	case InvokeDynamicImm:
		w.U16(imm.Index)
		w.U16(0)

	case NewArrayImm:
		w.U8(imm.AType)

	case MultiANewArrayImm:
		w.U16(imm.Index)
		w.U8(imm.Dimensions)

	case TableSwitchImm:
		for (w.Len() % 4) != 0 {
			w.U8(0)
		}
		w.S32(imm.Default)
		w.S32(imm.Low)
		w.S32(imm.High)
		for _, off := range imm.Offsets {
			w.S32(off)
		}

	case LookupSwitchImm:
		for (w.Len() % 4) != 0 {
			w.U8(0)
		}
		w.S32(imm.Default)
		w.S32(int32(len(imm.Pairs)))
		for _, p := range imm.Pairs {
			w.S32(p.Match)
			w.S32(p.Offset)
		}

	case WideImm:
		w.U8(imm.Opcode)
		w.U16(imm.Index)
		if imm.Opcode == OpIinc {
			w.U16(uint16(imm.Const))
		}

	default:
		return errors.New(errors.PhaseEncode, errors.KindUnknownOpcode).
			Detail("unsupported immediate %T for %s", i.Imm, Mnemonic(i.Opcode)).
			Build()
	}

	return nil
}

// String renders the instruction in disassembler notation. Branch targets
// are shown as absolute code offsets.
func (i Instruction) String() string {
	m := Mnemonic(i.Opcode)
	switch imm := i.Imm.(type) {
	case nil:
		return m
	case ByteImm:
		return fmt.Sprintf("%s %d", m, imm.Value)
	case ShortImm:
		return fmt.Sprintf("%s %d", m, imm.Value)
	case LocalImm:
		return fmt.Sprintf("%s %d", m, imm.Index)
	case ConstImm:
		return fmt.Sprintf("%s #%d", m, imm.Index)
	case BranchImm:
		return fmt.Sprintf("%s %d", m, i.Offset+int(imm.Offset))
	case IincImm:
		return fmt.Sprintf("%s %d %d", m, imm.Index, imm.Const)
	case InvokeInterfaceImm:
		return fmt.Sprintf("%s #%d count %d", m, imm.Index, imm.Count)
	case InvokeDynamicImm:
		return fmt.Sprintf("%s #%d", m, imm.Index)
	case NewArrayImm:
		return fmt.Sprintf("%s %s", m, arrayTypeName(imm.AType))
	case MultiANewArrayImm:
		return fmt.Sprintf("%s #%d dim %d", m, imm.Index, imm.Dimensions)
	case TableSwitchImm:
		return fmt.Sprintf("%s %d..%d default %d", m, imm.Low, imm.High, i.Offset+int(imm.Default))
	case LookupSwitchImm:
		return fmt.Sprintf("%s %d pair(s) default %d", m, len(imm.Pairs), i.Offset+int(imm.Default))
	case WideImm:
		if imm.Opcode == OpIinc {
			return fmt.Sprintf("%s %s %d %d", m, Mnemonic(imm.Opcode), imm.Index, imm.Const)
		}
		return fmt.Sprintf("%s %s %d", m, Mnemonic(imm.Opcode), imm.Index)
	default:
		return fmt.Sprintf("%s ?%T", m, i.Imm)
	}
}

func arrayTypeName(atype uint8) string {
	switch atype {
	case ArrayTypeBoolean:
		return "boolean"
	case ArrayTypeChar:
		return "char"
	case ArrayTypeFloat:
		return "float"
	case ArrayTypeDouble:
		return "double"
	case ArrayTypeByte:
		return "byte"
	case ArrayTypeShort:
		return "short"
	case ArrayTypeInt:
		return "int"
	case ArrayTypeLong:
		return "long"
	default:
		return fmt.Sprintf("atype(%d)", atype)
	}
}
