package classfile

// JVM instruction opcodes. 0xCB through 0xFD are unassigned; the three
// reserved opcodes (breakpoint, impdep1, impdep2) decode but never appear in
// well-formed class files.
const (
	OpNop             byte = 0x00
	OpAconstNull      byte = 0x01
	OpIconstM1        byte = 0x02
	OpIconst0         byte = 0x03
	OpIconst1         byte = 0x04
	OpIconst2         byte = 0x05
	OpIconst3         byte = 0x06
	OpIconst4         byte = 0x07
	OpIconst5         byte = 0x08
	OpLconst0         byte = 0x09
	OpLconst1         byte = 0x0A
	OpFconst0         byte = 0x0B
	OpFconst1         byte = 0x0C
	OpFconst2         byte = 0x0D
	OpDconst0         byte = 0x0E
	OpDconst1         byte = 0x0F
	OpBipush          byte = 0x10
	OpSipush          byte = 0x11
	OpLdc             byte = 0x12
	OpLdcW            byte = 0x13
	OpLdc2W           byte = 0x14
	OpIload           byte = 0x15
	OpLload           byte = 0x16
	OpFload           byte = 0x17
	OpDload           byte = 0x18
	OpAload           byte = 0x19
	OpIload0          byte = 0x1A
	OpIload1          byte = 0x1B
	OpIload2          byte = 0x1C
	OpIload3          byte = 0x1D
	OpLload0          byte = 0x1E
	OpLload1          byte = 0x1F
	OpLload2          byte = 0x20
	OpLload3          byte = 0x21
	OpFload0          byte = 0x22
	OpFload1          byte = 0x23
	OpFload2          byte = 0x24
	OpFload3          byte = 0x25
	OpDload0          byte = 0x26
	OpDload1          byte = 0x27
	OpDload2          byte = 0x28
	OpDload3          byte = 0x29
	OpAload0          byte = 0x2A
	OpAload1          byte = 0x2B
	OpAload2          byte = 0x2C
	OpAload3          byte = 0x2D
	OpIaload          byte = 0x2E
	OpLaload          byte = 0x2F
	OpFaload          byte = 0x30
	OpDaload          byte = 0x31
	OpAaload          byte = 0x32
	OpBaload          byte = 0x33
	OpCaload          byte = 0x34
	OpSaload          byte = 0x35
	OpIstore          byte = 0x36
	OpLstore          byte = 0x37
	OpFstore          byte = 0x38
	OpDstore          byte = 0x39
	OpAstore          byte = 0x3A
	OpIstore0         byte = 0x3B
	OpIstore1         byte = 0x3C
	OpIstore2         byte = 0x3D
	OpIstore3         byte = 0x3E
	OpLstore0         byte = 0x3F
	OpLstore1         byte = 0x40
	OpLstore2         byte = 0x41
	OpLstore3         byte = 0x42
	OpFstore0         byte = 0x43
	OpFstore1         byte = 0x44
	OpFstore2         byte = 0x45
	OpFstore3         byte = 0x46
	OpDstore0         byte = 0x47
	OpDstore1         byte = 0x48
	OpDstore2         byte = 0x49
	OpDstore3         byte = 0x4A
	OpAstore0         byte = 0x4B
	OpAstore1         byte = 0x4C
	OpAstore2         byte = 0x4D
	OpAstore3         byte = 0x4E
	OpIastore         byte = 0x4F
	OpLastore         byte = 0x50
	OpFastore         byte = 0x51
	OpDastore         byte = 0x52
	OpAastore         byte = 0x53
	OpBastore         byte = 0x54
	OpCastore         byte = 0x55
	OpSastore         byte = 0x56
	OpPop             byte = 0x57
	OpPop2            byte = 0x58
	OpDup             byte = 0x59
	OpDupX1           byte = 0x5A
	OpDupX2           byte = 0x5B
	OpDup2            byte = 0x5C
	OpDup2X1          byte = 0x5D
	OpDup2X2          byte = 0x5E
	OpSwap            byte = 0x5F
	OpIadd            byte = 0x60
	OpLadd            byte = 0x61
	OpFadd            byte = 0x62
	OpDadd            byte = 0x63
	OpIsub            byte = 0x64
	OpLsub            byte = 0x65
	OpFsub            byte = 0x66
	OpDsub            byte = 0x67
	OpImul            byte = 0x68
	OpLmul            byte = 0x69
	OpFmul            byte = 0x6A
	OpDmul            byte = 0x6B
	OpIdiv            byte = 0x6C
	OpLdiv            byte = 0x6D
	OpFdiv            byte = 0x6E
	OpDdiv            byte = 0x6F
	OpIrem            byte = 0x70
	OpLrem            byte = 0x71
	OpFrem            byte = 0x72
	OpDrem            byte = 0x73
	OpIneg            byte = 0x74
	OpLneg            byte = 0x75
	OpFneg            byte = 0x76
	OpDneg            byte = 0x77
	OpIshl            byte = 0x78
	OpLshl            byte = 0x79
	OpIshr            byte = 0x7A
	OpLshr            byte = 0x7B
	OpIushr           byte = 0x7C
	OpLushr           byte = 0x7D
	OpIand            byte = 0x7E
	OpLand            byte = 0x7F
	OpIor             byte = 0x80
	OpLor             byte = 0x81
	OpIxor            byte = 0x82
	OpLxor            byte = 0x83
	OpIinc            byte = 0x84
	OpI2l             byte = 0x85
	OpI2f             byte = 0x86
	OpI2d             byte = 0x87
	OpL2i             byte = 0x88
	OpL2f             byte = 0x89
	OpL2d             byte = 0x8A
	OpF2i             byte = 0x8B
	OpF2l             byte = 0x8C
	OpF2d             byte = 0x8D
	OpD2i             byte = 0x8E
	OpD2l             byte = 0x8F
	OpD2f             byte = 0x90
	OpI2b             byte = 0x91
	OpI2c             byte = 0x92
	OpI2s             byte = 0x93
	OpLcmp            byte = 0x94
	OpFcmpl           byte = 0x95
	OpFcmpg           byte = 0x96
	OpDcmpl           byte = 0x97
	OpDcmpg           byte = 0x98
	OpIfeq            byte = 0x99
	OpIfne            byte = 0x9A
	OpIflt            byte = 0x9B
	OpIfge            byte = 0x9C
	OpIfgt            byte = 0x9D
	OpIfle            byte = 0x9E
	OpIfIcmpeq        byte = 0x9F
	OpIfIcmpne        byte = 0xA0
	OpIfIcmplt        byte = 0xA1
	OpIfIcmpge        byte = 0xA2
	OpIfIcmpgt        byte = 0xA3
	OpIfIcmple        byte = 0xA4
	OpIfAcmpeq        byte = 0xA5
	OpIfAcmpne        byte = 0xA6
	OpGoto            byte = 0xA7
	OpJsr             byte = 0xA8
	OpRet             byte = 0xA9
	OpTableswitch     byte = 0xAA
	OpLookupswitch    byte = 0xAB
	OpIreturn         byte = 0xAC
	OpLreturn         byte = 0xAD
	OpFreturn         byte = 0xAE
	OpDreturn         byte = 0xAF
	OpAreturn         byte = 0xB0
	OpReturn          byte = 0xB1
	OpGetstatic       byte = 0xB2
	OpPutstatic       byte = 0xB3
	OpGetfield        byte = 0xB4
	OpPutfield        byte = 0xB5
	OpInvokevirtual   byte = 0xB6
	OpInvokespecial   byte = 0xB7
	OpInvokestatic    byte = 0xB8
	OpInvokeinterface byte = 0xB9
	OpInvokedynamic   byte = 0xBA
	OpNew             byte = 0xBB
	OpNewarray        byte = 0xBC
	OpAnewarray       byte = 0xBD
	OpArraylength     byte = 0xBE
	OpAthrow          byte = 0xBF
	OpCheckcast       byte = 0xC0
	OpInstanceof      byte = 0xC1
	OpMonitorenter    byte = 0xC2
	OpMonitorexit     byte = 0xC3
	OpWide            byte = 0xC4
	OpMultianewarray  byte = 0xC5
	OpIfnull          byte = 0xC6
	OpIfnonnull       byte = 0xC7
	OpGotoW           byte = 0xC8
	OpJsrW            byte = 0xC9
	OpBreakpoint      byte = 0xCA
	OpImpdep1         byte = 0xFE
	OpImpdep2         byte = 0xFF
)

// mnemonics maps each opcode to its assembler name. Empty entries are
// unassigned opcodes.
var mnemonics = [256]string{
	OpNop:             "nop",
	OpAconstNull:      "aconst_null",
	OpIconstM1:        "iconst_m1",
	OpIconst0:         "iconst_0",
	OpIconst1:         "iconst_1",
	OpIconst2:         "iconst_2",
	OpIconst3:         "iconst_3",
	OpIconst4:         "iconst_4",
	OpIconst5:         "iconst_5",
	OpLconst0:         "lconst_0",
	OpLconst1:         "lconst_1",
	OpFconst0:         "fconst_0",
	OpFconst1:         "fconst_1",
	OpFconst2:         "fconst_2",
	OpDconst0:         "dconst_0",
	OpDconst1:         "dconst_1",
	OpBipush:          "bipush",
	OpSipush:          "sipush",
	OpLdc:             "ldc",
	OpLdcW:            "ldc_w",
	OpLdc2W:           "ldc2_w",
	OpIload:           "iload",
	OpLload:           "lload",
	OpFload:           "fload",
	OpDload:           "dload",
	OpAload:           "aload",
	OpIload0:          "iload_0",
	OpIload1:          "iload_1",
	OpIload2:          "iload_2",
	OpIload3:          "iload_3",
	OpLload0:          "lload_0",
	OpLload1:          "lload_1",
	OpLload2:          "lload_2",
	OpLload3:          "lload_3",
	OpFload0:          "fload_0",
	OpFload1:          "fload_1",
	OpFload2:          "fload_2",
	OpFload3:          "fload_3",
	OpDload0:          "dload_0",
	OpDload1:          "dload_1",
	OpDload2:          "dload_2",
	OpDload3:          "dload_3",
	OpAload0:          "aload_0",
	OpAload1:          "aload_1",
	OpAload2:          "aload_2",
	OpAload3:          "aload_3",
	OpIaload:          "iaload",
	OpLaload:          "laload",
	OpFaload:          "faload",
	OpDaload:          "daload",
	OpAaload:          "aaload",
	OpBaload:          "baload",
	OpCaload:          "caload",
	OpSaload:          "saload",
	OpIstore:          "istore",
	OpLstore:          "lstore",
	OpFstore:          "fstore",
	OpDstore:          "dstore",
	OpAstore:          "astore",
	OpIstore0:         "istore_0",
	OpIstore1:         "istore_1",
	OpIstore2:         "istore_2",
	OpIstore3:         "istore_3",
	OpLstore0:         "lstore_0",
	OpLstore1:         "lstore_1",
	OpLstore2:         "lstore_2",
	OpLstore3:         "lstore_3",
	OpFstore0:         "fstore_0",
	OpFstore1:         "fstore_1",
	OpFstore2:         "fstore_2",
	OpFstore3:         "fstore_3",
	OpDstore0:         "dstore_0",
	OpDstore1:         "dstore_1",
	OpDstore2:         "dstore_2",
	OpDstore3:         "dstore_3",
	OpAstore0:         "astore_0",
	OpAstore1:         "astore_1",
	OpAstore2:         "astore_2",
	OpAstore3:         "astore_3",
	OpIastore:         "iastore",
	OpLastore:         "lastore",
	OpFastore:         "fastore",
	OpDastore:         "dastore",
	OpAastore:         "aastore",
	OpBastore:         "bastore",
	OpCastore:         "castore",
	OpSastore:         "sastore",
	OpPop:             "pop",
	OpPop2:            "pop2",
	OpDup:             "dup",
	OpDupX1:           "dup_x1",
	OpDupX2:           "dup_x2",
	OpDup2:            "dup2",
	OpDup2X1:          "dup2_x1",
	OpDup2X2:          "dup2_x2",
	OpSwap:            "swap",
	OpIadd:            "iadd",
	OpLadd:            "ladd",
	OpFadd:            "fadd",
	OpDadd:            "dadd",
	OpIsub:            "isub",
	OpLsub:            "lsub",
	OpFsub:            "fsub",
	OpDsub:            "dsub",
	OpImul:            "imul",
	OpLmul:            "lmul",
	OpFmul:            "fmul",
	OpDmul:            "dmul",
	OpIdiv:            "idiv",
	OpLdiv:            "ldiv",
	OpFdiv:            "fdiv",
	OpDdiv:            "ddiv",
	OpIrem:            "irem",
	OpLrem:            "lrem",
	OpFrem:            "frem",
	OpDrem:            "drem",
	OpIneg:            "ineg",
	OpLneg:            "lneg",
	OpFneg:            "fneg",
	OpDneg:            "dneg",
	OpIshl:            "ishl",
	OpLshl:            "lshl",
	OpIshr:            "ishr",
	OpLshr:            "lshr",
	OpIushr:           "iushr",
	OpLushr:           "lushr",
	OpIand:            "iand",
	OpLand:            "land",
	OpIor:             "ior",
	OpLor:             "lor",
	OpIxor:            "ixor",
	OpLxor:            "lxor",
	OpIinc:            "iinc",
	OpI2l:             "i2l",
	OpI2f:             "i2f",
	OpI2d:             "i2d",
	OpL2i:             "l2i",
	OpL2f:             "l2f",
	OpL2d:             "l2d",
	OpF2i:             "f2i",
	OpF2l:             "f2l",
	OpF2d:             "f2d",
	OpD2i:             "d2i",
	OpD2l:             "d2l",
	OpD2f:             "d2f",
	OpI2b:             "i2b",
	OpI2c:             "i2c",
	OpI2s:             "i2s",
	OpLcmp:            "lcmp",
	OpFcmpl:           "fcmpl",
	OpFcmpg:           "fcmpg",
	OpDcmpl:           "dcmpl",
	OpDcmpg:           "dcmpg",
	OpIfeq:            "ifeq",
	OpIfne:            "ifne",
	OpIflt:            "iflt",
	OpIfge:            "ifge",
	OpIfgt:            "ifgt",
	OpIfle:            "ifle",
	OpIfIcmpeq:        "if_icmpeq",
	OpIfIcmpne:        "if_icmpne",
	OpIfIcmplt:        "if_icmplt",
	OpIfIcmpge:        "if_icmpge",
	OpIfIcmpgt:        "if_icmpgt",
	OpIfIcmple:        "if_icmple",
	OpIfAcmpeq:        "if_acmpeq",
	OpIfAcmpne:        "if_acmpne",
	OpGoto:            "goto",
	OpJsr:             "jsr",
	OpRet:             "ret",
	OpTableswitch:     "tableswitch",
	OpLookupswitch:    "lookupswitch",
	OpIreturn:         "ireturn",
	OpLreturn:         "lreturn",
	OpFreturn:         "freturn",
	OpDreturn:         "dreturn",
	OpAreturn:         "areturn",
	OpReturn:          "return",
	OpGetstatic:       "getstatic",
	OpPutstatic:       "putstatic",
	OpGetfield:        "getfield",
	OpPutfield:        "putfield",
	OpInvokevirtual:   "invokevirtual",
	OpInvokespecial:   "invokespecial",
	OpInvokestatic:    "invokestatic",
	OpInvokeinterface: "invokeinterface",
	OpInvokedynamic:   "invokedynamic",
	OpNew:             "new",
	OpNewarray:        "newarray",
	OpAnewarray:       "anewarray",
	OpArraylength:     "arraylength",
	OpAthrow:          "athrow",
	OpCheckcast:       "checkcast",
	OpInstanceof:      "instanceof",
	OpMonitorenter:    "monitorenter",
	OpMonitorexit:     "monitorexit",
	OpWide:            "wide",
	OpMultianewarray:  "multianewarray",
	OpIfnull:          "ifnull",
	OpIfnonnull:       "ifnonnull",
	OpGotoW:           "goto_w",
	OpJsrW:            "jsr_w",
	OpBreakpoint:      "breakpoint",
	OpImpdep1:         "impdep1",
	OpImpdep2:         "impdep2",
}

// Mnemonic returns the assembler name for an opcode, or "" when the opcode
// is unassigned.
func Mnemonic(op byte) string {
	return mnemonics[op]
}
