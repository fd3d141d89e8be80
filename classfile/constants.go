package classfile

// Class-file magic number. Every class file starts with these four bytes.
const Magic uint32 = 0xCAFEBABE

// Constant pool tags identify the shape of each pool entry.
// Tags 2, 13 and 14 are unassigned by the format.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldref           uint8 = 9
	TagMethodref          uint8 = 10
	TagInterfaceMethodref uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagDynamic            uint8 = 17
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// MethodHandle reference kinds. Values outside [1, 9] are invalid.
const (
	RefGetField         uint8 = 1
	RefGetStatic        uint8 = 2
	RefPutField         uint8 = 3
	RefPutStatic        uint8 = 4
	RefInvokeVirtual    uint8 = 5
	RefInvokeStatic     uint8 = 6
	RefInvokeSpecial    uint8 = 7
	RefNewInvokeSpecial uint8 = 8
	RefInvokeInterface  uint8 = 9
)

// Access flag bits. The same bit can mean different things for different
// entity kinds (0x0020 is ACC_SUPER on classes, ACC_SYNCHRONIZED on methods).
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020 // class
	AccSynchronized uint16 = 0x0020 // method
	AccOpen         uint16 = 0x0020 // module
	AccVolatile     uint16 = 0x0040 // field
	AccBridge       uint16 = 0x0040 // method
	AccTransient    uint16 = 0x0080 // field
	AccVarargs      uint16 = 0x0080 // method
	AccNative       uint16 = 0x0100 // method
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800 // method
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
	AccModule       uint16 = 0x8000 // class
	AccMandated     uint16 = 0x8000 // formal parameter
)

// Known attribute names dispatched to decoded shapes. Any other name is
// retained as an opaque raw attribute.
const (
	AttrConstantValue                        = "ConstantValue"
	AttrCode                                 = "Code"
	AttrStackMapTable                        = "StackMapTable"
	AttrExceptions                           = "Exceptions"
	AttrInnerClasses                         = "InnerClasses"
	AttrEnclosingMethod                      = "EnclosingMethod"
	AttrSynthetic                            = "Synthetic"
	AttrSignature                            = "Signature"
	AttrSourceFile                           = "SourceFile"
	AttrLineNumberTable                      = "LineNumberTable"
	AttrLocalVariableTable                   = "LocalVariableTable"
	AttrLocalVariableTypeTable               = "LocalVariableTypeTable"
	AttrDeprecated                           = "Deprecated"
	AttrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	AttrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	AttrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	AttrAnnotationDefault                    = "AnnotationDefault"
	AttrBootstrapMethods                     = "BootstrapMethods"
	AttrMethodParameters                     = "MethodParameters"
	AttrNestHost                             = "NestHost"
	AttrNestMembers                          = "NestMembers"
	AttrPermittedSubclasses                  = "PermittedSubclasses"
)

// Verification type info tags used by StackMapTable frames.
const (
	ItemTop               uint8 = 0
	ItemInteger           uint8 = 1
	ItemFloat             uint8 = 2
	ItemDouble            uint8 = 3
	ItemLong              uint8 = 4
	ItemNull              uint8 = 5
	ItemUninitializedThis uint8 = 6
	ItemObject            uint8 = 7
	ItemUninitialized     uint8 = 8
)

// Stack map frame type boundaries. Frame types 128-246 are reserved.
const (
	FrameSameMax                  uint8 = 63
	FrameSameLocals1StackMin      uint8 = 64
	FrameSameLocals1StackMax      uint8 = 127
	FrameSameLocals1StackExtended uint8 = 247
	FrameChopMin                  uint8 = 248
	FrameChopMax                  uint8 = 250
	FrameSameExtended             uint8 = 251
	FrameAppendMin                uint8 = 252
	FrameAppendMax                uint8 = 254
	FrameFull                     uint8 = 255
)

// Element value tags used inside annotations.
const (
	ElemByte    byte = 'B'
	ElemChar    byte = 'C'
	ElemDouble  byte = 'D'
	ElemFloat   byte = 'F'
	ElemInt     byte = 'I'
	ElemLong    byte = 'J'
	ElemShort   byte = 'S'
	ElemBoolean byte = 'Z'
	ElemString  byte = 's'
	ElemEnum    byte = 'e'
	ElemClass   byte = 'c'
	ElemAnnot   byte = '@'
	ElemArray   byte = '['
)

// Type annotation target types. Values form a closed set; anything else is
// an unknown target_type.
const (
	TargetTypeParamClass          uint8 = 0x00
	TargetTypeParamMethod         uint8 = 0x01
	TargetSupertype               uint8 = 0x10
	TargetTypeParamBoundClass     uint8 = 0x11
	TargetTypeParamBoundMethod    uint8 = 0x12
	TargetEmptyField              uint8 = 0x13
	TargetEmptyReturn             uint8 = 0x14
	TargetEmptyReceiver           uint8 = 0x15
	TargetFormalParameter         uint8 = 0x16
	TargetThrows                  uint8 = 0x17
	TargetLocalVar                uint8 = 0x40
	TargetResourceVar             uint8 = 0x41
	TargetExceptionParam          uint8 = 0x42
	TargetInstanceof              uint8 = 0x43
	TargetNew                     uint8 = 0x44
	TargetMethodRefNew            uint8 = 0x45
	TargetMethodRefIdentifier     uint8 = 0x46
	TargetCast                    uint8 = 0x47
	TargetConstructorArgument     uint8 = 0x48
	TargetMethodArgument          uint8 = 0x49
	TargetMethodRefNewArgument    uint8 = 0x4A
	TargetMethodRefMethodArgument uint8 = 0x4B
)

// Type path kinds. Values outside [0, 3] are invalid.
const (
	PathDeeperArray   uint8 = 0
	PathDeeperNested  uint8 = 1
	PathWildcardBound uint8 = 2
	PathTypeArgument  uint8 = 3
)

// Primitive array type codes for the newarray instruction.
const (
	ArrayTypeBoolean uint8 = 4
	ArrayTypeChar    uint8 = 5
	ArrayTypeFloat   uint8 = 6
	ArrayTypeDouble  uint8 = 7
	ArrayTypeByte    uint8 = 8
	ArrayTypeShort   uint8 = 9
	ArrayTypeInt     uint8 = 10
	ArrayTypeLong    uint8 = 11
)
