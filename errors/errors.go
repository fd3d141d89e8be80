package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode Phase = "decode" // binary to structure
	PhaseEncode Phase = "encode" // structure to binary
	PhaseVerify Phase = "verify" // structural verification
	PhaseIO     Phase = "io"     // underlying byte source
)

// Kind categorizes the error
type Kind string

const (
	KindIO                Kind = "io_error"
	KindUnexpectedEOS     Kind = "unexpected_end_of_stream"
	KindBadMagic          Kind = "bad_magic_number"
	KindUnknownTag        Kind = "unknown_constant_pool_tag"
	KindUnknownOpcode     Kind = "unknown_opcode"
	KindUnknownRefKind    Kind = "unknown_reference_kind"
	KindUnknownVerifType  Kind = "unknown_verification_type_info"
	KindUnknownFrameTag   Kind = "unknown_stack_map_frame_tag"
	KindUnknownElement    Kind = "unknown_element_value_type"
	KindUnknownTargetType Kind = "unknown_target_type_value"
	KindUnknownTypePath   Kind = "unknown_type_path_kind"
	KindUnknownEnum       Kind = "unknown_enum_variant"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindBadClassFlags     Kind = "bad_class_access_flags"
	KindBadFieldFlags     Kind = "bad_field_access_flags"
	KindBadMethodFlags    Kind = "bad_method_access_flags"
	KindBadParamFlags     Kind = "bad_formal_parameter_access_flags"
	KindExpectedString    Kind = "expected_string"
	KindUnknownAttribute  Kind = "unknown_attribute"
	KindLengthMismatch    Kind = "length_mismatch"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindReservedSlot      Kind = "reserved_slot"
	KindWrongConstantType Kind = "wrong_constant_type"
	KindBadDescriptor     Kind = "bad_descriptor"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Pos    int // byte offset into the input, -1 if not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Pos >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Pos)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Pos:   -1,
		},
	}
}

// Path sets the structural path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset
func (b *Builder) Offset(pos int) *Builder {
	b.err.Pos = pos
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the taxonomy

// IO wraps an underlying byte-source failure
func IO(cause error) *Error {
	return &Error{Phase: PhaseIO, Kind: KindIO, Cause: cause, Pos: -1}
}

// UnexpectedEOS reports the stream ending where more bytes were required
func UnexpectedEOS(pos int, need int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnexpectedEOS,
		Pos:    pos,
		Detail: fmt.Sprintf("need %d more byte(s)", need),
	}
}

// BadMagicNumber reports a wrong file signature
func BadMagicNumber(actual uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadMagic,
		Pos:    0,
		Detail: fmt.Sprintf("expected 0xCAFEBABE, got 0x%08X", actual),
		Value:  actual,
	}
}

// UnknownConstantPoolTag reports a tag byte outside the defined set
func UnknownConstantPoolTag(tag uint8, index int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTag,
		Path:   []string{"constant_pool", fmt.Sprintf("#%d", index)},
		Detail: fmt.Sprintf("tag %d", tag),
		Value:  tag,
		Pos:    -1,
	}
}

// UnknownOpcode reports an opcode byte outside the instruction set
func UnknownOpcode(op byte, offset int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownOpcode,
		Pos:    offset,
		Detail: fmt.Sprintf("opcode 0x%02X", op),
		Value:  op,
	}
}

// UnknownReferenceKind reports a MethodHandle reference_kind outside [1,9]
func UnknownReferenceKind(kind uint8, index int) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindUnknownRefKind,
		Path:   []string{"constant_pool", fmt.Sprintf("#%d", index)},
		Detail: fmt.Sprintf("reference_kind %d", kind),
		Value:  kind,
		Pos:    -1,
	}
}

// UnknownVerificationType reports a verification_type_info tag outside [0,8]
func UnknownVerificationType(tag uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownVerifType,
		Detail: fmt.Sprintf("tag %d", tag),
		Value:  tag,
		Pos:    -1,
	}
}

// UnknownFrameTag reports a stack map frame type in the reserved range
func UnknownFrameTag(tag uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownFrameTag,
		Detail: fmt.Sprintf("frame_type %d", tag),
		Value:  tag,
		Pos:    -1,
	}
}

// UnknownElementValue reports an element_value tag outside the defined set
func UnknownElementValue(tag byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownElement,
		Detail: fmt.Sprintf("tag %q", tag),
		Value:  tag,
		Pos:    -1,
	}
}

// UnknownTargetType reports a type-annotation target_type outside the defined set
func UnknownTargetType(value uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTargetType,
		Detail: fmt.Sprintf("target_type 0x%02X", value),
		Value:  value,
		Pos:    -1,
	}
}

// UnknownTypePath reports a type_path kind outside [0,3]
func UnknownTypePath(kind uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTypePath,
		Detail: fmt.Sprintf("type_path_kind %d", kind),
		Value:  kind,
		Pos:    -1,
	}
}

// UnknownEnumVariant reports an enumerated byte outside its defined domain
func UnknownEnumVariant(what string, value uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownEnum,
		Detail: fmt.Sprintf("%s %d", what, value),
		Value:  value,
		Pos:    -1,
	}
}

// InvalidUTF8 reports Utf8 constant bytes that do not decode
func InvalidUTF8(pos int, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidUTF8,
		Pos:    pos,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// BadClassAccessFlags reports a well-formed but illegal class flag combination
func BadClassAccessFlags(flags uint16, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadClassFlags,
		Detail: fmt.Sprintf("0x%04X: %s", flags, detail),
		Value:  flags,
		Pos:    -1,
	}
}

// BadFieldAccessFlags reports a well-formed but illegal field flag combination
func BadFieldAccessFlags(flags uint16, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadFieldFlags,
		Detail: fmt.Sprintf("0x%04X: %s", flags, detail),
		Value:  flags,
		Pos:    -1,
	}
}

// BadMethodAccessFlags reports a well-formed but illegal method flag combination
func BadMethodAccessFlags(flags uint16, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadMethodFlags,
		Detail: fmt.Sprintf("0x%04X: %s", flags, detail),
		Value:  flags,
		Pos:    -1,
	}
}

// BadParameterAccessFlags reports an illegal formal-parameter flag combination
func BadParameterAccessFlags(flags uint16, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadParamFlags,
		Detail: fmt.Sprintf("0x%04X: %s", flags, detail),
		Value:  flags,
		Pos:    -1,
	}
}

// ExpectedString reports an index resolving to a non-Utf8 entry where a
// string was required
func ExpectedString(index uint16, actualTag uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedString,
		Detail: fmt.Sprintf("constant #%d has tag %d, want Utf8", index, actualTag),
		Value:  index,
		Pos:    -1,
	}
}

// UnknownAttribute reports an unrecognized attribute name under strict decode
func UnknownAttribute(name string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownAttribute,
		Detail: fmt.Sprintf("attribute %q", name),
		Value:  name,
		Pos:    -1,
	}
}

// LengthMismatch reports a declared region length not matching consumption
func LengthMismatch(what string, declared, consumed int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindLengthMismatch,
		Detail: fmt.Sprintf("%s declared %d byte(s), consumed %d", what, declared, consumed),
		Pos:    -1,
	}
}

// OutOfBounds reports a constant pool index outside [1, count]
func OutOfBounds(path []string, index uint16, count int) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("constant #%d out of range (pool holds %d)", index, count),
		Value:  index,
		Pos:    -1,
	}
}

// ReservedSlot reports a reference to a Long/Double continuation slot
func ReservedSlot(path []string, index uint16) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindReservedSlot,
		Path:   path,
		Detail: fmt.Sprintf("constant #%d is the second slot of a Long/Double entry", index),
		Value:  index,
		Pos:    -1,
	}
}

// WrongConstantType reports a reference resolving to an entry of the wrong tag
func WrongConstantType(path []string, index uint16, wantTag, gotTag uint8) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindWrongConstantType,
		Path:   path,
		Detail: fmt.Sprintf("constant #%d has tag %d, want %d", index, gotTag, wantTag),
		Value:  index,
		Pos:    -1,
	}
}

// BadDescriptor reports a field or method descriptor that does not parse
func BadDescriptor(path []string, descriptor string) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindBadDescriptor,
		Path:   path,
		Detail: fmt.Sprintf("descriptor %q", descriptor),
		Value:  descriptor,
		Pos:    -1,
	}
}

// VerificationError aggregates every defect found by the enumerate-all
// constant pool pass, so a caller gets full diagnostics in one call.
type VerificationError struct {
	Issues []*Error
}

func (e *VerificationError) Error() string {
	if len(e.Issues) == 0 {
		return "[verify] no issues recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "constant pool verification failed with %d issue(s):\n", len(e.Issues))
	for _, issue := range e.Issues {
		b.WriteString("  - ")
		b.WriteString(issue.Error())
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *VerificationError) Is(target error) bool {
	_, ok := target.(*VerificationError)
	return ok
}

// Unwrap exposes the individual issues to errors.Is/As
func (e *VerificationError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue
	}
	return errs
}
