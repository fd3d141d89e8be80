package classfile

import (
	"math/bits"
	"strings"

	"github.com/javelin-rt/javelin/errors"
)

// ValidateClassAccessFlags checks a class access_flags word for illegal
// combinations.
func ValidateClassAccessFlags(flags uint16) error {
	if flags&AccModule != 0 {
		if flags != AccModule {
			return errors.BadClassAccessFlags(flags, "ACC_MODULE admits no other flags")
		}
		return nil
	}
	if flags&AccInterface != 0 {
		if flags&AccAbstract == 0 {
			return errors.BadClassAccessFlags(flags, "interface requires ACC_ABSTRACT")
		}
		if flags&AccFinal != 0 {
			return errors.BadClassAccessFlags(flags, "interface forbids ACC_FINAL")
		}
		if flags&AccSuper != 0 {
			return errors.BadClassAccessFlags(flags, "interface forbids ACC_SUPER")
		}
		if flags&AccEnum != 0 {
			return errors.BadClassAccessFlags(flags, "interface forbids ACC_ENUM")
		}
	} else {
		if flags&AccAnnotation != 0 {
			return errors.BadClassAccessFlags(flags, "ACC_ANNOTATION requires ACC_INTERFACE")
		}
		if flags&AccFinal != 0 && flags&AccAbstract != 0 {
			return errors.BadClassAccessFlags(flags, "ACC_FINAL and ACC_ABSTRACT are mutually exclusive")
		}
	}
	return nil
}

// ValidateFieldAccessFlags checks a field access_flags word for illegal
// combinations.
func ValidateFieldAccessFlags(flags uint16) error {
	if bits.OnesCount16(flags&(AccPublic|AccPrivate|AccProtected)) > 1 {
		return errors.BadFieldAccessFlags(flags, "at most one of ACC_PUBLIC, ACC_PRIVATE, ACC_PROTECTED")
	}
	if flags&AccFinal != 0 && flags&AccVolatile != 0 {
		return errors.BadFieldAccessFlags(flags, "ACC_FINAL and ACC_VOLATILE are mutually exclusive")
	}
	return nil
}

// ValidateMethodAccessFlags checks a method access_flags word for illegal
// combinations.
func ValidateMethodAccessFlags(flags uint16) error {
	if bits.OnesCount16(flags&(AccPublic|AccPrivate|AccProtected)) > 1 {
		return errors.BadMethodAccessFlags(flags, "at most one of ACC_PUBLIC, ACC_PRIVATE, ACC_PROTECTED")
	}
	if flags&AccAbstract != 0 {
		for _, bad := range []struct {
			bit  uint16
			name string
		}{
			{AccFinal, "ACC_FINAL"},
			{AccNative, "ACC_NATIVE"},
			{AccStatic, "ACC_STATIC"},
			{AccSynchronized, "ACC_SYNCHRONIZED"},
			{AccPrivate, "ACC_PRIVATE"},
		} {
			if flags&bad.bit != 0 {
				return errors.BadMethodAccessFlags(flags, "ACC_ABSTRACT forbids "+bad.name)
			}
		}
	}
	return nil
}

// ValidateParameterAccessFlags checks a formal parameter access_flags word.
// Only ACC_FINAL, ACC_SYNTHETIC and ACC_MANDATED are defined there.
func ValidateParameterAccessFlags(flags uint16) error {
	if extra := flags &^ (AccFinal | AccSynthetic | AccMandated); extra != 0 {
		return errors.BadParameterAccessFlags(flags, "undefined flag bits set")
	}
	return nil
}

type flagName struct {
	bit  uint16
	name string
}

var classFlagNames = []flagName{
	{AccPublic, "public"},
	{AccFinal, "final"},
	{AccSuper, "super"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccEnum, "enum"},
	{AccModule, "module"},
}

var fieldFlagNames = []flagName{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccVolatile, "volatile"},
	{AccTransient, "transient"},
	{AccSynthetic, "synthetic"},
	{AccEnum, "enum"},
}

var methodFlagNames = []flagName{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
	{AccStrict, "strictfp"},
	{AccSynthetic, "synthetic"},
}

func formatFlags(flags uint16, names []flagName) string {
	var parts []string
	for _, n := range names {
		if flags&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// FormatClassFlags renders class flags as space-separated keywords.
func FormatClassFlags(flags uint16) string { return formatFlags(flags, classFlagNames) }

// FormatFieldFlags renders field flags as space-separated keywords.
func FormatFieldFlags(flags uint16) string { return formatFlags(flags, fieldFlagNames) }

// FormatMethodFlags renders method flags as space-separated keywords.
func FormatMethodFlags(flags uint16) string { return formatFlags(flags, methodFlagNames) }
