package classfile_test

import (
	"strings"
	"testing"

	"github.com/javelin-rt/javelin/classfile"
)

func TestValidFieldDescriptor(t *testing.T) {
	valid := []string{
		"B", "C", "D", "F", "I", "J", "S", "Z",
		"Ljava/lang/Object;",
		"[I",
		"[[Ljava/lang/String;",
		strings.Repeat("[", 255) + "I",
	}
	for _, d := range valid {
		if !classfile.ValidFieldDescriptor(d) {
			t.Errorf("%q should be valid", d)
		}
	}

	invalid := []string{
		"", "V", "Q", "II", "L;", "Ljava/lang/Object", "[",
		strings.Repeat("[", 256) + "I",
		"I extra",
	}
	for _, d := range invalid {
		if classfile.ValidFieldDescriptor(d) {
			t.Errorf("%q should be invalid", d)
		}
	}
}

func TestValidMethodDescriptor(t *testing.T) {
	valid := []string{
		"()V",
		"()I",
		"(I)V",
		"(IJ)J",
		"(Ljava/lang/String;[I)Ljava/lang/Object;",
		"([[D)[Ljava/lang/String;",
	}
	for _, d := range valid {
		if !classfile.ValidMethodDescriptor(d) {
			t.Errorf("%q should be valid", d)
		}
	}

	invalid := []string{
		"", "V", "()", "(V)V", "I)V", "(I", "(I)VV", "(I)L;", "()v",
	}
	for _, d := range invalid {
		if classfile.ValidMethodDescriptor(d) {
			t.Errorf("%q should be invalid", d)
		}
	}
}
