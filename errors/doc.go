// Package errors provides structured error types for the class-file library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: a path into the class-file
// structure, the byte offset at which decoding failed, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindLengthMismatch).
//		Path("methods", "main", "Code").
//		Offset(412).
//		Detail("attribute declared %d bytes, decoder consumed %d", 40, 39).
//		Build()
//
// Or use convenience constructors for the taxonomy entries:
//
//	err := errors.BadMagicNumber(0xDEADBEEF)
//	err := errors.UnknownConstantPoolTag(42, 7)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
