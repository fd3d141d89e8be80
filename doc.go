// Package javelin is the class-file decoding core of the Javelin runtime.
//
// It decodes the JVM class-file binary format into a structured, queryable
// representation and verifies that the decoded structure is internally
// consistent before a consumer trusts it.
//
// # Architecture Overview
//
//	javelin/
//	├── classfile/       Decoder, verification passes, bytecode codec, encoder
//	│   └── internal/binary/  Big-endian positioned reader and writer
//	├── errors/          Structured error types for debugging
//	└── cmd/javelin/     CLI: inspect, verify, disasm and an interactive browser
//
// # Quick Start
//
// Decode a class file and run both verification passes:
//
//	data, err := os.ReadFile("Hello.class")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cf, err := classfile.ParseClassVerify(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name, _ := cf.ClassName()
//	fmt.Println(name)
//
// Decoding alone is permissive: ParseClass accepts any structurally
// well-formed input, even when pool references dangle or flag combinations
// are illegal, so malformed files can still be inspected for diagnostics.
// VerifyConstantPool and VerifyStructure are the trust boundary.
//
// # Thread Safety
//
// A decoded ClassFile is immutable and safe for concurrent readers. Decode
// calls share no state, so decoding many files in parallel needs no
// coordination.
package javelin
