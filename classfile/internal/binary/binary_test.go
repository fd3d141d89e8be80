package binary

import (
	"errors"
	"testing"

	jerrors "github.com/javelin-rt/javelin/errors"
)

func TestReaderFixedWidth(t *testing.T) {
	r := NewReader([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x34, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	magic, err := r.ReadU32()
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if magic != 0xCAFEBABE {
		t.Errorf("expected 0xCAFEBABE, got 0x%08X", magic)
	}

	major, err := r.ReadU16()
	if err != nil {
		t.Fatalf("ReadU16: %v", err)
	}
	if major != 0x0034 {
		t.Errorf("expected 0x0034, got 0x%04X", major)
	}

	v64, err := r.ReadU64()
	if err != nil {
		t.Fatalf("ReadU64: %v", err)
	}
	if v64 != 0x0102030405060708 {
		t.Errorf("expected 0x0102030405060708, got 0x%016X", v64)
	}

	if r.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", r.Remaining())
	}
}

func TestReaderEOS(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadU32(); err == nil {
		t.Fatal("expected error reading past end")
	} else if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseDecode, Kind: jerrors.KindUnexpectedEOS}) {
		t.Errorf("expected unexpected_end_of_stream, got %v", err)
	}

	// Position must be unchanged after a failed read
	if r.Position() != 0 {
		t.Errorf("failed read moved the cursor to %d", r.Position())
	}
}

func TestReaderPeek(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB})
	b, err := r.PeekU8()
	if err != nil {
		t.Fatalf("PeekU8: %v", err)
	}
	if b != 0xAA {
		t.Errorf("expected 0xAA, got 0x%02X", b)
	}
	if r.Position() != 0 {
		t.Errorf("peek advanced the cursor to %d", r.Position())
	}
	if b2, _ := r.ReadU8(); b2 != 0xAA {
		t.Errorf("read after peek returned 0x%02X", b2)
	}
}

func TestSubReaderPositions(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x01, 0x02, 0x03, 0x04})
	if err := r.Skip(2); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	sub, err := r.Sub(3)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if sub.Position() != 2 {
		t.Errorf("sub-reader should report absolute position 2, got %d", sub.Position())
	}
	if r.Position() != 5 {
		t.Errorf("parent should have advanced to 5, got %d", r.Position())
	}

	if _, err := sub.ReadU32(); err == nil {
		t.Error("sub-reader must not read past its bound")
	}
}

func TestExpectConsumed(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	sub, err := r.Sub(3)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if _, err := sub.ReadU16(); err != nil {
		t.Fatalf("ReadU16: %v", err)
	}

	err = sub.ExpectConsumed("attribute")
	if err == nil {
		t.Fatal("expected length mismatch with 1 byte left")
	}
	if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseDecode, Kind: jerrors.KindLengthMismatch}) {
		t.Errorf("expected length_mismatch, got %v", err)
	}

	if _, err := sub.ReadU8(); err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if err := sub.ExpectConsumed("attribute"); err != nil {
		t.Errorf("fully consumed region reported mismatch: %v", err)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U32(0xCAFEBABE)
	w.U16(0x0041)
	w.U8(0x07)
	w.U64(0x1122334455667788)
	w.S32(-2)
	w.WriteBytes([]byte{0xAB})

	r := NewReader(w.Bytes())
	if v, _ := r.ReadU32(); v != 0xCAFEBABE {
		t.Errorf("u32 round trip: 0x%08X", v)
	}
	if v, _ := r.ReadU16(); v != 0x0041 {
		t.Errorf("u16 round trip: 0x%04X", v)
	}
	if v, _ := r.ReadU8(); v != 0x07 {
		t.Errorf("u8 round trip: 0x%02X", v)
	}
	if v, _ := r.ReadU64(); v != 0x1122334455667788 {
		t.Errorf("u64 round trip: 0x%016X", v)
	}
	if v, _ := r.ReadS32(); v != -2 {
		t.Errorf("s32 round trip: %d", v)
	}
	if b, _ := r.ReadBytes(1); b[0] != 0xAB {
		t.Errorf("bytes round trip: 0x%02X", b[0])
	}
}
