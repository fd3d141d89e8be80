package classfile

import (
	"bytes"
	"testing"
)

func TestModifiedUTF8RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ascii", "hello"},
		{"empty", ""},
		{"nul", "a\x00b"},
		{"two byte", "héllo"},
		{"three byte", "世界"},
		{"supplementary", "\U0001D11E"},
		{"mixed", "a\x00é世\U0001F600z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeModifiedUTF8(tt.value)
			got, ok := decodeModifiedUTF8(data)
			if !ok {
				t.Fatalf("decode rejected %x", data)
			}
			if got != tt.value {
				t.Errorf("round trip: expected %q, got %q", tt.value, got)
			}
		})
	}
}

func TestModifiedUTF8Encoding(t *testing.T) {
	// NUL is the two-byte overlong form.
	if got := encodeModifiedUTF8("\x00"); !bytes.Equal(got, []byte{0xC0, 0x80}) {
		t.Errorf("NUL: expected C0 80, got %x", got)
	}
	// Supplementary characters are surrogate pairs, two 3-byte sequences.
	if got := encodeModifiedUTF8("\U0001D11E"); len(got) != 6 {
		t.Errorf("supplementary: expected 6 bytes, got %d (%x)", len(got), got)
	}
}

func TestModifiedUTF8Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"raw nul", []byte{0x00}},
		{"0xF0 lead", []byte{0xF0, 0x9D, 0x84, 0x9E}},
		{"bare continuation", []byte{0x80}},
		{"truncated two byte", []byte{0xC3}},
		{"truncated three byte", []byte{0xE4, 0xB8}},
		{"bad continuation", []byte{0xC3, 0x28}},
		{"overlong two byte", []byte{0xC1, 0x81}},
		{"overlong three byte", []byte{0xE0, 0x80, 0x80}},
		{"lone high surrogate", []byte{0xED, 0xA0, 0xB4}},
		{"lone low surrogate", []byte{0xED, 0xB4, 0x9E}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := decodeModifiedUTF8(tt.data); ok {
				t.Errorf("%x should be rejected", tt.data)
			}
		})
	}
}
