package classfile

import "unicode/utf16"

// decodeModifiedUTF8 decodes the modified UTF-8 encoding used by class files.
// It differs from standard UTF-8: NUL is encoded as the two-byte sequence
// 0xC0 0x80, and characters beyond the basic plane appear as surrogate pairs
// of three-byte sequences. Bytes 0x00 and 0xF0-0xFF never occur.
func decodeModifiedUTF8(data []byte) (string, bool) {
	units := make([]uint16, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b == 0x00 || b >= 0xF0:
			return "", false
		case b < 0x80:
			units = append(units, uint16(b))
			i++
		case b&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return "", false
			}
			u := uint16(b&0x1F)<<6 | uint16(data[i+1]&0x3F)
			// The only valid overlong form is 0xC0 0x80 for NUL.
			if u != 0 && u < 0x80 {
				return "", false
			}
			units = append(units, u)
			i += 2
		case b&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return "", false
			}
			u := uint16(b&0x0F)<<12 | uint16(data[i+1]&0x3F)<<6 | uint16(data[i+2]&0x3F)
			if u < 0x800 {
				return "", false
			}
			units = append(units, u)
			i += 3
		default:
			// A continuation byte in leading position.
			return "", false
		}
	}

	// Reject unpaired surrogates so every accepted string re-encodes to the
	// exact input bytes.
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF {
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return "", false
			}
			i++
		} else if u >= 0xDC00 && u <= 0xDFFF {
			return "", false
		}
	}

	return string(utf16.Decode(units)), true
}

// encodeModifiedUTF8 is the inverse of decodeModifiedUTF8.
func encodeModifiedUTF8(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units))
	for _, u := range units {
		switch {
		case u >= 0x01 && u <= 0x7F:
			out = append(out, byte(u))
		case u <= 0x7FF:
			out = append(out, 0xC0|byte(u>>6), 0x80|byte(u&0x3F))
		default:
			out = append(out, 0xE0|byte(u>>12), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
		}
	}
	return out
}
