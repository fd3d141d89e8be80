package classfile

import "strings"

// ValidFieldDescriptor reports whether s is a well-formed field descriptor,
// e.g. "I", "[[J" or "Ljava/lang/String;".
func ValidFieldDescriptor(s string) bool {
	rest, ok := consumeFieldType(s)
	return ok && rest == ""
}

// ValidMethodDescriptor reports whether s is a well-formed method
// descriptor, e.g. "(ILjava/lang/String;)V".
func ValidMethodDescriptor(s string) bool {
	if s == "" || s[0] != '(' {
		return false
	}
	s = s[1:]
	for s != "" && s[0] != ')' {
		var ok bool
		if s, ok = consumeFieldType(s); !ok {
			return false
		}
	}
	if s == "" {
		return false
	}
	s = s[1:]
	if s == "V" {
		return true
	}
	rest, ok := consumeFieldType(s)
	return ok && rest == ""
}

// consumeFieldType consumes one field type from the front of s and returns
// the remainder.
func consumeFieldType(s string) (string, bool) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	// An array type has at most 255 dimensions.
	if dims > 255 || dims == len(s) {
		return "", false
	}
	s = s[dims:]

	switch s[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return s[1:], true
	case 'L':
		i := strings.IndexByte(s, ';')
		if i < 2 {
			return "", false
		}
		return s[i+1:], true
	default:
		return "", false
	}
}
