// Package syntax implements the ABNF character-class predicates shared
// by the HTTP/1.1 framer and the HPACK codec, plus the variable-length
// integer codec used by the binary framing layer.
package syntax

import "fmt"

// TokenError enumerates the distinct ways a token can fail RFC 9110 §5.6.2
// validation. Each rejection reason is kept distinct so callers can map
// it to the error taxonomy in the wire-format error kinds.
type TokenError int

const (
	_ TokenError = iota
	TokenEmpty
	TokenContainsWhitespace
	TokenContainsDelimiter
	TokenContainsNonVisibleAscii
)

func (e TokenError) Error() string {
	switch e {
	case TokenEmpty:
		return "TokenEmpty"
	case TokenContainsWhitespace:
		return "TokenContainsWhitespace"
	case TokenContainsDelimiter:
		return "TokenContainsDelimiter"
	case TokenContainsNonVisibleAscii:
		return "TokenContainsNonVisibleAscii"
	default:
		return fmt.Sprintf("TokenError(%d)", int(e))
	}
}

// isDelimiter reports whether b is one of the RFC 9110 §5.6.2 delimiters,
// which are explicitly excluded from tchar.
func isDelimiter(b byte) bool {
	switch b {
	case '"', '(', ')', ',', '/', ':', ';', '<', '=', '>', '?', '@', '[', '\\', ']', '{', '}':
		return true
	}
	return false
}

// IsTokenChar reports whether b is a valid tchar per RFC 9110 §5.6.2:
// ALPHA / DIGIT / one of "!#$%&'*+-.^_`|~".
func IsTokenChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '!', b == '#', b == '$', b == '%', b == '&', b == '\'',
		b == '*', b == '+', b == '-', b == '.', b == '^', b == '_',
		b == '`', b == '|', b == '~':
		return true
	}
	return false
}

// TokenCharError classifies why b is not a valid tchar.
func TokenCharError(b byte) TokenError {
	if b == ' ' || b == '\t' {
		return TokenContainsWhitespace
	}
	if isDelimiter(b) {
		return TokenContainsDelimiter
	}
	return TokenContainsNonVisibleAscii
}

// IsFieldValueChar reports whether b may appear in a header field value:
// VCHAR (0x21-0x7E) or obs-text (0x80-0xFF). SP/HTAB are valid only in
// interior positions; callers trim leading/trailing whitespace before
// calling this on the remainder.
func IsFieldValueChar(b byte) bool {
	return (b >= 0x21 && b <= 0x7E) || b >= 0x80
}

// IsFieldValueCharInterior additionally admits SP and HTAB, for bytes
// that are not the first or last of the value.
func IsFieldValueCharInterior(b byte) bool {
	return IsFieldValueChar(b) || b == ' ' || b == '\t'
}

// IsRequestTargetChar reports whether b may appear in a request-target:
// any byte outside the C0 control range and outside obs-text.
func IsRequestTargetChar(b byte) bool {
	return !(b <= 0x1F || b >= 0x80)
}

// ValidateToken validates str as a token, returning the first violation.
func ValidateToken(str string) error {
	if len(str) == 0 {
		return TokenEmpty
	}
	for i := 0; i < len(str); i++ {
		if !IsTokenChar(str[i]) {
			return TokenCharError(str[i])
		}
	}
	return nil
}
