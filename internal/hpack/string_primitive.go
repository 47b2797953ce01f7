package hpack

import "unicode/utf8"

// encodeString writes the HPACK string primitive (RFC 7541 §5.2): a
// 1-bit Huffman flag, a 7-bit-prefixed length integer, then the bytes.
// Huffman is applied only when it is strictly shorter than the
// verbatim form.
func encodeString(dst []byte, s string) []byte {
	huffLen := HuffmanEncodedLen([]byte(s))
	if huffLen < len(s) {
		dst = EncodeInteger(dst, 0x80, 7, uint64(huffLen))
		return HuffmanEncode(dst, []byte(s))
	}
	dst = EncodeInteger(dst, 0x00, 7, uint64(len(s)))
	return append(dst, s...)
}

// decodeString reads one HPACK string primitive from the front of b,
// returning the decoded string and the number of bytes consumed.
func decodeString(b []byte) (string, int, error) {
	if len(b) == 0 {
		return "", 0, ErrUnexpectedEndOfFile
	}
	huffman := b[0]&0x80 != 0
	length, consumed, err := DecodeInteger(b[0]&0x7f, 7, b[1:])
	if err != nil {
		return "", 0, err
	}
	headerLen := 1 + consumed
	if uint64(len(b)-headerLen) < length {
		return "", 0, ErrUnexpectedEndOfFile
	}
	raw := b[headerLen : headerLen+int(length)]
	total := headerLen + int(length)
	if huffman {
		s, err := HuffmanDecode(raw)
		if err != nil {
			return "", 0, err
		}
		return s, total, nil
	}
	if !utf8.Valid(raw) {
		return "", 0, ErrHuffmanNotUTF8
	}
	return string(raw), total, nil
}
