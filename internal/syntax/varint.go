package syntax

import (
	"encoding/binary"
	"errors"
)

// ErrVarintTooLarge is returned by EncodeVarint when asked to encode a
// value that does not fit the 62-bit value space of the QUIC/HTTP-3
// variable-length integer encoding (RFC 9000 §16).
var ErrVarintTooLarge = errors.New("syntax: value exceeds 2^62-1, cannot be varint-encoded")

// ErrVarintTruncated is returned by DecodeVarint when the buffer ends
// before the length prefix says it should.
var ErrVarintTruncated = errors.New("syntax: truncated variable-length integer")

// EncodeVarint appends the variable-length integer encoding of v to dst
// and returns the extended slice. The top two bits of the first byte
// encode the length class (1, 2, 4 or 8 bytes); the remaining bits of
// the first byte and any following bytes form a big-endian value.
func EncodeVarint(dst []byte, v uint64) ([]byte, error) {
	switch {
	case v <= 0x3f:
		return append(dst, byte(v)), nil
	case v <= 0x3fff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v))
		b[0] |= 0x40
		return append(dst, b[:]...), nil
	case v <= 0x3fffffff:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		b[0] |= 0x80
		return append(dst, b[:]...), nil
	case v <= 0x3fffffffffffffff:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		b[0] |= 0xc0
		return append(dst, b[:]...), nil
	default:
		return dst, ErrVarintTooLarge
	}
}

// DecodeVarint reads one variable-length integer from the front of b,
// returning the decoded value and the number of bytes consumed.
func DecodeVarint(b []byte) (value uint64, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrVarintTruncated
	}
	length := 1 << (b[0] >> 6) // 1, 2, 4 or 8
	if len(b) < length {
		return 0, 0, ErrVarintTruncated
	}
	buf := make([]byte, length)
	copy(buf, b[:length])
	buf[0] &= 0x3f
	switch length {
	case 1:
		value = uint64(buf[0])
	case 2:
		value = uint64(binary.BigEndian.Uint16(buf))
	case 4:
		value = uint64(binary.BigEndian.Uint32(buf))
	case 8:
		value = binary.BigEndian.Uint64(buf)
	}
	return value, length, nil
}
