package hpack

import (
	"errors"
	"unicode/utf8"
)

// ErrInvalidHuffmanCode is returned when a decode hits a bit pattern
// that is neither a valid symbol prefix nor a legal EOS padding.
var ErrInvalidHuffmanCode = errors.New("hpack: invalid Huffman code")

// ErrHuffmanNotUTF8 is returned when a decoded byte string is not
// valid UTF-8, per spec §4.C ("The result MUST be validated as UTF-8
// before being returned as a string").
var ErrHuffmanNotUTF8 = errors.New("hpack: decoded string is not valid UTF-8")

// eosCode is the 30-bit end-of-string code from RFC 7541 Appendix B.
const (
	eosCode = 0x3fffffff
	eosBits = 30
)

// huffmanCode and huffmanCodeLen are the RFC 7541 Appendix B canonical
// Huffman code table: symbol i encodes as the low huffmanCodeLen[i]
// bits of huffmanCode[i], transmitted MSB-first.
var huffmanCode = [256]uint32{
	0x1ff8, 0x7fffd8, 0xfffffe2, 0xfffffe3, 0xfffffe4, 0xfffffe5, 0xfffffe6, 0xfffffe7,
	0xfffffe8, 0xffffea, 0x3ffffffc, 0xfffffe9, 0xfffffea, 0x3ffffffd, 0xfffffeb, 0xfffffec,
	0xfffffed, 0xfffffee, 0xfffffef, 0xffffff0, 0xffffff1, 0xffffff2, 0x3ffffffe, 0xffffff3,
	0xffffff4, 0xffffff5, 0xffffff6, 0xffffff7, 0xffffff8, 0xffffff9, 0xffffffa, 0xffffffb,
	0x14, 0x3f8, 0x3f9, 0xffa, 0x1ff9, 0x15, 0xf8, 0x7fa,
	0x3fa, 0x3fb, 0xf9, 0x7fb, 0xfa, 0x16, 0x17, 0x18,
	0x0, 0x1, 0x2, 0x19, 0x1a, 0x1b, 0x1c, 0x1d,
	0x1e, 0x1f, 0x5c, 0xfb, 0x7ffc, 0x20, 0xffb, 0x3fc,
	0x1ffa, 0x21, 0x5d, 0x5e, 0x5f, 0x60, 0x61, 0x62,
	0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69, 0x6a,
	0x6b, 0x6c, 0x6d, 0x6e, 0x6f, 0x70, 0x71, 0x72,
	0xfc, 0x73, 0xfd, 0x1ffb, 0x7fff0, 0x1ffc, 0x3ffc, 0x22,
	0x7ffd, 0x3, 0x23, 0x4, 0x24, 0x5, 0x25, 0x26,
	0x27, 0x6, 0x74, 0x75, 0x28, 0x29, 0x2a, 0x7,
	0x2b, 0x76, 0x2c, 0x8, 0x9, 0x2d, 0x77, 0x78,
	0x79, 0x7a, 0x7b, 0x7ffe, 0x7fc, 0x3ffd, 0x1ffd, 0xffffffc,
	0xfffe6, 0x3fffd2, 0xfffe7, 0xfffe8, 0x3fffd3, 0x3fffd4, 0x3fffd5, 0x7fffd9,
	0x3fffd6, 0x7fffda, 0x7fffdb, 0x7fffdc, 0x7fffdd, 0x7fffde, 0xffffeb, 0x7fffdf,
	0xffffec, 0xffffed, 0x3fffd7, 0x7fffe0, 0xffffee, 0x7fffe1, 0x7fffe2, 0x7fffe3,
	0x7fffe4, 0x1fffdc, 0x3fffd8, 0x7fffe5, 0x3fffd9, 0x7fffe6, 0x7fffe7, 0xffffef,
	0x3fffda, 0x1fffdd, 0xfffe9, 0x3fffdb, 0x3fffdc, 0x7fffe8, 0x7fffe9, 0x1fffde,
	0x7fffea, 0x3fffdd, 0x3fffde, 0xfffff0, 0x1fffdf, 0x3fffdf, 0x7fffeb, 0x7fffec,
	0x1fffe0, 0x1fffe1, 0x3fffe0, 0x1fffe2, 0x7fffed, 0x3fffe1, 0x7fffee, 0x7fffef,
	0xfffea, 0x3fffe2, 0x3fffe3, 0x3fffe4, 0x7ffff0, 0x3fffe5, 0x3fffe6, 0x7ffff1,
	0x3ffffe0, 0x3ffffe1, 0xfffeb, 0x7fff1, 0x3fffe7, 0x7ffff2, 0x3fffe8, 0x1ffffec,
	0x3ffffe2, 0x3ffffe3, 0x3ffffe4, 0x7ffffde, 0x7ffffdf, 0x3ffffe5, 0xfffff1, 0x1ffffed,
	0x7fff2, 0x1fffe3, 0x3ffffe6, 0x7ffffe0, 0x7ffffe1, 0x3ffffe7, 0x7ffffe2, 0xfffff2,
	0x1fffe4, 0x1fffe5, 0x3ffffe8, 0x3ffffe9, 0xffffffd, 0x7ffffe3, 0x7ffffe4, 0x7ffffe5,
	0xfffec, 0xfffff3, 0xfffed, 0x1fffe6, 0x3fffe9, 0x1fffe7, 0x1fffe8, 0x7ffff3,
	0x3fffea, 0x3fffeb, 0x1ffffee, 0x1ffffef, 0xfffff4, 0xfffff5, 0x3ffffea, 0x7ffff4,
	0x3ffffeb, 0x7ffffe6, 0x3ffffec, 0x3ffffed, 0x7ffffe7, 0x7ffffe8, 0x7ffffe9, 0x7ffffea,
	0x7ffffeb, 0xffffffe, 0x7ffffec, 0x7ffffed, 0x7ffffee, 0x7ffffef, 0x7fffff0, 0x3ffffee,
}

var huffmanCodeLen = [256]uint8{
	13, 23, 28, 28, 28, 28, 28, 28, 28, 24, 30, 28, 28, 30, 28, 28,
	28, 28, 28, 28, 28, 28, 30, 28, 28, 28, 28, 28, 28, 28, 28, 28,
	6, 10, 10, 12, 13, 6, 8, 11, 10, 10, 8, 11, 8, 6, 6, 6,
	5, 5, 5, 6, 6, 6, 6, 6, 6, 6, 7, 8, 15, 6, 12, 10,
	13, 6, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 8, 7, 8, 13, 19,
	13, 14, 6, 15, 5, 6, 5, 6, 5, 6, 6, 6, 5, 7, 7, 6,
	6, 6, 5, 6, 7, 6, 5, 5, 6, 7, 7, 7, 7, 7, 15, 11,
	14, 13, 28, 20, 22, 20, 20, 22, 22, 22, 23, 22, 23, 23, 23, 23,
	23, 24, 23, 24, 24, 22, 23, 24, 23, 23, 23, 23, 21, 22, 23, 22,
	23, 23, 24, 22, 21, 20, 22, 22, 23, 23, 21, 23, 22, 22, 24, 21,
	22, 23, 23, 21, 21, 22, 21, 23, 22, 23, 23, 20, 22, 22, 22, 23,
	22, 22, 23, 23, 23, 23, 23, 22, 23, 23, 23, 23, 23, 21, 22, 23,
	22, 23, 23, 23, 23, 21, 23, 22, 22, 24, 21, 22, 23, 23, 21, 21,
	22, 21, 23, 22, 23, 23, 19, 20, 21, 22, 23, 24, 20, 20, 22, 24,
	23, 23, 23, 23, 21, 22, 22, 24, 24, 22, 23, 24, 23, 24, 24, 24,
}

// huffmanNode is a binary-trie node used for decoding; a leaf has
// sym >= 0.
type huffmanNode struct {
	children [2]*huffmanNode
	sym      int
}

var huffmanRoot = buildHuffmanTree()

func buildHuffmanTree() *huffmanNode {
	root := &huffmanNode{sym: -1}
	insert := func(code uint32, bits uint8, sym int) {
		n := root
		for i := int(bits) - 1; i >= 0; i-- {
			bit := (code >> uint(i)) & 1
			if n.children[bit] == nil {
				n.children[bit] = &huffmanNode{sym: -1}
			}
			n = n.children[bit]
		}
		n.sym = sym
	}
	for sym := 0; sym < 256; sym++ {
		insert(huffmanCode[sym], huffmanCodeLen[sym], sym)
	}
	insert(eosCode, eosBits, -2) // -2 marks the EOS leaf
	return root
}

// HuffmanEncode appends the Huffman encoding of src to dst, MSB-first,
// padding any trailing partial byte with 1 bits (a prefix of EOS).
func HuffmanEncode(dst []byte, src []byte) []byte {
	var bitBuf uint64
	var nbits uint

	flush := func() {
		for nbits >= 8 {
			nbits -= 8
			dst = append(dst, byte(bitBuf>>nbits))
		}
	}

	for _, b := range src {
		code := uint64(huffmanCode[b])
		bits := uint(huffmanCodeLen[b])
		bitBuf = (bitBuf << bits) | code
		nbits += bits
		flush()
	}
	if nbits > 0 {
		// pad remaining bits with 1s
		bitBuf = (bitBuf << (8 - nbits)) | (1<<(8-nbits) - 1)
		dst = append(dst, byte(bitBuf))
	}
	return dst
}

// HuffmanEncodedLen returns the number of bytes HuffmanEncode would
// produce for src, without allocating, used to size string-length
// prefixes before encoding.
func HuffmanEncodedLen(src []byte) int {
	var bits uint64
	for _, b := range src {
		bits += uint64(huffmanCodeLen[b])
	}
	return int((bits + 7) / 8)
}

// HuffmanDecode decodes a Huffman-encoded byte string and validates
// the result as UTF-8.
func HuffmanDecode(src []byte) (string, error) {
	var out []byte
	n := huffmanRoot

	totalBits := len(src) * 8
	bitsConsumedAtLastSymbol := 0

	pos := 0
	for byteIdx := 0; byteIdx < len(src); byteIdx++ {
		b := src[byteIdx]
		for bit := 7; bit >= 0; bit-- {
			v := (b >> uint(bit)) & 1
			child := n.children[v]
			if child == nil {
				return "", ErrInvalidHuffmanCode
			}
			n = child
			pos++
			if n.sym == -2 {
				return "", ErrInvalidHuffmanCode // EOS symbol must never be emitted
			}
			if n.sym >= 0 {
				out = append(out, byte(n.sym))
				n = huffmanRoot
				bitsConsumedAtLastSymbol = pos
			}
		}
	}

	// Remaining bits must be a valid padding: at most 7 bits, all ones.
	remaining := totalBits - bitsConsumedAtLastSymbol
	if remaining > 7 {
		return "", ErrInvalidHuffmanCode
	}
	if remaining > 0 {
		// verify the trailing `remaining` bits (from pos back) are all 1
		for i := bitsConsumedAtLastSymbol; i < totalBits; i++ {
			byteIdx := i / 8
			bit := 7 - (i % 8)
			if (src[byteIdx]>>uint(bit))&1 != 1 {
				return "", ErrInvalidHuffmanCode
			}
		}
	}

	if !utf8.Valid(out) {
		return "", ErrHuffmanNotUTF8
	}
	return string(out), nil
}
