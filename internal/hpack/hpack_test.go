package hpack

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 3 — RFC 7541 Appendix C.4.1.
func TestDecodeRFC7541C4_1(t *testing.T) {
	raw, err := hex.DecodeString("82868441" + "8cf1e3c2e5f23a6ba0ab90f4ff")
	require.NoError(t, err)

	d := NewDecoder(4096)
	pseudo, fields, err := d.DecodeBlock(raw, false)
	require.NoError(t, err)

	assert.Equal(t, "GET", pseudo.Method)
	assert.Equal(t, "http", pseudo.Scheme)
	assert.Equal(t, "/", pseudo.Path)
	assert.Equal(t, "www.example.com", pseudo.Authority)
	assert.Empty(t, fields)
}

// Scenario 4 — encoder status emission.
func TestEncodeStatus(t *testing.T) {
	e := NewEncoder()

	got := e.EncodeStatus(nil, 200)
	assert.Equal(t, []byte{0x88}, got)

	got = e.EncodeStatus(nil, 502)
	assert.Equal(t, []byte{0x08, 0x82, 0x6c, 0x02}, got)
}

func TestIntegerCodecRoundTrip(t *testing.T) {
	for _, n := range []uint{4, 5, 6, 7} {
		for _, v := range []uint64{0, 1, 30, 31, 127, 128, 1000000} {
			enc := EncodeInteger(nil, 0, n, v)
			got, consumed, err := DecodeInteger(enc[0]&(1<<n-1), n, enc[1:])
			require.NoError(t, err)
			assert.Equal(t, v, got)
			assert.Equal(t, len(enc)-1, consumed)
		}
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"The quick brown fox jumps over the lazy dog 0123456789",
	}
	for _, c := range cases {
		enc := HuffmanEncode(nil, []byte(c))
		dec, err := HuffmanDecode(enc)
		require.NoError(t, err)
		assert.Equal(t, c, dec)
	}
}

func TestDynamicTableEviction(t *testing.T) {
	tbl := NewDynamicTable(64)
	tbl.Insert("custom-key", "custom-header") // size 10+13+32=55
	assert.Equal(t, 1, tbl.Len())
	tbl.Insert("a", "b") // size 1+1+32=34, evicts the first entry to fit
	assert.LessOrEqual(t, tbl.Size(), tbl.MaxSize())
}

func TestDecoderRejectsPseudoAfterRegular(t *testing.T) {
	d := NewDecoder(4096)
	// literal without indexing "x":"y", then indexed static :method GET (idx 2)
	var b []byte
	b = EncodeInteger(b, 0x00, 4, 0)
	b = encodeString(b, "x")
	b = encodeString(b, "y")
	b = EncodeInteger(b, 0x80, 7, 2)

	_, _, err := d.DecodeBlock(b, false)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, PseudoAfterRegularFields, herr.Kind)
}

func TestDecoderRejectsTrailerPseudo(t *testing.T) {
	d := NewDecoder(4096)
	b := EncodeInteger(nil, 0x80, 7, 2) // indexed :method GET
	_, _, err := d.DecodeBlock(b, true)
	require.Error(t, err)
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, PseudoInTrailerSection, herr.Kind)
}
