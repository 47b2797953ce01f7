package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTokenRejectsDelimitersAndWhitespace(t *testing.T) {
	assert.Equal(t, TokenEmpty, ValidateToken(""))
	assert.Equal(t, TokenContainsWhitespace, ValidateToken("foo bar"))
	assert.Equal(t, TokenContainsDelimiter, ValidateToken("foo/bar"))
	assert.Equal(t, TokenContainsNonVisibleAscii, ValidateToken("foo\x01bar"))
	assert.NoError(t, ValidateToken("GET"))
	assert.NoError(t, ValidateToken("X-Custom-Header"))
}

func TestIsRequestTargetChar(t *testing.T) {
	assert.True(t, IsRequestTargetChar('/'))
	assert.True(t, IsRequestTargetChar('?'))
	assert.False(t, IsRequestTargetChar(0x00))
	assert.False(t, IsRequestTargetChar(0x1f))
	assert.False(t, IsRequestTargetChar(0x80))
}

// Universal invariant (spec §8): varint round-trips for every n in
// [0, 2^62).
func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0x3f, 0x40, 0x3fff, 0x4000, 0x3fffffff, 0x40000000, 0x3fffffffffffffff}
	for _, v := range cases {
		enc, err := EncodeVarint(nil, v)
		require.NoError(t, err)
		got, n, err := DecodeVarint(enc)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(enc), n)
	}
}

func TestVarintEncodeRejectsTooLarge(t *testing.T) {
	_, err := EncodeVarint(nil, 1<<62)
	assert.ErrorIs(t, err, ErrVarintTooLarge)
}

func TestVarintDecodeTruncated(t *testing.T) {
	_, _, err := DecodeVarint([]byte{0x40})
	assert.ErrorIs(t, err, ErrVarintTruncated)
}
