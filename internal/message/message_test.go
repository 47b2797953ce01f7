package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Universal invariant (spec §8): for every (name, value) admitted by
// HeaderMap.Append, the name round-trips through ParseHeaderName applied
// to its own serialized form, case-insensitively.
func TestHeaderNameRoundTrip(t *testing.T) {
	names := []HeaderName{
		NewHeaderName(HeaderContentType),
		NewHeaderName(HeaderHost),
		NewHeaderName(HeaderETag),
		ParseHeaderName("X-Custom-Thing"),
	}
	for _, n := range names {
		h1 := n.ToStringH1()
		lower := n.ToStringLowercase()
		assert.True(t, ParseHeaderName(h1).Equal(n))
		assert.True(t, ParseHeaderName(lower).Equal(n))
	}
}

// Universal invariant: v.StringLength() == len(v.Serialize()) for
// every HeaderValue variant.
func TestHeaderValueStringLengthInvariant(t *testing.T) {
	values := []HeaderValue{
		StringValue("hello world"),
		ContentCodingValue(CodingGzip),
		ByteRangeValue(ByteRange{Start: 0, End: 99, Total: 200, Satisfiable: true}),
		TimestampValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		MediaTypeValue(MediaType{Type: "text", Subtype: "html", Charset: "utf-8"}),
		SizeValue(123456),
	}
	for _, v := range values {
		assert.Equal(t, v.StringLength(), len(v.Serialize()))
	}
}

func TestHeaderMapAppendOrOverride(t *testing.T) {
	h := NewHeaderMap(2)
	h.Append(NewHeaderName(HeaderContentType), StringValue("text/plain"))
	h.AppendOrOverride(NewHeaderName(HeaderContentType), StringValue("text/html"))

	assert.Equal(t, 1, h.Len())
	v, ok := h.GetFirst(NewHeaderName(HeaderContentType))
	assert.True(t, ok)
	assert.Equal(t, "text/html", v.Serialize())
}

func TestHeaderMapAllowsDuplicateNames(t *testing.T) {
	h := NewHeaderMap(2)
	h.Append(NewHeaderName(HeaderLink), StringValue("</a.css>; rel=preload"))
	h.Append(NewHeaderName(HeaderLink), StringValue("</b.css>; rel=preload"))
	assert.Equal(t, 2, h.Len())
}

func TestSetLastModifiedDerivesWeakETagOnlyWhenAbsent(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	h := NewHeaderMap(2)
	h.SetLastModified(ts)
	etag, ok := h.GetFirst(NewHeaderName(HeaderETag))
	assert.True(t, ok)
	assert.Equal(t, WeakETag(ts), etag.Serialize())

	h2 := NewHeaderMap(2)
	h2.Append(NewHeaderName(HeaderETag), StringValue(`"explicit"`))
	h2.SetLastModified(ts)
	etag2, _ := h2.GetFirst(NewHeaderName(HeaderETag))
	assert.Equal(t, `"explicit"`, etag2.Serialize())
}

func TestMethodParsingIsCaseSensitive(t *testing.T) {
	assert.Equal(t, MethodGet, ParseMethod("GET"))
	assert.Equal(t, OtherMethod("get"), ParseMethod("get"))
}

func TestStatusClass(t *testing.T) {
	assert.True(t, StatusOK.IsSuccess())
	assert.False(t, StatusNotFound.IsSuccess())
	assert.True(t, StatusNotFound.IsClientError())
}
