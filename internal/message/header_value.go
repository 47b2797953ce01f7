package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HeaderValue is a sum type over the handful of shapes a header value
// can take on the wire. Structured values (dates, ranges) carry their
// own serializer so they never round-trip through an intermediate
// string representation unless the caller actually wants one, and so
// that the exact serialized byte length is computable up front
// (StringLength).
//
// Implementations without sum types would use an interface with
// WriteTo/Len methods and one concrete type per variant; Go has no
// tagged unions, so this is modeled as a struct with a discriminant
// and only the field matching that discriminant populated.
type HeaderValue struct {
	kind valueKind

	str      string         // Shared/Static/Owned string variants
	coding   ContentCoding  // content-coding variant
	byteR    ByteRange      // byte-range variant
	ts       time.Time      // timestamp variant
	mediaT   MediaType      // media-type variant
	size     int64          // numeric-size variant
}

type valueKind int

const (
	valueString valueKind = iota
	valueContentCoding
	valueByteRange
	valueTimestamp
	valueMediaType
	valueSize
)

// StringValue wraps a plain string value (the shared/static/owned
// distinction collapses to Go's native string sharing — Go strings
// are already immutable and reference-counted by the runtime, so no
// separate Shared/Owned representation is needed as §9 anticipates
// for languages without that guarantee).
func StringValue(s string) HeaderValue { return HeaderValue{kind: valueString, str: s} }

// ContentCodingValue wraps a single content-coding token.
func ContentCodingValue(c ContentCoding) HeaderValue {
	return HeaderValue{kind: valueContentCoding, coding: c}
}

// ByteRangeValue wraps a Content-Range triple.
func ByteRangeValue(r ByteRange) HeaderValue { return HeaderValue{kind: valueByteRange, byteR: r} }

// TimestampValue wraps an HTTP-date value.
func TimestampValue(t time.Time) HeaderValue { return HeaderValue{kind: valueTimestamp, ts: t} }

// MediaTypeValue wraps a parsed Content-Type value.
func MediaTypeValue(m MediaType) HeaderValue { return HeaderValue{kind: valueMediaType, mediaT: m} }

// SizeValue wraps a numeric size (e.g. Content-Length).
func SizeValue(n int64) HeaderValue { return HeaderValue{kind: valueSize, size: n} }

// httpDateLayout is the IMF-fixdate format (RFC 9110 §5.6.7), e.g.
// "Sun, 06 Nov 1994 08:49:37 GMT".
const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// Serialize renders the value to its wire representation.
func (v HeaderValue) Serialize() string {
	switch v.kind {
	case valueString:
		return v.str
	case valueContentCoding:
		return v.coding.String()
	case valueByteRange:
		return v.byteR.ContentRangeString()
	case valueTimestamp:
		return v.ts.UTC().Format(httpDateLayout)
	case valueMediaType:
		return v.mediaT.String()
	case valueSize:
		return strconv.FormatInt(v.size, 10)
	default:
		return ""
	}
}

// StringLength returns the exact byte length Serialize will produce,
// without formatting, satisfying the universal invariant in spec §8
// that `v.string_length() == len(serialize(v))`.
func (v HeaderValue) StringLength() int {
	switch v.kind {
	case valueString:
		return len(v.str)
	case valueContentCoding:
		return len(v.coding.String())
	case valueByteRange:
		return len(v.byteR.ContentRangeString())
	case valueTimestamp:
		return len(v.ts.UTC().Format(httpDateLayout))
	case valueMediaType:
		return len(v.mediaT.String())
	case valueSize:
		return len(strconv.FormatInt(v.size, 10))
	default:
		return 0
	}
}

func (v HeaderValue) String() string { return v.Serialize() }

// AsTimestamp reports whether v is a timestamp variant and returns it.
func (v HeaderValue) AsTimestamp() (time.Time, bool) {
	if v.kind != valueTimestamp {
		return time.Time{}, false
	}
	return v.ts, true
}

// AsByteRange reports whether v is a byte-range variant and returns it.
func (v HeaderValue) AsByteRange() (ByteRange, bool) {
	if v.kind != valueByteRange {
		return ByteRange{}, false
	}
	return v.byteR, true
}

// ContentCoding is a reversible body transformation.
type ContentCoding int

const (
	CodingIdentity ContentCoding = iota
	CodingGzip
	CodingBrotli
	CodingDeflate
)

func (c ContentCoding) String() string {
	switch c {
	case CodingGzip:
		return "gzip"
	case CodingBrotli:
		return "br"
	case CodingDeflate:
		return "deflate"
	default:
		return "identity"
	}
}

// ParseContentCoding maps a wire token to a ContentCoding, defaulting
// unrecognized tokens to CodingIdentity so callers treat them as "no
// coding applied" rather than erroring.
func ParseContentCoding(token string) ContentCoding {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "gzip", "x-gzip":
		return CodingGzip
	case "br":
		return CodingBrotli
	case "deflate":
		return CodingDeflate
	default:
		return CodingIdentity
	}
}

// MediaType is a parsed Content-Type value (type/subtype plus an
// optional charset parameter — the only parameter this server emits).
type MediaType struct {
	Type    string
	Subtype string
	Charset string
}

func (m MediaType) String() string {
	base := fmt.Sprintf("%s/%s", m.Type, m.Subtype)
	if m.Charset != "" {
		return base + "; charset=" + m.Charset
	}
	return base
}
