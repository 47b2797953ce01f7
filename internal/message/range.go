package message

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is a single RFC 9110 §14.1.2 byte-range, as either a
// start-end pair, a start-to-end-of-file range, or a suffix range
// (last N bytes). It doubles as the value used both to parse an
// incoming Range request header and to format an outgoing
// Content-Range response header.
type ByteRange struct {
	// Start and End are inclusive byte offsets. ParseFirstRange
	// resolves open ("N-") and suffix ("-N") ranges to absolute
	// offsets against the resource length and leaves Suffix false.
	Start, End int64
	Suffix     bool
	// Satisfiable is false for a range that could not be satisfied
	// against the resource length; ContentRangeString then renders
	// "bytes */<len>" per RFC 9110 §14.4.
	Satisfiable bool
	// Total is the full resource length, or -1 if unknown ("*").
	Total int64
}

// ParseFirstRange parses the first range-spec of a "Range: bytes=..."
// header value against a resource of the given length. Multi-range
// requests are accepted syntactically but only the first spec is
// honored (see DESIGN.md open-question decisions: multipart
// byteranges are not implemented).
func ParseFirstRange(header string, resourceLength int64) (ByteRange, bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return ByteRange{}, false
	}
	spec := strings.TrimPrefix(header, prefix)
	spec = strings.TrimSpace(strings.SplitN(spec, ",", 2)[0])
	if spec == "" {
		return ByteRange{}, false
	}

	if strings.HasPrefix(spec, "-") {
		n, err := strconv.ParseInt(spec[1:], 10, 64)
		if err != nil || n < 0 {
			return ByteRange{}, false
		}
		start := resourceLength - n
		if start < 0 {
			start = 0
		}
		if n == 0 || resourceLength == 0 {
			return ByteRange{Total: resourceLength, Satisfiable: false}, true
		}
		return ByteRange{Start: start, End: resourceLength - 1, Total: resourceLength, Satisfiable: true}, true
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return ByteRange{}, false
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, false
	}
	if start >= resourceLength {
		return ByteRange{Total: resourceLength, Satisfiable: false}, true
	}
	if parts[1] == "" {
		return ByteRange{Start: start, End: resourceLength - 1, Total: resourceLength, Satisfiable: true}, true
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || end < start {
		return ByteRange{}, false
	}
	if end >= resourceLength {
		end = resourceLength - 1
	}
	return ByteRange{Start: start, End: end, Total: resourceLength, Satisfiable: true}, true
}

// ContentRangeString formats the Content-Range response header value:
// "bytes <start>-<end>/<len or *>" for a satisfiable range, or
// "bytes */<len>" for an unsatisfiable one.
func (r ByteRange) ContentRangeString() string {
	if !r.Satisfiable {
		if r.Total < 0 {
			return "bytes */*"
		}
		return fmt.Sprintf("bytes */%d", r.Total)
	}
	total := "*"
	if r.Total >= 0 {
		total = strconv.FormatInt(r.Total, 10)
	}
	return fmt.Sprintf("bytes %d-%d/%s", r.Start, r.End, total)
}

// Length returns the number of bytes the range spans.
func (r ByteRange) Length() int64 {
	if !r.Satisfiable {
		return 0
	}
	return r.End - r.Start + 1
}
