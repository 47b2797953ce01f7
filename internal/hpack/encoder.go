package hpack

import "strconv"

// Encoder serializes (name, value) pairs into HPACK-encoded header
// blocks. It never inserts into a dynamic table of its own: the
// server only ever encodes responses, and response header fields
// above the status line come from the request handler fresh each
// time, so there is no benefit from indexing them here. A field that
// fully matches a static-table entry goes out as an indexed
// representation; everything else goes out as literal-without-indexing.
type Encoder struct{}

func NewEncoder() *Encoder { return &Encoder{} }

// EncodeStatus encodes the response :status pseudo-header. Well-known
// statuses use the fully-indexed representation against their static
// table entry (e.g. 200 -> single byte 0x88); any other status is
// encoded as one literal-with-indexed-name representation against
// index 8 (RFC 7541 §6.1), a 3-digit ASCII value, per spec §9's
// correction of the source's two-write bug.
func (e *Encoder) EncodeStatus(dst []byte, status int) []byte {
	if idx, ok := wellKnownStatusIndex(status); ok {
		return EncodeInteger(dst, 0x80, 7, uint64(idx))
	}
	dst = EncodeInteger(dst, 0x00, 4, 8) // literal without indexing, indexed name := 8
	return encodeString(dst, strconv.Itoa(status))
}

func wellKnownStatusIndex(status int) (int, bool) {
	switch status {
	case 200:
		return 8, true
	case 204:
		return 9, true
	case 206:
		return 10, true
	case 304:
		return 11, true
	case 400:
		return 12, true
	case 404:
		return 13, true
	case 500:
		return 14, true
	}
	return 0, false
}

// EncodeField encodes one (name, value) header field. Connection-
// specific fields must be dropped by the caller before calling this
// (the h2 writer does so); this method assumes it
// has already been filtered.
func (e *Encoder) EncodeField(dst []byte, name, value string) []byte {
	if idx, ok := staticIndexForFullMatch(name, value); ok {
		return EncodeInteger(dst, 0x80, 7, uint64(idx))
	}
	if idx, ok := staticIndexForNameMatch(name); ok {
		dst = EncodeInteger(dst, 0x00, 4, uint64(idx))
		return encodeString(dst, value)
	}
	dst = EncodeInteger(dst, 0x00, 4, 0)
	dst = encodeString(dst, name)
	return encodeString(dst, value)
}
