package message

import (
	"fmt"
	"time"
)

// headerEntry is one (name, value) pair in insertion order.
type headerEntry struct {
	Name  HeaderName
	Value HeaderValue
}

// HeaderMap is an insertion-ordered sequence of header entries.
// Duplicate names are permitted (Link, Set-Cookie, …); callers that
// want "last write wins" semantics use AppendOrOverride instead of
// Append.
type HeaderMap struct {
	entries []headerEntry
}

// NewHeaderMap constructs an empty map with room for n entries.
func NewHeaderMap(n int) *HeaderMap {
	return &HeaderMap{entries: make([]headerEntry, 0, n)}
}

// Append unconditionally pushes a new (name, value) pair.
func (h *HeaderMap) Append(name HeaderName, value HeaderValue) {
	h.entries = append(h.entries, headerEntry{Name: name, Value: value})
}

// AppendOrOverride replaces the first entry with an equal name, or
// appends if no such entry exists.
func (h *HeaderMap) AppendOrOverride(name HeaderName, value HeaderValue) {
	for i := range h.entries {
		if h.entries[i].Name.Equal(name) {
			h.entries[i].Value = value
			return
		}
	}
	h.Append(name, value)
}

// GetFirst returns the value of the first entry with the given name.
func (h *HeaderMap) GetFirst(name HeaderName) (HeaderValue, bool) {
	for _, e := range h.entries {
		if e.Name.Equal(name) {
			return e.Value, true
		}
	}
	return HeaderValue{}, false
}

// Contains reports whether any entry has the given name.
func (h *HeaderMap) Contains(name HeaderName) bool {
	_, ok := h.GetFirst(name)
	return ok
}

// RemoveAllByName deletes every entry with the given name.
func (h *HeaderMap) RemoveAllByName(name HeaderName) {
	out := h.entries[:0]
	for _, e := range h.entries {
		if !e.Name.Equal(name) {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Each iterates entries in insertion order, stopping early if fn
// returns false.
func (h *HeaderMap) Each(fn func(name HeaderName, value HeaderValue) bool) {
	for _, e := range h.entries {
		if !fn(e.Name, e.Value) {
			return
		}
	}
}

// Len returns the number of entries (including duplicates).
func (h *HeaderMap) Len() int { return len(h.entries) }

// SetLastModified writes both the Last-Modified header, and — only if
// ETag is absent — a weak entity tag of the form W/"<hex
// seconds-since-epoch>" (see WeakETag), per spec §4.B.
func (h *HeaderMap) SetLastModified(ts time.Time) {
	h.AppendOrOverride(NewHeaderName(HeaderLastModified), TimestampValue(ts))
	if !h.Contains(NewHeaderName(HeaderETag)) {
		h.AppendOrOverride(NewHeaderName(HeaderETag), StringValue(WeakETag(ts)))
	}
}

// WeakETag formats the weak entity tag servente derives from a
// modification timestamp: W/"<hex seconds-since-epoch>".
func WeakETag(ts time.Time) string {
	return fmt.Sprintf(`W/"%x"`, ts.Unix())
}
