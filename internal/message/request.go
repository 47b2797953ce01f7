package message

import "io"

// Version is the HTTP protocol version of a message.
type Version int

const (
	VersionHTTP10 Version = iota
	VersionHTTP11
	VersionHTTP2
)

func (v Version) String() string {
	switch v {
	case VersionHTTP10:
		return "HTTP/1.0"
	case VersionHTTP11:
		return "HTTP/1.1"
	case VersionHTTP2:
		return "HTTP/2.0"
	default:
		return "HTTP/?"
	}
}

// TargetKind discriminates the four RFC 9112 §3.2 request-target forms.
type TargetKind int

const (
	TargetOrigin TargetKind = iota
	TargetAbsolute
	TargetAuthority
	TargetAsterisk
)

// RequestTarget is the tagged union over the four request-target forms.
type RequestTarget struct {
	Kind  TargetKind
	Path  string // TargetOrigin
	Query string // TargetOrigin
	URI   string // TargetAbsolute
	Host  string // TargetAuthority, "host:port"
}

func OriginTarget(path, query string) RequestTarget {
	return RequestTarget{Kind: TargetOrigin, Path: path, Query: query}
}

func AbsoluteTarget(uri string) RequestTarget { return RequestTarget{Kind: TargetAbsolute, URI: uri} }

func AuthorityTarget(host string) RequestTarget {
	return RequestTarget{Kind: TargetAuthority, Host: host}
}

func AsteriskTarget() RequestTarget { return RequestTarget{Kind: TargetAsterisk} }

func (t RequestTarget) String() string {
	switch t.Kind {
	case TargetOrigin:
		if t.Query == "" {
			return t.Path
		}
		return t.Path + "?" + t.Query
	case TargetAbsolute:
		return t.URI
	case TargetAuthority:
		return t.Host
	case TargetAsterisk:
		return "*"
	default:
		return ""
	}
}

// BodyKind discriminates the Body sum type described in spec §3: a
// lazily-produced or already-materialized payload.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyOwnedBytes
	BodyOwnedString
	BodyStaticString
	BodyCached
	BodyFile
)

// Body is the request/response payload. Only one of the fields
// matching Kind is populated.
type Body struct {
	Kind BodyKind

	Bytes  []byte // BodyOwnedBytes
	Str    string // BodyOwnedString, BodyStaticString
	Coding ContentCoding // BodyCached: which coding Bytes already carries

	File       io.ReadSeekCloser // BodyFile
	FileLength int64
	ModTime    interface {
		Unix() int64
	}
}

func NoBody() Body { return Body{Kind: BodyNone} }

func BytesBody(b []byte) Body { return Body{Kind: BodyOwnedBytes, Bytes: b} }

func StringBody(s string) Body { return Body{Kind: BodyOwnedString, Str: s} }

func StaticStringBody(s string) Body { return Body{Kind: BodyStaticString, Str: s} }

func CachedBody(b []byte, coding ContentCoding) Body {
	return Body{Kind: BodyCached, Bytes: b, Coding: coding}
}

// Len reports the byte length of materialized body kinds, or -1 when
// the length is not known without reading (BodyFile uses FileLength
// instead, which callers must populate from file metadata).
func (b Body) Len() int64 {
	switch b.Kind {
	case BodyNone:
		return 0
	case BodyOwnedBytes, BodyCached:
		return int64(len(b.Bytes))
	case BodyOwnedString, BodyStaticString:
		return int64(len(b.Str))
	case BodyFile:
		return b.FileLength
	default:
		return -1
	}
}

// Request is the message model's request record, produced by the
// HTTP/1.1 framer or the HTTP/2 engine and consumed by the handler.
type Request struct {
	Method  Method
	Target  RequestTarget
	Version Version
	Headers *HeaderMap
	Body    Body
}

// Response is the message model's response record, produced by a
// handler, mutated by the finalizer, and consumed by the writer.
// Prelude holds 1xx responses (e.g. 103 Early Hints) to be transmitted
// before the final response.
type Response struct {
	Status  Status
	Version Version
	Headers *HeaderMap
	Body    Body
	Prelude []Response
}

// WithStatus constructs a bare Response carrying only a status and an
// empty header map, matching the teacher's minimal-response idiom used
// throughout its handler examples.
func WithStatus(s Status) *Response {
	return &Response{Status: s, Headers: NewHeaderMap(4), Body: NoBody()}
}
