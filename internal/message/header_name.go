package message

import "strings"

// HeaderName is a tagged union over the well-known HTTP field names
// plus an Other(lowercase-string) escape hatch. Parsing is always
// case-insensitive; the canonical form is retained internally so that
// HTTP/1.1 emission can use mixed case (Content-Type) while HTTP/2
// emission uses all-lowercase (RFC 9113 §8.2).
type HeaderName struct {
	known headerKind
	other string // lowercase, only set when known == headerOther
}

type headerKind uint16

const (
	headerOther headerKind = iota
	HeaderAccept
	HeaderAcceptCharset
	HeaderAcceptEncoding
	HeaderAcceptLanguage
	HeaderAcceptRanges
	HeaderAccessControlAllowOrigin
	HeaderAge
	HeaderAllow
	HeaderAuthorization
	HeaderCacheControl
	HeaderConnection
	HeaderContentDisposition
	HeaderContentEncoding
	HeaderContentLanguage
	HeaderContentLength
	HeaderContentLocation
	HeaderContentRange
	HeaderContentType
	HeaderCookie
	HeaderDate
	HeaderETag
	HeaderExpect
	HeaderExpires
	HeaderFrom
	HeaderHost
	HeaderIfMatch
	HeaderIfModifiedSince
	HeaderIfNoneMatch
	HeaderIfRange
	HeaderIfUnmodifiedSince
	HeaderKeepAlive
	HeaderLastModified
	HeaderLink
	HeaderLocation
	HeaderMaxForwards
	HeaderProxyAuthenticate
	HeaderProxyAuthorization
	HeaderProxyConnection
	HeaderRange
	HeaderReferer
	HeaderRefresh
	HeaderRetryAfter
	HeaderServer
	HeaderSetCookie
	HeaderStrictTransportSecurity
	HeaderTE
	HeaderTrailer
	HeaderTransferEncoding
	HeaderUpgrade
	HeaderUserAgent
	HeaderVary
	HeaderVia
	HeaderWWWAuthenticate
	HeaderXFrameOptions
	HeaderXContentTypeOptions
	HeaderXXSSProtection
	HeaderAltSvc
)

// canonical is the mixed-case HTTP/1.1 wire form, e.g. "Content-Type".
var canonical = map[headerKind]string{
	HeaderAccept:                   "Accept",
	HeaderAcceptCharset:            "Accept-Charset",
	HeaderAcceptEncoding:           "Accept-Encoding",
	HeaderAcceptLanguage:           "Accept-Language",
	HeaderAcceptRanges:             "Accept-Ranges",
	HeaderAccessControlAllowOrigin: "Access-Control-Allow-Origin",
	HeaderAge:                      "Age",
	HeaderAllow:                    "Allow",
	HeaderAuthorization:            "Authorization",
	HeaderCacheControl:             "Cache-Control",
	HeaderConnection:               "Connection",
	HeaderContentDisposition:       "Content-Disposition",
	HeaderContentEncoding:          "Content-Encoding",
	HeaderContentLanguage:          "Content-Language",
	HeaderContentLength:            "Content-Length",
	HeaderContentLocation:          "Content-Location",
	HeaderContentRange:             "Content-Range",
	HeaderContentType:              "Content-Type",
	HeaderCookie:                   "Cookie",
	HeaderDate:                     "Date",
	HeaderETag:                     "ETag",
	HeaderExpect:                   "Expect",
	HeaderExpires:                  "Expires",
	HeaderFrom:                     "From",
	HeaderHost:                     "Host",
	HeaderIfMatch:                  "If-Match",
	HeaderIfModifiedSince:          "If-Modified-Since",
	HeaderIfNoneMatch:              "If-None-Match",
	HeaderIfRange:                  "If-Range",
	HeaderIfUnmodifiedSince:        "If-Unmodified-Since",
	HeaderKeepAlive:                "Keep-Alive",
	HeaderLastModified:             "Last-Modified",
	HeaderLink:                     "Link",
	HeaderLocation:                 "Location",
	HeaderMaxForwards:              "Max-Forwards",
	HeaderProxyAuthenticate:        "Proxy-Authenticate",
	HeaderProxyAuthorization:       "Proxy-Authorization",
	HeaderProxyConnection:          "Proxy-Connection",
	HeaderRange:                    "Range",
	HeaderReferer:                  "Referer",
	HeaderRefresh:                  "Refresh",
	HeaderRetryAfter:               "Retry-After",
	HeaderServer:                   "Server",
	HeaderSetCookie:                "Set-Cookie",
	HeaderStrictTransportSecurity:  "Strict-Transport-Security",
	HeaderTE:                       "TE",
	HeaderTrailer:                  "Trailer",
	HeaderTransferEncoding:         "Transfer-Encoding",
	HeaderUpgrade:                  "Upgrade",
	HeaderUserAgent:                "User-Agent",
	HeaderVary:                     "Vary",
	HeaderVia:                      "Via",
	HeaderWWWAuthenticate:          "WWW-Authenticate",
	HeaderXFrameOptions:            "X-Frame-Options",
	HeaderXContentTypeOptions:      "X-Content-Type-Options",
	HeaderXXSSProtection:           "X-XSS-Protection",
	HeaderAltSvc:                   "Alt-Svc",
}

var byLowercase = func() map[string]headerKind {
	m := make(map[string]headerKind, len(canonical))
	for k, v := range canonical {
		m[strings.ToLower(v)] = k
	}
	return m
}()

// ParseHeaderName interprets name case-insensitively, returning the
// matching well-known HeaderName or Other(lowercase).
func ParseHeaderName(name string) HeaderName {
	lower := strings.ToLower(name)
	if kind, ok := byLowercase[lower]; ok {
		return HeaderName{known: kind}
	}
	return HeaderName{known: headerOther, other: lower}
}

func NewHeaderName(kind headerKind) HeaderName { return HeaderName{known: kind} }

// ToStringH1 renders the canonical mixed-case HTTP/1.1 wire form.
func (h HeaderName) ToStringH1() string {
	if h.known == headerOther {
		return mixedCaseFromLower(h.other)
	}
	return canonical[h.known]
}

// ToStringLowercase renders the all-lowercase HTTP/2 wire form.
func (h HeaderName) ToStringLowercase() string {
	if h.known == headerOther {
		return h.other
	}
	return strings.ToLower(canonical[h.known])
}

// mixedCaseFromLower title-cases each hyphen-delimited segment, e.g.
// "x-custom-thing" -> "X-Custom-Thing", matching the convention the
// well-known table otherwise follows for unrecognized extension
// headers.
func mixedCaseFromLower(lower string) string {
	parts := strings.Split(lower, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// Equal compares two header names case-insensitively (they are always
// stored in canonical form, so this is a plain equality check).
func (h HeaderName) Equal(other HeaderName) bool {
	return h.ToStringLowercase() == other.ToStringLowercase()
}

// HeaderClass identifies connection-specific and CGI-extension fields.
type HeaderClass int

const (
	ClassRegular HeaderClass = iota
	ClassConnectionSpecific
	ClassCGIExtension
)

// Class implements the §3 "class()" predicate: connection-specific
// fields must never cross a hop (and must never appear in HTTP/2
// header blocks, RFC 9113 §8.2.2); x-cgi-* fields are internal to the
// CGI collaborator and must not be forwarded to clients.
func (h HeaderName) Class() HeaderClass {
	switch h.known {
	case HeaderConnection, HeaderKeepAlive, HeaderTE, HeaderTransferEncoding, HeaderUpgrade:
		return ClassConnectionSpecific
	}
	if h.known == headerOther && strings.HasPrefix(h.other, "x-cgi-") {
		return ClassCGIExtension
	}
	return ClassRegular
}

func (h HeaderName) IsConnectionSpecific() bool { return h.Class() == ClassConnectionSpecific }
