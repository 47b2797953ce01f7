// Package finalize implements the response-finalization pipeline
// shared by the HTTP/1.1 and HTTP/2 front ends: default security
// headers, conditional-request short-circuiting, content-coding
// negotiation, and 103 Early Hints preludes (spec §4.F).
//
// Grounded on the teacher's minimal-response idiom (message.WithStatus
// and direct header-map mutation) generalized into a pipeline of
// discrete steps, with samber/lo (used elsewhere in the pack by
// aws-karpenter-provider-aws) supplying the default-header ternary, and
// actual compression performed by andybalholm/brotli and
// klauspost/compress/gzip (grounded on shiroyk-ski-ext's content-coding
// stack).
package finalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/samber/lo"

	"github.com/usadson/servente/internal/message"
)

// ServerName is the Server response header value this instance emits.
const ServerName = "servente"

// Finalize runs the full pipeline over resp, given the originating
// req: default headers, conditional-request evaluation (may downgrade
// resp to 304 Not Modified in place), and content-coding negotiation
// (may recompress resp.Body). It returns the response that should
// actually be transmitted — ordinarily resp itself, but a fresh 304
// response when a conditional request matches.
func Finalize(req *message.Request, resp *message.Response) *message.Response {
	applyDefaultHeaders(resp)

	if conditional := evaluateConditional(req, resp); conditional != nil {
		return conditional
	}

	negotiateContentCoding(req, resp)
	return resp
}

// applyDefaultHeaders sets the headers every response carries unless a
// handler already set them: Server, Date, and the fixed security
// headers spec §4.F names (X-Frame-Options, X-Content-Type-Options,
// X-XSS-Protection).
func applyDefaultHeaders(resp *message.Response) {
	h := resp.Headers
	if !h.Contains(message.NewHeaderName(message.HeaderServer)) {
		h.Append(message.NewHeaderName(message.HeaderServer), message.StringValue(ServerName))
	}
	if !h.Contains(message.NewHeaderName(message.HeaderDate)) {
		h.Append(message.NewHeaderName(message.HeaderDate), message.TimestampValue(time.Now()))
	}
	if !h.Contains(message.NewHeaderName(message.HeaderXFrameOptions)) {
		h.Append(message.NewHeaderName(message.HeaderXFrameOptions), message.StringValue("DENY"))
	}
	if !h.Contains(message.NewHeaderName(message.HeaderXContentTypeOptions)) {
		h.Append(message.NewHeaderName(message.HeaderXContentTypeOptions), message.StringValue("nosniff"))
	}
	if !h.Contains(message.NewHeaderName(message.HeaderXXSSProtection)) {
		h.Append(message.NewHeaderName(message.HeaderXXSSProtection), message.StringValue("1; mode=block"))
	}
	if !h.Contains(message.NewHeaderName(message.HeaderConnection)) {
		conn := lo.Ternary(resp.Status.IsError(), "close", "keep-alive")
		h.Append(message.NewHeaderName(message.HeaderConnection), message.StringValue(conn))
	}
}

// evaluateConditional implements RFC 9110 §13: a matching If-None-Match
// (weak comparison against resp's ETag) or, failing that, a matching
// If-Modified-Since (second-granularity comparison against resp's
// Last-Modified) downgrades the response to 304 Not Modified with no
// body, carrying over only the headers RFC 9110 §13.1.1 permits on a
// 304 (ETag, Last-Modified, Cache-Control, Expires, Vary).
func evaluateConditional(req *message.Request, resp *message.Response) *message.Response {
	if !resp.Status.IsSuccess() {
		return nil
	}

	etag, hasETag := resp.Headers.GetFirst(message.NewHeaderName(message.HeaderETag))
	lastMod, hasLastMod := resp.Headers.GetFirst(message.NewHeaderName(message.HeaderLastModified))

	if inm, ok := req.Headers.GetFirst(message.NewHeaderName(message.HeaderIfNoneMatch)); ok {
		if !hasETag || !weakETagMatches(inm.Serialize(), etag.Serialize()) {
			return nil
		}
	} else if ims, ok := req.Headers.GetFirst(message.NewHeaderName(message.HeaderIfModifiedSince)); ok {
		if !hasLastMod {
			return nil
		}
		since, err := time.Parse("Mon, 02 Jan 2006 15:04:05 GMT", strings.TrimSpace(ims.Serialize()))
		if err != nil {
			return nil
		}
		modTime, _ := lastMod.AsTimestamp()
		if modTime.Truncate(time.Second).After(since) {
			return nil
		}
	} else {
		return nil
	}

	notModified := message.WithStatus(message.StatusNotModified)
	notModified.Version = resp.Version
	for _, name := range []message.HeaderName{
		message.NewHeaderName(message.HeaderETag),
		message.NewHeaderName(message.HeaderLastModified),
		message.NewHeaderName(message.HeaderCacheControl),
		message.NewHeaderName(message.HeaderExpires),
		message.NewHeaderName(message.HeaderVary),
	} {
		if v, ok := resp.Headers.GetFirst(name); ok {
			notModified.Headers.Append(name, v)
		}
	}
	return notModified
}

// weakETagMatches implements the weak-comparison algorithm RFC 9110
// §8.8.3.2 requires for If-None-Match: a "W/" prefix is stripped from
// both sides before comparing, and "*" always matches.
func weakETagMatches(ifNoneMatch, etag string) bool {
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	normalize := func(s string) string {
		s = strings.TrimSpace(s)
		return strings.TrimPrefix(s, "W/")
	}
	target := normalize(etag)
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if normalize(candidate) == target {
			return true
		}
	}
	return false
}

// negotiateContentCoding picks the coding with the smallest body the
// client will accept from Accept-Encoding and recompresses a cacheable
// body kind in place, setting Content-Encoding and clearing
// Content-Length so the writer recomputes it from the new body.
// Identity is chosen (and the body left untouched) whenever nothing
// shrinks it, grounded on original_source/servente's
// determine_best_version_from_accept_encoding/determine_smallest_file_size.
func negotiateContentCoding(req *message.Request, resp *message.Response) {
	if resp.Body.Kind != message.BodyOwnedBytes && resp.Body.Kind != message.BodyOwnedString {
		return
	}
	ae, ok := req.Headers.GetFirst(message.NewHeaderName(message.HeaderAcceptEncoding))
	if !ok {
		return
	}

	raw := bodyToBytes(resp.Body)
	brotliBody, err := compress(raw, message.CodingBrotli)
	if err != nil {
		brotliBody = nil
	}
	gzipBody, err := compress(raw, message.CodingGzip)
	if err != nil {
		gzipBody = nil
	}

	best, body := pickBestCoding(ae.Serialize(), len(raw), brotliBody, gzipBody)
	if best == message.CodingIdentity {
		return
	}
	resp.Body = message.CachedBody(body, best)
	resp.Headers.AppendOrOverride(message.NewHeaderName(message.HeaderContentEncoding), message.ContentCodingValue(best))
	resp.Headers.RemoveAllByName(message.NewHeaderName(message.HeaderContentLength))
}

// pickBestCoding ports determine_best_version_from_accept_encoding: it
// weighs the br and gzip tokens (falling back to the '*' wildcard's
// weight, RFC 9110 §12.5.3, for whichever of the two is unlisted) and
// only consults actual candidate sizes — via smallestCoding — when the
// client leaves brotli and gzip at the same weight, or names neither
// and only the wildcard applies.
func pickBestCoding(header string, rawLen int, brotliBody, gzipBody []byte) (message.ContentCoding, []byte) {
	hasBrotli := brotliBody != nil
	hasGzip := gzipBody != nil
	if !hasBrotli && !hasGzip {
		return message.CodingIdentity, nil
	}

	allQuality := 1.0
	sawWildcard := false
	var brotliQuality, gzipQuality *float64
	for _, part := range strings.Split(header, ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		token = strings.TrimSpace(token)
		weight := 1.0
		if q, found := strings.CutPrefix(strings.TrimSpace(params), "q="); found {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(q), 64); err == nil {
				weight = parsed
			}
		}
		switch token {
		case "*":
			allQuality = weight
			sawWildcard = true
		case "br":
			w := 0.0
			if hasBrotli {
				w = weight
			}
			brotliQuality = &w
		case "gzip":
			w := 0.0
			if hasGzip {
				w = weight
			}
			gzipQuality = &w
		}
	}

	// When only one of br/gzip is listed, the other takes the weight of
	// a listed '*'; without a '*' it stays unacceptable.
	if sawWildcard && brotliQuality != nil && gzipQuality == nil && hasGzip {
		gzipQuality = &allQuality
	} else if sawWildcard && gzipQuality != nil && brotliQuality == nil && hasBrotli {
		brotliQuality = &allQuality
	}

	smallest := func() (message.ContentCoding, []byte) {
		return smallestCoding(rawLen, brotliBody, gzipBody)
	}

	if brotliQuality == nil && gzipQuality == nil {
		if allQuality > 0 {
			return smallest()
		}
		return message.CodingIdentity, nil
	}

	if brotliQuality != nil && gzipQuality != nil {
		switch {
		case *gzipQuality == *brotliQuality:
			if *gzipQuality <= 0 {
				// both explicitly disallowed (RFC 9110 §12.5.3 q=0):
				// unlike the ported original, a tie at zero must not
				// fall through to a size comparison.
				return message.CodingIdentity, nil
			}
			return smallest()
		case *gzipQuality > *brotliQuality:
			if hasGzip && *gzipQuality > 0 {
				return message.CodingGzip, gzipBody
			}
			if hasBrotli && *brotliQuality > 0 {
				return message.CodingBrotli, brotliBody
			}
			return message.CodingIdentity, nil
		default:
			if hasBrotli && *brotliQuality > 0 {
				return message.CodingBrotli, brotliBody
			}
			if hasGzip && *gzipQuality > 0 {
				return message.CodingGzip, gzipBody
			}
			return message.CodingIdentity, nil
		}
	}

	if brotliQuality != nil {
		if hasBrotli && *brotliQuality > 0 {
			return message.CodingBrotli, brotliBody
		}
		return message.CodingIdentity, nil
	}

	if hasGzip && *gzipQuality > 0 {
		return message.CodingGzip, gzipBody
	}
	return message.CodingIdentity, nil
}

// smallestCoding ports determine_smallest_file_size: among the
// candidates that actually exist, it returns whichever shrinks rawLen
// the most, preferring brotli on a tie, and identity (nil) when
// neither candidate beats the uncompressed size.
func smallestCoding(rawLen int, brotliBody, gzipBody []byte) (message.ContentCoding, []byte) {
	switch {
	case brotliBody == nil && gzipBody == nil:
		return message.CodingIdentity, nil
	case brotliBody == nil:
		if len(gzipBody) < rawLen {
			return message.CodingGzip, gzipBody
		}
		return message.CodingIdentity, nil
	case gzipBody == nil:
		if len(brotliBody) < rawLen {
			return message.CodingBrotli, brotliBody
		}
		return message.CodingIdentity, nil
	}

	if len(gzipBody) < rawLen {
		if len(brotliBody) <= len(gzipBody) {
			return message.CodingBrotli, brotliBody
		}
		return message.CodingGzip, gzipBody
	}
	if len(brotliBody) < rawLen {
		return message.CodingBrotli, brotliBody
	}
	return message.CodingIdentity, nil
}

func bodyToBytes(body message.Body) []byte {
	switch body.Kind {
	case message.BodyOwnedBytes:
		return body.Bytes
	case message.BodyOwnedString:
		return []byte(body.Str)
	default:
		return nil
	}
}

func compress(data []byte, coding message.ContentCoding) ([]byte, error) {
	switch coding {
	case message.CodingBrotli:
		var buf strings.Builder
		w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return []byte(buf.String()), nil
	case message.CodingGzip:
		var buf strings.Builder
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return []byte(buf.String()), nil
	default:
		return data, nil
	}
}

// EarlyHints builds a 103 Early Hints prelude response carrying only
// Link headers, to be attached to resp.Prelude before the final
// response is written (spec §4.F).
func EarlyHints(links []string) message.Response {
	h := message.NewHeaderMap(len(links))
	for _, link := range links {
		h.Append(message.NewHeaderName(message.HeaderLink), message.StringValue(link))
	}
	return message.Response{Status: message.StatusEarlyHints, Headers: h, Body: message.NoBody()}
}
