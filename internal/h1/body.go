package h1

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/usadson/servente/internal/message"
)

// ReadBody reads a request body according to spec §4.D: Content-Length
// if present and numeric (UTF-8 decoded into a string body when
// Content-Type starts with "text/" and decode succeeds), else chunked
// if Transfer-Encoding is present, else no body.
func ReadBody(r *bufio.Reader, headers *message.HeaderMap) (message.Body, error) {
	if cl, ok := headers.GetFirst(message.NewHeaderName(message.HeaderContentLength)); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl.Serialize()), 10, 64)
		if err != nil || n < 0 {
			return message.Body{}, newParseErr(InvalidContentLength)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return message.Body{}, err
		}
		if isTextContentType(headers) {
			if utf8.Valid(buf) {
				return message.StringBody(string(buf)), nil
			}
		}
		return message.BytesBody(buf), nil
	}

	if headers.Contains(message.NewHeaderName(message.HeaderTransferEncoding)) {
		buf, err := readChunkedBody(r, headers)
		if err != nil {
			return message.Body{}, err
		}
		if isTextContentType(headers) && utf8.Valid(buf) {
			return message.StringBody(string(buf)), nil
		}
		return message.BytesBody(buf), nil
	}

	return message.NoBody(), nil
}

func isTextContentType(headers *message.HeaderMap) bool {
	ct, ok := headers.GetFirst(message.NewHeaderName(message.HeaderContentType))
	if !ok {
		return false
	}
	return strings.HasPrefix(strings.ToLower(ct.Serialize()), "text/")
}

// readChunkedBody decodes a chunked transfer-coded body per RFC 9112
// §7.1: hex-length CRLF, chunk bytes, CRLF, repeated until a zero-size
// chunk, followed by zero or more trailer header lines and a final
// CRLF. Trailer fields (if any) are merged into headers.
func readChunkedBody(r *bufio.Reader, headers *message.HeaderMap) ([]byte, error) {
	var out []byte
	for {
		sizeLine, err := readHeaderLine(r)
		if err != nil {
			return nil, err
		}
		sizeStr, _, _ := strings.Cut(sizeLine, ";") // chunk extensions are ignored
		size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 16, 64)
		if err != nil {
			return nil, newParseErr(InvalidContentLength)
		}
		if size == 0 {
			for {
				trailerLine, err := readHeaderLine(r)
				if err != nil {
					return nil, err
				}
				if trailerLine == "" {
					return out, nil
				}
				name, value, err := parseHeaderLine(trailerLine)
				if err != nil {
					return nil, err
				}
				headers.Append(name, message.StringValue(value))
			}
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if err := expectCRLF(r); err != nil {
			return nil, err
		}
	}
}
