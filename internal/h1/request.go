package h1

import (
	"bufio"
	"errors"
	"io"

	"github.com/usadson/servente/internal/message"
)

// ErrHttp2Upgrade is returned by ReadRequest when the client sent a
// valid "PRI * HTTP/2.0" preface: the caller (the per-connection task)
// must hand its reader/writer to the HTTP/2 engine and stop using this
// package on the connection (spec §4.G).
var ErrHttp2Upgrade = errors.New("h1: connection upgraded to HTTP/2")

// priPrefaceTail is what follows the PRI request's empty header block;
// ReadHeaderBlock has already consumed that empty line's CRLF.
const priPrefaceTail = "SM\r\n\r\n"

// ReadRequest reads one complete HTTP/1.1 request (request-line,
// headers, body) from r. On a PRI upgrade attempt it returns
// ErrHttp2Upgrade instead of a Request.
func ReadRequest(r *bufio.Reader) (*message.Request, error) {
	method, target, version, err := ReadRequestLine(r)
	if err != nil {
		return nil, err
	}

	if method.IsPriUpgrade() && target.Kind == message.TargetAsterisk && version == message.VersionHTTP2 {
		headers, err := ReadHeaderBlock(r)
		if err != nil {
			return nil, err
		}
		if headers.Len() == 0 {
			tail := make([]byte, len(priPrefaceTail))
			if _, err := io.ReadFull(r, tail); err != nil {
				return nil, err
			}
			if string(tail) != priPrefaceTail {
				return nil, newParseErr(InvalidHttp2PriUpgradeBody)
			}
			return nil, ErrHttp2Upgrade
		}
		// A non-empty header block on a PRI request is not the
		// upgrade preface; it is assembled and returned as an
		// ordinary request rather than silently upgrading.
		return assembleRequest(r, method, target, version, headers)
	}

	headers, err := ReadHeaderBlock(r)
	if err != nil {
		return nil, err
	}
	return assembleRequest(r, method, target, version, headers)
}

func assembleRequest(r *bufio.Reader, method message.Method, target message.RequestTarget, version message.Version, headers *message.HeaderMap) (*message.Request, error) {
	body, err := ReadBody(r, headers)
	if err != nil {
		return nil, err
	}
	return &message.Request{
		Method:  method,
		Target:  target,
		Version: version,
		Headers: headers,
		Body:    body,
	}, nil
}
