package h1

import (
	"bufio"
	"io"

	"github.com/usadson/servente/internal/message"
)

// TransferStrategy picks how a response body is framed on the wire.
type TransferStrategy int

const (
	// TransferFull writes a Content-Length header and the whole body.
	TransferFull TransferStrategy = iota
	// TransferChunked writes Transfer-Encoding: chunked and streams the
	// body as chunks; used when the body length is not known up front
	// (BodyFile without FileLength, or a streaming handler).
	TransferChunked
	// TransferRange writes a single Content-Range and streams only the
	// requested byte span (spec §9: multi-range is not implemented, so
	// this strategy only ever carries one range).
	TransferRange
)

// chooseStrategy implements spec §4.D's transfer-strategy selection:
// a satisfiable byte range takes precedence, then a known body length
// is sent in full, and only an unknown-length streamed body falls back
// to chunked framing.
func chooseStrategy(resp *message.Response, rng *message.ByteRange) TransferStrategy {
	if rng != nil && rng.Satisfiable {
		return TransferRange
	}
	if resp.Body.Kind == message.BodyFile && resp.Body.FileLength < 0 {
		return TransferChunked
	}
	return TransferFull
}

// WriteResponse serializes resp (status line, headers, CRLF, body) to
// w using the transfer strategy chosen from resp and an optional
// previously-validated byte range. Any 1xx responses in resp.Prelude
// are written first, each as its own message (status line, its
// headers, then CRLF) per RFC 9110 §15.2.
func WriteResponse(w *bufio.Writer, resp *message.Response, rng *message.ByteRange) error {
	for i := range resp.Prelude {
		if err := writeStatusAndHeaders(w, &resp.Prelude[i]); err != nil {
			return err
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}

	strategy := chooseStrategy(resp, rng)

	switch strategy {
	case TransferRange:
		resp.Headers.AppendOrOverride(message.NewHeaderName(message.HeaderContentRange), message.ByteRangeValue(*rng))
		resp.Headers.AppendOrOverride(message.NewHeaderName(message.HeaderContentLength), message.SizeValue(rng.Length()))
	case TransferFull:
		resp.Headers.AppendOrOverride(message.NewHeaderName(message.HeaderContentLength), message.SizeValue(resp.Body.Len()))
	case TransferChunked:
		resp.Headers.AppendOrOverride(message.NewHeaderName(message.HeaderTransferEncoding), message.StringValue("chunked"))
	}

	if err := writeStatusAndHeaders(w, resp); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}

	switch strategy {
	case TransferChunked:
		return writeChunkedBody(w, resp.Body)
	case TransferRange:
		return writeRangeBody(w, resp.Body, *rng)
	default:
		return writeFullBody(w, resp.Body)
	}
}

func writeStatusAndHeaders(w *bufio.Writer, resp *message.Response) error {
	if _, err := w.WriteString(resp.Version.String()); err != nil {
		return err
	}
	if _, err := w.WriteString(" "); err != nil {
		return err
	}
	if _, err := w.WriteString(resp.Status.String()); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	var writeErr error
	resp.Headers.Each(func(name message.HeaderName, value message.HeaderValue) bool {
		if _, err := w.WriteString(name.ToStringH1()); err != nil {
			writeErr = err
			return false
		}
		if _, err := w.WriteString(": "); err != nil {
			writeErr = err
			return false
		}
		if _, err := w.WriteString(value.Serialize()); err != nil {
			writeErr = err
			return false
		}
		_, writeErr = w.WriteString("\r\n")
		return writeErr == nil
	})
	return writeErr
}

func writeFullBody(w *bufio.Writer, body message.Body) error {
	switch body.Kind {
	case message.BodyNone:
		return nil
	case message.BodyOwnedBytes, message.BodyCached:
		_, err := w.Write(body.Bytes)
		return err
	case message.BodyOwnedString, message.BodyStaticString:
		_, err := w.WriteString(body.Str)
		return err
	case message.BodyFile:
		_, err := io.Copy(w, body.File)
		return err
	default:
		return nil
	}
}

func writeRangeBody(w *bufio.Writer, body message.Body, rng message.ByteRange) error {
	if body.Kind == message.BodyFile {
		if _, err := body.File.Seek(rng.Start, io.SeekStart); err != nil {
			return err
		}
		_, err := io.CopyN(w, body.File, rng.Length())
		return err
	}
	data := bodyBytes(body)
	if rng.Start < 0 || rng.Start+rng.Length() > int64(len(data)) {
		return nil
	}
	_, err := w.Write(data[rng.Start : rng.Start+rng.Length()])
	return err
}

func bodyBytes(body message.Body) []byte {
	switch body.Kind {
	case message.BodyOwnedBytes, message.BodyCached:
		return body.Bytes
	case message.BodyOwnedString, message.BodyStaticString:
		return []byte(body.Str)
	default:
		return nil
	}
}

// writeChunkedBody frames body as chunked-transfer-coded data per RFC
// 9112 §7.1, one chunk per logical write (a single chunk for the
// in-memory body kinds, streamed fixed-size chunks for BodyFile).
func writeChunkedBody(w *bufio.Writer, body message.Body) error {
	const streamChunkSize = 32 * 1024

	writeChunk := func(p []byte) error {
		if len(p) == 0 {
			return nil
		}
		if _, err := w.WriteString(hexLen(len(p))); err != nil {
			return err
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
		if _, err := w.Write(p); err != nil {
			return err
		}
		_, err := w.WriteString("\r\n")
		return err
	}

	switch body.Kind {
	case message.BodyNone:
	case message.BodyOwnedBytes, message.BodyCached:
		if err := writeChunk(body.Bytes); err != nil {
			return err
		}
	case message.BodyOwnedString, message.BodyStaticString:
		if err := writeChunk([]byte(body.Str)); err != nil {
			return err
		}
	case message.BodyFile:
		buf := make([]byte, streamChunkSize)
		for {
			n, err := body.File.Read(buf)
			if n > 0 {
				if werr := writeChunk(buf[:n]); werr != nil {
					return werr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
	}

	_, err := w.WriteString("0\r\n\r\n")
	return err
}

const hexDigits = "0123456789abcdef"

func hexLen(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = hexDigits[n&0xf]
		n >>= 4
	}
	return string(buf[i:])
}
