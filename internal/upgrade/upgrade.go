// Package upgrade bridges a freshly-accepted connection to either the
// HTTP/1.1 framer or the HTTP/2 engine, detecting the PRI preface the
// same way the teacher's ConfigureServer hands a TLS-negotiated ALPN
// connection off to handleConn — except here the decision is made
// from the plaintext byte stream itself (spec §4.G), since TLS
// termination and ALPN selection are out of this module's scope.
package upgrade

import (
	"bufio"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/usadson/servente/internal/finalize"
	"github.com/usadson/servente/internal/h1"
	"github.com/usadson/servente/internal/h2"
	"github.com/usadson/servente/internal/handler"
	"github.com/usadson/servente/internal/message"
)

// Serve owns one accepted connection for its whole lifetime: it reads
// the first request with the HTTP/1.1 framer, and if that request
// turns out to be an HTTP/2 PRI preface, hands the connection off to
// the HTTP/2 engine instead of ever touching it with h1 again.
func Serve(nc net.Conn, h handler.Handler, log *zap.Logger, headerTimeout, bodyTimeout time.Duration) {
	ServeWithOptions(nc, h, log, headerTimeout, bodyTimeout, true)
}

// ServeWithOptions is Serve with explicit control over whether a PRI
// preface is honored; enableHTTP2 false keeps every connection on the
// HTTP/1.1 framer, matching servconf.Config.EnableHTTP2 = false.
func ServeWithOptions(nc net.Conn, h handler.Handler, log *zap.Logger, headerTimeout, bodyTimeout time.Duration, enableHTTP2 bool) {
	defer nc.Close()

	r := bufio.NewReader(nc)
	w := bufio.NewWriter(nc)

	for {
		nc.SetReadDeadline(time.Now().Add(headerTimeout))
		req, err := h1.ReadRequest(r)
		if errors.Is(err, h1.ErrHttp2Upgrade) {
			if !enableHTTP2 {
				writeParseError(w, errors.New("HTTP/2 is disabled on this server"))
				return
			}
			nc.SetReadDeadline(time.Time{})
			conn := h2.NewConn(bufferedConn{Conn: nc, r: r}, h2.Handler(h), log)
			if err := conn.Serve(); err != nil {
				log.Debug("h2 connection ended", zap.Error(err))
			}
			return
		}
		if err != nil {
			writeParseError(w, err)
			return
		}
		nc.SetReadDeadline(time.Now().Add(bodyTimeout))

		resp := h(req)
		if resp == nil {
			resp = message.WithStatus(message.StatusInternalServerError)
		}
		resp.Version = message.VersionHTTP11
		resp = finalize.Finalize(req, resp)

		var rng *message.ByteRange
		if rangeHeader, ok := req.Headers.GetFirst(message.NewHeaderName(message.HeaderRange)); ok && resp.Status == message.StatusOK {
			if parsed, ok := message.ParseFirstRange(rangeHeader.Serialize(), resp.Body.Len()); ok {
				rng = &parsed
				if parsed.Satisfiable {
					resp.Status = message.StatusPartialContent
				} else {
					resp.Status = message.StatusRangeNotSatisfiable
				}
			}
		}

		if err := h1.WriteResponse(w, resp, rng); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		if wantsClose(req) {
			return
		}
	}
}

// bufferedConn reads through the HTTP/1.1 framer's reader, so bytes it
// has already buffered past the PRI preface reach the HTTP/2 engine.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

func wantsClose(req *message.Request) bool {
	if req.Version == message.VersionHTTP10 {
		return true
	}
	if conn, ok := req.Headers.GetFirst(message.NewHeaderName(message.HeaderConnection)); ok {
		return conn.Serialize() == "close"
	}
	return false
}

func writeParseError(w *bufio.Writer, err error) {
	resp := message.WithStatus(message.StatusBadRequest)
	resp.Version = message.VersionHTTP11
	resp.Headers.Append(message.NewHeaderName(message.HeaderConnection), message.StringValue("close"))
	resp.Headers.Append(message.NewHeaderName(message.HeaderContentType), message.MediaTypeValue(message.MediaType{Type: "text", Subtype: "html", Charset: "utf-8"}))
	resp.Body = message.StringBody(h1.BadRequestBody(err))
	h1.WriteResponse(w, resp, nil)
	w.Flush()
}
