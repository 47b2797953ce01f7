package h2

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/usadson/servente/internal/finalize"
	"github.com/usadson/servente/internal/handler"
	"github.com/usadson/servente/internal/hpack"
	"github.com/usadson/servente/internal/message"
)

// Handler answers one HTTP/2 request. The connection task spawns one
// goroutine per stream to call it, exactly like the teacher's
// goroutine-per-request runHandler.
type Handler = handler.Handler

// pingInterval is how long the connection may sit idle before this
// server proactively probes it with a PING, and maxUnackedPings is the
// number of consecutive un-acked probes tolerated before the
// connection is presumed dead (spec's SUPPLEMENTED FEATURES decision
// on v2.rs's keepalive counter, which resets only on a matching ACK).
const (
	pingInterval      = 3 * time.Second
	maxUnackedPings   = 2
)

var pingPayload = [8]byte{'s', 'e', 'r', 'v', 'e', 'n', 't', 'e'}

// frameAndDone pairs a read frame with the channel the reader loop
// blocks on until the serve loop has finished with it, exactly
// mirroring the teacher's frameAndProcessed rendezvous: the Conn only
// ever has one frame's payload buffer alive at a time.
type frameAndDone struct {
	frame Frame
	done  chan struct{}
}

// writeReq is a unit of work handed from a stream's handler goroutine
// to the connection's sole writer.
type writeReq struct {
	streamID  uint32
	response  *message.Response
	rng       *message.ByteRange
	done      chan struct{}
}

// Conn is one HTTP/2 connection's protocol engine. Exactly one
// goroutine (Serve) ever touches the frame reader, the frame writer,
// and the fields below not explicitly marked otherwise — the same
// single-writer discipline as the teacher's serverConn.serve loop.
type Conn struct {
	nc      net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	handler Handler
	log     *zap.Logger

	settings connSettings

	hpackDecoder *hpack.Decoder
	hpackEncoder *hpack.Encoder

	maxStreamID uint32
	streams     map[uint32]*stream
	connFlow    *flowWindow

	readFrameCh    chan frameAndDone
	readErrCh      chan error
	writeCh        chan writeReq
	windowUpdateCh chan windowUpdateReq

	sentGoAway bool

	// accumulating state for the HEADERS(+CONTINUATION...) currently
	// being assembled; non-nil stream id while a block is in flight.
	headerBlockStreamID uint32
	headerBlockBuf      []byte
	headerBlockEnd      bool // END_STREAM seen on the HEADERS frame
}

type windowUpdateReq struct {
	streamID uint32
	n        uint32
}

// NewConn constructs a connection engine ready to Serve. It writes
// nothing to the wire: Serve performs the SETTINGS handshake, so
// callers never send their own SETTINGS.
func NewConn(nc net.Conn, handler Handler, log *zap.Logger) *Conn {
	return &Conn{
		nc:             nc,
		r:              bufio.NewReaderSize(nc, 64*1024),
		w:              bufio.NewWriterSize(nc, 64*1024),
		handler:        handler,
		log:            log,
		settings:       newConnSettings(),
		hpackDecoder:   hpack.NewDecoder(4096),
		hpackEncoder:   hpack.NewEncoder(),
		streams:        make(map[uint32]*stream),
		connFlow:       newFlowWindow(1 << 31 - 1),
		readFrameCh:    make(chan frameAndDone),
		readErrCh:      make(chan error, 1),
		writeCh:        make(chan writeReq),
		windowUpdateCh: make(chan windowUpdateReq, 8),
	}
}

// Serve runs the connection to completion, performing the handshake
// (server SETTINGS, then the client's initial SETTINGS, then the ACK
// of the client's SETTINGS) before
// entering the select-loop that is this connection's sole reader of
// readFrameCh/writeCh/windowUpdateCh and sole writer of w.
func (c *Conn) Serve() error {
	defer c.nc.Close()

	if err := WriteFrame(c.w, FrameSettings, 0, 0, EncodeSettings(serverSettings())); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	f, err := ReadFrame(c.r, defaultMaxFrameSize)
	if err != nil {
		return err
	}
	if f.Header.Type != FrameSettings || f.Header.HasFlag(FlagSettingsAck) {
		return ConnectionError{Code: ErrCodeProtocol}
	}
	if err := c.applySettingsFrame(f); err != nil {
		return err
	}
	if err := WriteFrame(c.w, FrameSettings, FlagSettingsAck, 0, nil); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	go c.readFrames()

	unackedPings := 0
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if unackedPings >= maxUnackedPings {
				c.goAway(ErrCodeNoError)
				return fmt.Errorf("h2: peer unresponsive to PING keepalive")
			}
			if err := WriteFrame(c.w, FramePing, 0, 0, pingPayload[:]); err != nil {
				return err
			}
			if err := c.w.Flush(); err != nil {
				return err
			}
			unackedPings++

		case wr := <-c.writeCh:
			if err := c.writeResponse(wr); err != nil {
				return err
			}

		case wu := <-c.windowUpdateCh:
			if err := c.sendWindowUpdate(wu); err != nil {
				return err
			}

		case fd, ok := <-c.readFrameCh:
			if !ok {
				err := <-c.readErrCh
				if err == io.EOF {
					return nil
				}
				return err
			}
			ticker.Reset(pingInterval)
			if fd.frame.Header.Type == FramePing && fd.frame.Header.HasFlag(FlagPingAck) &&
				string(fd.frame.Payload) == string(pingPayload[:]) {
				unackedPings = 0
			}
			procErr := c.processFrame(fd.frame)
			close(fd.done)
			switch e := procErr.(type) {
			case nil:
			case StreamError:
				if err := c.resetStream(e); err != nil {
					return err
				}
			case ConnectionError:
				c.goAway(e.Code)
				return e
			case goAwayFlowError:
				c.goAway(ErrCodeFlowControl)
				return procErr
			default:
				return procErr
			}
		}
	}
}

func (c *Conn) readFrames() {
	for {
		f, err := ReadFrame(c.r, defaultMaxFrameSize)
		if err != nil {
			close(c.readFrameCh)
			c.readErrCh <- err
			return
		}
		done := make(chan struct{})
		c.readFrameCh <- frameAndDone{frame: f, done: done}
		<-done
	}
}

func (c *Conn) applySettingsFrame(f Frame) error {
	settings, err := ParseSettings(f.Payload)
	if err != nil {
		return err
	}
	for _, s := range settings {
		if err := c.settings.apply(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) goAway(code ErrCode) {
	if c.sentGoAway {
		return
	}
	c.sentGoAway = true
	payload := make([]byte, 8)
	payload[0] = byte(c.maxStreamID >> 24)
	payload[1] = byte(c.maxStreamID >> 16)
	payload[2] = byte(c.maxStreamID >> 8)
	payload[3] = byte(c.maxStreamID)
	payload[4] = byte(code >> 24)
	payload[5] = byte(code >> 16)
	payload[6] = byte(code >> 8)
	payload[7] = byte(code)
	WriteFrame(c.w, FrameGoAway, 0, 0, payload)
	c.w.Flush()
}

func (c *Conn) resetStream(se StreamError) error {
	payload := []byte{byte(se.Code >> 24), byte(se.Code >> 16), byte(se.Code >> 8), byte(se.Code)}
	if err := WriteFrame(c.w, FrameRSTStream, 0, se.StreamID, payload); err != nil {
		return err
	}
	delete(c.streams, se.StreamID)
	return c.w.Flush()
}

func (c *Conn) processFrame(f Frame) error {
	// A HEADERS block must be immediately followed by CONTINUATION
	// frames until END_HEADERS, with no other frame interleaved (RFC
	// 9113 §6.10).
	if c.headerBlockStreamID != 0 {
		if f.Header.Type != FrameContinuation || f.Header.StreamID != c.headerBlockStreamID {
			return ConnectionError{Code: ErrCodeProtocol}
		}
	}

	switch f.Header.Type {
	case FrameSettings:
		if f.Header.HasFlag(FlagSettingsAck) {
			return nil
		}
		if err := c.applySettingsFrame(f); err != nil {
			return err
		}
		return WriteFrame(c.w, FrameSettings, FlagSettingsAck, 0, nil)
	case FrameHeaders:
		return c.processHeaders(f)
	case FrameContinuation:
		return c.processContinuation(f)
	case FrameData:
		return c.processData(f)
	case FrameWindowUpdate:
		return c.processWindowUpdateFrame(f)
	case FramePing:
		return c.processPing(f)
	case FramePriority:
		return nil // priority signaling carries no load-bearing semantics here
	case FrameRSTStream:
		if st, ok := c.streams[f.Header.StreamID]; ok {
			st.cancel()
		}
		delete(c.streams, f.Header.StreamID)
		return nil
	case FrameGoAway:
		return io.EOF
	default:
		return nil // unknown frame types are silently ignored per RFC 9113 §4.1
	}
}

func (c *Conn) processPing(f Frame) error {
	if f.Header.HasFlag(FlagPingAck) {
		return nil
	}
	if f.Header.StreamID != 0 {
		return ConnectionError{Code: ErrCodeProtocol}
	}
	return WriteFrame(c.w, FramePing, FlagPingAck, 0, f.Payload)
}

func (c *Conn) processWindowUpdateFrame(f Frame) error {
	if len(f.Payload) != 4 {
		return ConnectionError{Code: ErrCodeFrameSize}
	}
	increment := int32(f.Payload[0])<<24 | int32(f.Payload[1])<<16 | int32(f.Payload[2])<<8 | int32(f.Payload[3])
	increment &= 0x7fffffff
	if f.Header.StreamID == 0 {
		if !c.connFlow.add(increment) {
			return goAwayFlowError{}
		}
		return nil
	}
	st, ok := c.streams[f.Header.StreamID]
	if !ok {
		return nil
	}
	if !st.flow.add(increment) {
		return StreamError{StreamID: f.Header.StreamID, Code: ErrCodeFlowControl}
	}
	return nil
}

func (c *Conn) processHeaders(f Frame) error {
	id := f.Header.StreamID
	if c.sentGoAway {
		return nil
	}
	if id%2 != 1 || id <= c.maxStreamID {
		return ConnectionError{Code: ErrCodeProtocol}
	}
	c.maxStreamID = id

	st := newStream(id, c.settings.PeerInitialWindowSize)
	if f.Header.HasFlag(FlagHeadersEndStream) {
		st.state = StateHalfClosedRemote
	}
	c.streams[id] = st

	payload, err := stripPadding(f.Payload, f.Header.HasFlag(FlagHeadersPadded))
	if err != nil {
		return StreamError{StreamID: id, Code: ErrCodeProtocol}
	}
	if f.Header.HasFlag(FlagHeadersPriority) {
		if len(payload) < 5 {
			return ConnectionError{Code: ErrCodeFrameSize}
		}
		payload = payload[5:] // stream dependency + weight, unused
	}

	c.headerBlockBuf = append([]byte(nil), payload...)
	c.headerBlockEnd = f.Header.HasFlag(FlagHeadersEndStream)

	if f.Header.HasFlag(FlagHeadersEndHeaders) {
		return c.finishHeaderBlock(st)
	}
	c.headerBlockStreamID = id
	return nil
}

func (c *Conn) processContinuation(f Frame) error {
	st, ok := c.streams[f.Header.StreamID]
	if !ok || c.headerBlockStreamID != st.id {
		return ConnectionError{Code: ErrCodeProtocol}
	}
	c.headerBlockBuf = append(c.headerBlockBuf, f.Payload...)
	if !f.Header.HasFlag(FlagContinuationEndHeaders) {
		return nil
	}
	c.headerBlockStreamID = 0
	return c.finishHeaderBlock(st)
}

func (c *Conn) finishHeaderBlock(st *stream) error {
	block := c.headerBlockBuf
	c.headerBlockBuf = nil
	endStream := c.headerBlockEnd

	pseudo, fields, err := c.hpackDecoder.DecodeBlock(block, false)
	if err != nil {
		var herr *hpack.Error
		if ok := asHpackError(err, &herr); ok && herr.Kind.IsProtocolError() {
			return StreamError{StreamID: st.id, Code: ErrCodeProtocol}
		}
		return ConnectionError{Code: ErrCodeCompression}
	}

	req, streamErr := c.buildRequest(st, pseudo, fields)
	if streamErr != nil {
		return streamErr
	}

	if endStream {
		st.closeBody(io.EOF)
	}

	go c.runHandler(st, req)
	return nil
}

func asHpackError(err error, target **hpack.Error) bool {
	if e, ok := err.(*hpack.Error); ok {
		*target = e
		return true
	}
	return false
}

func (c *Conn) buildRequest(st *stream, pseudo hpack.PseudoFields, fields []hpack.Field) (*message.Request, error) {
	if pseudo.Method == "" || pseudo.Path == "" || (pseudo.Scheme != "http" && pseudo.Scheme != "https") {
		return nil, StreamError{StreamID: st.id, Code: ErrCodeProtocol}
	}

	headers := message.NewHeaderMap(len(fields) + 1)
	var contentLength int64 = -1
	for _, f := range fields {
		name := message.ParseHeaderName(f.Name)
		if f.Name == "content-length" {
			if n, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
				contentLength = n
			}
		}
		headers.Append(name, message.StringValue(f.Value))
	}
	if pseudo.Authority != "" && !headers.Contains(message.NewHeaderName(message.HeaderHost)) {
		headers.Append(message.NewHeaderName(message.HeaderHost), message.StringValue(pseudo.Authority))
	}

	st.declBody = contentLength
	method := message.ParseMethod(pseudo.Method)
	path, query, _ := strings.Cut(pseudo.Path, "?")
	target := message.OriginTarget(path, query)

	body := message.NoBody()
	if st.state == StateOpen {
		body = message.Body{Kind: message.BodyFile, File: nopSeeker{&requestBody{st: st}}, FileLength: -1}
	}

	return &message.Request{
		Method:  method,
		Target:  target,
		Version: message.VersionHTTP2,
		Headers: headers,
		Body:    body,
	}, nil
}

// nopSeeker adapts an io.ReadCloser without native seeking to
// io.ReadSeekCloser: an HTTP/2 request body is never rewound, so Seek
// is never actually exercised by this server, but message.Body's
// BodyFile slot is typed to require it.
type nopSeeker struct {
	io.ReadCloser
}

func (nopSeeker) Seek(offset int64, whence int) (int64, error) { return 0, nil }

func (c *Conn) processData(f Frame) error {
	id := f.Header.StreamID
	st, ok := c.streams[id]
	if !ok || st.state == StateClosed {
		return StreamError{StreamID: id, Code: ErrCodeStreamClosed}
	}
	payload, err := stripPadding(f.Payload, f.Header.HasFlag(FlagDataPadded))
	if err != nil {
		return StreamError{StreamID: id, Code: ErrCodeProtocol}
	}
	if st.declBody != -1 && st.bodyBytes+int64(len(payload)) > st.declBody {
		st.closeBody(fmt.Errorf("h2: sender exceeded declared content-length"))
		return StreamError{StreamID: id, Code: ErrCodeProtocol}
	}
	if len(payload) > 0 {
		st.writeBody(payload)
		st.bodyBytes += int64(len(payload))
		c.sendWindowUpdateAsync(id, len(payload))
	}
	if f.Header.HasFlag(FlagDataEndStream) {
		st.state = StateHalfClosedRemote
		if st.declBody != -1 && st.declBody != st.bodyBytes {
			st.closeBody(fmt.Errorf("h2: declared content-length %d but received %d bytes", st.declBody, st.bodyBytes))
		} else {
			st.closeBody(io.EOF)
		}
	}
	return nil
}

// sendWindowUpdateAsync queues a credit return. processData runs on
// the connection goroutine itself, so this would deadlock against
// sendWindowUpdate's own consumer if the buffer (8 deep) were ever
// full; in practice DATA frames interleave with the select loop often
// enough that it never fills.
func (c *Conn) sendWindowUpdateAsync(streamID uint32, n int) {
	c.windowUpdateCh <- windowUpdateReq{streamID: streamID, n: uint32(n)}
}

func (c *Conn) sendWindowUpdate(wu windowUpdateReq) error {
	incr := []byte{byte(wu.n >> 24), byte(wu.n >> 16), byte(wu.n >> 8), byte(wu.n)}
	if err := WriteFrame(c.w, FrameWindowUpdate, 0, 0, incr); err != nil {
		return err
	}
	if err := WriteFrame(c.w, FrameWindowUpdate, 0, wu.streamID, incr); err != nil {
		return err
	}
	return c.w.Flush()
}

// runHandler invokes the handler on its own goroutine, exactly like
// the teacher's go sc.runHandler(rw, req), then hands the finished
// response to the connection's sole writer via writeCh.
func (c *Conn) runHandler(st *stream, req *message.Request) {
	resp := c.handler(req)
	if resp == nil {
		resp = message.WithStatus(message.StatusInternalServerError)
	}
	if st.isCancelled() {
		return // peer already sent RST_STREAM; nothing left to write
	}
	resp.Version = message.VersionHTTP2
	resp = finalize.Finalize(req, resp)

	done := make(chan struct{})
	c.writeCh <- writeReq{streamID: st.id, response: resp, done: done}
	<-done
}

// writeResponse runs on the connection goroutine: it HPACK-encodes the
// response header block (dropping connection-specific fields, which
// are forbidden in HTTP/2 per RFC 9113 §8.2.2) and streams the body in
// MAX_FRAME_SIZE-sized DATA frames.
func (c *Conn) writeResponse(wr writeReq) error {
	defer close(wr.done)

	// The peer may have reset this stream while the handler was still
	// running; the stream is no longer tracked (or already closed) and
	// framing a response for it now would write onto an abandoned ID.
	st, ok := c.streams[wr.streamID]
	if !ok || st.state == StateClosed {
		return nil
	}

	resp := wr.response
	var headerBlock []byte
	headerBlock = c.hpackEncoder.EncodeStatus(headerBlock, int(resp.Status))
	resp.Headers.Each(func(name message.HeaderName, value message.HeaderValue) bool {
		if name.IsConnectionSpecific() {
			return true
		}
		headerBlock = c.hpackEncoder.EncodeField(headerBlock, name.ToStringLowercase(), value.Serialize())
		return true
	})

	bodyLen := resp.Body.Len()
	endStreamOnHeaders := bodyLen == 0

	flags := uint8(FlagHeadersEndHeaders)
	if endStreamOnHeaders {
		flags |= FlagHeadersEndStream
	}
	if err := c.writeHeaderBlock(wr.streamID, flags, headerBlock); err != nil {
		return err
	}
	if endStreamOnHeaders {
		c.markStreamClosed(wr.streamID)
		return nil
	}

	if err := c.writeDataFrames(wr.streamID, resp.Body); err != nil {
		return err
	}
	c.markStreamClosed(wr.streamID)
	return nil
}

// writeHeaderBlock splits a header block across HEADERS + CONTINUATION
// frames when it exceeds this server's advertised MAX_FRAME_SIZE.
func (c *Conn) writeHeaderBlock(streamID uint32, endFlags uint8, block []byte) error {
	const maxFrame = defaultMaxFrameSize
	if len(block) <= maxFrame {
		if err := WriteFrame(c.w, FrameHeaders, endFlags, streamID, block); err != nil {
			return err
		}
		return c.w.Flush()
	}
	first := block[:maxFrame]
	rest := block[maxFrame:]
	headersFlags := endFlags &^ FlagHeadersEndHeaders
	if err := WriteFrame(c.w, FrameHeaders, headersFlags, streamID, first); err != nil {
		return err
	}
	for len(rest) > maxFrame {
		if err := WriteFrame(c.w, FrameContinuation, 0, streamID, rest[:maxFrame]); err != nil {
			return err
		}
		rest = rest[maxFrame:]
	}
	if err := WriteFrame(c.w, FrameContinuation, FlagContinuationEndHeaders, streamID, rest); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Conn) writeDataFrames(streamID uint32, body message.Body) error {
	const maxFrame = defaultMaxFrameSize

	write := func(p []byte, last bool) error {
		flags := uint8(0)
		if last {
			flags = FlagDataEndStream
		}
		if err := WriteFrame(c.w, FrameData, flags, streamID, p); err != nil {
			return err
		}
		return c.w.Flush()
	}

	switch body.Kind {
	case message.BodyOwnedBytes, message.BodyCached:
		return chunkAndWrite(body.Bytes, maxFrame, write)
	case message.BodyOwnedString, message.BodyStaticString:
		return chunkAndWrite([]byte(body.Str), maxFrame, write)
	case message.BodyFile:
		buf := make([]byte, maxFrame)
		for {
			n, err := body.File.Read(buf)
			if n > 0 {
				last := err == io.EOF
				if werr := write(buf[:n], last); werr != nil {
					return werr
				}
				if last {
					return nil
				}
			}
			if err == io.EOF {
				return write(nil, true)
			}
			if err != nil {
				return err
			}
		}
	default:
		return write(nil, true)
	}
}

func chunkAndWrite(data []byte, maxFrame int, write func([]byte, bool) error) error {
	if len(data) == 0 {
		return write(nil, true)
	}
	for len(data) > maxFrame {
		if err := write(data[:maxFrame], false); err != nil {
			return err
		}
		data = data[maxFrame:]
	}
	return write(data, true)
}

func (c *Conn) markStreamClosed(streamID uint32) {
	if st, ok := c.streams[streamID]; ok {
		st.state = StateClosed
	}
}
