package h2

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// errStreamReset is the body-read error a handler observes after its
// stream was abandoned by an incoming RST_STREAM (spec §5 Cancellation).
var errStreamReset = errors.New("h2: stream reset by peer")

// StreamState is the subset of the RFC 9113 §5.1 state machine this
// server actually distinguishes: it never sends HEADERS before a
// response is ready and never reserves streams for push, so "reserved"
// and "half closed (local)" (in the sense of a server-initiated half
// close) never arise on the request side.
type StreamState int

const (
	StateIdle StreamState = iota
	StateOpen
	StateHalfClosedRemote
	StateClosed
)

// stream is one HTTP/2 request/response exchange multiplexed on a
// connection.
type stream struct {
	id    uint32
	state StreamState
	flow  *flowWindow // credits this server may still write

	bodyMu      sync.Mutex
	bodyBuf     bytes.Buffer
	bodyClosed  bool
	bodyErr     error
	bodyNotify  chan struct{}
	bodyBytes   int64
	declBody    int64 // -1 if undeclared

	cancelled bool // set once, by an incoming RST_STREAM
}

func newStream(id uint32, initialWindow uint32) *stream {
	return &stream{
		id:         id,
		state:      StateOpen,
		flow:       newFlowWindow(initialWindow),
		declBody:   -1,
		bodyNotify: make(chan struct{}, 1),
	}
}

// writeBody appends DATA payload to the stream's body buffer, waking
// any blocked reader.
func (st *stream) writeBody(p []byte) {
	st.bodyMu.Lock()
	st.bodyBuf.Write(p)
	st.bodyMu.Unlock()
	select {
	case st.bodyNotify <- struct{}{}:
	default:
	}
}

// closeBody marks the body as complete (err is io.EOF on a clean
// END_STREAM, or a protocol violation otherwise).
func (st *stream) closeBody(err error) {
	st.bodyMu.Lock()
	if !st.bodyClosed {
		st.bodyClosed = true
		st.bodyErr = err
	}
	st.bodyMu.Unlock()
	select {
	case st.bodyNotify <- struct{}{}:
	default:
	}
}

// cancel marks the stream as abandoned by the peer and unblocks any
// handler goroutine currently reading its request body, the same way a
// clean END_STREAM does (spec §5: a per-stream RST_STREAM "MUST cause
// the corresponding request task to be cancelled").
func (st *stream) cancel() {
	st.bodyMu.Lock()
	st.cancelled = true
	if !st.bodyClosed {
		st.bodyClosed = true
		st.bodyErr = errStreamReset
	}
	st.bodyMu.Unlock()
	select {
	case st.bodyNotify <- struct{}{}:
	default:
	}
}

func (st *stream) isCancelled() bool {
	st.bodyMu.Lock()
	defer st.bodyMu.Unlock()
	return st.cancelled
}

// requestBody adapts a stream's buffered DATA payload to io.ReadCloser
// for the handler side, blocking until more data, EOF, or an error is
// available — the HTTP/2 analogue of h1's bufio-backed body reader.
type requestBody struct {
	st *stream
}

func (b *requestBody) Read(p []byte) (int, error) {
	for {
		b.st.bodyMu.Lock()
		if b.st.bodyBuf.Len() > 0 {
			n, _ := b.st.bodyBuf.Read(p)
			b.st.bodyMu.Unlock()
			return n, nil
		}
		if b.st.bodyClosed {
			err := b.st.bodyErr
			b.st.bodyMu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
		b.st.bodyMu.Unlock()
		<-b.st.bodyNotify
	}
}

func (b *requestBody) Close() error { return nil }
