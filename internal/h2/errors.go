package h2

import "fmt"

// ErrCode is the 14-value RFC 9113 §7 error code taxonomy used on both
// GOAWAY (connection-scoped) and RST_STREAM (stream-scoped) frames.
type ErrCode uint32

const (
	ErrCodeNoError            ErrCode = 0x0
	ErrCodeProtocol           ErrCode = 0x1
	ErrCodeInternal           ErrCode = 0x2
	ErrCodeFlowControl        ErrCode = 0x3
	ErrCodeSettingsTimeout    ErrCode = 0x4
	ErrCodeStreamClosed       ErrCode = 0x5
	ErrCodeFrameSize          ErrCode = 0x6
	ErrCodeRefusedStream      ErrCode = 0x7
	ErrCodeCancel             ErrCode = 0x8
	ErrCodeCompression        ErrCode = 0x9
	ErrCodeConnect            ErrCode = 0xa
	ErrCodeEnhanceYourCalm    ErrCode = 0xb
	ErrCodeInadequateSecurity ErrCode = 0xc
	ErrCodeHTTP11Required     ErrCode = 0xd
)

var errCodeNames = map[ErrCode]string{
	ErrCodeNoError:            "NO_ERROR",
	ErrCodeProtocol:           "PROTOCOL_ERROR",
	ErrCodeInternal:           "INTERNAL_ERROR",
	ErrCodeFlowControl:        "FLOW_CONTROL_ERROR",
	ErrCodeSettingsTimeout:    "SETTINGS_TIMEOUT",
	ErrCodeStreamClosed:       "STREAM_CLOSED",
	ErrCodeFrameSize:          "FRAME_SIZE_ERROR",
	ErrCodeRefusedStream:      "REFUSED_STREAM",
	ErrCodeCancel:             "CANCEL",
	ErrCodeCompression:        "COMPRESSION_ERROR",
	ErrCodeConnect:            "CONNECT_ERROR",
	ErrCodeEnhanceYourCalm:    "ENHANCE_YOUR_CALM",
	ErrCodeInadequateSecurity: "INADEQUATE_SECURITY",
	ErrCodeHTTP11Required:     "HTTP_1_1_REQUIRED",
}

func (c ErrCode) String() string {
	if name, ok := errCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrCode(%d)", uint32(c))
}

// ConnectionError terminates the whole connection with a GOAWAY.
type ConnectionError struct {
	Code ErrCode
}

func (e ConnectionError) Error() string { return "h2: connection error: " + e.Code.String() }

// StreamError terminates one stream with a RST_STREAM, leaving the
// connection otherwise intact.
type StreamError struct {
	StreamID uint32
	Code     ErrCode
}

func (e StreamError) Error() string {
	return fmt.Sprintf("h2: stream error on stream %d: %s", e.StreamID, e.Code)
}

// goAwayFlowError is a sentinel the connection-level flow-control
// overflow path raises; it's translated to a GOAWAY(FLOW_CONTROL_ERROR)
// by the serve loop exactly like the teacher's goAwayFlowError, kept
// distinct from ConnectionError; the serve loop sends the GOAWAY and
// returns it as Serve's error.
type goAwayFlowError struct{}

func (goAwayFlowError) Error() string { return "h2: connection-level flow control overflow" }
