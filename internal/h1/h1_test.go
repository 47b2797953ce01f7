package h1

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usadson/servente/internal/message"
)

func TestReadRequestLineGET(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET /index.html HTTP/1.1\r\n"))
	method, target, version, err := ReadRequestLine(r)
	require.NoError(t, err)
	assert.Equal(t, "GET", method.String())
	assert.Equal(t, message.TargetOrigin, target.Kind)
	assert.Equal(t, "/index.html", target.Path)
	assert.Equal(t, message.VersionHTTP11, version)
}

func TestReadRequestLineRejectsMissingVersion(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET /index.html HTX/1.1\r\n"))
	_, _, _, err := ReadRequestLine(r)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, InvalidHttpVersion, parseErr.Kind)
}

func TestReadHeaderBlock(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Host: example.com\r\nContent-Length: 5\r\n\r\n"))
	headers, err := ReadHeaderBlock(r)
	require.NoError(t, err)
	assert.Equal(t, 2, headers.Len())
	v, ok := headers.GetFirst(message.NewHeaderName(message.HeaderHost))
	require.True(t, ok)
	assert.Equal(t, "example.com", v.Serialize())
}

func TestReadRequestDetectsPriUpgrade(t *testing.T) {
	raw := "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	_, err := ReadRequest(r)
	assert.ErrorIs(t, err, ErrHttp2Upgrade)
}

func TestReadBodyContentLength(t *testing.T) {
	headers := message.NewHeaderMap(2)
	headers.Append(message.NewHeaderName(message.HeaderContentLength), message.StringValue("5"))
	headers.Append(message.NewHeaderName(message.HeaderContentType), message.StringValue("text/plain"))
	r := bufio.NewReader(strings.NewReader("hello"))
	body, err := ReadBody(r, headers)
	require.NoError(t, err)
	assert.Equal(t, message.BodyOwnedString, body.Kind)
	assert.Equal(t, "hello", body.Str)
}

func TestReadBodyContentLengthBinary(t *testing.T) {
	headers := message.NewHeaderMap(2)
	headers.Append(message.NewHeaderName(message.HeaderContentLength), message.StringValue("3"))
	r := bufio.NewReader(strings.NewReader("\xff\xfe\x00"))
	body, err := ReadBody(r, headers)
	require.NoError(t, err)
	assert.Equal(t, message.BodyOwnedBytes, body.Kind)
	assert.Equal(t, []byte{0xff, 0xfe, 0x00}, body.Bytes)
}

func TestReadBodyChunked(t *testing.T) {
	headers := message.NewHeaderMap(2)
	headers.Append(message.NewHeaderName(message.HeaderTransferEncoding), message.StringValue("chunked"))
	headers.Append(message.NewHeaderName(message.HeaderContentType), message.StringValue("text/plain"))
	raw := "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	body, err := ReadBody(r, headers)
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", body.Str)
}

func TestWriteResponseFull(t *testing.T) {
	resp := &message.Response{
		Status:  message.StatusOK,
		Version: message.VersionHTTP11,
		Headers: message.NewHeaderMap(1),
		Body:    message.StringBody("hi"),
	}
	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	require.NoError(t, WriteResponse(w, resp, nil))
	require.NoError(t, w.Flush())
	out := sb.String()
	assert.Contains(t, out, "HTTP/1.1 200 OK\r\n")
	assert.Contains(t, out, "Content-Length: 2\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nhi"))
}

func TestWriteResponseChunked(t *testing.T) {
	resp := &message.Response{
		Status:  message.StatusOK,
		Version: message.VersionHTTP11,
		Headers: message.NewHeaderMap(1),
		Body:    message.StringBody("hello"),
	}
	resp.Body = message.Body{Kind: message.BodyFile, FileLength: -1, File: newFakeReadSeekCloser("hello")}
	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	require.NoError(t, WriteResponse(w, resp, nil))
	require.NoError(t, w.Flush())
	out := sb.String()
	assert.Contains(t, out, "Transfer-Encoding: chunked\r\n")
	assert.Contains(t, out, "5\r\nhello\r\n0\r\n\r\n")
}
