package finalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usadson/servente/internal/message"
)

func newGetRequest(headers map[string]string) *message.Request {
	h := message.NewHeaderMap(len(headers))
	for k, v := range headers {
		h.Append(message.ParseHeaderName(k), message.StringValue(v))
	}
	return &message.Request{
		Method:  message.MethodGet,
		Target:  message.OriginTarget("/", ""),
		Version: message.VersionHTTP11,
		Headers: h,
		Body:    message.NoBody(),
	}
}

func TestFinalizeSetsDefaultHeaders(t *testing.T) {
	req := newGetRequest(nil)
	resp := message.WithStatus(message.StatusOK)
	resp.Version = message.VersionHTTP11
	resp.Body = message.NoBody()

	out := Finalize(req, resp)

	server, ok := out.Headers.GetFirst(message.NewHeaderName(message.HeaderServer))
	require.True(t, ok)
	assert.Equal(t, ServerName, server.Serialize())

	xfo, ok := out.Headers.GetFirst(message.NewHeaderName(message.HeaderXFrameOptions))
	require.True(t, ok)
	assert.Equal(t, "DENY", xfo.Serialize())

	_, ok = out.Headers.GetFirst(message.NewHeaderName(message.HeaderDate))
	assert.True(t, ok)

	conn, ok := out.Headers.GetFirst(message.NewHeaderName(message.HeaderConnection))
	require.True(t, ok)
	assert.Equal(t, "keep-alive", conn.Serialize())
}

func TestFinalizeSetsConnectionCloseOnError(t *testing.T) {
	req := newGetRequest(nil)
	resp := message.WithStatus(message.StatusInternalServerError)
	resp.Version = message.VersionHTTP11
	resp.Body = message.NoBody()

	out := Finalize(req, resp)

	conn, ok := out.Headers.GetFirst(message.NewHeaderName(message.HeaderConnection))
	require.True(t, ok)
	assert.Equal(t, "close", conn.Serialize())
}

func TestFinalizeConditionalIfNoneMatch(t *testing.T) {
	req := newGetRequest(map[string]string{"If-None-Match": `W/"abc"`})
	resp := message.WithStatus(message.StatusOK)
	resp.Version = message.VersionHTTP11
	resp.Headers.Append(message.NewHeaderName(message.HeaderETag), message.StringValue(`W/"abc"`))
	resp.Body = message.StringBody("hello")

	out := Finalize(req, resp)

	assert.Equal(t, message.StatusNotModified, out.Status)
	assert.Equal(t, message.BodyNone, out.Body.Kind)
}

func TestFinalizeConditionalIfNoneMatchMismatch(t *testing.T) {
	req := newGetRequest(map[string]string{"If-None-Match": `W/"other"`})
	resp := message.WithStatus(message.StatusOK)
	resp.Version = message.VersionHTTP11
	resp.Headers.Append(message.NewHeaderName(message.HeaderETag), message.StringValue(`W/"abc"`))
	resp.Body = message.StringBody("hello")

	out := Finalize(req, resp)

	assert.Equal(t, message.StatusOK, out.Status)
}

// Scenario 6 — weighted content-coding negotiation.
func TestNegotiateContentCoding(t *testing.T) {
	gzipBody := []byte("gz")
	coding, body := pickBestCoding("*;q=0.0, gzip;q=0.001", 100, nil, gzipBody)
	assert.Equal(t, message.CodingGzip, coding)
	assert.Equal(t, gzipBody, body)

	coding, _ = pickBestCoding("*;q=0.0", 100, []byte("br"), []byte("gz"))
	assert.Equal(t, message.CodingIdentity, coding)
}

func TestNegotiateContentCodingNeverPicksExplicitZero(t *testing.T) {
	coding, _ := pickBestCoding("br;q=0, gzip;q=0", 100, []byte("shorter-br"), []byte("shorter-gzip"))
	assert.Equal(t, message.CodingIdentity, coding)
}

func TestNegotiateContentCodingPicksSmallestOnTie(t *testing.T) {
	brotliBody := []byte("12345")     // smaller than raw
	gzipBody := []byte("1234567890") // also smaller than raw, but bigger than brotli
	coding, body := pickBestCoding("br, gzip", 20, brotliBody, gzipBody)
	assert.Equal(t, message.CodingBrotli, coding)
	assert.Equal(t, brotliBody, body)
}

func TestNegotiateContentCodingFallsBackToIdentityWhenNothingShrinks(t *testing.T) {
	raw := []byte("hi")
	brotliBody := []byte("way longer than the raw body ever was")
	gzipBody := []byte("also way longer than the raw body ever was")
	coding, _ := pickBestCoding("br, gzip", len(raw), brotliBody, gzipBody)
	assert.Equal(t, message.CodingIdentity, coding)
}
