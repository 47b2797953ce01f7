package upgrade

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikePlaintextHTTP(t *testing.T) {
	plain := bufio.NewReader(strings.NewReader("GET / HTTP/1.1\r\n\r\n"))
	ok, err := LooksLikePlaintextHTTP(plain)
	require.NoError(t, err)
	assert.True(t, ok)

	tlsLike := bufio.NewReader(strings.NewReader("\x16\x03\x01\x00\xa5"))
	ok, err = LooksLikePlaintextHTTP(tlsLike)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedirectToHTTPS(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	require.NoError(t, RedirectToHTTPS(r, w))

	out := sb.String()
	assert.Contains(t, out, "HTTP/1.1 426 Upgrade Required\r\n")
	assert.Contains(t, out, "Upgrade: TLS/1.2, HTTP/1.1\r\n")
	assert.Contains(t, out, "Connection: Upgrade\r\n")
}
