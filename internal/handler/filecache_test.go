package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usadson/servente/internal/message"
)

func TestMemoryFileCachePrecompresses(t *testing.T) {
	c := NewMemoryFileCache()
	content := []byte("hello, hello, hello, hello, hello, hello, hello, hello")
	c.Put("/hello.txt", content, message.MediaType{Type: "text", Subtype: "plain"}, time.Unix(1700000000, 0))

	rec, ok := c.Lookup("/hello.txt")
	require.True(t, ok)
	assert.NotEmpty(t, rec.Brotli)
	assert.NotEmpty(t, rec.Gzip)

	body, coding := rec.BestBody(message.CodingGzip)
	assert.Equal(t, message.CodingGzip, coding)
	assert.Equal(t, rec.Gzip, body)

	body, coding = rec.BestBody(message.CodingIdentity)
	assert.Equal(t, message.CodingIdentity, coding)
	assert.Equal(t, content, body)
}

func TestMemoryFileCacheLookupMiss(t *testing.T) {
	c := NewMemoryFileCache()
	_, ok := c.Lookup("/missing.txt")
	assert.False(t, ok)
}
