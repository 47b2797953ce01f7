// File-cache interface consumed by this module (spec §6). Disk I/O,
// the on-disk layout, and invalidation policy belong to an external
// collaborator; this file only defines the contract a handler uses to
// look a path up and the record shape that collaborator returns, plus
// a minimal in-memory implementation useful for tests and the default
// welcome-page handler.
package handler

import (
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"github.com/usadson/servente/internal/message"
)

// FileCache is the external collaborator's contract: look a request
// path up and get back a precomputed record, or false if nothing is
// cached for it (the caller then falls through to a 404 or a
// filesystem read of its own).
type FileCache interface {
	Lookup(path string) (*FileCacheRecord, bool)
}

// FileCacheRecord is the lookup result shape spec §6 names:
// modification time, an optional media type, the uncompressed body,
// optional precompressed brotli/gzip variants, and an optional
// Details payload distinguishing a plain document from a rendered
// CommonMark one.
type FileCacheRecord struct {
	Modified   time.Time
	MediaType  *message.MediaType
	Uncompressed []byte
	Brotli     []byte // nil if not worth precompressing (e.g. already-compressed media)
	Gzip       []byte
	Details    FileCacheDetails // nil if neither variant applies
}

// FileCacheDetails is the sum type over the two record-detail shapes
// spec §6 names. Implementations are DocumentDetails and
// MarkdownDetails; the marker method keeps the sum closed to this
// package's two variants, the way a Rust enum would.
type FileCacheDetails interface {
	isFileCacheDetails()
}

// DocumentDetails carries the Link-preload hints a document-type
// cache entry wants attached to its response (spec §6: "Document{link_preloads}").
type DocumentDetails struct {
	LinkPreloads []string
}

func (DocumentDetails) isFileCacheDetails() {}

// MarkdownDetails wraps the pre-rendered HTML record a Markdown source
// file was converted to (spec §6: "Markdown{html_rendered}"); the
// CommonMark converter itself is out of scope, this only carries its
// output through the cache.
type MarkdownDetails struct {
	HTMLRendered *FileCacheRecord
}

func (MarkdownDetails) isFileCacheDetails() {}

// BestBody picks the body bytes and Content-Encoding value this record
// should serve for the given negotiated coding, falling back to the
// uncompressed body when no matching precompressed variant exists.
func (r *FileCacheRecord) BestBody(coding message.ContentCoding) (body []byte, actual message.ContentCoding) {
	switch coding {
	case message.CodingBrotli:
		if r.Brotli != nil {
			return r.Brotli, message.CodingBrotli
		}
	case message.CodingGzip:
		if r.Gzip != nil {
			return r.Gzip, message.CodingGzip
		}
	}
	return r.Uncompressed, message.CodingIdentity
}

// MemoryFileCache is a process-memory FileCache implementation:
// entries are registered up front (by the embedding program or by
// tests) and precompressed eagerly, standing in for the
// external disk-backed cache this module only consumes.
type MemoryFileCache struct {
	entries map[string]*FileCacheRecord
}

func NewMemoryFileCache() *MemoryFileCache {
	return &MemoryFileCache{entries: make(map[string]*FileCacheRecord)}
}

// Lookup implements FileCache.
func (c *MemoryFileCache) Lookup(path string) (*FileCacheRecord, bool) {
	rec, ok := c.entries[path]
	return rec, ok
}

// Put registers content under path, eagerly computing the brotli and
// gzip variants so BestBody never has to compress on the request path.
func (c *MemoryFileCache) Put(path string, content []byte, mediaType message.MediaType, modified time.Time) {
	rec := &FileCacheRecord{
		Modified:     modified,
		MediaType:    &mediaType,
		Uncompressed: content,
	}
	if br, err := compressBrotli(content); err == nil {
		rec.Brotli = br
	}
	if gz, err := compressGzip(content); err == nil {
		rec.Gzip = gz
	}
	c.entries[path] = rec
}

func compressBrotli(data []byte) ([]byte, error) {
	var buf []byte
	w := brotli.NewWriterLevel(sliceWriter{&buf}, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func compressGzip(data []byte) ([]byte, error) {
	var buf []byte
	w := gzip.NewWriter(sliceWriter{&buf})
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// sliceWriter adapts a *[]byte to io.Writer without pulling in
// bytes.Buffer just to append.
type sliceWriter struct{ buf *[]byte }

func (w sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
