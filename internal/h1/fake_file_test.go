package h1

import "strings"

// fakeReadSeekCloser adapts a strings.Reader to io.ReadSeekCloser for
// exercising the BodyFile write paths without touching a real file.
type fakeReadSeekCloser struct {
	*strings.Reader
}

func newFakeReadSeekCloser(s string) *fakeReadSeekCloser {
	return &fakeReadSeekCloser{strings.NewReader(s)}
}

func (f *fakeReadSeekCloser) Close() error { return nil }
