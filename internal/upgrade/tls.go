package upgrade

import (
	"bufio"
	"io"
	"strconv"
)

// LooksLikePlaintextHTTP peeks at a freshly-accepted connection's
// first bytes without consuming them from r and reports whether they
// spell a plaintext HTTP/1.x request line ("GET ", the only method
// the welcome/redirect path needs to recognize per spec §4.D) rather
// than a TLS ClientHello. TLS record headers begin with a content-type
// byte (0x16 for a handshake) that can never collide with an ASCII
// method token, so this four-byte sniff is unambiguous.
//
// Callers that terminate TLS externally use this before handing the
// connection to their TLS acceptor: a true result means the client
// skipped TLS entirely and should receive RedirectToHTTPS instead of
// being fed to the TLS handshake.
func LooksLikePlaintextHTTP(r *bufio.Reader) (bool, error) {
	peek, err := r.Peek(4)
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return string(peek) == "GET ", nil
}

// RedirectToHTTPS drains whatever the client already sent (so a pipelined
// request doesn't linger unread when the connection is torn down) and
// writes the canned 426 Upgrade Required response spec §4.D mandates
// for a plaintext request arriving on a TLS-only listener.
func RedirectToHTTPS(r *bufio.Reader, w *bufio.Writer) error {
	io.CopyN(io.Discard, r, int64(r.Buffered()))

	const body = "<h1>Upgrade Required</h1><hr><p>This resource is only available over HTTPS.</p>"
	if _, err := w.WriteString("HTTP/1.1 426 Upgrade Required\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString("Upgrade: TLS/1.2, HTTP/1.1\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString("Connection: Upgrade\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString("Content-Type: text/html; charset=utf-8\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString("Content-Length: "); err != nil {
		return err
	}
	if _, err := io.WriteString(w, strconv.Itoa(len(body))); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(body); err != nil {
		return err
	}
	return w.Flush()
}
