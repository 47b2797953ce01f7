package h1

import (
	"bufio"
	"io"
	"strings"

	"github.com/usadson/servente/internal/message"
	"github.com/usadson/servente/internal/syntax"
)

const (
	maxMethodLen        = 16
	maxRequestTargetLen = 1024
	maxHeaderLineLen    = 4096
)

// readDelimitedToken reads bytes up to (and consuming) the delimiter,
// enforcing maxLen and validating each byte with isValid. The
// returned token does not include the delimiter.
func readDelimitedToken(r *bufio.Reader, delim byte, maxLen int, isValid func(byte) bool, invalidOctetKind, tooLargeKind ParseErrorKind) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == delim {
			return string(buf), nil
		}
		if len(buf) >= maxLen {
			return "", newParseErr(tooLargeKind)
		}
		if !isValid(b) {
			return "", newParseErr(invalidOctetKind)
		}
		buf = append(buf, b)
	}
}

// expectCRLF consumes exactly "\r\n" or fails with InvalidCRLF.
func expectCRLF(r *bufio.Reader) error {
	cr, err := r.ReadByte()
	if err != nil {
		return err
	}
	lf, err := r.ReadByte()
	if err != nil {
		return err
	}
	if cr != '\r' || lf != '\n' {
		return newParseErr(InvalidCRLF)
	}
	return nil
}

// ReadRequestLine reads and parses one HTTP request-line: method SP
// request-target SP "HTTP/" version CRLF.
func ReadRequestLine(r *bufio.Reader) (message.Method, message.RequestTarget, message.Version, error) {
	methodTok, err := readDelimitedToken(r, ' ', maxMethodLen, isMethodChar, InvalidOctetInMethod, MethodTooLarge)
	if err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}
	if err := syntax.ValidateToken(methodTok); err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}

	targetTok, err := readDelimitedToken(r, ' ', maxRequestTargetLen, syntax.IsRequestTargetChar, InvalidOctetInRequestTarget, RequestTargetTooLarge)
	if err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}
	target, err := parseRequestTarget(targetTok)
	if err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}

	const httpSlash = "HTTP/"
	prefix := make([]byte, len(httpSlash))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}
	if string(prefix) != httpSlash {
		return message.Method{}, message.RequestTarget{}, 0, newParseErr(InvalidHttpVersion)
	}
	verBytes := make([]byte, 3)
	if _, err := io.ReadFull(r, verBytes); err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}
	version, ok := parseVersion(string(verBytes))
	if !ok {
		return message.Method{}, message.RequestTarget{}, 0, newParseErr(InvalidHttpVersion)
	}
	if err := expectCRLF(r); err != nil {
		return message.Method{}, message.RequestTarget{}, 0, err
	}

	return message.ParseMethod(methodTok), target, version, nil
}

func isMethodChar(b byte) bool { return syntax.IsTokenChar(b) }

func parseVersion(s string) (message.Version, bool) {
	switch s {
	case "1.0":
		return message.VersionHTTP10, true
	case "1.1":
		return message.VersionHTTP11, true
	case "2.0":
		return message.VersionHTTP2, true
	default:
		return 0, false
	}
}

func parseRequestTarget(tok string) (message.RequestTarget, error) {
	if tok == "" {
		return message.RequestTarget{}, newParseErr(InvalidRequestTarget)
	}
	if tok == "*" {
		return message.AsteriskTarget(), nil
	}
	if strings.HasPrefix(tok, "/") {
		path, query, _ := strings.Cut(tok, "?")
		return message.OriginTarget(path, query), nil
	}
	if strings.Contains(tok, "://") {
		return message.AbsoluteTarget(tok), nil
	}
	// authority-form, e.g. CONNECT example.com:443
	return message.AuthorityTarget(tok), nil
}
