package h1

import (
	"bufio"
	"strings"

	"github.com/usadson/servente/internal/message"
	"github.com/usadson/servente/internal/syntax"
)

// ReadHeaderBlock reads CRLF-terminated header lines until an empty
// line, enforcing a 4096-byte cap per line.
func ReadHeaderBlock(r *bufio.Reader) (*message.HeaderMap, error) {
	headers := message.NewHeaderMap(16)
	for {
		line, err := readHeaderLine(r)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		name, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		headers.Append(name, message.StringValue(value))
	}
}

// readHeaderLine reads one CRLF-terminated line (without the CRLF),
// capped at maxHeaderLineLen bytes.
func readHeaderLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\r' {
			lf, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			if lf != '\n' {
				return "", newParseErr(InvalidCRLF)
			}
			return string(buf), nil
		}
		if len(buf) >= maxHeaderLineLen {
			return "", newParseErr(HeaderTooLarge)
		}
		buf = append(buf, b)
	}
}

// parseHeaderLine splits "Name: value" into a validated HeaderName and
// a trimmed, validated value.
func parseHeaderLine(line string) (message.HeaderName, string, error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return message.HeaderName{}, "", newParseErr(HeaderDoesNotContainColon)
	}
	rawName := strings.TrimLeft(line[:colon], " \t")
	if err := syntax.ValidateToken(rawName); err != nil {
		return message.HeaderName{}, "", mapTokenError(err)
	}
	rawValue := strings.Trim(line[colon+1:], " \t")
	for i := 0; i < len(rawValue); i++ {
		c := rawValue[i]
		interior := i != 0 && i != len(rawValue)-1
		if interior {
			if !syntax.IsFieldValueCharInterior(c) {
				return message.HeaderName{}, "", newParseErr(FieldValueContainsInvalidCharacters)
			}
		} else if !syntax.IsFieldValueChar(c) {
			return message.HeaderName{}, "", newParseErr(FieldValueContainsInvalidCharacters)
		}
	}
	return message.ParseHeaderName(rawName), rawValue, nil
}

func mapTokenError(err error) error {
	switch err {
	case syntax.TokenEmpty:
		return newParseErr(TokenEmpty)
	case syntax.TokenContainsWhitespace:
		return newParseErr(TokenContainsWhitespace)
	case syntax.TokenContainsDelimiter:
		return newParseErr(TokenContainsDelimiter)
	case syntax.TokenContainsNonVisibleAscii:
		return newParseErr(TokenContainsNonVisibleAscii)
	default:
		return err
	}
}
