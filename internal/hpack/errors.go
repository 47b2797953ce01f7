package hpack

import "fmt"

// ErrorKind enumerates the HPACK-specific error taxonomy from spec §7.
// Each maps to an HTTP/2 connection error, mostly COMPRESSION_ERROR,
// with a handful mapping to PROTOCOL_ERROR instead (see IsProtocolError).
type ErrorKind int

const (
	_ ErrorKind = iota
	InvalidIndex
	OutOfBounds
	PseudoHeaderWithoutValue
	PseudoHeaderStatus
	NoPath
	NoMethod
	NoScheme
	UnexpectedEndOfFile
	DynamicTableUpdateTooLarge
	DynamicTableUpdateNotFirst
	DuplicateAuthority
	DuplicateMethod
	DuplicatePath
	DuplicateScheme
	PseudoAfterRegularFields
	PseudoInTrailerSection
	EmptyPath
	FieldNameEmpty
	FieldNameUppercase
	FieldNameInvalidChar
	FieldNameInvalidPseudo
	FieldValueInvalidChar
	FieldValueLeadingOrTrailingSpace
	ConnectionSpecificHeaderField
	TeHeaderNotTrailers
	InvalidRequestTarget
)

var kindNames = map[ErrorKind]string{
	InvalidIndex:                     "InvalidIndex",
	OutOfBounds:                      "OutOfBounds",
	PseudoHeaderWithoutValue:         "PseudoHeaderWithoutValue",
	PseudoHeaderStatus:               "PseudoHeaderStatus",
	NoPath:                           "NoPath",
	NoMethod:                         "NoMethod",
	NoScheme:                         "NoScheme",
	UnexpectedEndOfFile:              "UnexpectedEndOfFile",
	DynamicTableUpdateTooLarge:       "DynamicTableUpdateTooLarge",
	DynamicTableUpdateNotFirst:       "DynamicTableUpdateNotFirst",
	DuplicateAuthority:               "DuplicateAuthority",
	DuplicateMethod:                  "DuplicateMethod",
	DuplicatePath:                    "DuplicatePath",
	DuplicateScheme:                  "DuplicateScheme",
	PseudoAfterRegularFields:         "PseudoAfterRegularFields",
	PseudoInTrailerSection:           "PseudoInTrailerSection",
	EmptyPath:                        "EmptyPath",
	FieldNameEmpty:                   "FieldNameEmpty",
	FieldNameUppercase:               "FieldNameUppercase",
	FieldNameInvalidChar:             "FieldNameInvalidChar",
	FieldNameInvalidPseudo:           "FieldNameInvalidPseudo",
	FieldValueInvalidChar:            "FieldValueInvalidChar",
	FieldValueLeadingOrTrailingSpace: "FieldValueLeadingOrTrailingSpace",
	ConnectionSpecificHeaderField:    "ConnectionSpecificHeaderField",
	TeHeaderNotTrailers:              "TeHeaderNotTrailers",
	InvalidRequestTarget:             "InvalidRequestTarget",
}

// Error is a typed HPACK decode/encode error carrying its Kind.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	if name, ok := kindNames[e.Kind]; ok {
		return "hpack: " + name
	}
	return fmt.Sprintf("hpack: ErrorKind(%d)", int(e.Kind))
}

func newErr(kind ErrorKind) error { return &Error{Kind: kind} }

// IsProtocolError reports whether kind should be surfaced to HTTP/2 as
// PROTOCOL_ERROR rather than COMPRESSION_ERROR, per RFC 9113 §8.1.1's
// guidance that malformed pseudo-header usage is a stream-level
// protocol violation, not strictly a compression failure.
func (k ErrorKind) IsProtocolError() bool {
	switch k {
	case PseudoAfterRegularFields, PseudoInTrailerSection, NoMethod, NoScheme,
		NoPath, EmptyPath, DuplicateAuthority, DuplicateMethod, DuplicatePath,
		DuplicateScheme, ConnectionSpecificHeaderField, TeHeaderNotTrailers,
		InvalidRequestTarget:
		return true
	default:
		return false
	}
}
