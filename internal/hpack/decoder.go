package hpack

import "strings"

// Field is one decoded regular (non-pseudo) header field.
type Field struct {
	Name  string
	Value string
}

// PseudoFields collects the request pseudo-header values decoded from
// one header block. An empty string means "not present".
type PseudoFields struct {
	Method    string
	Scheme    string
	Authority string
	Path      string
	Protocol  string // :protocol, used by extended CONNECT (RFC 8441)
}

// connectionSpecificNames are the field names forbidden in any HTTP/2
// header block (RFC 9113 §8.2.2); TE is handled specially since it is
// permitted with the exact value "trailers".
var connectionSpecificNames = map[string]bool{
	"connection":       true,
	"keep-alive":       true,
	"proxy-connection": true,
	"transfer-encoding": true,
	"upgrade":          true,
}

// Decoder decodes a sequence of HPACK-encoded header blocks against a
// shared dynamic table. One Decoder is created per HTTP/2 connection
// and reused across streams (RFC 7541 §2.2: the compression context is
// connection-wide).
type Decoder struct {
	table          *DynamicTable
	settingsMaxSize int // SETTINGS_HEADER_TABLE_SIZE advertised by this endpoint
}

// NewDecoder constructs a decoder whose dynamic table starts at
// initialMaxSize (SETTINGS_HEADER_TABLE_SIZE's default, 4096).
func NewDecoder(initialMaxSize int) *Decoder {
	return &Decoder{
		table:           NewDynamicTable(initialMaxSize),
		settingsMaxSize: initialMaxSize,
	}
}

// SetSettingsMaxSize updates the negotiated maximum the peer is
// allowed to request via an in-band dynamic-table-size-update
// instruction; it does not itself resize the table.
func (d *Decoder) SetSettingsMaxSize(n int) { d.settingsMaxSize = n }

// Table exposes the dynamic table for diagnostics/testing.
func (d *Decoder) Table() *DynamicTable { return d.table }

// DecodeBlock decodes one complete header block (the concatenation of
// a HEADERS frame's fragment with all CONTINUATION fragments for the
// same stream) into pseudo-fields and regular fields, validating
// pseudo-header ordering/uniqueness/placement rules. isTrailerSection
// must be true when this block is a trailer section, in which case
// any pseudo-field is rejected.
func (d *Decoder) DecodeBlock(data []byte, isTrailerSection bool) (PseudoFields, []Field, error) {
	var pseudo PseudoFields
	var fields []Field
	sawRegular := false
	instructionIndex := 0

	b := data
	for len(b) > 0 {
		first := b[0]
		switch {
		case first&0x80 != 0: // indexed field: 1xxxxxxx
			index, consumed, err := DecodeInteger(first&0x7f, 7, b[1:])
			if err != nil {
				return pseudo, nil, err
			}
			b = b[1+consumed:]
			name, value, err := d.lookupFull(int(index))
			if err != nil {
				return pseudo, nil, err
			}
			if err := d.emit(&pseudo, &fields, name, value, &sawRegular, isTrailerSection); err != nil {
				return pseudo, nil, err
			}

		case first&0xc0 == 0x40: // literal with incremental indexing: 01xxxxxx
			index, consumed, err := DecodeInteger(first&0x3f, 6, b[1:])
			if err != nil {
				return pseudo, nil, err
			}
			b = b[1+consumed:]
			name, value, n, err := d.readNameValue(int(index), b)
			if err != nil {
				return pseudo, nil, err
			}
			b = b[n:]
			d.table.Insert(name, value)
			if err := d.emit(&pseudo, &fields, name, value, &sawRegular, isTrailerSection); err != nil {
				return pseudo, nil, err
			}

		case first&0xe0 == 0x20: // dynamic table size update: 001xxxxx
			if instructionIndex != 0 {
				return pseudo, nil, newErr(DynamicTableUpdateNotFirst)
			}
			newSize, consumed, err := DecodeInteger(first&0x1f, 5, b[1:])
			if err != nil {
				return pseudo, nil, err
			}
			if int(newSize) > d.settingsMaxSize {
				return pseudo, nil, newErr(DynamicTableUpdateTooLarge)
			}
			d.table.SetMaxSize(int(newSize))
			b = b[1+consumed:]
			instructionIndex++
			continue

		case first&0xf0 == 0x10: // literal never indexed: 0001xxxx
			index, consumed, err := DecodeInteger(first&0x0f, 4, b[1:])
			if err != nil {
				return pseudo, nil, err
			}
			b = b[1+consumed:]
			name, value, n, err := d.readNameValue(int(index), b)
			if err != nil {
				return pseudo, nil, err
			}
			b = b[n:]
			if err := d.emit(&pseudo, &fields, name, value, &sawRegular, isTrailerSection); err != nil {
				return pseudo, nil, err
			}

		case first&0xf0 == 0x00: // literal without indexing: 0000xxxx
			index, consumed, err := DecodeInteger(first&0x0f, 4, b[1:])
			if err != nil {
				return pseudo, nil, err
			}
			b = b[1+consumed:]
			name, value, n, err := d.readNameValue(int(index), b)
			if err != nil {
				return pseudo, nil, err
			}
			b = b[n:]
			if err := d.emit(&pseudo, &fields, name, value, &sawRegular, isTrailerSection); err != nil {
				return pseudo, nil, err
			}

		default:
			return pseudo, nil, newErr(InvalidIndex)
		}
		instructionIndex++
	}
	return pseudo, fields, nil
}

// lookupFull resolves a fully-indexed field (name and value both come
// from a table entry).
func (d *Decoder) lookupFull(index int) (name, value string, err error) {
	if index == 0 {
		return "", "", newErr(InvalidIndex)
	}
	if index <= StaticTableSize {
		e, _ := staticLookup(index)
		return e.Name, e.Value, nil
	}
	e, ok := d.table.Get(index - StaticTableSize)
	if !ok {
		return "", "", newErr(OutOfBounds)
	}
	return e.Name, e.Value, nil
}

// readNameValue resolves a literal representation's name (indexed or
// literal) and reads its literal value from b, returning the number of
// bytes of b consumed.
func (d *Decoder) readNameValue(index int, b []byte) (name, value string, consumed int, err error) {
	if index == 0 {
		n, nLen, err := decodeString(b)
		if err != nil {
			return "", "", 0, err
		}
		v, vLen, err := decodeString(b[nLen:])
		if err != nil {
			return "", "", 0, err
		}
		return n, v, nLen + vLen, nil
	}
	if index <= StaticTableSize {
		if statusPseudoIndices[index] {
			return "", "", 0, newErr(PseudoHeaderStatus)
		}
		e, _ := staticLookup(index)
		v, vLen, err := decodeString(b)
		if err != nil {
			return "", "", 0, err
		}
		return e.Name, v, vLen, nil
	}
	e, ok := d.table.Get(index - StaticTableSize)
	if !ok {
		return "", "", 0, newErr(OutOfBounds)
	}
	v, vLen, err := decodeString(b)
	if err != nil {
		return "", "", 0, err
	}
	return e.Name, v, vLen, nil
}

// emit validates one decoded (name, value) pair and routes it into
// either the pseudo-field record or the regular field list, enforcing
// every ordering/uniqueness/content rule in spec §4.C.
func (d *Decoder) emit(pseudo *PseudoFields, fields *[]Field, name, value string, sawRegular *bool, isTrailerSection bool) error {
	if err := validateFieldName(name); err != nil {
		return err
	}
	if err := validateFieldValue(value); err != nil {
		return err
	}

	if strings.HasPrefix(name, ":") {
		if isTrailerSection {
			return newErr(PseudoInTrailerSection)
		}
		if *sawRegular {
			return newErr(PseudoAfterRegularFields)
		}
		switch name {
		case ":method":
			if pseudo.Method != "" {
				return newErr(DuplicateMethod)
			}
			pseudo.Method = value
		case ":scheme":
			if pseudo.Scheme != "" {
				return newErr(DuplicateScheme)
			}
			pseudo.Scheme = value
		case ":authority":
			if pseudo.Authority != "" {
				return newErr(DuplicateAuthority)
			}
			pseudo.Authority = value
		case ":path":
			if pseudo.Path != "" {
				return newErr(DuplicatePath)
			}
			if value == "" {
				return newErr(EmptyPath)
			}
			pseudo.Path = value
		case ":protocol":
			pseudo.Protocol = value
		default:
			return newErr(FieldNameInvalidPseudo)
		}
		return nil
	}

	*sawRegular = true
	if connectionSpecificNames[name] {
		return newErr(ConnectionSpecificHeaderField)
	}
	if name == "te" && value != "trailers" {
		return newErr(TeHeaderNotTrailers)
	}
	*fields = append(*fields, Field{Name: name, Value: value})
	return nil
}

func validateFieldName(name string) error {
	if name == "" {
		return newErr(FieldNameEmpty)
	}
	if strings.HasPrefix(name, ":") {
		switch name {
		case ":method", ":scheme", ":authority", ":path", ":protocol", ":status":
			return nil
		default:
			return newErr(FieldNameInvalidPseudo)
		}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			return newErr(FieldNameUppercase)
		}
		if c == ' ' || c < 0x21 || c >= 0x7f {
			return newErr(FieldNameInvalidChar)
		}
	}
	return nil
}

func validateFieldValue(value string) error {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == 0x00 || c == '\r' || c == '\n' {
			return newErr(FieldValueInvalidChar)
		}
	}
	if len(value) > 0 {
		first, last := value[0], value[len(value)-1]
		if first == ' ' || first == '\t' || last == ' ' || last == '\t' {
			return newErr(FieldValueLeadingOrTrailingSpace)
		}
	}
	return nil
}
