package h2

import "encoding/binary"

// SettingID identifies a SETTINGS parameter, RFC 9113 §6.5.2.
type SettingID uint16

const (
	SettingHeaderTableSize      SettingID = 0x1
	SettingEnablePush           SettingID = 0x2
	SettingMaxConcurrentStreams SettingID = 0x3
	SettingInitialWindowSize    SettingID = 0x4
	SettingMaxFrameSize         SettingID = 0x5
	SettingMaxHeaderListSize    SettingID = 0x6
	SettingNoRFC7540Priorities  SettingID = 0x9
)

// Setting is one (ID, value) parameter carried in a SETTINGS frame.
type Setting struct {
	ID    SettingID
	Value uint32
}

const settingLen = 6 // 2-byte ID + 4-byte value

// ParseSettings decodes a SETTINGS frame payload into its parameters.
func ParseSettings(payload []byte) ([]Setting, error) {
	if len(payload)%settingLen != 0 {
		return nil, ConnectionError{Code: ErrCodeFrameSize}
	}
	out := make([]Setting, 0, len(payload)/settingLen)
	for i := 0; i < len(payload); i += settingLen {
		id := SettingID(binary.BigEndian.Uint16(payload[i : i+2]))
		val := binary.BigEndian.Uint32(payload[i+2 : i+6])
		out = append(out, Setting{ID: id, Value: val})
	}
	return out, nil
}

// EncodeSettings serializes settings into a SETTINGS frame payload.
func EncodeSettings(settings []Setting) []byte {
	buf := make([]byte, len(settings)*settingLen)
	for i, s := range settings {
		binary.BigEndian.PutUint16(buf[i*settingLen:], uint16(s.ID))
		binary.BigEndian.PutUint32(buf[i*settingLen+2:], s.Value)
	}
	return buf
}

// connSettings tracks the negotiated parameter values in effect for a
// connection, seeded at RFC 9113 §6.5.2 defaults and updated as the
// peer's SETTINGS frames are processed. Every field is one of the
// client's advertised values this server must respect when writing;
// this server's own advertised values are the fixed list returned by
// serverSettings.
type connSettings struct {
	PeerHeaderTableSize      uint32
	PeerEnablePush           bool
	PeerMaxConcurrentStreams uint32
	PeerInitialWindowSize    uint32
	PeerMaxFrameSize         uint32
	PeerMaxHeaderListSize    uint32
}

func newConnSettings() connSettings {
	return connSettings{
		PeerHeaderTableSize:      4096,
		PeerEnablePush:           true,
		PeerMaxConcurrentStreams: 1 << 31,
		PeerInitialWindowSize:    65535,
		PeerMaxFrameSize:         defaultMaxFrameSize,
		PeerMaxHeaderListSize:    1 << 31,
	}
}

// serverSettings is this server's own advertised SETTINGS frame,
// matching spec §4.E's negotiation note: NO_RFC7540_PRIORITIES is
// enabled and push is disabled, since this server never initiates a
// server push.
func serverSettings() []Setting {
	return []Setting{
		{ID: SettingEnablePush, Value: 0},
		{ID: SettingMaxConcurrentStreams, Value: 250},
		{ID: SettingInitialWindowSize, Value: initialStreamWindow},
		{ID: SettingMaxFrameSize, Value: defaultMaxFrameSize},
		{ID: SettingNoRFC7540Priorities, Value: 1},
	}
}

// apply validates and applies one peer setting, returning a
// ConnectionError if the value is out of the bounds RFC 9113 §6.5.2
// mandates.
func (cs *connSettings) apply(s Setting) error {
	switch s.ID {
	case SettingHeaderTableSize:
		cs.PeerHeaderTableSize = s.Value
	case SettingEnablePush:
		if s.Value > 1 {
			return ConnectionError{Code: ErrCodeProtocol}
		}
		cs.PeerEnablePush = s.Value == 1
	case SettingMaxConcurrentStreams:
		cs.PeerMaxConcurrentStreams = s.Value
	case SettingInitialWindowSize:
		if s.Value > 1<<31-1 {
			return ConnectionError{Code: ErrCodeFlowControl}
		}
		cs.PeerInitialWindowSize = s.Value
	case SettingMaxFrameSize:
		if s.Value < defaultMaxFrameSize || s.Value > 1<<24-1 {
			return ConnectionError{Code: ErrCodeProtocol}
		}
		cs.PeerMaxFrameSize = s.Value
	case SettingMaxHeaderListSize:
		cs.PeerMaxHeaderListSize = s.Value
	}
	// Unknown setting IDs are silently ignored per §6.5.2.
	return nil
}
