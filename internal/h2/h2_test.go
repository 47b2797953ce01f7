package h2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrameHeader(&buf, FrameHeader{Length: 42, Type: FrameHeaders, Flags: FlagHeadersEndHeaders, StreamID: 7}))
	h, err := ReadFrameHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), h.Length)
	assert.Equal(t, FrameHeaders, h.Type)
	assert.Equal(t, uint8(FlagHeadersEndHeaders), h.Flags)
	assert.Equal(t, uint32(7), h.StreamID)
}

func TestReadFrameRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, FrameData, 0, 1, make([]byte, 100)))
	_, err := ReadFrame(&buf, 50)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestSettingsRoundTrip(t *testing.T) {
	in := []Setting{{ID: SettingEnablePush, Value: 0}, {ID: SettingMaxFrameSize, Value: 16384}}
	payload := EncodeSettings(in)
	out, err := ParseSettings(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConnSettingsRejectsOversizedInitialWindow(t *testing.T) {
	cs := newConnSettings()
	err := cs.apply(Setting{ID: SettingInitialWindowSize, Value: 1 << 31})
	require.Error(t, err)
	var connErr ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, ErrCodeFlowControl, connErr.Code)
}

func TestFlowWindowAdd(t *testing.T) {
	w := newFlowWindow(100)
	assert.True(t, w.add(50))
	assert.Equal(t, int64(150), w.available())
	w.consume(120)
	assert.Equal(t, int64(30), w.available())
	assert.False(t, w.add(1<<31-1))
}

func TestStripPaddingRejectsOverlongPad(t *testing.T) {
	_, err := stripPadding([]byte{5, 'a', 'b'}, true)
	assert.Error(t, err)
}

func TestStripPaddingUnpadded(t *testing.T) {
	out, err := stripPadding([]byte{1, 2, 3}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, out)
}
