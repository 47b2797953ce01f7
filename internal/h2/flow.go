package h2

// initialStreamWindow is the per-stream SETTINGS_INITIAL_WINDOW_SIZE
// this server advertises. New streams take their send window from the
// client's advertised value (connSettings.PeerInitialWindowSize).
const initialStreamWindow = 65535

// flowWindow is a signed flow-control window (RFC 9113 §6.9): it can
// go negative transiently when SETTINGS_INITIAL_WINDOW_SIZE shrinks
// mid-connection, so it is tracked as int64 rather than a uint.
type flowWindow struct {
	size int64
}

func newFlowWindow(initial uint32) *flowWindow {
	return &flowWindow{size: int64(initial)}
}

// add credits (or, for a negative delta during a SETTINGS-driven
// resize, debits) the window, reporting false if the result would
// overflow the signed 31-bit range RFC 9113 mandates as an error.
func (w *flowWindow) add(delta int32) bool {
	next := w.size + int64(delta)
	if next > 1<<31-1 {
		return false
	}
	w.size = next
	return true
}

// consume subtracts n bytes of already-sent/received data from the
// window; callers must check available() first.
func (w *flowWindow) consume(n int64) { w.size -= n }

func (w *flowWindow) available() int64 { return w.size }
