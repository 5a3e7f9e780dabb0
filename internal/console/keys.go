package console

// Key is a decoded keypress.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyChannelLeft
	KeyChannelRight
	KeyChannelBoth
	KeyPlay
	KeyStop
	KeyQuit
)

// decodeKey maps one read from a raw-mode terminal to a Key. Arrow keys
// arrive as ESC [ A..D (or ESC O A..D in application cursor mode).
func decodeKey(b []byte) Key {
	if len(b) == 0 {
		return KeyNone
	}
	if len(b) >= 3 && b[0] == 0x1b && (b[1] == '[' || b[1] == 'O') {
		switch b[2] {
		case 'A':
			return KeyUp
		case 'B':
			return KeyDown
		case 'C':
			return KeyRight
		case 'D':
			return KeyLeft
		}
		return KeyNone
	}
	switch b[0] {
	case 'k', '+':
		return KeyUp
	case 'j', '-':
		return KeyDown
	case 'h':
		return KeyLeft
	case 'n':
		return KeyRight
	case 'l', 'L':
		return KeyChannelLeft
	case 'r', 'R':
		return KeyChannelRight
	case 'b', 'B':
		return KeyChannelBoth
	case ' ', '\r', '\n':
		return KeyPlay
	case 's', 'S':
		return KeyStop
	case 'q', 'Q', 0x03, 0x04: // Ctrl-C, Ctrl-D
		return KeyQuit
	}
	return KeyNone
}
