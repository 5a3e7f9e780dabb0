package console

import (
	"fmt"

	"github.com/Mavwarf/cleartone/internal/tone"
)

// StandardFrequencies are the audiometric test frequencies in Hz.
var StandardFrequencies = []float64{125, 250, 500, 1000, 2000, 3000, 4000, 6000, 8000}

const (
	LevelStep  = 5.0
	MinLevelDB = -10.0
)

// Action is what the loop must do after a key.
type Action int

const (
	ActionNone Action = iota
	ActionPlay
	ActionStop
	ActionQuit
)

// State is the audiometer's current selection.
type State struct {
	FreqIndex  int
	LevelDB    float64
	MaxLevelDB float64
	Channel    tone.Channel
	DurationMs int
}

// NewState starts at 1000 Hz, 40 dB, left ear. maxLevel caps the level
// adjustment, normally the calibration ceiling.
func NewState(maxLevel float64) State {
	return State{
		FreqIndex:  3,
		LevelDB:    tone.DefaultLevelDB,
		MaxLevelDB: maxLevel,
		Channel:    tone.Left,
		DurationMs: tone.DefaultDurationMs,
	}
}

func (s State) Frequency() float64 { return StandardFrequencies[s.FreqIndex] }

// Request is the tone the current state would play.
func (s State) Request() tone.Request {
	return tone.Request{
		Frequency:  s.Frequency(),
		LevelDB:    s.LevelDB,
		Channel:    s.Channel,
		DurationMs: s.DurationMs,
	}
}

// Apply returns the state after k and the action to take. Level and
// frequency stop at their bounds.
func (s State) Apply(k Key) (State, Action) {
	switch k {
	case KeyUp:
		s.LevelDB = min(s.LevelDB+LevelStep, s.MaxLevelDB)
	case KeyDown:
		s.LevelDB = max(s.LevelDB-LevelStep, MinLevelDB)
	case KeyLeft:
		if s.FreqIndex > 0 {
			s.FreqIndex--
		}
	case KeyRight:
		if s.FreqIndex < len(StandardFrequencies)-1 {
			s.FreqIndex++
		}
	case KeyChannelLeft:
		s.Channel = tone.Left
	case KeyChannelRight:
		s.Channel = tone.Right
	case KeyChannelBoth:
		s.Channel = tone.Both
	case KeyPlay:
		return s, ActionPlay
	case KeyStop:
		return s, ActionStop
	case KeyQuit:
		return s, ActionQuit
	}
	return s, ActionNone
}

// String is the one-line status shown by the console.
func (s State) String() string {
	return fmt.Sprintf("%5.0f Hz  %5.1f dB  %-5s", s.Frequency(), s.LevelDB, s.Channel)
}
