package playback

import (
	"time"

	"github.com/google/uuid"

	"github.com/Mavwarf/cleartone/internal/tone"
)

// Kind tags the variant held in a Handle.
type Kind int

const (
	KindNone Kind = iota
	KindFile
	KindTone
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindTone:
		return "tone"
	}
	return "none"
}

// Handle is the active playback on one slot: None, *FileHandle or
// *ToneHandle. The interface is sealed.
type Handle interface {
	Kind() Kind
	stream() Stream
}

// None is the empty slot.
type None struct{}

func (None) Kind() Kind { return KindNone }
func (None) stream() Stream { return nil }

// FileHandle is a looping file playback.
type FileHandle struct {
	ID      uuid.UUID
	Path    string
	Channel tone.Channel
	LevelDB float64
	Started time.Time
	s       Stream
}

func (*FileHandle) Kind() Kind { return KindFile }
func (h *FileHandle) stream() Stream { return h.s }

// ToneHandle is a one-shot synthesized tone.
type ToneHandle struct {
	ID      uuid.UUID
	Request tone.Request
	Started time.Time
	s       Stream
}

func (*ToneHandle) Kind() Kind { return KindTone }
func (h *ToneHandle) stream() Stream { return h.s }

// Status is a point-in-time view of one slot.
type Status struct {
	Kind    string    `json:"kind"`
	ID      string    `json:"id,omitempty"`
	Playing bool      `json:"playing"`
	Started time.Time `json:"started,omitempty"`
	Path    string    `json:"path,omitempty"`
	Channel string    `json:"channel,omitempty"`
	LevelDB float64   `json:"level_db,omitempty"`
	Freq    float64   `json:"frequency,omitempty"`
}

func statusOf(h Handle) Status {
	st := Status{Kind: h.Kind().String()}
	if s := h.stream(); s != nil {
		st.Playing = s.Playing()
	}
	switch v := h.(type) {
	case *FileHandle:
		st.ID, st.Started = v.ID.String(), v.Started
		st.Path, st.Channel, st.LevelDB = v.Path, v.Channel.String(), v.LevelDB
	case *ToneHandle:
		st.ID, st.Started = v.ID.String(), v.Started
		st.Channel, st.LevelDB, st.Freq = v.Request.Channel.String(), v.Request.LevelDB, v.Request.Frequency
	}
	return st
}
