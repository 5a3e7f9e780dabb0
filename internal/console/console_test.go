package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Mavwarf/cleartone/internal/command"
	"github.com/Mavwarf/cleartone/internal/tone"
)

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"\x1b[A", KeyUp},
		{"\x1b[B", KeyDown},
		{"\x1b[C", KeyRight},
		{"\x1b[D", KeyLeft},
		{"\x1bOA", KeyUp},
		{"\x1b[Z", KeyNone},
		{"\x1b", KeyNone},
		{"l", KeyChannelLeft},
		{"R", KeyChannelRight},
		{"b", KeyChannelBoth},
		{" ", KeyPlay},
		{"\r", KeyPlay},
		{"s", KeyStop},
		{"q", KeyQuit},
		{"\x03", KeyQuit},
		{"x", KeyNone},
		{"", KeyNone},
	}
	for _, tt := range tests {
		if got := decodeKey([]byte(tt.in)); got != tt.want {
			t.Errorf("decodeKey(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStateDefaults(t *testing.T) {
	s := NewState(tone.MaxDB)
	req := s.Request()
	if req != tone.DefaultRequest() {
		t.Errorf("initial request = %+v, want %+v", req, tone.DefaultRequest())
	}
}

func TestStateLevelBounds(t *testing.T) {
	s := NewState(50)
	for i := 0; i < 10; i++ {
		s, _ = s.Apply(KeyUp)
	}
	if s.LevelDB != 50 {
		t.Errorf("level after many ups = %v, want 50", s.LevelDB)
	}
	for i := 0; i < 30; i++ {
		s, _ = s.Apply(KeyDown)
	}
	if s.LevelDB != MinLevelDB {
		t.Errorf("level after many downs = %v, want %v", s.LevelDB, MinLevelDB)
	}
}

func TestStateFrequencySteps(t *testing.T) {
	s := NewState(tone.MaxDB)
	s, _ = s.Apply(KeyRight)
	if s.Frequency() != 2000 {
		t.Errorf("frequency = %v, want 2000", s.Frequency())
	}
	for i := 0; i < 20; i++ {
		s, _ = s.Apply(KeyRight)
	}
	if s.Frequency() != 8000 {
		t.Errorf("frequency = %v, want 8000", s.Frequency())
	}
	for i := 0; i < 20; i++ {
		s, _ = s.Apply(KeyLeft)
	}
	if s.Frequency() != 125 {
		t.Errorf("frequency = %v, want 125", s.Frequency())
	}
}

func TestStateActions(t *testing.T) {
	s := NewState(tone.MaxDB)
	s, act := s.Apply(KeyChannelBoth)
	if act != ActionNone || s.Channel != tone.Both {
		t.Errorf("channel key: %v %v", s.Channel, act)
	}
	if _, act := s.Apply(KeyPlay); act != ActionPlay {
		t.Errorf("play key action = %v", act)
	}
	if _, act := s.Apply(KeyStop); act != ActionStop {
		t.Errorf("stop key action = %v", act)
	}
	if _, act := s.Apply(KeyQuit); act != ActionQuit {
		t.Errorf("quit key action = %v", act)
	}
}

type fakeDispatcher struct {
	cmds []command.Command
	fail bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, cmd command.Command, source string) command.Result {
	f.cmds = append(f.cmds, cmd)
	if f.fail {
		return command.Failure(command.Errorf(command.PlaybackError, "no device"))
	}
	return command.Success()
}

func TestLoopPlaysSelectedTone(t *testing.T) {
	var out bytes.Buffer
	d := &fakeDispatcher{}
	l := &loop{d: d, out: &out, state: NewState(tone.MaxDB)}
	ctx := context.Background()

	for _, k := range []Key{KeyUp, KeyRight, KeyChannelRight, KeyPlay} {
		if !l.key(ctx, k) {
			t.Fatalf("loop stopped on %d", k)
		}
	}
	if len(d.cmds) != 1 || d.cmds[0].Kind != command.PlayTone {
		t.Fatalf("dispatched %+v", d.cmds)
	}
	got := *d.cmds[0].Tone
	want := tone.Request{Frequency: 2000, LevelDB: 45, Channel: tone.Right, DurationMs: tone.DefaultDurationMs}
	if got != want {
		t.Errorf("request = %+v, want %+v", got, want)
	}
	if !strings.Contains(out.String(), "playing") {
		t.Errorf("output %q lacks status", out.String())
	}
	if l.key(ctx, KeyQuit) {
		t.Error("quit key did not stop the loop")
	}
}

func TestLoopReportsFailure(t *testing.T) {
	var out bytes.Buffer
	l := &loop{d: &fakeDispatcher{fail: true}, out: &out, state: NewState(tone.MaxDB)}
	l.key(context.Background(), KeyPlay)
	if !strings.Contains(out.String(), "PLAYBACK_ERROR: no device") {
		t.Errorf("output %q lacks error", out.String())
	}
}

// drain collects keys until the channel closes, failing after a second.
func drain(t *testing.T, keys <-chan []byte) []string {
	t.Helper()
	var got []string
	timeout := time.After(time.Second)
	for {
		select {
		case b, ok := <-keys:
			if !ok {
				return got
			}
			got = append(got, string(b))
		case <-timeout:
			t.Fatal("key reader did not stop")
			return nil
		}
	}
}

func TestReadKeysStopsAtEOF(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	got := drain(t, readKeys(strings.NewReader("q"), done))
	if len(got) != 1 || got[0] != "q" {
		t.Errorf("keys = %q", got)
	}
}

func TestReadKeysReleasedByDone(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	done := make(chan struct{})
	keys := readKeys(pr, done)

	// Nobody consumes: "a" fills the buffer and the reader then holds "b".
	pw.Write([]byte("a"))
	pw.Write([]byte("b"))
	close(done)

	got := drain(t, keys)
	if len(got) == 0 || got[0] != "a" {
		t.Errorf("keys = %q", got)
	}
}
