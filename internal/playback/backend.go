package playback

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Backend turns finished s16le stereo PCM into sound.
type Backend interface {
	// Start begins playback. If loop is true the data repeats until the
	// returned Stream is stopped.
	Start(pcm []byte, loop bool) (Stream, error)
	SampleRate() int
}

// Stream is one live playback on a Backend.
type Stream interface {
	Playing() bool
	// Stop halts playback and releases the stream's device resources.
	Stop() error
}

// OtoBackend plays through a process-wide oto context. oto allows a single
// context per process, so the first OtoBackend fixes the sample rate.
type OtoBackend struct {
	sampleRate int
}

var (
	otoCtx     *oto.Context
	otoRate    int
	otoOnce    sync.Once
	otoInitErr error
)

// NewOtoBackend opens (or reuses) the audio device at sampleRate.
func NewOtoBackend(sampleRate int) (*OtoBackend, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("initialize audio device: %w", otoInitErr)
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio device already open at %d Hz, cannot reopen at %d Hz", otoRate, sampleRate)
	}
	return &OtoBackend{sampleRate: sampleRate}, nil
}

func (b *OtoBackend) SampleRate() int { return b.sampleRate }

func (b *OtoBackend) Start(pcm []byte, loop bool) (Stream, error) {
	var r io.Reader = bytes.NewReader(pcm)
	if loop {
		r = &loopReader{data: pcm}
	}
	p := otoCtx.NewPlayer(r)
	p.Play()
	if err := p.Err(); err != nil {
		p.Close()
		return nil, err
	}
	return &otoStream{player: p}, nil
}

type otoStream struct {
	player *oto.Player
}

func (s *otoStream) Playing() bool { return s.player.IsPlaying() }

func (s *otoStream) Stop() error {
	s.player.Pause()
	return s.player.Close()
}

// loopReader yields data endlessly. Empty data reads as EOF.
type loopReader struct {
	data []byte
	pos  int
}

func (l *loopReader) Read(p []byte) (int, error) {
	if len(l.data) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c := copy(p[n:], l.data[l.pos:])
		n += c
		l.pos = (l.pos + c) % len(l.data)
	}
	return n, nil
}
