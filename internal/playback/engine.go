// Package playback owns the audio device on behalf of the dispatcher. It
// exposes two independent capabilities, FileSink and ToneSink, each backed by
// a single slot so at most one file playback and one tone playback are live.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mavwarf/cleartone/internal/audio"
	"github.com/Mavwarf/cleartone/internal/tone"
)

// FileRequest asks for a file to loop at a calibrated level on one channel.
type FileRequest struct {
	Path    string
	Channel tone.Channel
	LevelDB float64
}

// FileSink plays pre-recorded audio.
type FileSink interface {
	PlayFile(ctx context.Context, req FileRequest) error
	StopFile() error
}

// ToneSink plays synthesized tones from a static buffer.
type ToneSink interface {
	PlayTone(ctx context.Context, req tone.Request) error
	StopTone() error
}

// Error reports a device or file failure with its underlying cause.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("playback: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("playback: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Engine implements FileSink and ToneSink on a Backend.
type Engine struct {
	backend Backend
	cal     tone.Calibration
	logger  *zap.Logger
	load    func(path string) ([]byte, error)
	now     func() time.Time

	mu   sync.Mutex
	file Handle
	tone Handle
}

// NewEngine returns an Engine with both slots empty. A nil logger is
// replaced with a no-op logger.
func NewEngine(backend Backend, cal tone.Calibration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		backend: backend,
		cal:     cal,
		logger:  logger,
		load:    audio.Load,
		now:     time.Now,
		file:    None{},
		tone:    None{},
	}
}

// PlayFile releases any active file playback, then loops req.Path with the
// level applied to the selected channel and the other side muted.
func (e *Engine) PlayFile(ctx context.Context, req FileRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.release(&e.file); err != nil {
		e.logger.Warn("releasing previous file playback", zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pcm, err := e.load(req.Path)
	if err != nil {
		return &Error{Op: "load", Path: req.Path, Err: err}
	}
	pcm = audio.ResamplePCM(pcm, audio.SampleRate, e.backend.SampleRate())

	gain := e.cal.Gain(req.LevelDB)
	l, r := req.Channel.Gains()
	audio.ApplyGain(pcm, l*gain, r*gain)

	s, err := e.backend.Start(pcm, true)
	if err != nil {
		return &Error{Op: "play file", Path: req.Path, Err: err}
	}
	h := &FileHandle{
		ID:      uuid.New(),
		Path:    req.Path,
		Channel: req.Channel,
		LevelDB: req.LevelDB,
		Started: e.now(),
		s:       s,
	}
	e.file = h
	e.logger.Info("file playback started",
		zap.String("id", h.ID.String()),
		zap.String("path", req.Path),
		zap.String("channel", req.Channel.String()),
		zap.Float64("level_db", req.LevelDB),
		zap.Float64("gain", gain))
	return nil
}

// StopFile stops the active file playback, if any.
func (e *Engine) StopFile() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.release(&e.file); err != nil {
		return &Error{Op: "stop file", Err: err}
	}
	return nil
}

// PlayTone releases any active tone, synthesizes req at the backend's rate
// and plays the buffer once.
func (e *Engine) PlayTone(ctx context.Context, req tone.Request) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.release(&e.tone); err != nil {
		e.logger.Warn("releasing previous tone", zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	buf, err := e.cal.Generate(req, e.backend.SampleRate())
	if err != nil {
		return err
	}
	s, err := e.backend.Start(buf.Bytes(), false)
	if err != nil {
		return &Error{Op: "play tone", Err: err}
	}
	h := &ToneHandle{ID: uuid.New(), Request: req, Started: e.now(), s: s}
	e.tone = h
	e.logger.Info("tone started",
		zap.String("id", h.ID.String()),
		zap.Float64("frequency", req.Frequency),
		zap.Float64("level_db", req.LevelDB),
		zap.String("channel", req.Channel.String()),
		zap.Int("duration_ms", req.DurationMs))
	return nil
}

// StopTone stops the active tone, if any.
func (e *Engine) StopTone() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.release(&e.tone); err != nil {
		return &Error{Op: "stop tone", Err: err}
	}
	return nil
}

// Status reports both slots.
func (e *Engine) Status() (fileSlot, toneSlot Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return statusOf(e.file), statusOf(e.tone)
}

// Close stops everything. It returns the first error.
func (e *Engine) Close() error {
	ferr := e.StopFile()
	terr := e.StopTone()
	if ferr != nil {
		return ferr
	}
	return terr
}

// release stops the stream in *slot and empties it. The slot is emptied even
// when Stop fails; a handle is never reused.
func (e *Engine) release(slot *Handle) error {
	h := *slot
	*slot = None{}
	if s := h.stream(); s != nil {
		return s.Stop()
	}
	return nil
}
