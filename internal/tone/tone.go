// Package tone synthesizes calibrated pure tones for audiometric playback.
//
// A tone is described by a Request (frequency, level in dB, stereo channel,
// duration) and rendered into an interleaved 16-bit stereo Buffer. Levels are
// mapped to linear amplitude against a fixed full-scale reference (MaxDB) with
// a headroom margin, so a request at MaxDB lands just below 0 dBFS.
//
// Generation is pure: every call allocates its own buffer and reads only
// immutable calibration values, so it is safe to call from many goroutines.
package tone

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 1000.0
	DefaultLevelDB    = 40.0
	DefaultDurationMs = 1000

	// FullScale is the largest magnitude written to a 16-bit sample.
	FullScale = 32767

	// MaxSamples caps the frames per buffer: ten minutes at 192 kHz.
	MaxSamples = 10 * 60 * 192000
)

var (
	ErrDurationTooLarge  = errors.New("tone: duration too large")
	ErrInvalidDuration   = errors.New("tone: duration must not be negative")
	ErrInvalidFrequency  = errors.New("tone: frequency must be a positive finite number")
	ErrInvalidSampleRate = errors.New("tone: sample rate must be positive")
)

// Channel selects which side of the stereo pair carries the tone.
type Channel int

const (
	Left Channel = iota
	Right
	Both
)

func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	case Both:
		return "both"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ParseChannel accepts "left", "right" or "both". An empty string is Left.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "", "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "both", "b", "stereo":
		return Both, nil
	}
	return Left, fmt.Errorf("tone: unknown channel %q (want left, right or both)", s)
}

// Gains returns the per-side gain multipliers for the channel.
func (c Channel) Gains() (left, right float64) {
	switch c {
	case Right:
		return 0, 1
	case Both:
		return 1, 1
	}
	return 1, 0
}

// Request describes one tone. The zero Channel is Left.
type Request struct {
	Frequency  float64 // Hz
	LevelDB    float64
	Channel    Channel
	DurationMs int
}

// DefaultRequest returns a 1 kHz, 40 dB, left-ear, one second tone.
func DefaultRequest() Request {
	return Request{
		Frequency:  DefaultFrequency,
		LevelDB:    DefaultLevelDB,
		Channel:    Left,
		DurationMs: DefaultDurationMs,
	}
}

// Validate checks the fields Generate cannot work around. Frequencies above
// Nyquist are accepted; aliasing is the caller's business.
func (r Request) Validate() error {
	if math.IsNaN(r.Frequency) || math.IsInf(r.Frequency, 0) || r.Frequency <= 0 {
		return ErrInvalidFrequency
	}
	if r.DurationMs < 0 {
		return ErrInvalidDuration
	}
	if r.Channel < Left || r.Channel > Both {
		return fmt.Errorf("tone: invalid channel %d", int(r.Channel))
	}
	return nil
}

// NumSamples returns the frame count for durationMs at sampleRate, truncating.
// It fails with ErrDurationTooLarge instead of overflowing or allocating an
// unbounded buffer.
func NumSamples(durationMs, sampleRate int) (int, error) {
	if sampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}
	if durationMs < 0 {
		return 0, ErrInvalidDuration
	}
	if int64(durationMs) > math.MaxInt64/int64(sampleRate) {
		return 0, fmt.Errorf("%w: %d ms at %d Hz", ErrDurationTooLarge, durationMs, sampleRate)
	}
	n := int64(durationMs) * int64(sampleRate) / 1000
	if n > MaxSamples {
		return 0, fmt.Errorf("%w: %d ms at %d Hz is %d frames (max %d)",
			ErrDurationTooLarge, durationMs, sampleRate, n, MaxSamples)
	}
	return int(n), nil
}

// Generate renders req at sampleRate using DefaultCalibration.
func Generate(req Request, sampleRate int) (Buffer, error) {
	return DefaultCalibration.Generate(req, sampleRate)
}

// GenerateDefault renders req at DefaultSampleRate.
func GenerateDefault(req Request) (Buffer, error) {
	return Generate(req, DefaultSampleRate)
}

// Generate renders req into an interleaved stereo buffer. Output is
// bit-identical for identical inputs.
func (c Calibration) Generate(req Request, sampleRate int) (Buffer, error) {
	if err := req.Validate(); err != nil {
		return Buffer{}, err
	}
	n, err := NumSamples(req.DurationMs, sampleRate)
	if err != nil {
		return Buffer{}, err
	}

	a := c.Amplitude(req.LevelDB)
	samples := make([]int16, 2*n)
	if a == 0 {
		return Buffer{Samples: samples, SampleRate: sampleRate}, nil
	}

	sr := float64(sampleRate)
	for i := 0; i < n; i++ {
		// Conversion truncates toward zero; |v| <= FullScale*SafetyMargin.
		v := int16(math.Sin(2*math.Pi*req.Frequency*float64(i)/sr) * a * FullScale)
		switch req.Channel {
		case Left:
			samples[2*i] = v
		case Right:
			samples[2*i+1] = v
		case Both:
			samples[2*i] = v
			samples[2*i+1] = v
		}
	}
	return Buffer{Samples: samples, SampleRate: sampleRate}, nil
}
