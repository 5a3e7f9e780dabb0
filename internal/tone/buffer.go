package tone

import (
	"encoding/binary"
	"time"
)

// Buffer holds interleaved stereo samples: Samples[2i] is left, Samples[2i+1]
// is right. The caller owns it.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

// Frames returns the number of stereo sample pairs.
func (b Buffer) Frames() int {
	return len(b.Samples) / 2
}

// Duration is the playback length at b.SampleRate.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Bytes encodes the buffer as signed 16-bit little-endian PCM.
func (b Buffer) Bytes() []byte {
	out := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// FromBytes decodes signed 16-bit little-endian interleaved stereo PCM.
// A trailing odd byte is ignored.
func FromBytes(pcm []byte, sampleRate int) Buffer {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return Buffer{Samples: samples, SampleRate: sampleRate}
}

// Peak returns the largest absolute sample value on either side.
func (b Buffer) Peak() int {
	peak := 0
	for _, s := range b.Samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// EstimateLevelDB recovers the requested level from the buffer's peak under
// calibration c. Truncation costs at most one LSB, so the estimate is exact
// to well under 0.1 dB for levels producing a peak above a few hundred.
func (b Buffer) EstimateLevelDB(c Calibration) float64 {
	return c.LevelDB(float64(b.Peak()) / FullScale)
}
