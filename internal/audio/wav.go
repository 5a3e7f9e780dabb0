package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// SampleRate is the output rate of every loader in this package.
const SampleRate = 44100

// maxFileSize is the largest audio file we'll load (50 MB).
const maxFileSize = 50 * 1024 * 1024

var (
	ErrUnsupportedFormat = errors.New("audio: unsupported file format")
	ErrFileTooLarge      = errors.New("audio: file too large")
)

// wavFormat is the subset of the fmt chunk we care about.
type wavFormat struct {
	channels      int
	sampleRate    int
	bitsPerSample int
}

func (f wavFormat) frameSize() int {
	return f.bitsPerSample / 8 * f.channels
}

// LoadWAV reads a PCM WAV file (8, 16 or 24-bit, mono or stereo) and returns
// 44.1 kHz stereo signed 16-bit LE PCM.
func LoadWAV(path string) ([]byte, error) {
	data, err := readLimited(path)
	if err != nil {
		return nil, err
	}
	return DecodeWAV(data)
}

// DecodeWAV is LoadWAV for in-memory data.
func DecodeWAV(data []byte) ([]byte, error) {
	if len(data) < 44 {
		return nil, fmt.Errorf("wav: file too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wav: not a WAV file")
	}

	fmtChunk, err := findChunk(data, "fmt ")
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(fmtChunk)
	if err != nil {
		return nil, err
	}

	raw, err := findChunk(data, "data")
	if err != nil {
		return nil, err
	}
	numFrames := len(raw) / format.frameSize()
	if numFrames == 0 {
		return nil, fmt.Errorf("wav: no audio data")
	}

	width := format.bitsPerSample / 8
	frames := make([]float64, numFrames*2)
	for i := 0; i < numFrames; i++ {
		off := i * format.frameSize()
		left := decodeSample(raw[off:], format.bitsPerSample)
		right := left
		if format.channels == 2 {
			right = decodeSample(raw[off+width:], format.bitsPerSample)
		}
		frames[i*2] = left
		frames[i*2+1] = right
	}

	if format.sampleRate != SampleRate {
		frames = resampleLinear(frames, format.sampleRate, SampleRate)
	}
	return floatToPCM(frames), nil
}

func parseFormat(chunk []byte) (wavFormat, error) {
	if len(chunk) < 16 {
		return wavFormat{}, fmt.Errorf("wav: fmt chunk too short")
	}
	if code := binary.LittleEndian.Uint16(chunk[0:2]); code != 1 {
		return wavFormat{}, fmt.Errorf("%w: wav format code %d (only PCM)", ErrUnsupportedFormat, code)
	}
	f := wavFormat{
		channels:      int(binary.LittleEndian.Uint16(chunk[2:4])),
		sampleRate:    int(binary.LittleEndian.Uint32(chunk[4:8])),
		bitsPerSample: int(binary.LittleEndian.Uint16(chunk[14:16])),
	}
	if f.channels < 1 || f.channels > 2 {
		return wavFormat{}, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.channels)
	}
	switch f.bitsPerSample {
	case 8, 16, 24:
	default:
		return wavFormat{}, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, f.bitsPerSample)
	}
	if f.sampleRate <= 0 {
		return wavFormat{}, fmt.Errorf("wav: invalid sample rate %d", f.sampleRate)
	}
	return f, nil
}

// findChunk returns the body of the first RIFF chunk with the given ID,
// truncated to the data actually present.
func findChunk(data []byte, id string) ([]byte, error) {
	off := 12
	for off+8 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		start := off + 8
		if string(data[off:off+4]) == id {
			end := start + size
			if end > len(data) || end < start {
				end = len(data)
			}
			return data[start:end], nil
		}
		// Chunks are word-aligned.
		off = start + size + size%2
	}
	return nil, fmt.Errorf("wav: %q chunk not found", id)
}

// decodeSample returns the sample at b[0:] scaled to [-1, 1].
func decodeSample(b []byte, bits int) float64 {
	switch bits {
	case 8:
		// unsigned, 128 = silence
		return (float64(b[0]) - 128) / 128
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608
	}
	return 0
}

// resampleLinear resamples interleaved stereo frames from srcRate to dstRate.
func resampleLinear(frames []float64, srcRate, dstRate int) []float64 {
	srcFrames := len(frames) / 2
	ratio := float64(srcRate) / float64(dstRate)
	dstFrames := int(math.Ceil(float64(srcFrames) / ratio))
	out := make([]float64, dstFrames*2)

	for i := 0; i < dstFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		switch {
		case idx+1 < srcFrames:
			for ch := 0; ch < 2; ch++ {
				out[i*2+ch] = frames[idx*2+ch]*(1-frac) + frames[(idx+1)*2+ch]*frac
			}
		case idx < srcFrames:
			out[i*2] = frames[idx*2]
			out[i*2+1] = frames[idx*2+1]
		}
	}
	return out
}

func floatToPCM(frames []float64) []byte {
	pcm := make([]byte, len(frames)*2)
	for i, f := range frames {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(clamp16(f*32767)))
	}
	return pcm
}

func clamp16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// EncodeWAV writes interleaved 16-bit samples as a canonical PCM WAV file.
func EncodeWAV(w io.Writer, samples []int16, sampleRate, channels int) error {
	if channels < 1 || channels > 2 {
		return fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", sampleRate)
	}
	dataSize := len(samples) * 2
	if uint64(dataSize) > math.MaxUint32-36 {
		return ErrFileTooLarge
	}
	blockAlign := channels * 2

	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	body := make([]byte, dataSize)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(body[i*2:], uint16(s))
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wav: write data: %w", err)
	}
	return nil
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, path, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	return data, nil
}

// ResamplePCM converts interleaved stereo s16le PCM between sample rates.
func ResamplePCM(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	frames := make([]float64, len(pcm)/4*2)
	for i := range frames {
		frames[i] = float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return floatToPCM(resampleLinear(frames, srcRate, dstRate))
}
