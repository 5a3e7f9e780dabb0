package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// LoadMP3 decodes an MP3 file to 44.1 kHz stereo signed 16-bit LE PCM.
func LoadMP3(path string) ([]byte, error) {
	data, err := readLimited(path)
	if err != nil {
		return nil, err
	}
	return DecodeMP3(bytes.NewReader(data))
}

// DecodeMP3 is LoadMP3 for a stream. go-mp3 always yields stereo s16le, so
// only the sample rate may need converting.
func DecodeMP3(r io.Reader) ([]byte, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: decode: %w", err)
	}
	if len(pcm) < 4 {
		return nil, fmt.Errorf("mp3: no audio data")
	}
	if dec.SampleRate() == SampleRate {
		return pcm[:len(pcm)/4*4], nil
	}

	frames := make([]float64, len(pcm)/2)
	for i := range frames {
		frames[i] = float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	frames = frames[:len(frames)/2*2]
	return floatToPCM(resampleLinear(frames, dec.SampleRate(), SampleRate)), nil
}
