package audio

import (
	"bytes"
	"testing"
)

const mp3FrameSamples = 1152

// silentMP3 builds n MPEG-1 Layer III frames at 128 kbps, stereo, with
// zeroed side info and main data. They decode to digital silence.
func silentMP3(sampleRate, n int) []byte {
	var rateBits byte
	switch sampleRate {
	case 44100:
		rateBits = 0
	case 48000:
		rateBits = 1
	case 32000:
		rateBits = 2
	default:
		panic("unsupported MPEG-1 sample rate")
	}
	size := 144 * 128000 / sampleRate
	frame := make([]byte, size)
	frame[0] = 0xFF
	frame[1] = 0xFB               // MPEG-1, Layer III, no CRC
	frame[2] = 0x90 | rateBits<<2 // bitrate index 9 (128 kbps)
	frame[3] = 0x00               // stereo

	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.Write(frame)
	}
	return buf.Bytes()
}

func checkSilentPCM(t *testing.T, pcm []byte, minFrames, maxFrames int) {
	t.Helper()
	if len(pcm)%4 != 0 {
		t.Fatalf("len = %d, not whole stereo s16 frames", len(pcm))
	}
	if got := len(pcm) / 4; got < minFrames || got > maxFrames {
		t.Errorf("frames = %d, want %d..%d", got, minFrames, maxFrames)
	}
	for i, b := range pcm {
		if b != 0 {
			t.Fatalf("byte %d = %d, want silence", i, b)
		}
	}
}

func TestDecodeMP3At44100(t *testing.T) {
	const n = 10
	pcm, err := DecodeMP3(bytes.NewReader(silentMP3(44100, n)))
	if err != nil {
		t.Fatal(err)
	}
	checkSilentPCM(t, pcm, (n-1)*mp3FrameSamples, n*mp3FrameSamples)
}

func TestDecodeMP3Resamples48000(t *testing.T) {
	const n = 10
	pcm, err := DecodeMP3(bytes.NewReader(silentMP3(48000, n)))
	if err != nil {
		t.Fatal(err)
	}
	// 1152 frames at 48 kHz become 1058.4 at 44.1 kHz.
	lo := (n - 1) * mp3FrameSamples * SampleRate / 48000
	hi := n*mp3FrameSamples*SampleRate/48000 + 1
	checkSilentPCM(t, pcm, lo, hi)
}

func TestLoadMP3File(t *testing.T) {
	path := writeTemp(t, "tone.mp3", silentMP3(32000, 8))
	pcm, err := LoadMP3(path)
	if err != nil {
		t.Fatal(err)
	}
	lo := 7 * mp3FrameSamples * SampleRate / 32000
	hi := 8*mp3FrameSamples*SampleRate/32000 + 1
	checkSilentPCM(t, pcm, lo, hi)

	viaLoad, err := Load(path)
	if err != nil {
		t.Fatalf("Load(.mp3): %v", err)
	}
	if !bytes.Equal(viaLoad, pcm) {
		t.Error("Load and LoadMP3 disagree")
	}
}

func TestDecodeMP3Garbage(t *testing.T) {
	if _, err := DecodeMP3(bytes.NewReader([]byte("definitely not mpeg audio"))); err == nil {
		t.Error("expected error for non-MP3 data")
	}
}
