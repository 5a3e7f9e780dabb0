package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// buildWAV assembles a minimal PCM WAV file in memory.
func buildWAV(sampleRate uint32, bitsPerSample, channels uint16, pcm []byte) []byte {
	var buf bytes.Buffer
	blockAlign := channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, sampleRate*uint32(blockAlign))
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, bitsPerSample)
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func int16s(vals ...int16) []byte {
	b := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func sampleAt(pcm []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(pcm[i*2:]))
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWAVStereo16(t *testing.T) {
	in := []int16{1000, 2000, -1000, -2000, 0, 0, 32767, -32768}
	path := writeTemp(t, "s16.wav", buildWAV(44100, 16, 2, int16s(in...)))

	got, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if len(got) != len(in)*2 {
		t.Fatalf("length: got %d, want %d", len(got), len(in)*2)
	}
	for i, want := range in {
		d := int(sampleAt(got, i)) - int(want)
		if d < -1 || d > 1 {
			t.Errorf("sample %d: got %d, want %d", i, sampleAt(got, i), want)
		}
	}
}

func TestLoadWAVMonoDuplicates(t *testing.T) {
	path := writeTemp(t, "mono.wav", buildWAV(44100, 16, 1, int16s(5000, -5000, 10000, -10000)))

	got, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if len(got) != 16 {
		t.Fatalf("length: got %d, want 16", len(got))
	}
	for f := 0; f < 4; f++ {
		if l, r := sampleAt(got, 2*f), sampleAt(got, 2*f+1); l != r {
			t.Errorf("frame %d: L=%d R=%d", f, l, r)
		}
	}
}

func TestLoadWAVResamples(t *testing.T) {
	vals := make([]int16, 100)
	for i := range vals {
		vals[i] = int16(i * 100)
	}
	path := writeTemp(t, "22k.wav", buildWAV(22050, 16, 1, int16s(vals...)))

	got, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if frames := len(got) / 4; frames < 190 || frames > 210 {
		t.Errorf("expected ~200 frames, got %d", frames)
	}
}

func TestLoadWAV8Bit(t *testing.T) {
	path := writeTemp(t, "u8.wav", buildWAV(44100, 8, 1, []byte{128, 255, 0}))

	got, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if s := sampleAt(got, 0); s < -256 || s > 256 {
		t.Errorf("silence decoded as %d", s)
	}
	if s := sampleAt(got, 2); s < 20000 {
		t.Errorf("max positive decoded as %d", s)
	}
	if s := sampleAt(got, 4); s > -20000 {
		t.Errorf("max negative decoded as %d", s)
	}
}

func TestLoadWAV24Bit(t *testing.T) {
	// One mono frame at -2^22 (half scale negative).
	raw := []byte{0x00, 0x00, 0xC0}
	got, err := DecodeWAV(buildWAV(44100, 24, 1, raw))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if s := sampleAt(got, 0); s > -16000 || s < -16500 {
		t.Errorf("24-bit half scale decoded as %d", s)
	}
}

func TestDecodeWAVRejects(t *testing.T) {
	if _, err := DecodeWAV([]byte("this is not a wav file, it's just some random text")); err == nil {
		t.Error("expected error for non-WAV data")
	}

	alaw := buildWAV(44100, 8, 1, []byte{128, 128})
	alaw[20] = 6
	if _, err := DecodeWAV(alaw); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("A-law: err = %v, want ErrUnsupportedFormat", err)
	}

	surround := buildWAV(44100, 16, 6, make([]byte, 24))
	if _, err := DecodeWAV(surround); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("6ch: err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	in := []int16{0, 0, 12000, -12000, -32767, 32767, 5, -5}
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, in, 44100, 2); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if buf.Len() != 44+len(in)*2 {
		t.Fatalf("size = %d, want %d", buf.Len(), 44+len(in)*2)
	}
	got, err := DecodeWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	for i, want := range in {
		d := int(sampleAt(got, i)) - int(want)
		if d < -1 || d > 1 {
			t.Errorf("sample %d: got %d, want %d", i, sampleAt(got, i), want)
		}
	}
}

func TestEncodeWAVBadChannels(t *testing.T) {
	if err := EncodeWAV(&bytes.Buffer{}, nil, 44100, 3); err == nil {
		t.Error("expected error for 3 channels")
	}
}

func TestLoadByExtension(t *testing.T) {
	wav := writeTemp(t, "tone.WAV", buildWAV(44100, 16, 2, int16s(1, 2)))
	if _, err := Load(wav); err != nil {
		t.Errorf("Load(.WAV): %v", err)
	}

	ogg := writeTemp(t, "tone.ogg", []byte("OggS"))
	if _, err := Load(ogg); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.ogg): err = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

