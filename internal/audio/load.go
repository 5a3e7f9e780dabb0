package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load decodes a WAV or MP3 file, chosen by extension, to 44.1 kHz stereo
// signed 16-bit LE PCM. Other formats fail with ErrUnsupportedFormat.
func Load(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return LoadWAV(path)
	case ".mp3":
		return LoadMP3(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}
