package audio

import "encoding/binary"

// ApplyGain scales interleaved stereo s16le PCM in place: even samples by
// left, odd samples by right. Gains >= 1 on both sides leave data untouched.
func ApplyGain(pcm []byte, left, right float64) {
	if left >= 1 && right >= 1 {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		g := left
		if (i/2)%2 == 1 {
			g = right
		}
		if g >= 1 {
			continue
		}
		if g < 0 {
			g = 0
		}
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(float64(s)*g)))
	}
}
