// Package audio wraps raw PCM samples in a RIFF/WAVE container.
//
// The synthesis profile is fixed: 24 kHz sample rate, mono, 16-bit signed
// little-endian. Everything here is a pure function of its input.
package audio

import "encoding/binary"

const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16

	// BytesPerSecond is the PCM byte rate at the fixed profile.
	BytesPerSecond = SampleRate * Channels * BitsPerSample / 8

	headerSize = 44
)

// EncodeWAV prepends the 44-byte RIFF/WAVE header to raw PCM bytes.
// Output length is always 44+len(pcm), including for empty input.
func EncodeWAV(pcm []byte) []byte {
	out := make([]byte, headerSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], Channels)
	binary.LittleEndian.PutUint32(out[24:28], SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], BytesPerSecond)
	binary.LittleEndian.PutUint16(out[32:34], Channels*BitsPerSample/8) // block align
	binary.LittleEndian.PutUint16(out[34:36], BitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerSize:], pcm)

	return out
}

// IsWAV reports whether b already carries a RIFF marker, so callers can
// avoid wrapping a container in a second container.
func IsWAV(b []byte) bool {
	return len(b) >= 4 && b[0] == 'R' && b[1] == 'I' && b[2] == 'F' && b[3] == 'F'
}

// DurationSeconds estimates playback length of raw PCM bytes at the fixed
// profile, rounded down to whole seconds.
func DurationSeconds(pcmLen int) int {
	if pcmLen <= 0 {
		return 0
	}
	return pcmLen / BytesPerSecond
}
