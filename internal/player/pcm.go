package player

import "encoding/binary"

const (
	scale16 = 1 << 15
	scale24 = 1 << 23
)

// interleavedToFrames converts interleaved int16 PCM to stereo frames.
// Mono is duplicated to both channels; channels beyond two are dropped.
func interleavedToFrames(pcm []int16, channels int) [][2]float64 {
	if channels < 1 {
		channels = 1
	}
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		left := float64(pcm[i*channels]) / scale16
		right := left
		if channels > 1 {
			right = float64(pcm[i*channels+1]) / scale16
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// le16ToFrames converts little-endian 16-bit PCM bytes to stereo frames.
func le16ToFrames(data []byte, channels int) [][2]float64 {
	bytesPerFrame := 2 * channels
	frames := make([][2]float64, len(data)/bytesPerFrame)
	for i := range frames {
		off := i * bytesPerFrame
		left := int16(binary.LittleEndian.Uint16(data[off:])) //nolint:gosec // audio samples
		right := left
		if channels > 1 {
			right = int16(binary.LittleEndian.Uint16(data[off+2:])) //nolint:gosec // audio samples
		}
		frames[i] = [2]float64{float64(left) / scale16, float64(right) / scale16}
	}
	return frames
}

// le24ToFrames converts little-endian 24-bit PCM bytes to stereo frames.
func le24ToFrames(data []byte, channels int) [][2]float64 {
	bytesPerFrame := 3 * channels
	frames := make([][2]float64, len(data)/bytesPerFrame)
	for i := range frames {
		off := i * bytesPerFrame
		left := int24(data[off:])
		right := left
		if channels > 1 {
			right = int24(data[off+3:])
		}
		frames[i] = [2]float64{float64(left) / scale24, float64(right) / scale24}
	}
	return frames
}

// int24 reads a sign-extended little-endian 24-bit sample.
func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF
	}
	return v
}
