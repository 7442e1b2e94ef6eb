// Package pcm converts interleaved fixed-point PCM byte buffers, the shape
// the legacy byte-oriented decoders (wav/mp3/flac) work in, to and from the
// interleaved float32 samples the rest of the engine operates on.
package pcm

import "fmt"

// BytesToFloat32 decodes the interleaved samples of the given bit depth in
// src into dst, converting at most len(dst) samples, and returns the number
// of samples actually converted.
func BytesToFloat32(dst []float32, src []byte, bitsPerSample int) (int, error) {
	bytesPerSample := bitsPerSample / 8
	if bytesPerSample <= 0 {
		return 0, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	n := len(src) / bytesPerSample
	if n > len(dst) {
		n = len(dst)
	}

	switch bitsPerSample {
	case 8:
		for i := 0; i < n; i++ {
			// 8-bit PCM is conventionally unsigned.
			dst[i] = (float32(src[i]) - 128.0) / 128.0
		}
	case 16:
		for i := 0; i < n; i++ {
			off := i * 2
			v := int16(uint16(src[off]) | uint16(src[off+1])<<8)
			dst[i] = float32(v) / 32768.0
		}
	case 24:
		for i := 0; i < n; i++ {
			off := i * 3
			raw := uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16
			if raw&0x800000 != 0 {
				raw |= 0xFF000000
			}
			v := int32(raw)
			dst[i] = float32(v) / 8388608.0
		}
	case 32:
		for i := 0; i < n; i++ {
			off := i * 4
			raw := uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16 | uint32(src[off+3])<<24
			v := int32(raw)
			dst[i] = float32(v) / 2147483648.0
		}
	default:
		return 0, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	return n, nil
}

// Float32ToBytes encodes interleaved float32 samples (clamped to [-1, 1])
// into dst as fixed-point PCM of the given bit depth, returning the number
// of samples actually converted.
func Float32ToBytes(dst []byte, src []float32, bitsPerSample int) (int, error) {
	bytesPerSample := bitsPerSample / 8
	if bytesPerSample <= 0 {
		return 0, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	n := len(dst) / bytesPerSample
	if n > len(src) {
		n = len(src)
	}

	clamp := func(s float32) float32 {
		if s > 1.0 {
			return 1.0
		}
		if s < -1.0 {
			return -1.0
		}
		return s
	}

	switch bitsPerSample {
	case 8:
		for i := 0; i < n; i++ {
			dst[i] = byte(clamp(src[i])*128.0 + 128.0)
		}
	case 16:
		for i := 0; i < n; i++ {
			v := int16(clamp(src[i]) * 32767.0)
			off := i * 2
			dst[off] = byte(v)
			dst[off+1] = byte(v >> 8)
		}
	case 24:
		for i := 0; i < n; i++ {
			v := int32(clamp(src[i]) * 8388607.0)
			off := i * 3
			dst[off] = byte(v)
			dst[off+1] = byte(v >> 8)
			dst[off+2] = byte(v >> 16)
		}
	case 32:
		for i := 0; i < n; i++ {
			v := int32(clamp(src[i]) * 2147483647.0)
			off := i * 4
			dst[off] = byte(v)
			dst[off+1] = byte(v >> 8)
			dst[off+2] = byte(v >> 16)
			dst[off+3] = byte(v >> 24)
		}
	default:
		return 0, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	return n, nil
}
