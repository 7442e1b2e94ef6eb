// Package decoder defines the blocking, off-audio-thread Decoder contract
// that format-specific packages (wav, mp3, flac, opus, vorbis) implement, and
// the SampleBuffer packets flow through.
package decoder

import (
	"time"

	"github.com/drgolem/afengine/pkg/signalspec"
)

// CodecParams carries metadata a Decoder exposes after a successful Open.
type CodecParams struct {
	// NumFrames is the total frame count if known up front (0 means unknown,
	// e.g. a non-seekable stream).
	NumFrames uint64
	// HasNumFrames reports whether NumFrames is meaningful.
	HasNumFrames bool
	// MaxFramesPerPacket bounds how many frames a single ReadPacket call
	// can produce, letting callers size SampleBuffers up front.
	MaxFramesPerPacket uint64
	// TimeBase is the duration of one frame, used to convert seek targets
	// expressed in frames to/from wall-clock Durations.
	TimeBase time.Duration
}

// SampleBuffer holds one decoded packet of interleaved f32 samples. Decoders
// reuse the backing array across ReadPacket calls to avoid per-packet
// allocation; callers must copy out data they need to retain.
type SampleBuffer struct {
	Data   []float32
	Frames int
}

// Reset clears the buffer for reuse, keeping the backing array.
func (b *SampleBuffer) Reset() {
	b.Data = b.Data[:0]
	b.Frames = 0
}

// Decoder is the blocking, synchronous contract every format package
// implements. All methods may block on I/O and must never be called from a
// real-time audio thread; only the decode-actor goroutine in pkg/file and
// pkg/file's preload path call into a Decoder.
type Decoder interface {
	// SignalSpec returns the decoded stream's channel count and sample
	// rate, valid after Open succeeds.
	SignalSpec() signalspec.SignalSpec

	// CodecParams returns decode metadata, valid after Open succeeds.
	CodecParams() CodecParams

	// ReadPacket decodes the next packet into buf, replacing the contents
	// of buf.Data and setting buf.Frames. Returns false at end of stream (buf is left
	// untouched). Blocking.
	ReadPacket(buf *SampleBuffer) (ok bool, err error)

	// Seek moves the read position to the given time and returns the
	// actual resulting position in frames. Blocking.
	Seek(pos time.Duration) (framePos uint64, err error)

	// Close releases the decoder's resources (file handles, codec state).
	Close() error
}

// OpenFunc opens a decoder for path, probing its format and signal spec.
// pkg/decoders.Open (dispatching on the file extension) and vorbis.Open have
// this shape; this function type documents the shared construction contract.
type OpenFunc func(path string) (Decoder, error)
