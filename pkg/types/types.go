package types

import (
	"errors"
	"fmt"
)

// AudioDecoder is the common interface for all audio decoders (MP3, FLAC, WAV).
// All decoders must implement these methods to provide a consistent API
// for decoding audio files into raw PCM samples.
type AudioDecoder interface {
	// Open opens an audio file for decoding
	Open(fileName string) error

	// Close closes the decoder and releases resources
	Close() error

	// GetFormat returns the audio format information
	// Returns: sample rate (Hz), channels (1=mono, 2=stereo), bits per sample (8/16/24/32)
	GetFormat() (rate, channels, bitsPerSample int)

	// DecodeSamples decodes audio samples into the provided buffer
	// Parameters:
	//   samples: number of samples to decode (not bytes!)
	//   audio: buffer to write decoded audio data
	// Returns: number of samples actually decoded, error if decoding failed
	// Note: Buffer must be large enough: samples * channels * (bitsPerSample/8) bytes
	DecodeSamples(samples int, audio []byte) (int, error)
}

// Common ringbuffer errors used by both byte-based and frame-based ringbuffers.
// These errors enable consistent error handling and comparison using errors.Is().
var (
	// ErrInsufficientSpace indicates the ringbuffer doesn't have enough space for the write operation
	ErrInsufficientSpace = errors.New("insufficient space in ringbuffer")

	// ErrInsufficientData indicates the ringbuffer doesn't have enough data for the read operation
	ErrInsufficientData = errors.New("insufficient data in ringbuffer")
)

// ResamplingQuality selects which resampler kernel (see pkg/resampler)
// PlaybackOptions.ResamplingQuality requests.
type ResamplingQuality int

const (
	// DefaultQuality is the low-latency polynomial resampling kernel.
	DefaultQuality ResamplingQuality = iota
	// HighQualityResampling is the windowed-sinc resampling kernel.
	HighQualityResampling
)

// PlaybackId identifies a source across control messages and status events
// until the source is retired. Process-wide monotonic, never reused.
type PlaybackId uint64

// Kind classifies the errors the playback engine can return (see §7 of the
// design: DecodeError, ParameterError, NotFound, NotSupported, SendError,
// ResamplerError).
type Kind int

const (
	// DecodeError: file open/probe/read failed or produced an empty stream.
	DecodeError Kind = iota
	// ParameterError: options failed validation (negative volume, NaN, non-positive speed, ...).
	ParameterError
	// NotFound: playback id unknown to the player.
	NotFound
	// NotSupported: operation applied to the wrong source family (e.g. seek on synth).
	NotSupported
	// SendError: internal channel closed unexpectedly.
	SendError
	// ResamplerError: resampler construction failure.
	ResamplerError
)

func (k Kind) String() string {
	switch k {
	case DecodeError:
		return "DecodeError"
	case ParameterError:
		return "ParameterError"
	case NotFound:
		return "NotFound"
	case NotSupported:
		return "NotSupported"
	case SendError:
		return "SendError"
	case ResamplerError:
		return "ResamplerError"
	default:
		return "UnknownError"
	}
}

// Error is the engine's typed error: a Kind plus an optional wrapped cause.
// Construction errors (decode, parameter validation, resampler setup)
// propagate to the caller this way; the real-time thread never surfaces
// errors synchronously and logs instead.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, types.NewError(types.NotFound, "")) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds an *Error of the given kind with no wrapped cause.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an *Error of the given kind around a cause.
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
