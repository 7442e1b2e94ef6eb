// Package source defines the AudioSource contract every producer of audio
// samples implements: preloaded/streamed file sources, synth wrappers, the
// mixer itself, and the channel-mapper/resampler adapters.
package source

import "github.com/drgolem/afengine/pkg/signalspec"

// Time is the absolute output-stream frame clock passed into Write. It is
// owned by the mixer and advances once per device callback; a source never
// advances it itself, only reads it to reason about absolute scheduling
// (e.g. a file source fading out at a specific stop frame).
type Time struct {
	PosInFrames uint64
}

// Advance returns a Time n frames later.
func (t Time) Advance(n uint64) Time {
	return Time{PosInFrames: t.PosInFrames + n}
}

// Source is the polymorphic audio source contract. Implementations must be
// safe to call from a single real-time thread; Write must not allocate and
// must not block.
//
// Exhaustion is sticky: once IsExhausted returns true, it returns true for
// every subsequent call, and Write returns 0 forever after.
type Source interface {
	// Write fills as much of output as possible with interleaved samples
	// according to ChannelCount/SampleRate, and returns the number of
	// samples (not frames) actually written. time is the absolute output
	// position of output[0]. Returning fewer samples than len(output) is
	// always legal and does not by itself imply exhaustion.
	Write(output []float32, time Time) int

	// ChannelCount returns the number of interleaved channels this source
	// produces. Fixed for the source's lifetime.
	ChannelCount() int

	// SampleRate returns the sample rate this source produces at. Fixed
	// for the source's lifetime.
	SampleRate() int

	// IsExhausted reports whether the source has no more samples to
	// produce. Sticky: once true, always true.
	IsExhausted() bool
}

// Spec returns the SignalSpec describing a Source's fixed output shape.
func Spec(s Source) signalspec.SignalSpec {
	return signalspec.New(uint32(s.SampleRate()), uint8(s.ChannelCount()))
}
