package types

import (
	"math"
	"time"
)

// FilePlaybackOptions configures playback of a file source (preloaded or
// streamed), per spec.md §3.
type FilePlaybackOptions struct {
	Stream bool // false = preload fully decoded into memory; true = ring-buffered streaming.

	Volume float32 // linear amplitude, >= 0.
	Speed  float64 // playback speed multiplier, > 0.

	// Repeat is the number of additional repeats after the first playthrough;
	// 0 means no repeat, math.MaxUint64 means forever.
	Repeat uint64

	// StartTimeFrames schedules playback to begin at this absolute output
	// frame; 0 means start immediately on the next mixer callback.
	StartTimeFrames uint64

	FadeIn        time.Duration
	FadeOutOnStop time.Duration

	ResamplingQuality ResamplingQuality

	// PosEmitRate throttles Position status events; zero disables them.
	PosEmitRate time.Duration
}

// RepeatForever is the Repeat sentinel meaning loop indefinitely.
const RepeatForever = math.MaxUint64

// DefaultFilePlaybackOptions returns sensible defaults: unity volume, unity
// speed, no repeat, start immediately, no fades, Default resampling quality.
func DefaultFilePlaybackOptions() FilePlaybackOptions {
	return FilePlaybackOptions{
		Stream:            false,
		Volume:            1.0,
		Speed:             1.0,
		Repeat:            0,
		StartTimeFrames:   0,
		ResamplingQuality: DefaultQuality,
		PosEmitRate:       200 * time.Millisecond,
	}
}

// Validate checks options for constructability per spec.md §7's
// ParameterError cases: negative volume, NaN, non-positive speed.
func (o FilePlaybackOptions) Validate() error {
	if o.Volume < 0 || math.IsNaN(float64(o.Volume)) {
		return NewError(ParameterError, "volume must be non-negative and not NaN")
	}
	if o.Speed <= 0 || math.IsNaN(o.Speed) {
		return NewError(ParameterError, "speed must be positive and not NaN")
	}
	return nil
}

// SynthPlaybackOptions configures playback of a synth source, per spec.md §3.
type SynthPlaybackOptions struct {
	Volume float32

	StartTimeFrames uint64

	FadeIn        time.Duration
	FadeOutOnStop time.Duration

	PosEmitRate time.Duration
}

// DefaultSynthPlaybackOptions returns sensible defaults: unity volume, start
// immediately, no fades.
func DefaultSynthPlaybackOptions() SynthPlaybackOptions {
	return SynthPlaybackOptions{
		Volume:      1.0,
		PosEmitRate: 200 * time.Millisecond,
	}
}

// Validate checks options for constructability.
func (o SynthPlaybackOptions) Validate() error {
	if o.Volume < 0 || math.IsNaN(float64(o.Volume)) {
		return NewError(ParameterError, "volume must be non-negative and not NaN")
	}
	return nil
}
