// Package resampler implements the two AudioResampler kernels described in
// spec.md §4.2: a low-latency Default kernel backed by zaf/resample, and a
// higher-quality windowed-sinc HighQuality kernel with no pack grounding
// (see SPEC_FULL.md's DOMAIN STACK section for why that one is stdlib-only).
//
// Both kernels consume/produce interleaved float32, mirroring the
// source.Source shape so a resampler can sit transparently inside the
// converter chain (pkg/convert) as just another pull-based adapter.
package resampler

import "github.com/drgolem/afengine/pkg/types"

// Quality selects which kernel to use. It is declared separately from
// types.ResamplingQuality (types.DefaultQuality, types.HighQualityResampling);
// FromTypesQuality converts the latter into it.
type Quality int

const (
	// Default is the low-latency polynomial kernel, suitable for most
	// real-time playback where artifact-free resampling isn't required.
	Default Quality = iota
	// HighQuality is the windowed-sinc kernel, higher CPU cost, used when
	// a caller explicitly asks for better resampling fidelity.
	HighQuality
)

// Resampler converts interleaved float32 input at InRate to interleaved
// float32 output at OutRate, one call at a time, preserving internal filter
// state across calls so callers can feed it incrementally. Process must not
// block or allocate on steady-state calls (both kernels grow their internal
// buffers on demand and reuse them on later calls).
type Resampler interface {
	// Process consumes as much of in as it can and writes resampled output
	// into out starting at out[0], returning the number of input samples
	// consumed and the number of output samples written this call.
	Process(in []float32, out []float32) (consumed, written int)

	// Reset clears internal filter state, used on seek to avoid ringing
	// artifacts from stale history (§4.5 seek policy).
	Reset()

	// Ratio returns OutRate/InRate.
	Ratio() float64
}

// FromTypesQuality converts a types.ResamplingQuality (the shape
// PlaybackOptions carries, kept dependency-free of pkg/resampler) to this
// package's Quality.
func FromTypesQuality(q types.ResamplingQuality) Quality {
	if q == types.HighQualityResampling {
		return HighQuality
	}
	return Default
}

// New builds a Resampler for the given channel count and rate conversion per
// the requested quality.
func New(quality Quality, channelCount, inRate, outRate int) (Resampler, error) {
	if inRate <= 0 || outRate <= 0 || channelCount <= 0 {
		return nil, types.NewError(types.ParameterError, "resampler requires positive rate and channel count")
	}
	switch quality {
	case Default:
		return newCubicResampler(channelCount, inRate, outRate)
	case HighQuality:
		return newSincResampler(channelCount, inRate, outRate)
	default:
		return nil, types.NewError(types.ParameterError, "unknown resampling quality")
	}
}
