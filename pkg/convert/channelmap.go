// Package convert builds the converter chain described in spec.md §4.2: a
// channel-mapper adapter followed by a resampler adapter, each itself a
// source.Source so the chain composes recursively and the mixer never has
// to special-case a wrapped source.
package convert

import "github.com/drgolem/afengine/pkg/source"

// channelMapper adapts an inner source's channel count to outChannels:
// mono->N duplicates channel 0 into output channels 0 and 1 and silences any
// others; N(>=2)->mono takes channel 0; N->N (equal counts) is pulled through
// unchanged.
type channelMapper struct {
	inner       source.Source
	outChannels int
	scratch     []float32
}

// NewChannelMapper wraps inner so it appears to have outChannels channels.
// Returns inner unchanged if no mapping is needed.
func NewChannelMapper(inner source.Source, outChannels int) source.Source {
	if inner.ChannelCount() == outChannels {
		return inner
	}
	return &channelMapper{inner: inner, outChannels: outChannels}
}

func (m *channelMapper) ChannelCount() int { return m.outChannels }
func (m *channelMapper) SampleRate() int   { return m.inner.SampleRate() }
func (m *channelMapper) IsExhausted() bool { return m.inner.IsExhausted() }

func (m *channelMapper) Write(output []float32, time source.Time) int {
	inChannels := m.inner.ChannelCount()
	outFrames := len(output) / m.outChannels
	if outFrames == 0 {
		return 0
	}

	needed := outFrames * inChannels
	if cap(m.scratch) < needed {
		m.scratch = make([]float32, needed)
	}
	scratch := m.scratch[:needed]

	written := m.inner.Write(scratch, time)
	wroteFrames := written / inChannels

	switch {
	case inChannels == 1:
		// mono -> N: duplicate channel 0 into channels 0 and 1, silence elsewhere.
		for f := 0; f < wroteFrames; f++ {
			base := f * m.outChannels
			v := scratch[f]
			output[base] = v
			if m.outChannels > 1 {
				output[base+1] = v
			}
			for c := 2; c < m.outChannels; c++ {
				output[base+c] = 0
			}
		}
	case m.outChannels == 1:
		// N(>=2) -> mono: take channel 0.
		for f := 0; f < wroteFrames; f++ {
			output[f] = scratch[f*inChannels]
		}
	default:
		// N -> M, N != M, neither is 1: map the overlapping channels,
		// silence-fill any extra output channels.
		minChannels := inChannels
		if m.outChannels < minChannels {
			minChannels = m.outChannels
		}
		for f := 0; f < wroteFrames; f++ {
			inBase := f * inChannels
			outBase := f * m.outChannels
			for c := 0; c < minChannels; c++ {
				output[outBase+c] = scratch[inBase+c]
			}
			for c := minChannels; c < m.outChannels; c++ {
				output[outBase+c] = 0
			}
		}
	}

	return wroteFrames * m.outChannels
}
