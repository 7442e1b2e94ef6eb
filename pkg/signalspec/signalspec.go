// Package signalspec describes the immutable signal shape a source produces.
package signalspec

import "fmt"

// ChannelLayout describes how channels in an interleaved buffer are arranged.
type ChannelLayout int

const (
	// Mono is a single channel.
	Mono ChannelLayout = iota
	// Interleaved is N channels interleaved frame by frame.
	Interleaved
)

func (l ChannelLayout) String() string {
	if l == Mono {
		return "mono"
	}
	return "interleaved"
}

// SignalSpec is the immutable triple every AudioSource is constructed with.
// It never mutates over a source's lifetime.
type SignalSpec struct {
	SampleRate    uint32
	ChannelCount  uint8
	ChannelLayout ChannelLayout
}

// New builds a SignalSpec, inferring the layout from the channel count.
func New(sampleRate uint32, channelCount uint8) SignalSpec {
	layout := Interleaved
	if channelCount == 1 {
		layout = Mono
	}
	return SignalSpec{
		SampleRate:    sampleRate,
		ChannelCount:  channelCount,
		ChannelLayout: layout,
	}
}

func (s SignalSpec) String() string {
	return fmt.Sprintf("%dHz/%dch(%s)", s.SampleRate, s.ChannelCount, s.ChannelLayout)
}

// Equal reports whether two specs describe the same rate and channel count.
func (s SignalSpec) Equal(o SignalSpec) bool {
	return s.SampleRate == o.SampleRate && s.ChannelCount == o.ChannelCount
}
