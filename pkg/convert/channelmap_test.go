package convert

import (
	"testing"

	"github.com/drgolem/afengine/pkg/source"
)

// constSource produces a fixed number of frames of a constant value per
// channel, then reports exhausted.
type constSource struct {
	channels int
	rate     int
	value    float32
	frames   int
	written  int
}

func (s *constSource) ChannelCount() int { return s.channels }
func (s *constSource) SampleRate() int   { return s.rate }
func (s *constSource) IsExhausted() bool { return s.written >= s.frames }

func (s *constSource) Write(output []float32, _ source.Time) int {
	if s.IsExhausted() {
		return 0
	}
	framesLeft := s.frames - s.written
	wantFrames := len(output) / s.channels
	if wantFrames > framesLeft {
		wantFrames = framesLeft
	}
	for f := 0; f < wantFrames; f++ {
		for c := 0; c < s.channels; c++ {
			output[f*s.channels+c] = s.value
		}
	}
	s.written += wantFrames
	return wantFrames * s.channels
}

func TestChannelMapperMonoToStereo(t *testing.T) {
	mono := &constSource{channels: 1, rate: 44100, value: 0.5, frames: 4}
	mapper := NewChannelMapper(mono, 2)

	out := make([]float32, 8)
	n := mapper.Write(out, source.Time{})
	if n != 8 {
		t.Fatalf("n = %d, want 8", n)
	}
	for i := 0; i < 8; i++ {
		if out[i] != 0.5 {
			t.Errorf("out[%d] = %v, want 0.5", i, out[i])
		}
	}
}

func TestChannelMapperStereoToMono(t *testing.T) {
	stereo := &constSource{channels: 2, rate: 44100, value: 0.25, frames: 4}
	mapper := NewChannelMapper(stereo, 1)

	out := make([]float32, 4)
	n := mapper.Write(out, source.Time{})
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	for i := 0; i < 4; i++ {
		if out[i] != 0.25 {
			t.Errorf("out[%d] = %v, want 0.25", i, out[i])
		}
	}
}

func TestChannelMapperIdentityNoOp(t *testing.T) {
	stereo := &constSource{channels: 2, rate: 44100, value: 1.0, frames: 4}
	mapper := NewChannelMapper(stereo, 2)
	if mapper != source.Source(stereo) {
		t.Error("expected identity mapping to return the source unchanged")
	}
}

func TestChannelMapperExtraChannelsSilenceFilled(t *testing.T) {
	stereo := &constSource{channels: 2, rate: 44100, value: 0.5, frames: 2}
	mapper := NewChannelMapper(stereo, 4)

	out := make([]float32, 8)
	n := mapper.Write(out, source.Time{})
	if n != 8 {
		t.Fatalf("n = %d, want 8", n)
	}
	for f := 0; f < 2; f++ {
		base := f * 4
		if out[base] != 0.5 || out[base+1] != 0.5 {
			t.Errorf("frame %d mapped channels wrong: %v", f, out[base:base+2])
		}
		if out[base+2] != 0 || out[base+3] != 0 {
			t.Errorf("frame %d extra channels not silent: %v", f, out[base+2:base+4])
		}
	}
}
