package mixer

import (
	"testing"

	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// constSource emits a constant value for a fixed number of frames, mono.
type constSource struct {
	value     float32
	remaining int
}

func (s *constSource) ChannelCount() int { return 1 }
func (s *constSource) SampleRate() int   { return 44100 }
func (s *constSource) IsExhausted() bool { return s.remaining <= 0 }
func (s *constSource) Write(output []float32, _ source.Time) int {
	n := len(output)
	if n > s.remaining {
		n = s.remaining
	}
	for i := 0; i < n; i++ {
		output[i] = s.value
	}
	s.remaining -= n
	return n
}

func TestMixerSumsTwoSources(t *testing.T) {
	m := New(1, 44100, nil)
	m.Send(Msg{Kind: AddSource, Id: 1, Source: &constSource{value: 0.25, remaining: 100}})
	m.Send(Msg{Kind: AddSource, Id: 2, Source: &constSource{value: 0.5, remaining: 100}})

	out := make([]float32, 10)
	m.Write(out, source.Time{})

	for i, v := range out {
		if v != 0.75 {
			t.Errorf("out[%d] = %v, want 0.75", i, v)
		}
	}
}

func TestMixerRemovesExhaustedSources(t *testing.T) {
	m := New(1, 44100, nil)
	m.Send(Msg{Kind: AddSource, Id: 1, Source: &constSource{value: 1.0, remaining: 5}})

	out := make([]float32, 10)
	m.Write(out, source.Time{})
	if len(m.playing) != 0 {
		t.Errorf("playing entries = %d, want 0 after exhaustion", len(m.playing))
	}
}

func TestMixerHonorsStartFrame(t *testing.T) {
	m := New(1, 44100, nil)
	m.Send(Msg{Kind: AddSource, Id: 1, Source: &constSource{value: 1.0, remaining: 100}, StartFrame: 20})

	out := make([]float32, 10)
	m.Write(out, source.Time{PosInFrames: 0})
	for _, v := range out {
		if v != 0 {
			t.Error("expected silence before start_frame")
		}
	}

	out2 := make([]float32, 20)
	m.Write(out2, source.Time{PosInFrames: 10})
	for i, v := range out2 {
		if i < 10 {
			if v != 0 {
				t.Errorf("out2[%d] = %v, want 0 before start", i, v)
			}
		} else {
			if v != 1.0 {
				t.Errorf("out2[%d] = %v, want 1.0 after start", i, v)
			}
		}
	}
}

func TestMixerStopSourceSendsControl(t *testing.T) {
	m := New(1, 44100, nil)
	ctrl := make(types.ControlSender, 4)
	m.Send(Msg{Kind: AddSource, Id: 1, Source: &constSource{value: 1.0, remaining: 1000}, Ctrl: ctrl})

	out := make([]float32, 10)
	m.Write(out, source.Time{})

	m.Send(Msg{Kind: StopSource, Id: 1, StopFrame: 5})
	m.Write(out, source.Time{PosInFrames: 10})

	select {
	case msg := <-ctrl:
		if msg.Kind != types.ControlStop {
			t.Errorf("kind = %v, want ControlStop", msg.Kind)
		}
	default:
		t.Error("expected a ControlStop message to have been sent")
	}
}

func TestMixerRemoveAllSources(t *testing.T) {
	m := New(1, 44100, nil)
	m.Send(Msg{Kind: AddSource, Id: 1, Source: &constSource{value: 1.0, remaining: 1000}})
	m.Send(Msg{Kind: AddSource, Id: 2, Source: &constSource{value: 1.0, remaining: 1000}})

	out := make([]float32, 10)
	m.Write(out, source.Time{})

	m.Send(Msg{Kind: RemoveAllSources})
	m.Write(out, source.Time{PosInFrames: 10})
	if len(m.playing) != 0 {
		t.Errorf("playing entries = %d, want 0 after RemoveAllSources", len(m.playing))
	}
}

func TestMixerNeverExhausts(t *testing.T) {
	m := New(1, 44100, nil)
	if m.IsExhausted() {
		t.Error("mixer must never report exhausted")
	}
}
