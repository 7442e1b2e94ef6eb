package synth

import (
	"testing"
	"time"

	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// countGenerator produces n samples of a constant value then ends.
type countGenerator struct {
	remaining int
	value     float64
}

func (g *countGenerator) Next() (float64, bool) {
	if g.remaining <= 0 {
		return 0, false
	}
	g.remaining--
	return g.value, true
}

func TestSynthSourceNaturalExhaustion(t *testing.T) {
	gen := &countGenerator{remaining: 10, value: 0.5}
	s, err := New(1, "test-synth", gen, types.DefaultSynthPlaybackOptions(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := make([]float32, 20)
	n := s.Write(out, source.Time{})
	if n != 10 {
		t.Errorf("n = %d, want 10", n)
	}
	if !s.IsExhausted() {
		t.Error("expected source to be exhausted after generator end")
	}
}

func TestSynthSourceStickyExhaustion(t *testing.T) {
	gen := &countGenerator{remaining: 2, value: 1.0}
	s, _ := New(1, "test-synth", gen, types.DefaultSynthPlaybackOptions(), nil)

	out := make([]float32, 10)
	s.Write(out, source.Time{})
	if !s.IsExhausted() {
		t.Fatal("expected exhaustion")
	}
	n := s.Write(out, source.Time{})
	if n != 0 {
		t.Errorf("n = %d, want 0 (sticky exhaustion)", n)
	}
}

func TestSynthSourceEmitsStoppedExactlyOnce(t *testing.T) {
	gen := &countGenerator{remaining: 4, value: 1.0}
	status := make(chan types.StatusEvent, 10)
	s, _ := New(1, "label", gen, types.DefaultSynthPlaybackOptions(), status)

	out := make([]float32, 8)
	s.Write(out, source.Time{})
	s.Write(out, source.Time{})

	stoppedCount := 0
	close(status)
	for ev := range status {
		if ev.Stopped {
			stoppedCount++
			if !ev.Exhausted {
				t.Error("expected natural end to report exhausted=true")
			}
		}
	}
	if stoppedCount != 1 {
		t.Errorf("stopped events = %d, want exactly 1", stoppedCount)
	}
}

func TestSynthSourceRejectsInvalidVolume(t *testing.T) {
	gen := &countGenerator{remaining: 1, value: 0}
	opts := types.DefaultSynthPlaybackOptions()
	opts.Volume = -1
	if _, err := New(1, "x", gen, opts, nil); err == nil {
		t.Error("expected ParameterError for negative volume")
	}
}

func TestSynthSourceStopWithFadeOut(t *testing.T) {
	gen := &countGenerator{remaining: 1000, value: 1.0}
	s, _ := New(1, "x", gen, types.DefaultSynthPlaybackOptions(), nil)

	s.Control().TrySend(types.ControlMessage{Kind: types.ControlStop, FadeOut: 10 * time.Millisecond})

	out := make([]float32, 4410*2) // well over 10ms at 44.1kHz
	s.Write(out, source.Time{})
	if !s.IsExhausted() {
		t.Error("expected source to finish after fade-out to zero")
	}
}
