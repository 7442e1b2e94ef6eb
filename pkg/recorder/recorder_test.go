package recorder

import (
	"sync"
	"testing"
	"time"

	"github.com/drgolem/afengine/pkg/audioframe"
	"github.com/drgolem/afengine/pkg/source"
)

type constSource struct {
	value     float32
	channels  int
	rate      int
	remaining int
}

func (s *constSource) ChannelCount() int { return s.channels }
func (s *constSource) SampleRate() int   { return s.rate }
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

func TestRecorderPassesThroughWriteUnchanged(t *testing.T) {
	inner := &constSource{value: 0.5, channels: 2, rate: 44100, remaining: 1000}
	r := New(inner, Config{})
	defer r.Close()

	out := make([]float32, 100)
	n := r.Write(out, source.Time{})
	if n != 100 {
		t.Fatalf("n = %d, want 100", n)
	}
	for i, v := range out {
		if v != 0.5 {
			t.Errorf("out[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestRecorderReportsInnerShape(t *testing.T) {
	inner := &constSource{channels: 2, rate: 48000, remaining: 10}
	r := New(inner, Config{})
	defer r.Close()

	if r.ChannelCount() != 2 {
		t.Errorf("ChannelCount = %d, want 2", r.ChannelCount())
	}
	if r.SampleRate() != 48000 {
		t.Errorf("SampleRate = %d, want 48000", r.SampleRate())
	}
}

func TestRecorderCapturesFramesToOnFrame(t *testing.T) {
	inner := &constSource{value: 0.25, channels: 1, rate: 44100, remaining: 10000}

	var mu sync.Mutex
	var captured []audioframe.AudioFrame
	r := New(inner, Config{
		FrameSamples: 64,
		OnFrame: func(f audioframe.AudioFrame) {
			mu.Lock()
			captured = append(captured, f)
			mu.Unlock()
		},
	})
	defer r.Close()

	out := make([]float32, 256)
	for i := 0; i < 5; i++ {
		r.Write(out, source.Time{})
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(captured)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(captured) == 0 {
		t.Fatal("expected at least one captured frame")
	}
	f := captured[0]
	if f.Format.SampleRate != 44100 || f.Format.Channels != 1 || f.Format.BitsPerSample != 32 {
		t.Errorf("unexpected frame format: %+v", f.Format)
	}
	if int(f.SamplesCount) != 64 {
		t.Errorf("SamplesCount = %d, want 64", f.SamplesCount)
	}
	if len(f.Audio) != 64*4 {
		t.Errorf("Audio length = %d, want %d", len(f.Audio), 64*4)
	}
}

func TestRecorderCloseStopsDrainGoroutine(t *testing.T) {
	inner := &constSource{value: 0.1, channels: 1, rate: 44100, remaining: 1000}
	r := New(inner, Config{})

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Close to return promptly")
	}
}
