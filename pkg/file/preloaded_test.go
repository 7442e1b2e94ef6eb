package file

import (
	"testing"
	"time"

	"github.com/drgolem/afengine/pkg/decoder"
	"github.com/drgolem/afengine/pkg/signalspec"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// fakeDecoder hands out a fixed block of mono samples once, then EOF.
type fakeDecoder struct {
	spec    signalspec.SignalSpec
	samples []float32
	served  bool
}

func (d *fakeDecoder) SignalSpec() signalspec.SignalSpec { return d.spec }
func (d *fakeDecoder) CodecParams() decoder.CodecParams {
	return decoder.CodecParams{TimeBase: time.Second / time.Duration(d.spec.SampleRate)}
}
func (d *fakeDecoder) ReadPacket(buf *decoder.SampleBuffer) (bool, error) {
	if d.served {
		return false, nil
	}
	d.served = true
	buf.Data = append(buf.Data[:0], d.samples...)
	buf.Frames = len(d.samples) / int(d.spec.ChannelCount)
	return true, nil
}
func (d *fakeDecoder) Seek(time.Duration) (uint64, error) { return 0, nil }
func (d *fakeDecoder) Close() error                       { return nil }

func newFakeDecoder(n int) *fakeDecoder {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 1.0
	}
	return &fakeDecoder{
		spec:    signalspec.New(44100, 1),
		samples: samples,
	}
}

func TestPreloadedSourceEmptyBufferFails(t *testing.T) {
	d := &fakeDecoder{spec: signalspec.New(44100, 1)}
	_, err := NewPreloaded(1, "empty.wav", d, 44100, types.DefaultFilePlaybackOptions(), nil)
	if err == nil {
		t.Fatal("expected DecodeError for empty decoded buffer")
	}
}

func TestPreloadedSourcePlaysToExhaustion(t *testing.T) {
	d := newFakeDecoder(1000)
	status := make(chan types.StatusEvent, 10)
	s, err := NewPreloaded(1, "x.wav", d, 44100, types.DefaultFilePlaybackOptions(), status)
	if err != nil {
		t.Fatalf("NewPreloaded: %v", err)
	}

	out := make([]float32, 2000)
	total := 0
	for i := 0; i < 10 && !s.IsExhausted(); i++ {
		total += s.Write(out, source.Time{})
	}
	if !s.IsExhausted() {
		t.Fatal("expected source to become exhausted")
	}

	close(status)
	stoppedCount := 0
	for ev := range status {
		if ev.Stopped {
			stoppedCount++
			if !ev.Exhausted {
				t.Error("expected natural end exhausted=true")
			}
		}
	}
	if stoppedCount != 1 {
		t.Errorf("stopped events = %d, want exactly 1", stoppedCount)
	}
}

func TestPreloadedSourceClonesWithoutRedecode(t *testing.T) {
	d := newFakeDecoder(1000)
	s, err := NewPreloaded(1, "x.wav", d, 44100, types.DefaultFilePlaybackOptions(), nil)
	if err != nil {
		t.Fatalf("NewPreloaded: %v", err)
	}

	clone, err := s.Clone(2, types.DefaultFilePlaybackOptions(), nil)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.buf != s.buf {
		t.Error("expected clone to reuse the original's decoded buffer")
	}
}

func TestPreloadedSourceStickyExhaustion(t *testing.T) {
	d := newFakeDecoder(100)
	s, _ := NewPreloaded(1, "x.wav", d, 44100, types.DefaultFilePlaybackOptions(), nil)

	out := make([]float32, 1000)
	for i := 0; i < 5; i++ {
		s.Write(out, source.Time{})
	}
	if !s.IsExhausted() {
		t.Fatal("expected exhaustion")
	}
	n := s.Write(out, source.Time{})
	if n != 0 {
		t.Errorf("n = %d, want 0 after exhaustion", n)
	}
}

func TestPreloadedSourceRejectsInvalidOptions(t *testing.T) {
	d := newFakeDecoder(100)
	opts := types.DefaultFilePlaybackOptions()
	opts.Speed = -1
	if _, err := NewPreloaded(1, "x.wav", d, 44100, opts, nil); err == nil {
		t.Error("expected ParameterError for non-positive speed")
	}
}
