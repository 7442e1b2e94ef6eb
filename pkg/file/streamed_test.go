package file

import (
	"sync"
	"testing"
	"time"

	"github.com/drgolem/afengine/pkg/decoder"
	"github.com/drgolem/afengine/pkg/signalspec"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// chunkedDecoder hands out totalFrames mono frames across chunkFrames-sized
// packets, simulating a real streaming decoder. Safe for the actor goroutine
// to call exclusively; not safe for concurrent access from the test.
type chunkedDecoder struct {
	mu           sync.Mutex
	spec         signalspec.SignalSpec
	totalFrames  int
	chunkFrames  int
	served       int
	seekCount    int
	closed       bool
}

func newChunkedDecoder(totalFrames, chunkFrames int) *chunkedDecoder {
	return &chunkedDecoder{
		spec:        signalspec.New(44100, 1),
		totalFrames: totalFrames,
		chunkFrames: chunkFrames,
	}
}

func (d *chunkedDecoder) SignalSpec() signalspec.SignalSpec { return d.spec }
func (d *chunkedDecoder) CodecParams() decoder.CodecParams {
	return decoder.CodecParams{TimeBase: time.Second / time.Duration(d.spec.SampleRate)}
}

func (d *chunkedDecoder) ReadPacket(buf *decoder.SampleBuffer) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.served >= d.totalFrames {
		return false, nil
	}
	n := d.chunkFrames
	if d.served+n > d.totalFrames {
		n = d.totalFrames - d.served
	}
	buf.Data = buf.Data[:0]
	for i := 0; i < n; i++ {
		buf.Data = append(buf.Data, 1.0)
	}
	buf.Frames = n
	d.served += n
	return true, nil
}

func (d *chunkedDecoder) Seek(time.Duration) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.served = 0
	d.seekCount++
	return 0, nil
}

func (d *chunkedDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestStreamedSourcePlaysToExhaustion(t *testing.T) {
	d := newChunkedDecoder(2000, 200)
	status := make(chan types.StatusEvent, 64)
	s, err := NewStreamed(1, "x.wav", d, 44100, types.DefaultFilePlaybackOptions(), status)
	if err != nil {
		t.Fatalf("NewStreamed: %v", err)
	}

	out := make([]float32, 256)
	total := 0
	for i := 0; i < 5000 && !s.IsExhausted(); i++ {
		total += s.Write(out, source.Time{})
		if total == 0 {
			time.Sleep(time.Millisecond)
		}
	}

	if !waitUntil(t, 2*time.Second, s.IsExhausted) {
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

func TestStreamedSourceRejectsInvalidOptions(t *testing.T) {
	d := newChunkedDecoder(100, 50)
	opts := types.DefaultFilePlaybackOptions()
	opts.Speed = 0
	if _, err := NewStreamed(1, "x.wav", d, 44100, opts, nil); err == nil {
		t.Error("expected ParameterError for non-positive speed")
	}
	if !d.closed {
		t.Error("expected decoder to be closed on construction failure")
	}
}

func TestStreamedSourceCloseStopsActor(t *testing.T) {
	d := newChunkedDecoder(1<<30, 200) // effectively endless from the consumer's perspective
	s, err := NewStreamed(1, "x.wav", d, 44100, types.DefaultFilePlaybackOptions(), nil)
	if err != nil {
		t.Fatalf("NewStreamed: %v", err)
	}

	out := make([]float32, 256)
	s.Write(out, source.Time{}) // let the actor start producing

	s.Close()

	select {
	case <-s.actorDone:
	case <-time.After(2 * time.Second):
		t.Fatal("expected actor goroutine to shut down after Close")
	}
}

func TestStreamedSourceSeekDoesNotDeadlock(t *testing.T) {
	d := newChunkedDecoder(2000, 200)
	s, err := NewStreamed(1, "x.wav", d, 44100, types.DefaultFilePlaybackOptions(), nil)
	if err != nil {
		t.Fatalf("NewStreamed: %v", err)
	}

	out := make([]float32, 256)
	s.Write(out, source.Time{})

	s.Control().TrySend(types.ControlMessage{Kind: types.ControlSeek, Seek: 0})

	for i := 0; i < 20; i++ {
		s.Write(out, source.Time{})
	}
	s.Close()
}
