package player

import (
	"testing"
	"time"

	"github.com/drgolem/afengine/pkg/mixer"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// fakeSink stands in for pkg/output.Output: a Sink whose frame position is
// whatever the test advances it to.
type fakeSink struct {
	channels int
	rate     int
	pos      uint64
	started  int
	stopped  int
}

func (s *fakeSink) Start() error             { s.started++; return nil }
func (s *fakeSink) Stop() error              { s.stopped++; return nil }
func (s *fakeSink) ChannelCount() int        { return s.channels }
func (s *fakeSink) SampleRate() int          { return s.rate }
func (s *fakeSink) PositionFrames() uint64   { return s.pos }

// constSource emits value for remaining mono frames, then exhausts; it also
// exposes a control channel so it satisfies controllable.
type constSource struct {
	value     float32
	remaining int
	ctrl      chan types.ControlMessage
}

func newConstSource(value float32, remaining int) *constSource {
	return &constSource{value: value, remaining: remaining, ctrl: make(chan types.ControlMessage, 4)}
}

func (s *constSource) ChannelCount() int                { return 1 }
func (s *constSource) SampleRate() int                  { return 44100 }
func (s *constSource) IsExhausted() bool                { return s.remaining <= 0 }
func (s *constSource) Control() types.ControlSender     { return s.ctrl }
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

func newTestPlayer() (*Player, *fakeSink, *mixer.Mixer, chan types.StatusEvent) {
	sink := &fakeSink{channels: 1, rate: 44100}
	drop := make(chan source.Source, 64)
	mx := mixer.New(sink.channels, sink.rate, drop)
	userStatus := make(chan types.StatusEvent, 64)
	p := New(sink, mx, drop, userStatus)
	return p, sink, mx, userStatus
}

func TestPlayFileSourceAssignsIncreasingIds(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	id1, err := p.PlayFileSource(newConstSource(0.1, 100), 1.0, 0, types.DefaultQuality)
	if err != nil {
		t.Fatalf("PlayFileSource: %v", err)
	}
	id2, err := p.PlayFileSource(newConstSource(0.2, 100), 1.0, 0, types.DefaultQuality)
	if err != nil {
		t.Fatalf("PlayFileSource: %v", err)
	}
	if id1 == id2 || id1 == 0 || id2 == 0 {
		t.Errorf("expected distinct nonzero ids, got %d and %d", id1, id2)
	}
}

func TestPlayFileSourceRejectsNonPositiveSpeed(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	if _, err := p.PlayFileSource(newConstSource(0.1, 100), 0, 0, types.DefaultQuality); err == nil {
		t.Error("expected an error for speed=0")
	}
}

func TestSeekSourceUnknownIdReturnsNotFound(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	err := p.SeekSource(types.PlaybackId(999), time.Second)
	assertKind(t, err, types.NotFound)
}

func TestSeekSourceNotSupportedForSynth(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	id, err := p.PlaySynth(&constGenerator{}, "tone", types.DefaultSynthPlaybackOptions())
	if err != nil {
		t.Fatalf("PlaySynth: %v", err)
	}

	err = p.SeekSource(id, time.Second)
	assertKind(t, err, types.NotSupported)
}

func TestSeekSourceSucceedsForSeekableSource(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	src := newConstSource(0.1, 1000)
	id, err := p.PlayFileSource(src, 1.0, 0, types.DefaultQuality)
	if err != nil {
		t.Fatalf("PlayFileSource: %v", err)
	}

	if err := p.SeekSource(id, 2*time.Second); err != nil {
		t.Fatalf("SeekSource: %v", err)
	}

	select {
	case msg := <-src.ctrl:
		if msg.Kind != types.ControlSeek || msg.Seek != 2*time.Second {
			t.Errorf("unexpected control message %+v", msg)
		}
	default:
		t.Error("expected a ControlSeek message on the source's control channel")
	}
}

func TestStopSourceRemovesIdPreemptively(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	src := newConstSource(0.1, 1000)
	id, err := p.PlayFileSource(src, 1.0, 0, types.DefaultQuality)
	if err != nil {
		t.Fatalf("PlayFileSource: %v", err)
	}

	if err := p.StopSource(id); err != nil {
		t.Fatalf("StopSource: %v", err)
	}
	if err := p.StopSource(id); err == nil {
		t.Error("expected second StopSource call to return NotFound")
	} else {
		assertKind(t, err, types.NotFound)
	}
}

func TestStopSourceUnknownIdReturnsNotFound(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	err := p.StopSource(types.PlaybackId(42))
	assertKind(t, err, types.NotFound)
}

func TestStopAllSourcesClearsIdMap(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	id1, _ := p.PlayFileSource(newConstSource(0.1, 1000), 1.0, 0, types.DefaultQuality)
	id2, _ := p.PlayFileSource(newConstSource(0.2, 1000), 1.0, 0, types.DefaultQuality)

	if err := p.StopAllSources(); err != nil {
		t.Fatalf("StopAllSources: %v", err)
	}

	if err := p.SeekSource(id1, time.Second); err == nil {
		t.Error("expected id1 to be forgotten after StopAllSources")
	}
	if err := p.SeekSource(id2, time.Second); err == nil {
		t.Error("expected id2 to be forgotten after StopAllSources")
	}
}

func TestRunMessageThreadForwardsStoppedAndForgetsId(t *testing.T) {
	p, _, _, userStatus := newTestPlayer()
	defer p.Close()

	src := newConstSource(0.1, 1000)
	id, err := p.PlayFileSource(src, 1.0, 0, types.DefaultQuality)
	if err != nil {
		t.Fatalf("PlayFileSource: %v", err)
	}

	p.proxyStatus <- types.StatusEvent{Id: id, Stopped: true, Exhausted: true}

	select {
	case ev := <-userStatus:
		if !ev.Stopped || ev.Id != id {
			t.Errorf("unexpected event forwarded: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Stopped event to be forwarded to the user channel")
	}

	if !waitUntilPlayer(t, time.Second, func() bool {
		return p.SeekSource(id, 0) != nil
	}) {
		t.Error("expected id to be forgotten after a Stopped event")
	}
}

func TestRunMessageThreadDropsPositionWhenUserChannelFull(t *testing.T) {
	sink := &fakeSink{channels: 1, rate: 44100}
	drop := make(chan source.Source, 64)
	mx := mixer.New(sink.channels, sink.rate, drop)
	userStatus := make(chan types.StatusEvent) // unbuffered, nobody reads it
	p := New(sink, mx, drop, userStatus)
	defer p.Close()

	// Should not block even though nothing drains userStatus.
	done := make(chan struct{})
	go func() {
		p.proxyStatus <- types.StatusEvent{Id: 1, Position: time.Second}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runMessageThread blocked on a full user status channel for a Position event")
	}
}

func TestRunMessageThreadClosesDroppedSources(t *testing.T) {
	p, _, _, _ := newTestPlayer()
	defer p.Close()

	closed := make(chan struct{}, 1)
	p.drop <- &closingSource{closed: closed}

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("expected dropped source's Close to be called")
	}
}

type closingSource struct {
	closed chan struct{}
}

func (c *closingSource) ChannelCount() int                        { return 1 }
func (c *closingSource) SampleRate() int                          { return 44100 }
func (c *closingSource) IsExhausted() bool                        { return true }
func (c *closingSource) Write(output []float32, _ source.Time) int { return 0 }
func (c *closingSource) Close()                                   { c.closed <- struct{}{} }

type constGenerator struct{}

func (g *constGenerator) Next() (float64, bool) { return 0, true }

func assertKind(t *testing.T, err error, want types.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error with kind %v, got nil", want)
	}
	afErr, ok := err.(*types.Error)
	if !ok {
		t.Fatalf("expected *types.Error, got %T (%v)", err, err)
	}
	if afErr.Kind != want {
		t.Errorf("kind = %v, want %v", afErr.Kind, want)
	}
}

func waitUntilPlayer(t *testing.T, timeout time.Duration, cond func() bool) bool {
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
