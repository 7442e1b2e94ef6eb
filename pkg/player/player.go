// Package player implements the facade described in spec.md §4.9 and §6:
// the public API surface wrapping a sink, a mixer, and the id->control
// bookkeeping that lets callers seek/stop sources by the PlaybackId handed
// back from play_file/play_file_source/play_synth.
package player

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/afengine/pkg/convert"
	"github.com/drgolem/afengine/pkg/file"
	"github.com/drgolem/afengine/pkg/mixer"
	"github.com/drgolem/afengine/pkg/resampler"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/synth"
	"github.com/drgolem/afengine/pkg/types"
)

// Sink is the external output collaborator a Player drives; pkg/output.Output
// satisfies this.
type Sink interface {
	Start() error
	Stop() error
	ChannelCount() int
	SampleRate() int
	PositionFrames() uint64
}

// controllable is implemented by any source exposing a control channel; not
// every source.Source does (a raw user-supplied source passed to
// PlayFileSource may not).
type controllable interface {
	Control() types.ControlSender
}

type sourceEntry struct {
	ctrl          types.ControlSender
	supportsSeek  bool
	fadeOutOnStop time.Duration
}

// Player is the facade described in spec.md §4.9: it owns the mixer's event
// queue, a proxy status channel, and the id->control map, and exposes the
// public operations of §6.
type Player struct {
	sink  Sink
	mixer *mixer.Mixer

	proxyStatus chan types.StatusEvent
	userStatus  chan<- types.StatusEvent
	drop        chan source.Source

	mu      sync.Mutex
	sources map[types.PlaybackId]*sourceEntry

	nextID atomic.Uint64

	done chan struct{}
}

// New wires sink and mx together under a Player facade. drop must be the
// same channel passed to mixer.New(channels, rate, drop), so the player
// message thread (not the audio thread) is what releases dropped sources.
// userStatus may be nil, in which case status events are simply discarded
// after updating the internal id map.
func New(sink Sink, mx *mixer.Mixer, drop chan source.Source, userStatus chan<- types.StatusEvent) *Player {
	p := &Player{
		sink:        sink,
		mixer:       mx,
		proxyStatus: make(chan types.StatusEvent, 256),
		userStatus:  userStatus,
		drop:        drop,
		sources:     make(map[types.PlaybackId]*sourceEntry),
		done:        make(chan struct{}),
	}
	go p.runMessageThread()
	return p
}

// Start starts the sink without dropping any sources.
func (p *Player) Start() error { return p.sink.Start() }

// Stop stops the sink without dropping any sources. pkg/output.Output's Stop
// closes its stream, so an Output cannot be started again after Stop.
func (p *Player) Stop() error { return p.sink.Stop() }

// Close shuts down the player message thread. Call after the sink has been
// stopped.
func (p *Player) Close() {
	close(p.done)
}

func (p *Player) OutputSampleRate() int            { return p.sink.SampleRate() }
func (p *Player) OutputChannelCount() int           { return p.sink.ChannelCount() }
func (p *Player) OutputSampleFramePosition() uint64 { return p.sink.PositionFrames() }

// PlayFile opens path (preloaded or streamed per opts.Stream) and adds it to
// the mixer. The returned PlaybackId is valid for SeekSource/StopSource
// until the source's Stopped event is observed.
func (p *Player) PlayFile(path string, opts types.FilePlaybackOptions) (types.PlaybackId, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}

	id := types.PlaybackId(p.nextID.Add(1))
	src, err := file.Open(id, path, p.sink.SampleRate(), opts, p.proxyStatus)
	if err != nil {
		return 0, err
	}

	// File sources already adapt to the device rate internally (they
	// realize Speed by lying to their own resampler about output rate,
	// per spec.md §4.2/§4.5), so the generic chain only needs to fix up
	// channel count; speed=1 keeps its resample stage a no-op.
	adapted, err := convert.Chain(src, p.sink.ChannelCount(), p.sink.SampleRate(), 1.0, resampler.FromTypesQuality(opts.ResamplingQuality))
	if err != nil {
		return 0, err
	}

	ctrl := controlOf(src)
	p.register(id, ctrl, true, opts.FadeOutOnStop)

	p.mixer.Send(mixer.Msg{
		Kind:       mixer.AddSource,
		Id:         id,
		Ctrl:       ctrl,
		Source:     adapted,
		StartFrame: opts.StartTimeFrames,
	})
	return id, nil
}

// PlayFileSource adds a caller-supplied source.Source directly, wrapped in
// the generic converter chain at the given speed and quality. Unlike
// PlayFile, this source has not been speed-adapted internally, so the full
// speed is applied by the chain itself.
func (p *Player) PlayFileSource(src source.Source, speed float64, startTimeFrames uint64, quality types.ResamplingQuality) (types.PlaybackId, error) {
	if speed <= 0 {
		return 0, types.NewError(types.ParameterError, "speed must be positive")
	}

	id := types.PlaybackId(p.nextID.Add(1))
	adapted, err := convert.Chain(src, p.sink.ChannelCount(), p.sink.SampleRate(), speed, resampler.FromTypesQuality(quality))
	if err != nil {
		return 0, err
	}

	ctrl := controlOf(src)
	p.register(id, ctrl, ctrl != nil, 0)

	p.mixer.Send(mixer.Msg{
		Kind:       mixer.AddSource,
		Id:         id,
		Ctrl:       ctrl,
		Source:     adapted,
		StartFrame: startTimeFrames,
	})
	return id, nil
}

// PlaySynth wraps gen as a synth source and adds it to the mixer under name
// (reported in status events as Path).
func (p *Player) PlaySynth(gen synth.Generator, name string, opts types.SynthPlaybackOptions) (types.PlaybackId, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}

	id := types.PlaybackId(p.nextID.Add(1))
	src, err := synth.New(id, name, gen, opts, p.proxyStatus)
	if err != nil {
		return 0, err
	}

	adapted, err := convert.Chain(src, p.sink.ChannelCount(), p.sink.SampleRate(), 1.0, resampler.Default)
	if err != nil {
		return 0, err
	}

	ctrl := src.Control()
	p.register(id, ctrl, false, opts.FadeOutOnStop)

	p.mixer.Send(mixer.Msg{
		Kind:       mixer.AddSource,
		Id:         id,
		Ctrl:       ctrl,
		Source:     adapted,
		StartFrame: opts.StartTimeFrames,
	})
	return id, nil
}

// SeekSource asks the source identified by id to seek to pos. Returns
// NotFound if id is unknown, NotSupported if the source family doesn't
// support seeking (synth sources, or a caller-supplied source with no
// control channel).
func (p *Player) SeekSource(id types.PlaybackId, pos time.Duration) error {
	e, ok := p.lookup(id)
	if !ok {
		return types.NewError(types.NotFound, "unknown playback id")
	}
	if !e.supportsSeek || e.ctrl == nil {
		return types.NewError(types.NotSupported, "seek not supported for this source")
	}
	if !e.ctrl.TrySend(types.ControlMessage{Kind: types.ControlSeek, Seek: pos}) {
		return types.NewError(types.SendError, "control channel unavailable")
	}
	return nil
}

// StopSource stops id immediately (fading out over the source's own
// configured FadeOutOnStop). Non-blocking; returns NotFound if id is
// unknown. The id is removed from the map pre-emptively so a second call
// reports NotFound, per spec.md §4.9's id lifecycle.
func (p *Player) StopSource(id types.PlaybackId) error {
	e, ok := p.takeAndForget(id)
	if !ok {
		return types.NewError(types.NotFound, "unknown playback id")
	}
	p.mixer.Send(mixer.Msg{
		Kind:      mixer.StopSource,
		Id:        id,
		StopFrame: p.sink.PositionFrames(),
		FadeOut:   e.fadeOutOnStop,
	})
	return nil
}

// StopSourceAtSampleTime schedules id to stop at device frame t. If t is
// already in the past, the stop fires at the mixer's next callback.
func (p *Player) StopSourceAtSampleTime(id types.PlaybackId, t uint64) error {
	e, ok := p.takeAndForget(id)
	if !ok {
		return types.NewError(types.NotFound, "unknown playback id")
	}
	p.mixer.Send(mixer.Msg{
		Kind:      mixer.StopSource,
		Id:        id,
		StopFrame: t,
		FadeOut:   e.fadeOutOnStop,
	})
	return nil
}

// StopAllSources stops every currently-registered source and culls any
// source scheduled to start in the future.
func (p *Player) StopAllSources() error {
	p.mu.Lock()
	ids := make([]types.PlaybackId, 0, len(p.sources))
	fadeOuts := make([]time.Duration, 0, len(p.sources))
	for id, e := range p.sources {
		ids = append(ids, id)
		fadeOuts = append(fadeOuts, e.fadeOutOnStop)
	}
	p.sources = make(map[types.PlaybackId]*sourceEntry)
	p.mu.Unlock()

	now := p.sink.PositionFrames()
	for i, id := range ids {
		p.mixer.Send(mixer.Msg{Kind: mixer.StopSource, Id: id, StopFrame: now, FadeOut: fadeOuts[i]})
	}
	p.mixer.Send(mixer.Msg{Kind: mixer.RemoveAllPendingSources})
	return nil
}

func (p *Player) register(id types.PlaybackId, ctrl types.ControlSender, supportsSeek bool, fadeOutOnStop time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources[id] = &sourceEntry{ctrl: ctrl, supportsSeek: supportsSeek, fadeOutOnStop: fadeOutOnStop}
}

func (p *Player) lookup(id types.PlaybackId) (*sourceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.sources[id]
	return e, ok
}

func (p *Player) takeAndForget(id types.PlaybackId) (*sourceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.sources[id]
	if ok {
		delete(p.sources, id)
	}
	return e, ok
}

func (p *Player) forget(id types.PlaybackId) {
	p.mu.Lock()
	delete(p.sources, id)
	p.mu.Unlock()
}

// runMessageThread is the dedicated player-message thread of spec.md §4.9:
// it selects on the drop channel and the status proxy channel so id-map
// mutation and source teardown never happen on the audio thread.
func (p *Player) runMessageThread() {
	for {
		select {
		case <-p.done:
			return

		case src := <-p.drop:
			if closer, ok := src.(interface{ Close() }); ok {
				closer.Close()
			}

		case ev := <-p.proxyStatus:
			if ev.Stopped {
				p.forget(ev.Id)
			}
			if p.userStatus == nil {
				continue
			}
			if ev.Stopped {
				// Stopped events are terminal and must not be dropped.
				p.userStatus <- ev
			} else {
				select {
				case p.userStatus <- ev:
				default:
					slog.Warn("status channel full, dropping Position event", "id", ev.Id)
				}
			}
		}
	}
}

func controlOf(src source.Source) types.ControlSender {
	if c, ok := src.(controllable); ok {
		return c.Control()
	}
	return nil
}
