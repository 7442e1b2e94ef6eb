// Package synth adapts an externally supplied pull-style sample generator to
// the source.Source contract, per spec.md §4.7. It produces mono float32
// and relies on pkg/convert for any rate/channel adaptation the sink needs;
// there is no seek, and state otherwise mirrors the preloaded file source's
// fader/volume/stop path (pkg/fader, types.ControlMessage).
package synth

import (
	"time"

	"github.com/drgolem/afengine/pkg/fader"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// Generator is a finite-or-infinite pull-style mono sample generator. Next
// returns false when the generator has no more samples to produce;
// implementations should be cheap and non-blocking, since Source.Write calls
// Next once per output frame on the real-time thread.
type Generator interface {
	Next() (sample float64, ok bool)
}

const sampleRate = 44100

// Source wraps a Generator as a mono source.Source.
type Source struct {
	id      types.PlaybackId
	path    string
	gen     Generator
	volume  float32
	fader   *fader.Fader
	ctrl    chan types.ControlMessage
	status  chan<- types.StatusEvent
	opts    types.SynthPlaybackOptions

	fadeOutDuration   time.Duration
	naturalEnd        bool
	finished          bool
	lastPosEmit       time.Time
	framesProduced    uint64
}

// New wraps gen as a Source, ready to be handed to the player/mixer. path is
// the caller-supplied label reported in status events.
func New(id types.PlaybackId, path string, gen Generator, opts types.SynthPlaybackOptions, status chan<- types.StatusEvent) (*Source, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := fader.New(1, sampleRate)
	if opts.FadeIn > 0 {
		f.StartFadeIn(opts.FadeIn)
	}

	return &Source{
		id:              id,
		path:            path,
		gen:             gen,
		volume:          opts.Volume,
		fader:           f,
		ctrl:            make(chan types.ControlMessage, 4),
		status:          status,
		opts:            opts,
		fadeOutDuration: opts.FadeOutOnStop,
	}, nil
}

// Control returns the channel used to deliver Stop messages to this source.
// Seek is not supported for synth sources (spec.md §6).
func (s *Source) Control() types.ControlSender {
	return s.ctrl
}

func (s *Source) ChannelCount() int { return 1 }
func (s *Source) SampleRate() int   { return sampleRate }
func (s *Source) IsExhausted() bool { return s.finished }

func (s *Source) Write(output []float32, _ source.Time) int {
	if s.finished {
		return 0
	}

	s.drainControl()

	written := 0
	for written < len(output) {
		v, ok := s.gen.Next()
		if !ok {
			s.naturalEnd = true
			break
		}
		output[written] = float32(v)
		written++
	}

	if s.volume != 1.0 {
		for i := 0; i < written; i++ {
			output[i] *= s.volume
		}
	}
	s.fader.Process(output[:written])
	s.framesProduced += uint64(written)

	s.maybeEmitPosition()

	fadedOutToZero := s.fader.State() == fader.Finished && s.fader.TargetVolume() == 0
	if s.naturalEnd || fadedOutToZero {
		s.emitStopped(s.naturalEnd && !fadedOutToZero)
	}

	return written
}

func (s *Source) drainControl() {
	for {
		select {
		case msg := <-s.ctrl:
			switch msg.Kind {
			case types.ControlStop:
				if msg.FadeOut <= 0 {
					s.fader.StartFadeOut(0)
				} else {
					s.fader.StartFadeOut(msg.FadeOut)
				}
			}
		default:
			return
		}
	}
}

func (s *Source) maybeEmitPosition() {
	if s.status == nil || s.opts.PosEmitRate <= 0 {
		return
	}
	now := time.Now()
	if !s.lastPosEmit.IsZero() && now.Sub(s.lastPosEmit) < s.opts.PosEmitRate {
		return
	}
	s.lastPosEmit = now
	pos := time.Duration(float64(s.framesProduced) / float64(sampleRate) * float64(time.Second))
	select {
	case s.status <- types.StatusEvent{Id: s.id, Path: s.path, Position: pos}:
	default:
	}
}

func (s *Source) emitStopped(exhausted bool) {
	if s.finished {
		return
	}
	s.finished = true
	if s.status == nil {
		return
	}
	s.status <- types.StatusEvent{Id: s.id, Path: s.path, Stopped: true, Exhausted: exhausted}
}
