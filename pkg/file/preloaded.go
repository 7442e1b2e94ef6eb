// Package file implements the preloaded and streamed file sources described
// in spec.md §4.5 and §4.6.
package file

import (
	"time"

	"github.com/drgolem/afengine/pkg/decoder"
	"github.com/drgolem/afengine/pkg/fader"
	"github.com/drgolem/afengine/pkg/resampler"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// sharedBuffer is the fully-decoded, shared-immutable sample buffer a
// PreloadedSource's clones all read from without re-decoding.
type sharedBuffer struct {
	samples    []float32 // interleaved
	channels   int
	sampleRate int
}

// PreloadedSource fully decodes a file into a shared buffer once, then
// plays back through an owned resampler that both adapts to the device rate
// and realizes PlaybackOptions.Speed (by lying to the resampler about the
// output rate, per spec.md §4.2). Clone reuses the decoded buffer without
// re-decoding.
type PreloadedSource struct {
	id     types.PlaybackId
	path   string
	buf    *sharedBuffer
	status chan<- types.StatusEvent

	bufferPosSamples int // position in buf.samples, a multiple of buf.channels

	volume        float32
	fader         *fader.Fader
	repeatLeft    uint64
	fadeOutOnStop time.Duration

	resampler  resampler.Resampler
	rsScratch  []float32
	deviceRate int

	ctrl        chan types.ControlMessage
	posEmitRate time.Duration
	lastPosEmit time.Time
	finished    bool
}

// NewPreloaded decodes path to EOF via decoders.Open (the caller supplies
// the opened decoder so construction failures are reported uniformly) and
// returns a ready-to-play PreloadedSource outputting at deviceRate.
func NewPreloaded(id types.PlaybackId, path string, dec decoder.Decoder, deviceRate int, opts types.FilePlaybackOptions, status chan<- types.StatusEvent) (*PreloadedSource, error) {
	defer dec.Close()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	spec := dec.SignalSpec()
	channels := int(spec.ChannelCount)

	var samples []float32
	var sampleBuf decoder.SampleBuffer
	for {
		ok, err := dec.ReadPacket(&sampleBuf)
		if err != nil {
			return nil, types.WrapError(types.DecodeError, "decode failed", err)
		}
		if !ok {
			break
		}
		samples = append(samples, sampleBuf.Data[:sampleBuf.Frames*channels]...)
	}
	if len(samples) == 0 {
		return nil, types.NewError(types.DecodeError, "decoded buffer is empty")
	}

	buf := &sharedBuffer{
		samples:    samples,
		channels:   channels,
		sampleRate: int(spec.SampleRate),
	}
	return newFromBuffer(id, path, buf, deviceRate, opts, status)
}

func newFromBuffer(id types.PlaybackId, path string, buf *sharedBuffer, deviceRate int, opts types.FilePlaybackOptions, status chan<- types.StatusEvent) (*PreloadedSource, error) {
	outRate := int(float64(deviceRate) / opts.Speed)
	rs, err := resampler.New(resampler.FromTypesQuality(opts.ResamplingQuality), buf.channels, buf.sampleRate, outRate)
	if err != nil {
		return nil, err
	}

	f := fader.New(buf.channels, deviceRate)
	if opts.FadeIn > 0 {
		f.StartFadeIn(opts.FadeIn)
	}

	return &PreloadedSource{
		id:            id,
		path:          path,
		buf:           buf,
		status:        status,
		volume:        opts.Volume,
		fader:         f,
		repeatLeft:    opts.Repeat,
		fadeOutOnStop: opts.FadeOutOnStop,
		resampler:     rs,
		rsScratch:     make([]float32, 4096*buf.channels),
		deviceRate:    deviceRate,
		ctrl:          make(chan types.ControlMessage, 4),
		posEmitRate:   opts.PosEmitRate,
	}, nil
}

// Clone creates an independent playback of the same decoded buffer with new
// options, reusing the buffer without re-decoding (spec.md §4.5, §8).
func (p *PreloadedSource) Clone(id types.PlaybackId, opts types.FilePlaybackOptions, status chan<- types.StatusEvent) (*PreloadedSource, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newFromBuffer(id, p.path, p.buf, p.deviceRate, opts, status)
}

// Control returns the channel used to deliver Seek/Stop messages.
func (p *PreloadedSource) Control() types.ControlSender {
	return p.ctrl
}

func (p *PreloadedSource) ChannelCount() int { return p.buf.channels }

// SampleRate returns the real device rate this source's output must be
// consumed at. It is deliberately NOT the resampler's internal (lied-about)
// output rate: that lie is what realizes PlaybackOptions.Speed, by making
// the resampler produce more or fewer samples per unit of decoded audio
// than the device rate would normally require.
func (p *PreloadedSource) SampleRate() int { return p.deviceRate }

func (p *PreloadedSource) IsExhausted() bool { return p.finished }

func (p *PreloadedSource) Write(output []float32, _ source.Time) int {
	if p.finished {
		return 0
	}
	p.drainControl()

	written := 0
	for written < len(output) {
		remaining := len(p.buf.samples) - p.bufferPosSamples
		if remaining <= 0 {
			if p.repeatLeft > 0 {
				if p.repeatLeft != types.RepeatForever {
					p.repeatLeft--
				}
				p.bufferPosSamples = 0
				continue
			}
			break
		}

		scratchLen := len(p.rsScratch)
		if scratchLen > remaining {
			scratchLen = remaining
		}
		in := p.buf.samples[p.bufferPosSamples : p.bufferPosSamples+scratchLen]

		consumed, n := p.resampler.Process(in, output[written:])
		if n == 0 && consumed == 0 {
			break
		}
		p.bufferPosSamples += consumed
		written += n
	}

	if p.volume != 1.0 {
		for i := 0; i < written; i++ {
			output[i] *= p.volume
		}
	}
	p.fader.Process(output[:written])

	p.maybeEmitPosition()

	endOfBuffer := written == 0 && p.bufferPosSamples >= len(p.buf.samples) && p.repeatLeft == 0
	fadedOutToZero := p.fader.State() == fader.Finished && p.fader.TargetVolume() == 0
	if endOfBuffer || fadedOutToZero {
		p.emitStopped(endOfBuffer && !fadedOutToZero)
	}

	return written
}

func (p *PreloadedSource) drainControl() {
	for {
		select {
		case msg := <-p.ctrl:
			switch msg.Kind {
			case types.ControlSeek:
				p.seek(msg.Seek)
			case types.ControlStop:
				if msg.FadeOut <= 0 {
					p.fader.StartFadeOut(0)
				} else {
					p.fadeOutOnStop = msg.FadeOut
					p.fader.StartFadeOut(msg.FadeOut)
				}
			}
		default:
			return
		}
	}
}

// seek clamps pos to [0, buffer end] and resets the resampler's internal
// state to avoid ringing, per spec.md §4.5's seek policy: no cross-fade.
func (p *PreloadedSource) seek(pos time.Duration) {
	frame := int(pos.Seconds() * float64(p.buf.sampleRate))
	sample := frame * p.buf.channels
	if sample < 0 {
		sample = 0
	}
	if sample > len(p.buf.samples) {
		sample = len(p.buf.samples)
	}
	p.bufferPosSamples = sample
	p.resampler.Reset()
}

func (p *PreloadedSource) maybeEmitPosition() {
	if p.status == nil || p.posEmitRate <= 0 {
		return
	}
	now := time.Now()
	if !p.lastPosEmit.IsZero() && now.Sub(p.lastPosEmit) < p.posEmitRate {
		return
	}
	p.lastPosEmit = now
	frames := p.bufferPosSamples / p.buf.channels
	pos := time.Duration(float64(frames) / float64(p.buf.sampleRate) * float64(time.Second))
	select {
	case p.status <- types.StatusEvent{Id: p.id, Path: p.path, Position: pos}:
	default:
	}
}

func (p *PreloadedSource) emitStopped(exhausted bool) {
	if p.finished {
		return
	}
	p.finished = true
	if p.status == nil {
		return
	}
	p.status <- types.StatusEvent{Id: p.id, Path: p.path, Stopped: true, Exhausted: exhausted}
}
