// Package recorder implements the diagnostic bounce tap described in
// SPEC_FULL.md's supplemented-features section: a source.Source wrapper
// that passes every sample through to its inner source unchanged, while
// also framing a copy of what was written and draining it off the audio
// thread through an audioframeringbuffer.AudioFrameRingBuffer, grounded on
// the teacher's pkg/audioframe + pkg/audioframeringbuffer pair (present in
// the teacher's tree but never wired into its player). Off by default;
// a host enables it by wrapping the mixer with recorder.New before handing
// it to pkg/output, so nothing downstream has to know a tap exists.
package recorder

import (
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"github.com/drgolem/afengine/pkg/audioframe"
	"github.com/drgolem/afengine/pkg/audioframeringbuffer"
	"github.com/drgolem/afengine/pkg/source"
)

// maxSamplesPerFrame is audioframe.AudioFrame.SamplesCount's wire limit
// (uint16); Write splits a tap into frames no larger than this.
const maxSamplesPerFrame = 65535

// Config controls a Recorder's framing and buffering.
type Config struct {
	// FrameSamples is the number of interleaved samples (not frames) packed
	// per audioframe.AudioFrame; must be <= maxSamplesPerFrame. Zero selects
	// a 4096-sample default.
	FrameSamples int

	// Capacity is the AudioFrameRingBuffer's capacity in frames (rounded up
	// to the next power of 2 by audioframeringbuffer.New). Zero selects a
	// 256-frame default.
	Capacity uint64

	// OnFrame is called from the background drain goroutine for every
	// captured audioframe.AudioFrame, in order. It must not block for long;
	// a slow OnFrame only delays draining, never the audio thread, since
	// the tap itself never waits on this goroutine.
	OnFrame func(audioframe.AudioFrame)
}

func (c Config) withDefaults() Config {
	if c.FrameSamples <= 0 {
		c.FrameSamples = 4096
	}
	if c.FrameSamples > maxSamplesPerFrame {
		c.FrameSamples = maxSamplesPerFrame
	}
	if c.Capacity == 0 {
		c.Capacity = 256
	}
	return c
}

// Recorder wraps inner, passing every Write through unchanged while also
// capturing a copy into a ring buffer drained by a background goroutine.
// Recorder itself is a source.Source, so it composes transparently: a host
// builds output.New(recorder.New(mixer, cfg), outCfg) instead of
// output.New(mixer, outCfg) to enable the tap.
type Recorder struct {
	inner source.Source
	cfg   Config

	ring *audioframeringbuffer.AudioFrameRingBuffer

	byteScratch []byte
	done        chan struct{}
	drainDone   chan struct{}
}

// New wraps inner with a diagnostic tap. The background drain goroutine is
// started immediately; call Close to stop it.
func New(inner source.Source, cfg Config) *Recorder {
	cfg = cfg.withDefaults()

	r := &Recorder{
		inner:     inner,
		cfg:       cfg,
		ring:      audioframeringbuffer.New(cfg.Capacity),
		done:      make(chan struct{}),
		drainDone: make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *Recorder) ChannelCount() int { return r.inner.ChannelCount() }
func (r *Recorder) SampleRate() int   { return r.inner.SampleRate() }
func (r *Recorder) IsExhausted() bool { return r.inner.IsExhausted() }

// Write pulls from inner and returns its result unchanged; the tap is
// strictly observational, run after the real write completes so a full
// ring buffer or a slow consumer can never perturb playback.
func (r *Recorder) Write(output []float32, t source.Time) int {
	n := r.inner.Write(output, t)
	if n > 0 {
		r.capture(output[:n])
	}
	return n
}

// Close stops the background drain goroutine. Safe to call once; further
// Write calls keep working (capture becomes a harmless no-op past Close
// since the ring buffer simply fills and is dropped with a warning).
func (r *Recorder) Close() {
	select {
	case <-r.done:
		return
	default:
		close(r.done)
	}
	<-r.drainDone
}

func (r *Recorder) capture(samples []float32) {
	format := audioframe.FrameFormat{
		SampleRate:    uint32(r.inner.SampleRate()),
		Channels:      uint8(r.inner.ChannelCount()),
		BitsPerSample: 32,
	}

	for len(samples) > 0 {
		n := len(samples)
		if n > r.cfg.FrameSamples {
			n = r.cfg.FrameSamples
		}
		chunk := samples[:n]
		samples = samples[n:]

		frame := audioframe.AudioFrame{
			Format:       format,
			SamplesCount: uint16(n),
			Audio:        encodeFloat32LE(chunk),
		}

		if _, err := r.ring.Write([]audioframe.AudioFrame{frame}); err != nil {
			slog.Warn("recorder ring buffer full, dropping captured frame")
		}
	}
}

func (r *Recorder) drain() {
	defer close(r.drainDone)
	for {
		frames, err := r.ring.Read(16)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
				time.Sleep(time.Microsecond)
				continue
			}
		}
		for _, f := range frames {
			if r.cfg.OnFrame != nil {
				r.cfg.OnFrame(f)
			}
		}
	}
}

func encodeFloat32LE(src []float32) []byte {
	dst := make([]byte, len(src)*4)
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	return dst
}
