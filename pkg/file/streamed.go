package file

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/drgolem/afengine/pkg/decoder"
	"github.com/drgolem/afengine/pkg/fader"
	"github.com/drgolem/afengine/pkg/resampler"
	"github.com/drgolem/afengine/pkg/ringbuffer"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

const (
	// streamRingBytes is the default SPSC ring buffer size between the
	// decoder actor and the consumer, per spec.md §4.6 ("default ~128 KiB").
	streamRingBytes = 128 * 1024
	// streamReadRetry bounds how long the actor waits before retrying a
	// short write, so a pending Seek/Stop can interleave.
	streamReadRetry = 500 * time.Millisecond
	bytesPerSample  = 4

	nativeScratchFrames = 8192
)

type actorMsgKind int

const (
	actorSeek actorMsgKind = iota
	actorStop
)

type actorMsg struct {
	kind        actorMsgKind
	seek        time.Duration
	stopFadeOut time.Duration
}

// StreamedSource decodes a file incrementally via a decoder actor goroutine
// feeding a lock-free SPSC ring buffer, per spec.md §4.6. The consumer (the
// real-time Write call) never blocks and never touches the decoder.
type StreamedSource struct {
	id     types.PlaybackId
	path   string
	status chan<- types.StatusEvent

	channels   int
	sourceRate int
	deviceRate int

	ring *ringbuffer.RingBuffer

	positionSamples atomic.Uint64
	totalSamples    atomic.Uint64
	endOfFile       atomic.Bool
	isPlaying       atomic.Bool
	isFadingOut     atomic.Bool
	fadeOutMs       atomic.Uint64

	actorMsgs chan actorMsg
	actorDone chan struct{}

	volume      float32
	fader       *fader.Fader
	ctrl        chan types.ControlMessage
	posEmitRate time.Duration
	lastPosEmit time.Time
	finished    bool

	resampler resampler.Resampler

	byteScratch  []byte
	floatScratch []float32
	scratchValid int
}

// NewStreamed starts a decoder actor for dec and returns a StreamedSource
// ready to be written from the audio thread. dec is owned by the actor
// goroutine from this point on; the caller must not touch it again.
func NewStreamed(id types.PlaybackId, path string, dec decoder.Decoder, deviceRate int, opts types.FilePlaybackOptions, status chan<- types.StatusEvent) (*StreamedSource, error) {
	if err := opts.Validate(); err != nil {
		dec.Close()
		return nil, err
	}

	spec := dec.SignalSpec()
	channels := int(spec.ChannelCount)
	sourceRate := int(spec.SampleRate)

	outRate := int(float64(deviceRate) / opts.Speed)
	rs, err := resampler.New(resampler.FromTypesQuality(opts.ResamplingQuality), channels, sourceRate, outRate)
	if err != nil {
		dec.Close()
		return nil, err
	}

	f := fader.New(channels, deviceRate)
	if opts.FadeIn > 0 {
		f.StartFadeIn(opts.FadeIn)
	}

	s := &StreamedSource{
		id:           id,
		path:         path,
		status:       status,
		channels:     channels,
		sourceRate:   sourceRate,
		deviceRate:   deviceRate,
		ring:         ringbuffer.New(streamRingBytes),
		actorMsgs:    make(chan actorMsg, 4),
		actorDone:    make(chan struct{}),
		volume:       opts.Volume,
		fader:        f,
		ctrl:         make(chan types.ControlMessage, 4),
		posEmitRate:  opts.PosEmitRate,
		resampler:    rs,
		byteScratch:  make([]byte, nativeScratchFrames*channels*bytesPerSample),
		floatScratch: make([]float32, nativeScratchFrames*channels),
	}
	s.isPlaying.Store(true)

	go s.runActor(dec, opts.Repeat)

	return s, nil
}

// Control returns the channel used to deliver Seek/Stop messages.
func (s *StreamedSource) Control() types.ControlSender { return s.ctrl }

func (s *StreamedSource) ChannelCount() int { return s.channels }

// SampleRate returns the real device rate this source's output must be
// consumed at; the owned resampler (constructed with a lied-about output
// rate) is what realizes PlaybackOptions.Speed, same mechanism as
// PreloadedSource.
func (s *StreamedSource) SampleRate() int { return s.deviceRate }

func (s *StreamedSource) IsExhausted() bool { return s.finished }

// Close tells the decoder actor to shut down immediately and releases the
// decoder. Safe to call more than once.
func (s *StreamedSource) Close() {
	select {
	case s.actorMsgs <- actorMsg{kind: actorStop, stopFadeOut: 0}:
	default:
	}
}

func (s *StreamedSource) Write(output []float32, _ source.Time) int {
	if s.finished {
		return 0
	}
	s.drainControl()

	written := 0
	for written < len(output) {
		if s.scratchValid == 0 {
			n, err := s.ring.Read(s.byteScratch)
			if err != nil || n == 0 {
				break
			}
			frames := n / (s.channels * bytesPerSample)
			decodeFloatsInto(s.floatScratch, s.byteScratch[:frames*s.channels*bytesPerSample])
			s.scratchValid = frames * s.channels
			s.positionSamples.Add(uint64(frames * s.channels))
		}

		consumed, n := s.resampler.Process(s.floatScratch[:s.scratchValid], output[written:])
		if n == 0 && consumed == 0 {
			break
		}
		copy(s.floatScratch, s.floatScratch[consumed:s.scratchValid])
		s.scratchValid -= consumed
		written += n
	}

	if s.volume != 1.0 {
		for i := 0; i < written; i++ {
			output[i] *= s.volume
		}
	}

	if s.isFadingOut.Load() {
		if s.fader.State() != fader.FadingOut && s.fader.State() != fader.Finished {
			s.fader.StartFadeOut(time.Duration(s.fadeOutMs.Load()) * time.Millisecond)
		}
	}
	s.fader.Process(output[:written])

	s.maybeEmitPosition()

	endOfFile := s.endOfFile.Load()
	fadedOutToZero := s.fader.State() == fader.Finished && s.fader.TargetVolume() == 0
	exhaustedNaturally := written == 0 && endOfFile && s.scratchValid == 0
	if !s.isPlaying.Load() || exhaustedNaturally || fadedOutToZero {
		s.emitStopped(exhaustedNaturally && !fadedOutToZero)
	}

	return written
}

func (s *StreamedSource) drainControl() {
	for {
		select {
		case msg := <-s.ctrl:
			switch msg.Kind {
			case types.ControlSeek:
				s.scratchValid = 0
				s.resampler.Reset()
				select {
				case s.actorMsgs <- actorMsg{kind: actorSeek, seek: msg.Seek}:
				default:
				}
			case types.ControlStop:
				select {
				case s.actorMsgs <- actorMsg{kind: actorStop, stopFadeOut: msg.FadeOut}:
				default:
				}
				if msg.FadeOut <= 0 {
					s.isPlaying.Store(false)
				}
			}
		default:
			return
		}
	}
}

func (s *StreamedSource) maybeEmitPosition() {
	if s.status == nil || s.posEmitRate <= 0 {
		return
	}
	now := time.Now()
	if !s.lastPosEmit.IsZero() && now.Sub(s.lastPosEmit) < s.posEmitRate {
		return
	}
	s.lastPosEmit = now
	frames := s.positionSamples.Load() / uint64(s.channels)
	pos := time.Duration(float64(frames) / float64(s.sourceRate) * float64(time.Second))
	select {
	case s.status <- types.StatusEvent{Id: s.id, Path: s.path, Position: pos}:
	default:
	}
}

func (s *StreamedSource) emitStopped(exhausted bool) {
	if s.finished {
		return
	}
	s.finished = true
	if s.status == nil {
		return
	}
	s.status <- types.StatusEvent{Id: s.id, Path: s.path, Stopped: true, Exhausted: exhausted}
}

// runActor is the decoder actor goroutine: it owns dec exclusively from this
// point on, reading packets into the ring buffer and reacting to Seek/Stop
// messages between packets, per spec.md §4.6.
func (s *StreamedSource) runActor(dec decoder.Decoder, repeat uint64) {
	defer close(s.actorDone)
	defer dec.Close()

	var pending []float32
	var samplesWritten uint64
	var sampleBuf decoder.SampleBuffer
	repeatLeft := repeat

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-s.actorMsgs:
			if !ok {
				return
			}
			switch msg.kind {
			case actorSeek:
				if framePos, err := dec.Seek(msg.seek); err == nil {
					pending = nil
					s.ring.Reset()
					s.positionSamples.Store(framePos * uint64(s.channels))
				}
				drainTimer(timer)
				timer.Reset(0)
			case actorStop:
				if msg.stopFadeOut <= 0 {
					s.isPlaying.Store(false)
					return
				}
				s.fadeOutMs.Store(uint64(msg.stopFadeOut / time.Millisecond))
				s.isFadingOut.Store(true)
			}

		case <-timer.C:
			if !s.isPlaying.Load() {
				return
			}

			if len(pending) > 0 {
				buf := encodeFloats(pending)
				if _, err := s.ring.Write(buf); err != nil {
					timer.Reset(streamReadRetry)
					continue
				}
				samplesWritten += uint64(len(pending))
				pending = nil
				timer.Reset(0)
				continue
			}

			if s.endOfFile.Load() {
				continue
			}

			ok, err := dec.ReadPacket(&sampleBuf)
			if err != nil {
				s.endOfFile.Store(true)
				s.totalSamples.Store(samplesWritten)
				continue
			}
			if !ok {
				if repeatLeft > 0 {
					if repeatLeft != types.RepeatForever {
						repeatLeft--
					}
					if _, err := dec.Seek(0); err != nil {
						s.endOfFile.Store(true)
						s.totalSamples.Store(samplesWritten)
						continue
					}
					timer.Reset(0)
					continue
				}
				s.endOfFile.Store(true)
				s.totalSamples.Store(samplesWritten)
				continue
			}

			pending = append(pending[:0], sampleBuf.Data[:sampleBuf.Frames*s.channels]...)
			timer.Reset(0)
		}
	}
}

func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func encodeFloats(src []float32) []byte {
	dst := make([]byte, len(src)*bytesPerSample)
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(v))
	}
	return dst
}

func decodeFloatsInto(dst []float32, src []byte) {
	n := len(src) / bytesPerSample
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*bytesPerSample:]))
	}
}
