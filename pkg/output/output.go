// Package output wraps github.com/drgolem/go-portaudio/portaudio as the
// sink boundary described in spec.md §6: a dedicated goroutine repeatedly
// pulls from a source.Source (in practice the mixer) and writes the result
// to the device, in the same producer/consumer style as the teacher's
// pkg/audioplayer.Player.consumer, but driving a single pull-style source
// instead of a decoder+ringbuffer pair (the mixer already owns all of that
// internally).
package output

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/go-portaudio/portaudio"
)

// Config holds portaudio stream configuration.
type Config struct {
	FramesPerBuffer int
	DeviceIndex     int
}

// DefaultConfig returns a reasonable low-latency default.
func DefaultConfig() Config {
	return Config{
		FramesPerBuffer: 512,
		DeviceIndex:     -1, // default output device
	}
}

// Output drives src against a portaudio output stream until Stop is called.
type Output struct {
	stream          *portaudio.PaStream
	src             source.Source
	channels        int
	rate            int
	framesPerBuffer int

	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped atomic.Bool

	posFrames atomic.Uint64
}

// New opens a portaudio stream matching src's channel count and sample
// rate. src is typically the mixer, installed as the sole source driving
// the device (spec.md §4.8).
func New(src source.Source, cfg Config) (*Output, error) {
	channels := src.ChannelCount()
	rate := src.SampleRate()

	outParams := portaudio.PaStreamParameters{
		DeviceIndex:  cfg.DeviceIndex,
		ChannelCount: channels,
		SampleFormat: portaudio.SampleFmtFloat32,
	}

	stream, err := portaudio.NewStream(outParams, float64(rate))
	if err != nil {
		return nil, fmt.Errorf("failed to create output stream: %w", err)
	}
	if err := stream.Open(cfg.FramesPerBuffer); err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	return &Output{
		stream:          stream,
		src:             src,
		channels:        channels,
		rate:            rate,
		framesPerBuffer: cfg.FramesPerBuffer,
		stopCh:          make(chan struct{}),
	}, nil
}

// Start begins the output stream and its pull goroutine.
func (o *Output) Start() error {
	if err := o.stream.StartStream(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	o.wg.Add(1)
	go o.run()
	return nil
}

// Stop halts the pull goroutine and closes the stream. Safe to call more
// than once.
func (o *Output) Stop() error {
	if !o.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(o.stopCh)
	o.wg.Wait()

	if err := o.stream.StopStream(); err != nil {
		slog.Warn("failed to stop output stream", "error", err)
	}
	return o.stream.Close()
}

func (o *Output) ChannelCount() int      { return o.channels }
func (o *Output) SampleRate() int        { return o.rate }
func (o *Output) PositionFrames() uint64 { return o.posFrames.Load() }

func (o *Output) run() {
	defer o.wg.Done()

	frameBuf := make([]float32, o.framesPerBuffer*o.channels)
	byteBuf := make([]byte, len(frameBuf)*4)

	for {
		select {
		case <-o.stopCh:
			return
		default:
		}

		pos := o.posFrames.Load()
		written := o.src.Write(frameBuf, source.Time{PosInFrames: pos})
		for i := written; i < len(frameBuf); i++ {
			frameBuf[i] = 0
		}

		encodeFloat32LE(byteBuf, frameBuf)

		if err := o.stream.Write(o.framesPerBuffer, byteBuf); err != nil {
			slog.Error("audio stream write failed", "error", err)
			return
		}

		o.posFrames.Add(uint64(o.framesPerBuffer))
	}
}

func encodeFloat32LE(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
