// Package vorbis wraps github.com/jfreymuth/oggvorbis for decoding Ogg
// Vorbis audio files directly into the engine's native interleaved float32
// packet shape, via pkg/decoder.Decoder, instead of round-tripping through
// fixed-point PCM bytes like the wav/mp3/flac/opus decoders: oggvorbis
// already hands back float32 samples.
package vorbis

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/jfreymuth/oggvorbis"

	"github.com/drgolem/afengine/pkg/decoder"
	"github.com/drgolem/afengine/pkg/signalspec"
	"github.com/drgolem/afengine/pkg/types"
)

const framesPerRead = 4096

// Decoder adapts an oggvorbis.Reader to the decoder.Decoder contract.
type Decoder struct {
	file     *os.File
	reader   *oggvorbis.Reader
	rate     int
	channels int
	scratch  []float32
}

// Open opens fileName as an Ogg Vorbis stream.
func Open(fileName string) (decoder.Decoder, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, types.WrapError(types.DecodeError, "failed to open vorbis file", err)
	}

	reader, err := oggvorbis.NewReader(file)
	if err != nil {
		file.Close()
		return nil, types.WrapError(types.DecodeError, "failed to probe vorbis stream", err)
	}

	channels := reader.Channels()
	rate := reader.SampleRate()
	if channels <= 0 || rate <= 0 {
		file.Close()
		return nil, types.NewError(types.DecodeError, "vorbis stream reported empty format")
	}

	return &Decoder{
		file:     file,
		reader:   reader,
		rate:     rate,
		channels: channels,
		scratch:  make([]float32, framesPerRead*channels),
	}, nil
}

// SignalSpec implements decoder.Decoder.
func (d *Decoder) SignalSpec() signalspec.SignalSpec {
	return signalspec.New(uint32(d.rate), uint8(d.channels))
}

// CodecParams implements decoder.Decoder.
func (d *Decoder) CodecParams() decoder.CodecParams {
	length := d.reader.Length()
	return decoder.CodecParams{
		NumFrames:          uint64(length),
		HasNumFrames:       length > 0,
		MaxFramesPerPacket: framesPerRead,
		TimeBase:           time.Second / time.Duration(d.rate),
	}
}

// ReadPacket implements decoder.Decoder.
func (d *Decoder) ReadPacket(buf *decoder.SampleBuffer) (bool, error) {
	n, err := d.reader.Read(d.scratch)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return false, types.WrapError(types.DecodeError, "vorbis decode failed", err)
		}
		return false, nil
	}

	if cap(buf.Data) < n {
		buf.Data = make([]float32, n)
	} else {
		buf.Data = buf.Data[:n]
	}
	copy(buf.Data, d.scratch[:n])
	buf.Frames = n / d.channels
	return true, nil
}

// Seek implements decoder.Decoder. oggvorbis.Reader doesn't provide SetPosition
// in every version; fall back to reopening and decoding-and-discarding, same
// strategy as the legacy PCM adapter's Seek, since this only ever runs on the
// blocking decode-actor thread.
func (d *Decoder) Seek(pos time.Duration) (uint64, error) {
	targetFrame := uint64(pos.Seconds() * float64(d.rate))

	name := d.file.Name()
	d.file.Close()

	file, err := os.Open(name)
	if err != nil {
		return 0, types.WrapError(types.DecodeError, "reopen for seek failed", err)
	}
	reader, err := oggvorbis.NewReader(file)
	if err != nil {
		file.Close()
		return 0, types.WrapError(types.DecodeError, "reprobe for seek failed", err)
	}
	d.file = file
	d.reader = reader

	var decoded uint64
	for decoded < targetFrame {
		n, err := d.reader.Read(d.scratch)
		if n == 0 || err != nil {
			break
		}
		decoded += uint64(n / d.channels)
	}
	return decoded, nil
}

// Close implements decoder.Decoder.
func (d *Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
