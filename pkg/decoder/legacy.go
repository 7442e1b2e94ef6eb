package decoder

import (
	"time"

	"github.com/drgolem/afengine/pkg/pcm"
	"github.com/drgolem/afengine/pkg/signalspec"
	"github.com/drgolem/afengine/pkg/types"
)

// maxFramesPerPacket bounds how many frames legacyAdapter.ReadPacket decodes
// in one call; it sizes the adapter's internal scratch buffer.
const maxFramesPerPacket = 4096

// LegacyOpenFunc opens a file and returns a ready-to-use types.AudioDecoder; every
// format package (wav.NewDecoder+Open, mp3.NewDecoder+Open, ...) is adapted
// to this shape by its factory.
type LegacyOpenFunc func(fileName string) (types.AudioDecoder, error)

// legacyAdapter wraps one of the byte-oriented format decoders (wav, mp3,
// flac, opus) behind the f32 Decoder contract, converting PCM bytes
// to interleaved float32 via pkg/pcm.
type legacyAdapter struct {
	open     LegacyOpenFunc
	fileName string
	inner    types.AudioDecoder
	rate     int
	channels int
	bps      int
	scratch  []byte
	// framesDecoded tracks position for the reopen-and-skip Seek fallback,
	// since none of the wrapped byte-oriented decoders expose native seek.
	framesDecoded uint64
}

// OpenLegacy opens fileName with open and wraps the result as a f32 Decoder.
func OpenLegacy(open LegacyOpenFunc, fileName string) (Decoder, error) {
	inner, err := open(fileName)
	if err != nil {
		return nil, types.WrapError(types.DecodeError, "open failed", err)
	}
	rate, channels, bps := inner.GetFormat()
	if rate <= 0 || channels <= 0 {
		inner.Close()
		return nil, types.NewError(types.DecodeError, "decoder reported empty format")
	}
	return &legacyAdapter{
		open:     open,
		fileName: fileName,
		inner:    inner,
		rate:     rate,
		channels: channels,
		bps:      bps,
		scratch:  make([]byte, maxFramesPerPacket*channels*(bps/8+1)),
	}, nil
}

func (a *legacyAdapter) SignalSpec() signalspec.SignalSpec {
	return signalspec.New(uint32(a.rate), uint8(a.channels))
}

func (a *legacyAdapter) CodecParams() CodecParams {
	return CodecParams{
		HasNumFrames:       false,
		MaxFramesPerPacket: maxFramesPerPacket,
		TimeBase:           time.Second / time.Duration(a.rate),
	}
}

func (a *legacyAdapter) ReadPacket(buf *SampleBuffer) (bool, error) {
	need := maxFramesPerPacket * a.channels * (a.bps / 8)
	if need > len(a.scratch) {
		need = len(a.scratch)
	}
	n, err := a.inner.DecodeSamples(maxFramesPerPacket, a.scratch[:need])
	if err != nil && n == 0 {
		return false, nil
	}
	if n == 0 {
		return false, nil
	}

	samples := n * a.channels
	if cap(buf.Data) < samples {
		buf.Data = make([]float32, samples)
	} else {
		buf.Data = buf.Data[:samples]
	}
	bytesUsed := n * a.channels * (a.bps / 8)
	converted, cerr := pcm.BytesToFloat32(buf.Data, a.scratch[:bytesUsed], a.bps)
	if cerr != nil {
		return false, types.WrapError(types.DecodeError, "pcm conversion failed", cerr)
	}
	buf.Frames = converted / a.channels
	a.framesDecoded += uint64(buf.Frames)
	return true, nil
}

// Seek reopens the underlying file and decodes-and-discards up to pos, since
// none of the wrapped legacy decoders expose native seeking. Acceptable here
// because Seek is only ever called from the blocking decode-actor thread,
// never the real-time audio thread.
func (a *legacyAdapter) Seek(pos time.Duration) (uint64, error) {
	targetFrame := uint64(pos.Seconds() * float64(a.rate))

	a.inner.Close()
	inner, err := a.open(a.fileName)
	if err != nil {
		return 0, types.WrapError(types.DecodeError, "reopen for seek failed", err)
	}
	a.inner = inner
	a.framesDecoded = 0

	discard := make([]byte, maxFramesPerPacket*a.channels*(a.bps/8))
	remaining := targetFrame
	for remaining > 0 {
		chunk := uint64(maxFramesPerPacket)
		if remaining < chunk {
			chunk = remaining
		}
		n, err := a.inner.DecodeSamples(int(chunk), discard)
		if n == 0 || err != nil {
			break
		}
		remaining -= uint64(n)
		a.framesDecoded += uint64(n)
	}
	return a.framesDecoded, nil
}

func (a *legacyAdapter) Close() error {
	if a.inner == nil {
		return nil
	}
	err := a.inner.Close()
	a.inner = nil
	return err
}
