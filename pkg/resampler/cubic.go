package resampler

import (
	"bytes"

	zafresample "github.com/zaf/resample"

	"github.com/drgolem/afengine/pkg/pcm"
	"github.com/drgolem/afengine/pkg/types"
)

// cubicResampler is the Default, low-latency kernel. It wraps
// github.com/zaf/resample, a streaming io.Writer-based PCM16 resampler: each
// Process call feeds the input (converted to PCM16 bytes) into the wrapped
// resampler and drains whatever it wrote to our byte sink this call,
// converting it back to float32. The wrapped resampler owns its own
// fractional-phase state across calls, which is what lets Reset simply
// rebuild it instead of having to track phase ourselves.
type cubicResampler struct {
	channelCount int
	inRate       int
	outRate      int

	sink         bytes.Buffer
	zr           *zafresample.Resampler
	inBytes      []byte
	remainderBuf []byte
}

func newCubicResampler(channelCount, inRate, outRate int) (Resampler, error) {
	r := &cubicResampler{
		channelCount: channelCount,
		inRate:       inRate,
		outRate:      outRate,
	}
	if err := r.rebuild(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *cubicResampler) rebuild() error {
	r.sink.Reset()
	zr, err := zafresample.New(&r.sink, float64(r.inRate), float64(r.outRate), r.channelCount, zafresample.I16, zafresample.Quick)
	if err != nil {
		return types.WrapError(types.ResamplerError, "failed to construct zaf/resample kernel", err)
	}
	r.zr = zr
	return nil
}

func (r *cubicResampler) Ratio() float64 {
	return float64(r.outRate) / float64(r.inRate)
}

func (r *cubicResampler) Reset() {
	// Best-effort: a fresh zaf/resample.Resampler has no history, avoiding
	// stale-filter ringing across a seek, per §4.5's seek policy.
	_ = r.rebuild()
}

func (r *cubicResampler) Process(in []float32, out []float32) (consumed, written int) {
	if len(in) == 0 || len(out) == 0 {
		return 0, 0
	}

	needBytes := len(in) * 2
	if cap(r.inBytes) < needBytes {
		r.inBytes = make([]byte, needBytes)
	} else {
		r.inBytes = r.inBytes[:needBytes]
	}
	n, err := pcm.Float32ToBytes(r.inBytes, in, 16)
	if err != nil {
		return 0, 0
	}
	consumed = n

	if _, err := r.zr.Write(r.inBytes[:n*2]); err != nil {
		return consumed, 0
	}

	outBytes := r.sink.Bytes()
	maxOutSamples := len(outBytes) / 2
	if maxOutSamples > len(out) {
		maxOutSamples = len(out)
	}
	w, err := pcm.BytesToFloat32(out, outBytes[:maxOutSamples*2], 16)
	if err != nil {
		return consumed, 0
	}
	written = w

	// Drop what we consumed from the sink, keep any remainder for the next
	// call. Copied into a retained buffer rather than appended to nil, so
	// steady-state calls don't allocate a fresh backing array each time.
	rem := outBytes[maxOutSamples*2:]
	if cap(r.remainderBuf) < len(rem) {
		r.remainderBuf = make([]byte, len(rem))
	} else {
		r.remainderBuf = r.remainderBuf[:len(rem)]
	}
	copy(r.remainderBuf, rem)
	r.sink.Reset()
	r.sink.Write(r.remainderBuf)

	return consumed, written
}
