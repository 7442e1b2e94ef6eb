package convert

import (
	"github.com/drgolem/afengine/pkg/resampler"
	"github.com/drgolem/afengine/pkg/source"
)

// resamplingSource adapts an inner source's sample rate to outRate via a
// resampler.Resampler, pulling more input whenever the resampler's internal
// buffer runs dry. Speed scaling (spec.md §4.2) is realized by the caller
// passing a lied-about outRate (sinkRate/speed) rather than a separate
// time-stretch stage.
type resamplingSource struct {
	inner  source.Source
	rs     resampler.Resampler
	inRate int

	inBuf     []float32
	inValid   int // valid samples remaining in inBuf, starting at inBuf[0]
	exhausted bool
}

// NewResampler wraps inner so it appears to produce at outRate. Returns
// inner unchanged (no-op) if no resampling is needed.
func NewResampler(inner source.Source, quality resampler.Quality, outRate int) (source.Source, error) {
	if inner.SampleRate() == outRate {
		return inner, nil
	}
	rs, err := resampler.New(quality, inner.ChannelCount(), inner.SampleRate(), outRate)
	if err != nil {
		return nil, err
	}
	return &resamplingSource{
		inner:  inner,
		rs:     rs,
		inRate: inner.SampleRate(),
		inBuf:  make([]float32, 8192*inner.ChannelCount()),
	}, nil
}

func (r *resamplingSource) ChannelCount() int { return r.inner.ChannelCount() }
func (r *resamplingSource) SampleRate() int   { return int(float64(r.inRate) * r.rs.Ratio()) }
func (r *resamplingSource) IsExhausted() bool { return r.exhausted && r.inValid == 0 }

func (r *resamplingSource) Write(output []float32, time source.Time) int {
	written := 0
	for written < len(output) {
		if r.inValid == 0 && !r.exhausted {
			n := r.inner.Write(r.inBuf, time)
			r.inValid = n
			if r.inner.IsExhausted() && n == 0 {
				r.exhausted = true
			}
		}
		if r.inValid == 0 {
			break
		}

		c, w := r.rs.Process(r.inBuf[:r.inValid], output[written:])
		if c == 0 && w == 0 {
			// Resampler made no progress on this input; avoid spinning.
			break
		}
		copy(r.inBuf, r.inBuf[c:r.inValid])
		r.inValid -= c
		written += w
	}
	return written
}

// Reset clears the resampler's internal filter state, used on seek.
func (r *resamplingSource) Reset() {
	r.rs.Reset()
	r.inValid = 0
	r.exhausted = false
}
