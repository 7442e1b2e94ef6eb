package resampler

import "math"

// sincHalfWidth is the number of input samples considered on each side of
// the interpolation point; larger means better stopband rejection at higher
// CPU cost. 16 is a common middle ground for offline-quality resampling.
const sincHalfWidth = 16

// sincResampler is the HighQuality kernel: a windowed-sinc (Blackman
// window) FIR resampler with no pack grounding (see SPEC_FULL.md's DOMAIN
// STACK section). It keeps a per-channel history ring of the last
// 2*sincHalfWidth input frames so a partial final window at a call boundary
// can still be evaluated correctly on the next call.
type sincResampler struct {
	channelCount int
	inRate       int
	outRate      int
	ratio        float64

	history    []float32 // interleaved, capacity 2*sincHalfWidth frames
	historyLen int        // frames currently valid in history
	phase      float64    // fractional input-frame position of the next output sample, relative to the start of history

	scratch []float32 // retained [history][input] working buffer, grown on demand
}

func newSincResampler(channelCount, inRate, outRate int) (Resampler, error) {
	r := &sincResampler{
		channelCount: channelCount,
		inRate:       inRate,
		outRate:      outRate,
		ratio:        float64(outRate) / float64(inRate),
	}
	r.history = make([]float32, 2*sincHalfWidth*channelCount)
	r.Reset()
	return r, nil
}

func (r *sincResampler) Ratio() float64 {
	return r.ratio
}

func (r *sincResampler) Reset() {
	for i := range r.history {
		r.history[i] = 0
	}
	r.historyLen = 0
	r.phase = float64(sincHalfWidth)
}

// sincWindowed evaluates a Blackman-windowed sinc kernel at x (in input-frame units).
func sincWindowed(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	if x <= -sincHalfWidth || x >= sincHalfWidth {
		return 0.0
	}
	piX := math.Pi * x
	sinc := math.Sin(piX) / piX
	// Blackman window over [-sincHalfWidth, sincHalfWidth].
	w := 0.42 + 0.5*math.Cos(math.Pi*x/sincHalfWidth) + 0.08*math.Cos(2*math.Pi*x/sincHalfWidth)
	return sinc * w
}

func (r *sincResampler) Process(in []float32, out []float32) (consumed, written int) {
	if len(in) == 0 || len(out) == 0 || r.channelCount <= 0 {
		return 0, 0
	}

	inFrames := len(in) / r.channelCount
	outFrames := len(out) / r.channelCount
	if inFrames == 0 || outFrames == 0 {
		return 0, 0
	}

	// buffer = [history frames][new input frames], so any window that
	// reaches back past the start of `in` can still sample real history.
	// Retained across calls and only regrown when a larger input arrives, so
	// the steady-state real-time Write path allocates nothing.
	totalFrames := 2*sincHalfWidth + inFrames
	needLen := totalFrames * r.channelCount
	if cap(r.scratch) < needLen {
		r.scratch = make([]float32, needLen)
	} else {
		r.scratch = r.scratch[:needLen]
	}
	buf := r.scratch
	copy(buf, r.history[:2*sincHalfWidth*r.channelCount])
	copy(buf[2*sincHalfWidth*r.channelCount:], in[:inFrames*r.channelCount])

	stepIn := 1.0 / r.ratio
	pos := r.phase
	o := 0
	for o < outFrames {
		center := int(math.Floor(pos))
		frac := pos - float64(center)
		if center+sincHalfWidth >= totalFrames {
			break
		}
		for c := 0; c < r.channelCount; c++ {
			var acc float64
			for k := -sincHalfWidth + 1; k <= sincHalfWidth; k++ {
				idx := center + k
				if idx < 0 || idx >= totalFrames {
					continue
				}
				weight := sincWindowed(float64(k) - frac)
				acc += float64(buf[idx*r.channelCount+c]) * weight
			}
			out[o*r.channelCount+c] = float32(acc)
		}
		pos += stepIn
		o++
	}
	written = o * r.channelCount

	// Consumed input frames are those fully behind the new output position,
	// bounded by what's actually available.
	consumedFrames := int(pos) - 2*sincHalfWidth
	if consumedFrames < 0 {
		consumedFrames = 0
	}
	if consumedFrames > inFrames {
		consumedFrames = inFrames
	}
	consumed = consumedFrames * r.channelCount

	// Slide the history window forward by consumedFrames, keeping the last
	// 2*sincHalfWidth frames available for the next call.
	newHistoryStart := (2*sincHalfWidth + consumedFrames) - 2*sincHalfWidth
	copy(r.history[:2*sincHalfWidth*r.channelCount], buf[newHistoryStart*r.channelCount:(newHistoryStart+2*sincHalfWidth)*r.channelCount])
	r.phase = pos - float64(consumedFrames)

	return consumed, written
}
