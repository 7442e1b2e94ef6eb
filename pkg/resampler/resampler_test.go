package resampler

import "testing"

func TestNewRejectsInvalidParams(t *testing.T) {
	if _, err := New(Default, 0, 44100, 44100); err == nil {
		t.Error("expected error for zero channel count")
	}
	if _, err := New(Default, 2, 0, 44100); err == nil {
		t.Error("expected error for zero input rate")
	}
}

func TestSincResamplerUnityRatioPassesThrough(t *testing.T) {
	r, err := newSincResampler(1, 44100, 44100)
	if err != nil {
		t.Fatalf("newSincResampler: %v", err)
	}
	sr := r.(*sincResampler)
	if sr.Ratio() != 1.0 {
		t.Errorf("ratio = %v, want 1.0", sr.Ratio())
	}
}

func TestSincResamplerResetClearsHistory(t *testing.T) {
	r, _ := newSincResampler(1, 44100, 44100)
	sr := r.(*sincResampler)
	in := make([]float32, 64)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, 64)
	sr.Process(in, out)
	sr.Reset()
	for _, v := range sr.history {
		if v != 0 {
			t.Fatalf("history not cleared after Reset")
		}
	}
}

func TestSincResamplerProducesOutput(t *testing.T) {
	r, err := newSincResampler(1, 44100, 22050)
	if err != nil {
		t.Fatalf("newSincResampler: %v", err)
	}
	in := make([]float32, 4096)
	for i := range in {
		in[i] = float32(i % 100)
	}
	out := make([]float32, 4096)
	consumed, written := r.Process(in, out)
	if consumed == 0 {
		t.Error("expected resampler to consume input")
	}
	if written == 0 {
		t.Error("expected resampler to produce output")
	}
}

// TestSincResamplerStereoWrittenCountIsInSamples guards against a regression
// where written reported output frames instead of samples: every caller
// (convert/resample.go, file/preloaded.go, file/streamed.go) advances its
// output slice by `written` samples, so for channelCount>1 an under-report
// makes the next Process call re-target an overlapping slice.
func TestSincResamplerStereoWrittenCountIsInSamples(t *testing.T) {
	r, err := newSincResampler(2, 44100, 44100)
	if err != nil {
		t.Fatalf("newSincResampler: %v", err)
	}
	const outFrames = 10
	inFrames := outFrames + 2*sincHalfWidth
	in := make([]float32, inFrames*2)
	for i := range in {
		in[i] = float32(i % 7)
	}
	out := make([]float32, outFrames*2)
	_, written := r.Process(in, out)
	if written != outFrames*2 {
		t.Fatalf("written = %d, want %d (samples, not frames)", written, outFrames*2)
	}
}

func TestSincWindowedZeroIsUnity(t *testing.T) {
	if sincWindowed(0) != 1.0 {
		t.Errorf("sincWindowed(0) = %v, want 1.0", sincWindowed(0))
	}
}

func TestSincWindowedEdgeIsZero(t *testing.T) {
	if v := sincWindowed(sincHalfWidth); v != 0.0 {
		t.Errorf("sincWindowed(halfWidth) = %v, want 0.0", v)
	}
}
