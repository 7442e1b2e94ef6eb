package fader

import (
	"testing"
	"time"
)

func TestNewStartsAtUnity(t *testing.T) {
	f := New(2, 44100)
	if f.State() != Stopped {
		t.Errorf("state = %v, want Stopped", f.State())
	}
	if f.CurrentVolume() != 1.0 {
		t.Errorf("current = %v, want 1.0", f.CurrentVolume())
	}
}

func TestFadeOutReachesZero(t *testing.T) {
	f := New(1, 1000)
	f.StartFadeOut(100 * time.Millisecond) // 100 frames at 1000Hz
	buf := make([]float32, 200)
	for i := range buf {
		buf[i] = 1.0
	}
	f.Process(buf)
	if f.State() != Finished {
		t.Errorf("state = %v, want Finished", f.State())
	}
	if f.CurrentVolume() != 0.0 {
		t.Errorf("current = %v, want 0.0", f.CurrentVolume())
	}
	if buf[len(buf)-1] != 0.0 {
		t.Errorf("last sample = %v, want 0.0", buf[len(buf)-1])
	}
	if buf[0] == 0.0 {
		t.Errorf("first sample should not already be silent")
	}
}

func TestFadeInReachesUnity(t *testing.T) {
	f := New(1, 1000)
	f.current = 0.0
	f.StartFadeIn(50 * time.Millisecond) // 50 frames
	buf := make([]float32, 100)
	for i := range buf {
		buf[i] = 1.0
	}
	f.Process(buf)
	if f.State() != Finished {
		t.Errorf("state = %v, want Finished", f.State())
	}
	if f.CurrentVolume() != 1.0 {
		t.Errorf("current = %v, want 1.0", f.CurrentVolume())
	}
}

func TestZeroDurationFadeFinishesImmediately(t *testing.T) {
	f := New(1, 1000)
	f.StartFadeOut(0)
	if f.State() != Finished {
		t.Errorf("state = %v, want Finished", f.State())
	}
	if f.CurrentVolume() != 0.0 {
		t.Errorf("current = %v, want 0.0", f.CurrentVolume())
	}
}

func TestProcessBoundedByVolume(t *testing.T) {
	f := New(1, 1000)
	buf := []float32{2.0, -2.0, 1.0}
	f.Process(buf)
	for _, s := range buf {
		if s > 2.0 || s < -2.0 {
			t.Errorf("sample %v exceeds input magnitude at unity volume", s)
		}
	}
}

func TestMultiChannelAppliesToAllChannels(t *testing.T) {
	f := New(2, 1000)
	f.StartFadeOut(0)
	buf := []float32{1.0, 1.0, 1.0, 1.0}
	f.Process(buf)
	for _, s := range buf {
		if s != 0.0 {
			t.Errorf("sample = %v, want 0.0 after instant fade-out", s)
		}
	}
}
