// Package fader implements a cooperative linear volume fader applied in
// place to interleaved sample blocks, used by every file/synth source to
// de-click stops and to honor fade_in/fade_out_on_stop playback options.
package fader

import "time"

// State is the fader's current phase.
type State int

const (
	// Stopped means no fade is in progress; current volume holds steady.
	Stopped State = iota
	// FadingIn is ramping current up towards target.
	FadingIn
	// FadingOut is ramping current down towards target.
	FadingOut
	// Finished means the last fade completed; target is latched as current.
	Finished
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case FadingIn:
		return "FadingIn"
	case FadingOut:
		return "FadingOut"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// epsilon is the amplitude distance below which current is snapped to target.
const epsilon = 1e-6

// Fader is a linear-amplitude (not dB) fade-in/fade-out state machine,
// processed one sample block at a time in place. Fades are deliberately
// linear in amplitude: short (ms-100ms) fades prevent clicks on stop without
// needing a dB curve.
type Fader struct {
	state         State
	target        float32
	current       float32
	stepPerFrame  float32
	channelCount  int
	sampleRate    int
}

// New creates a Fader starting at unity volume (current=target=1, Stopped).
func New(channelCount, sampleRate int) *Fader {
	return &Fader{
		state:        Stopped,
		target:       1.0,
		current:      1.0,
		channelCount: channelCount,
		sampleRate:   sampleRate,
	}
}

// State returns the fader's current phase.
func (f *Fader) State() State {
	return f.state
}

// TargetVolume returns the fader's current fade target.
func (f *Fader) TargetVolume() float32 {
	return f.target
}

// CurrentVolume returns the fader's current amplitude multiplier.
func (f *Fader) CurrentVolume() float32 {
	return f.current
}

// StartFadeIn begins a linear ramp from the current amplitude to 1.0 over d.
// A non-positive duration completes the fade immediately.
func (f *Fader) StartFadeIn(d time.Duration) {
	f.startFade(1.0, d, FadingIn)
}

// StartFadeOut begins a linear ramp from the current amplitude to 0.0 over d.
// A non-positive duration completes the fade immediately.
func (f *Fader) StartFadeOut(d time.Duration) {
	f.startFade(0.0, d, FadingOut)
}

func (f *Fader) startFade(target float32, d time.Duration, state State) {
	f.target = target
	if d <= 0 {
		f.current = target
		f.state = Finished
		return
	}
	frames := float32(d.Seconds() * float64(f.sampleRate))
	if frames < 1 {
		frames = 1
	}
	f.stepPerFrame = (target - f.current) / frames
	f.state = state
}

// Process multiplies each frame in buf (interleaved, channelCount channels)
// in place by the current fade amplitude, advancing the ramp one step per
// frame. When current crosses target within epsilon, state becomes Finished
// and target is latched as current. A no-op when state is Stopped or
// Finished and current == 1.0 (the common unity-volume fast path still runs
// through so callers don't need to special-case it).
func (f *Fader) Process(buf []float32) {
	if f.channelCount <= 0 || len(buf) == 0 {
		return
	}
	frameCount := len(buf) / f.channelCount
	for i := 0; i < frameCount; i++ {
		switch f.state {
		case FadingIn, FadingOut:
			f.current += f.stepPerFrame
			if (f.stepPerFrame >= 0 && f.current >= f.target-epsilon) ||
				(f.stepPerFrame < 0 && f.current <= f.target+epsilon) {
				f.current = f.target
				f.state = Finished
			}
		}
		base := i * f.channelCount
		for c := 0; c < f.channelCount; c++ {
			buf[base+c] *= f.current
		}
	}
}
