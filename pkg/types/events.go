package types

import "time"

// StatusEvent is the user-visible, order-preserving status stream emitted
// per source: at most one Position per PlaybackOptions.PosEmitRate of
// wall-clock time, and exactly one terminal Stopped.
type StatusEvent struct {
	Id   PlaybackId
	Path string // file path, or the caller-supplied label for a synth

	// Position events carry Position; zero for Stopped events.
	Position time.Duration

	// Stopped events carry Exhausted: true if the source ran to its
	// natural end, false if it was stopped by request or by fade-out
	// completion. Zero value (false) for Position events.
	Stopped   bool
	Exhausted bool
}

// ControlMessage is sent non-blockingly from the mixer (on the audio
// thread) or a control thread to a single source's control channel.
type ControlMessage struct {
	Kind ControlKind

	// Seek carries the target position for ControlSeek.
	Seek time.Duration

	// FadeOut carries the fade-out duration for ControlStop; zero means
	// stop immediately with no fade.
	FadeOut time.Duration
}

// ControlKind identifies the kind of ControlMessage.
type ControlKind int

const (
	// ControlSeek asks a source to seek to ControlMessage.Seek.
	ControlSeek ControlKind = iota
	// ControlStop asks a source to stop, fading out over ControlMessage.FadeOut.
	ControlStop
)

// ControlSender is the control-channel handle the player facade holds per
// playback id; sends are always non-blocking (buffered channel + select).
type ControlSender chan ControlMessage

// TrySend attempts a non-blocking send, returning false if the channel is
// full or closed (closed sends are recovered, not panicked).
func (c ControlSender) TrySend(msg ControlMessage) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case c <- msg:
		return true
	default:
		return false
	}
}
