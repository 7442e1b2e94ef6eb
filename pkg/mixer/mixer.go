// Package mixer implements the real-time summing mixer described in
// spec.md §4.8: itself a source.Source, installed as the sole source of the
// output sink, driven by a lock-free event queue so the control thread and
// the player facade never touch its playing list directly.
package mixer

import (
	"log/slog"
	"sort"
	"time"

	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// MsgKind identifies the kind of a Msg sent to the mixer's event queue.
type MsgKind int

const (
	// AddSource installs a new playing entry.
	AddSource MsgKind = iota
	// StopSource records a stop frame for an existing entry, by id.
	StopSource
	// RemoveAllSources empties the playing list immediately.
	RemoveAllSources
	// RemoveAllPendingSources removes entries that haven't started yet.
	RemoveAllPendingSources
)

// Msg is one event on the mixer's event queue.
type Msg struct {
	Kind MsgKind

	Id         types.PlaybackId
	Ctrl       types.ControlSender
	Source     source.Source
	StartFrame uint64
	StopFrame  uint64

	// FadeOut is forwarded to the source's ControlStop message when
	// StopFrame is reached, so the source fades out over its own
	// configured duration rather than stopping abruptly.
	FadeOut time.Duration
}

// defaultQueueSize is sized generously so the player facade and any control
// thread never block sending a Msg; the mixer drains it once per Write call.
const defaultQueueSize = 4096

// defaultPlayingCapacity is pre-reserved to avoid growing the playing slice
// on the audio thread.
const defaultPlayingCapacity = 1024

// defaultScratchFrames sizes the per-source mixing scratch buffer.
const defaultScratchFrames = 2048

type playingEntry struct {
	id     types.PlaybackId
	ctrl   types.ControlSender
	source source.Source

	startFrame   uint64
	stopFrame    uint64
	hasStopFrame bool
	stopSent     bool
	stopFadeOut  time.Duration

	isActive bool
}

// Mixer sums every playing source into a single output buffer at a fixed
// channel count and sample rate.
type Mixer struct {
	channels int
	rate     int

	msgs    chan Msg
	playing []*playingEntry
	scratch []float32

	// drop receives entries removed from playing (stopped, exhausted, or
	// pre-empted) so their Source can be released off the audio thread.
	drop chan<- source.Source
}

// New creates a Mixer outputting at (channels, rate). drop may be nil, in
// which case removed sources are simply dropped in place (no deferred
// deallocation channel); the player facade normally supplies one.
func New(channels, rate int, drop chan<- source.Source) *Mixer {
	return &Mixer{
		channels: channels,
		rate:     rate,
		msgs:     make(chan Msg, defaultQueueSize),
		playing:  make([]*playingEntry, 0, defaultPlayingCapacity),
		scratch:  make([]float32, defaultScratchFrames*channels),
		drop:     drop,
	}
}

// Send enqueues msg without blocking. Returns false if the queue is full,
// which is logged at Warn (not Error, per spec.md §4.8's real-time
// discipline) since it never happens on the audio thread itself.
func (m *Mixer) Send(msg Msg) bool {
	select {
	case m.msgs <- msg:
		return true
	default:
		slog.Warn("mixer event queue full, dropping message", "kind", msg.Kind, "id", msg.Id)
		return false
	}
}

func (m *Mixer) ChannelCount() int { return m.channels }
func (m *Mixer) SampleRate() int   { return m.rate }
func (m *Mixer) IsExhausted() bool { return false } // the mixer never exhausts

// Write implements source.Source: it is installed as the sole source the
// output sink drives. See spec.md §4.8 for the six-step procedure this
// follows exactly.
func (m *Mixer) Write(output []float32, t source.Time) int {
	gotNew := m.drainEvents(t)

	if gotNew {
		sort.SliceStable(m.playing, func(i, j int) bool {
			return m.playing[i].startFrame < m.playing[j].startFrame
		})
	}

	for i := range output {
		output[i] = 0
	}

	outFrames := len(output) / m.channels

	for _, e := range m.playing {
		if !e.isActive {
			continue
		}

		offsetFrames := uint64(0)
		if e.startFrame > t.PosInFrames {
			framesUntilStart := e.startFrame - t.PosInFrames
			if framesUntilStart >= uint64(outFrames) {
				break // playing is sorted by start_frame; nothing later can start either
			}
			offsetFrames = framesUntilStart
		}

		for offsetFrames < uint64(outFrames) {
			sourceTime := source.Time{PosInFrames: t.PosInFrames + offsetFrames}

			if e.hasStopFrame && !e.stopSent && e.stopFrame <= sourceTime.PosInFrames {
				if e.ctrl != nil {
					e.ctrl.TrySend(types.ControlMessage{Kind: types.ControlStop, FadeOut: e.stopFadeOut})
				}
				e.stopSent = true
			}

			remainingFrames := uint64(outFrames) - offsetFrames
			requestFrames := remainingFrames
			if e.hasStopFrame && e.stopFrame > sourceTime.PosInFrames {
				samplesUntilStop := e.stopFrame - sourceTime.PosInFrames
				if samplesUntilStop < requestFrames {
					requestFrames = samplesUntilStop
				}
			}
			scratchFrames := uint64(len(m.scratch) / m.channels)
			if requestFrames > scratchFrames {
				requestFrames = scratchFrames
			}
			if requestFrames == 0 {
				break
			}

			toWrite := m.scratch[:requestFrames*uint64(m.channels)]
			written := e.source.Write(toWrite, sourceTime)
			if written > 0 {
				base := offsetFrames * uint64(m.channels)
				for i := 0; i < written; i++ {
					output[base+uint64(i)] += toWrite[i]
				}
				offsetFrames += uint64(written) / uint64(m.channels)
			}

			if e.source.IsExhausted() {
				e.isActive = false
				break
			}
			if written == 0 {
				break
			}
		}
	}

	m.retainActive()

	return len(output)
}

func (m *Mixer) drainEvents(t source.Time) (gotNew bool) {
	for {
		select {
		case msg := <-m.msgs:
			switch msg.Kind {
			case AddSource:
				m.playing = append(m.playing, &playingEntry{
					id:         msg.Id,
					ctrl:       msg.Ctrl,
					source:     msg.Source,
					startFrame: msg.StartFrame,
					isActive:   true,
				})
				gotNew = true

			case StopSource:
				for _, e := range m.playing {
					if e.id == msg.Id {
						e.stopFrame = msg.StopFrame
						e.hasStopFrame = true
						e.stopSent = false
						e.stopFadeOut = msg.FadeOut
						break
					}
				}

			case RemoveAllPendingSources:
				kept := m.playing[:0]
				for _, e := range m.playing {
					if e.startFrame > t.PosInFrames {
						m.dropEntry(e)
					} else {
						kept = append(kept, e)
					}
				}
				m.playing = kept

			case RemoveAllSources:
				for _, e := range m.playing {
					m.dropEntry(e)
				}
				m.playing = m.playing[:0]
			}
		default:
			return gotNew
		}
	}
}

func (m *Mixer) retainActive() {
	kept := m.playing[:0]
	for _, e := range m.playing {
		if e.isActive {
			kept = append(kept, e)
		} else {
			m.dropEntry(e)
		}
	}
	m.playing = kept
}

func (m *Mixer) dropEntry(e *playingEntry) {
	if m.drop == nil {
		return
	}
	select {
	case m.drop <- e.source:
	default:
		slog.Warn("mixer drop channel full, deallocating on audio thread", "id", e.id)
	}
}
