package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/afengine/pkg/audioframe"
	"github.com/drgolem/afengine/pkg/mixer"
	"github.com/drgolem/afengine/pkg/output"
	"github.com/drgolem/afengine/pkg/player"
	"github.com/drgolem/afengine/pkg/recorder"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
	"github.com/drgolem/go-portaudio/portaudio"
)

// engineConfig holds the flags shared by the play and mix commands.
type engineConfig struct {
	deviceIndex     int
	sampleRate      int
	channels        int
	framesPerBuffer int
	recordPath      string
	verbose         bool
}

// engine bundles everything a command needs to push sources through the
// mixer to a device and tear it all down again.
type engine struct {
	mixer    *mixer.Mixer
	output   *output.Output
	player   *player.Player
	status   chan types.StatusEvent
	recorder *recorder.Recorder
	recordFh *os.File
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newEngine initializes PortAudio, builds the mixer/output/player chain, and
// wires an optional diagnostic recorder tap. Callers must call engine.close
// when done.
func newEngine(cfg engineConfig) (*engine, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	drop := make(chan source.Source, 256)
	mx := mixer.New(cfg.channels, cfg.sampleRate, drop)

	var tapped source.Source = mx
	var rec *recorder.Recorder
	var fh *os.File
	if cfg.recordPath != "" {
		var err error
		fh, err = os.Create(cfg.recordPath)
		if err != nil {
			portaudio.Terminate()
			return nil, fmt.Errorf("failed to create record file: %w", err)
		}
		rec = recorder.New(mx, recorder.Config{
			OnFrame: func(f audioframe.AudioFrame) {
				if _, err := fh.Write(f.Marshal()); err != nil {
					slog.Error("failed writing captured frame", "error", err)
				}
			},
		})
		tapped = rec
	}

	out, err := output.New(tapped, output.Config{
		FramesPerBuffer: cfg.framesPerBuffer,
		DeviceIndex:     cfg.deviceIndex,
	})
	if err != nil {
		if rec != nil {
			rec.Close()
		}
		if fh != nil {
			fh.Close()
		}
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	if err := out.Start(); err != nil {
		if rec != nil {
			rec.Close()
		}
		if fh != nil {
			fh.Close()
		}
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	userStatus := make(chan types.StatusEvent, 256)
	p := player.New(out, mx, drop, userStatus)

	return &engine{
		mixer:    mx,
		output:   out,
		player:   p,
		status:   userStatus,
		recorder: rec,
		recordFh: fh,
	}, nil
}

func (e *engine) close() {
	if err := e.output.Stop(); err != nil {
		slog.Warn("failed to stop output stream", "error", err)
	}
	e.player.Close()
	if e.recorder != nil {
		e.recorder.Close()
	}
	if e.recordFh != nil {
		e.recordFh.Close()
	}
	portaudio.Terminate()
}
