package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/afengine/pkg/types"
	"github.com/spf13/cobra"
)

var playFlags struct {
	device          int
	sampleRate      int
	channels        int
	framesPerBuffer int
	volume          float64
	speed           float64
	repeat          uint64
	stream          bool
	fadeIn          time.Duration
	fadeOut         time.Duration
	record          string
	verbose         bool
}

var playCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Play a single audio file",
	Long: `Play one audio file through the mixer, with optional speed, volume,
repeat, and fade controls.

Examples:
  afengine play music.mp3
  afengine play --speed 1.5 --volume 0.8 music.flac
  afengine play --stream --repeat 3 long_ambient.wav
  afengine play --record capture.afpcm music.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playFlags.device, "device", "d", -1, "Audio output device index (-1 = default)")
	playCmd.Flags().IntVar(&playFlags.sampleRate, "samplerate", 44100, "Output device sample rate in Hz")
	playCmd.Flags().IntVar(&playFlags.channels, "channels", 2, "Output device channel count")
	playCmd.Flags().IntVarP(&playFlags.framesPerBuffer, "frames", "f", 512, "Audio frames per buffer")
	playCmd.Flags().Float64Var(&playFlags.volume, "volume", 1.0, "Linear playback volume")
	playCmd.Flags().Float64Var(&playFlags.speed, "speed", 1.0, "Playback speed multiplier")
	playCmd.Flags().Uint64Var(&playFlags.repeat, "repeat", 0, "Number of additional repeats after the first playthrough")
	playCmd.Flags().BoolVar(&playFlags.stream, "stream", false, "Stream from disk instead of preloading into memory")
	playCmd.Flags().DurationVar(&playFlags.fadeIn, "fade-in", 0, "Fade-in duration")
	playCmd.Flags().DurationVar(&playFlags.fadeOut, "fade-out", 0, "Fade-out duration applied on stop")
	playCmd.Flags().StringVar(&playFlags.record, "record", "", "Capture the device output to this file as framed raw audio")
	playCmd.Flags().BoolVarP(&playFlags.verbose, "verbose", "v", false, "Verbose (debug) logging")
}

func runPlay(cmd *cobra.Command, args []string) error {
	setupLogging(playFlags.verbose)

	path := args[0]
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}

	eng, err := newEngine(engineConfig{
		deviceIndex:     playFlags.device,
		sampleRate:      playFlags.sampleRate,
		channels:        playFlags.channels,
		framesPerBuffer: playFlags.framesPerBuffer,
		recordPath:      playFlags.record,
		verbose:         playFlags.verbose,
	})
	if err != nil {
		return err
	}
	defer eng.close()

	opts := types.DefaultFilePlaybackOptions()
	opts.Volume = float32(playFlags.volume)
	opts.Speed = playFlags.speed
	opts.Repeat = playFlags.repeat
	opts.Stream = playFlags.stream
	opts.FadeIn = playFlags.fadeIn
	opts.FadeOutOnStop = playFlags.fadeOut

	id, err := eng.player.PlayFile(path, opts)
	if err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev := <-eng.status:
			if ev.Id == id && ev.Stopped {
				return nil
			}
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "signal %v received, stopping\n", sig)
			eng.player.StopSource(id)
			for ev := range eng.status {
				if ev.Id == id && ev.Stopped {
					return nil
				}
			}
			return nil
		}
	}
}
