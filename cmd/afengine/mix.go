package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/drgolem/afengine/pkg/types"
	"github.com/spf13/cobra"
)

var mixFlags struct {
	device          int
	sampleRate      int
	channels        int
	framesPerBuffer int
	stream          bool
	record          string
	verbose         bool
}

var mixCmd = &cobra.Command{
	Use:   "mix <audio_file> [audio_file...]",
	Short: "Play several audio files simultaneously",
	Long: `Play two or more audio files at once through the mixer. The files are
opened one after another, and each starts on the first mixer callback after
it has been opened.

Example:
  afengine mix kick.wav bass.wav pad.flac`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMix,
}

func init() {
	rootCmd.AddCommand(mixCmd)

	mixCmd.Flags().IntVarP(&mixFlags.device, "device", "d", -1, "Audio output device index (-1 = default)")
	mixCmd.Flags().IntVar(&mixFlags.sampleRate, "samplerate", 44100, "Output device sample rate in Hz")
	mixCmd.Flags().IntVar(&mixFlags.channels, "channels", 2, "Output device channel count")
	mixCmd.Flags().IntVarP(&mixFlags.framesPerBuffer, "frames", "f", 512, "Audio frames per buffer")
	mixCmd.Flags().BoolVar(&mixFlags.stream, "stream", false, "Stream every file from disk instead of preloading")
	mixCmd.Flags().StringVar(&mixFlags.record, "record", "", "Capture the mixed device output to this file")
	mixCmd.Flags().BoolVarP(&mixFlags.verbose, "verbose", "v", false, "Verbose (debug) logging")
}

func runMix(cmd *cobra.Command, args []string) error {
	setupLogging(mixFlags.verbose)

	for _, path := range args {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	eng, err := newEngine(engineConfig{
		deviceIndex:     mixFlags.device,
		sampleRate:      mixFlags.sampleRate,
		channels:        mixFlags.channels,
		framesPerBuffer: mixFlags.framesPerBuffer,
		recordPath:      mixFlags.record,
		verbose:         mixFlags.verbose,
	})
	if err != nil {
		return err
	}
	defer eng.close()

	pending := make(map[types.PlaybackId]struct{}, len(args))
	for _, path := range args {
		opts := types.DefaultFilePlaybackOptions()
		opts.Stream = mixFlags.stream

		id, err := eng.player.PlayFile(path, opts)
		if err != nil {
			return fmt.Errorf("failed to start %s: %w", path, err)
		}
		pending[id] = struct{}{}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for len(pending) > 0 {
		select {
		case ev := <-eng.status:
			if ev.Stopped {
				delete(pending, ev.Id)
			}
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "signal %v received, stopping\n", sig)
			eng.player.StopAllSources()
			return nil
		}
	}
	return nil
}
