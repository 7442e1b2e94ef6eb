package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command when afengine is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "afengine",
	Short: "Sample-accurate mixing audio playback engine",
	Long: `afengine is a real-time audio playback engine: a sample-accurate mixer,
preloaded and streamed file sources, and a synth source wrapper, driven
through a single player facade.

Commands:
  - play:      play one audio file, optionally at a different speed/volume
  - mix:       play several audio files simultaneously through the mixer
  - transform: convert an audio file's sample rate and format offline`,
}

// Execute adds all child commands to rootCmd and runs it. Called once from
// main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
