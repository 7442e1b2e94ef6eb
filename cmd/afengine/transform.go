package main

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/drgolem/afengine/pkg/decoders"
	"github.com/drgolem/afengine/pkg/types"

	"github.com/spf13/cobra"
	wav "github.com/youpy/go-wav"
	soxr "github.com/zaf/resample"
)

var transformFlags struct {
	newSampleRate int
	out           string
	mono          bool
}

var transformCmd = &cobra.Command{
	Use:   "transform <input_file>",
	Short: "Transform audio file sample rate and format",
	Long: `Transform an audio file to a different sample rate and write it out as
WAV, with an optional stereo-to-mono downmix. This is an offline batch
conversion utility, independent of the real-time playback engine.

Examples:
  afengine transform input.mp3 --new-samplerate 48000 --out output.wav
  afengine transform input.flac --new-samplerate 44100 --mono --out output.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().IntVar(&transformFlags.newSampleRate, "new-samplerate", 48000, "Target sample rate in Hz")
	transformCmd.Flags().StringVar(&transformFlags.out, "out", "out_transformed.wav", "Output WAV file path")
	transformCmd.Flags().BoolVar(&transformFlags.mono, "mono", false, "Convert output to mono (average channels)")
}

func runTransform(cmd *cobra.Command, args []string) error {
	inFileName := args[0]

	if _, err := os.Stat(inFileName); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inFileName)
	}

	if transformFlags.newSampleRate <= 0 || transformFlags.newSampleRate > 384000 {
		return fmt.Errorf("invalid sample rate %d (valid range 1-384000)", transformFlags.newSampleRate)
	}

	dec, err := decoders.NewDecoder(inFileName)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	defer dec.Close()

	inSampleRate, channels, bitsPerSample := dec.GetFormat()

	slog.Info("transforming audio",
		"input_file", inFileName,
		"input_sample_rate", inSampleRate,
		"input_channels", channels,
		"output_sample_rate", transformFlags.newSampleRate,
		"output_mono", transformFlags.mono,
		"output_file", transformFlags.out)

	audioData, totalSamples, err := decodeAllAudio(dec, channels, bitsPerSample)
	if err != nil {
		return fmt.Errorf("failed to decode audio: %w", err)
	}
	slog.Info("decoding complete", "input_samples", totalSamples)

	resampledData, err := resampleAudio(audioData, inSampleRate, transformFlags.newSampleRate, channels)
	if err != nil {
		return fmt.Errorf("failed to resample audio: %w", err)
	}

	bytesPerSample := bitsPerSample / 8
	outSamples := len(resampledData) / (channels * bytesPerSample)

	outChannels := channels
	outputData := resampledData
	if transformFlags.mono && channels > 1 {
		outputData = downmixToMono16Bit(resampledData, channels)
		outChannels = 1
	}

	if err := writeWAVFile(transformFlags.out, outputData, uint32(outSamples), uint16(outChannels), uint32(transformFlags.newSampleRate), uint16(bitsPerSample)); err != nil {
		return fmt.Errorf("failed to write WAV file: %w", err)
	}

	slog.Info("transformation complete",
		"input_samples", totalSamples,
		"output_samples", outSamples,
		"sample_rate_ratio", fmt.Sprintf("%.3f", float64(transformFlags.newSampleRate)/float64(inSampleRate)))
	return nil
}

func decodeAllAudio(dec types.AudioDecoder, channels, bitsPerSample int) ([]byte, int, error) {
	const bufferSamples = 4096
	bytesPerSample := bitsPerSample / 8
	bufferSize := bufferSamples * channels * bytesPerSample

	buffer := make([]byte, bufferSize)
	audioData := make([]byte, 0, bufferSize*10)
	totalSamples := 0

	for {
		samplesRead, err := dec.DecodeSamples(bufferSamples, buffer)
		if samplesRead > 0 {
			bytesRead := samplesRead * channels * bytesPerSample
			audioData = append(audioData, buffer[:bytesRead]...)
			totalSamples += samplesRead
		}

		if err != nil {
			if strings.Contains(err.Error(), "EOF") || strings.Contains(err.Error(), "done") {
				break
			}
			return nil, 0, fmt.Errorf("decode error: %w", err)
		}
		if samplesRead == 0 {
			break
		}
	}

	return audioData, totalSamples, nil
}

func resampleAudio(audioData []byte, fromRate, toRate, channels int) ([]byte, error) {
	if fromRate == toRate {
		return audioData, nil
	}

	var bufResampled bytes.Buffer
	bufWriter := bufio.NewWriter(&bufResampled)

	rs, err := soxr.New(bufWriter, float64(fromRate), float64(toRate), channels, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	if _, err := rs.Write(audioData); err != nil {
		rs.Close()
		return nil, fmt.Errorf("failed to resample: %w", err)
	}
	if err := rs.Close(); err != nil {
		return nil, fmt.Errorf("failed to close resampler: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush buffer: %w", err)
	}

	return bufResampled.Bytes(), nil
}

// downmixToMono16Bit averages interleaved 16-bit channels down to mono.
func downmixToMono16Bit(interleaved []byte, channels int) []byte {
	if channels == 1 {
		return interleaved
	}

	mono := make([]byte, len(interleaved)/channels)
	idx, outIdx := 0, 0

	for idx < len(interleaved) {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			if idx+1 >= len(interleaved) {
				break
			}
			sample := int16(uint16(interleaved[idx]) | uint16(interleaved[idx+1])<<8)
			sum += int32(sample)
			idx += 2
		}
		avg := int16(sum / int32(channels))
		if outIdx+1 < len(mono) {
			mono[outIdx] = byte(avg & 0xFF)
			mono[outIdx+1] = byte((avg >> 8) & 0xFF)
			outIdx += 2
		}
	}

	return mono
}

func writeWAVFile(fileName string, audioData []byte, numSamples uint32, numChannels uint16, sampleRate uint32, bitsPerSample uint16) error {
	fOut, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fOut.Close()

	wavWriter := wav.NewWriter(fOut, numSamples, numChannels, sampleRate, bitsPerSample)
	if _, err := wavWriter.Write(audioData); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return nil
}
