// Package opus wraps github.com/drgolem/go-opus for decoding Ogg Opus audio
// files, mirroring the API shape the teacher's own drgolem/go-flac wrapper
// uses (same publisher, same conventions: NewXxxDecoder, Open, GetFormat,
// DecodeSamples, Close/Delete).
package opus

import (
	"fmt"

	goopus "github.com/drgolem/go-opus/opus"
)

// Decoder wraps the go-opus decoder to provide Opus decoding capabilities.
// Implements types.AudioDecoder.
type Decoder struct {
	decoder  *goopus.OpusDecoder
	rate     int
	channels int
	bps      int
}

// NewDecoder creates a new Opus decoder. Opus decodes to 16-bit PCM.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// GetFormat returns the audio format (rate, channels, bits per sample).
func (d *Decoder) GetFormat() (int, int, int) {
	return d.rate, d.channels, d.bps
}

// DecodeSamples decodes the specified number of samples into audio.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	return d.decoder.DecodeSamples(samples, audio)
}

// Open opens and initializes an Opus file for decoding.
func (d *Decoder) Open(fileName string) error {
	decoder, err := goopus.NewOpusFrameDecoder(16)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Open(fileName); err != nil {
		decoder.Delete()
		return fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	rate, channels, bps := decoder.GetFormat()

	d.decoder = decoder
	d.rate = rate
	d.channels = channels
	d.bps = bps

	return nil
}

// Close closes the decoder and releases resources.
func (d *Decoder) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder.Delete()
		d.decoder = nil
	}
	return nil
}

// Rate returns the sample rate in Hz.
func (d *Decoder) Rate() int {
	return d.rate
}

// Channels returns the number of audio channels.
func (d *Decoder) Channels() int {
	return d.channels
}

// BitsPerSample returns the bits per sample.
func (d *Decoder) BitsPerSample() int {
	return d.bps
}
