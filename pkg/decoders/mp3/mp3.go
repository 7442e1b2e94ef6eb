package mp3

import (
	"fmt"
	"io"
	"os"

	goMp3 "github.com/imcarsen/go-mp3"
)

// Decoder wraps github.com/imcarsen/go-mp3 to provide MP3 decoding
// capabilities. Implements types.AudioDecoder interface. go-mp3 is a pure Go
// decoder (no cgo init), which matters here because the streamed source
// drives decoding from a dedicated decode-actor goroutine rather than main.
type Decoder struct {
	file     *os.File
	decoder  *goMp3.Decoder
	rate     int
	channels int
	bps      int
}

// NewDecoder creates a new MP3 decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// GetFormat returns the audio format (rate, channels, bits per sample).
// go-mp3 always decodes to interleaved signed 16-bit PCM, stereo.
func (d *Decoder) GetFormat() (int, int, int) {
	return d.rate, d.channels, d.bps
}

// DecodeSamples decodes up to 'samples' samples into audio, returning the
// number of samples actually decoded.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	bytesPerSample := d.bps / 8
	want := samples * d.channels * bytesPerSample
	if want > len(audio) {
		want = len(audio)
	}
	if want == 0 {
		return 0, nil
	}

	n, err := io.ReadFull(d.decoder, audio[:want])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, fmt.Errorf("mp3 decode failed: %w", err)
	}
	decodedSamples := n / (d.channels * bytesPerSample)
	if err == io.EOF && n == 0 {
		return 0, nil
	}
	return decodedSamples, nil
}

// Open opens and initializes an MP3 file for decoding.
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	decoder, err := goMp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	d.file = file
	d.decoder = decoder
	d.rate = decoder.SampleRate()
	d.channels = 2
	d.bps = 16

	return nil
}

// Close closes the decoder and releases resources.
func (d *Decoder) Close() error {
	d.decoder = nil
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
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

// Encoding returns the bits per sample (for consistency with the other decoders).
func (d *Decoder) Encoding() int {
	return d.bps
}
