package decoders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drgolem/afengine/pkg/decoders/flac"
	"github.com/drgolem/afengine/pkg/decoders/mp3"
	"github.com/drgolem/afengine/pkg/decoders/opus"
	"github.com/drgolem/afengine/pkg/decoders/wav"
	"github.com/drgolem/afengine/pkg/types"
)

// NewDecoder creates and opens the appropriate byte-oriented decoder based on
// file extension. Supports .mp3, .flac, .fla, .opus, and .wav formats.
// Returns an opened decoder ready for use, or an error if the format is
// unsupported or the file cannot be opened.
func NewDecoder(fileName string) (types.AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var decoder types.AudioDecoder

	switch ext {
	case ".mp3":
		decoder = mp3.NewDecoder()
	case ".flac", ".fla":
		decoder = flac.NewDecoder()
	case ".opus":
		decoder = opus.NewDecoder()
	case ".wav":
		decoder = wav.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .mp3, .flac, .fla, .opus, .wav)", ext)
	}

	if err := decoder.Open(fileName); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	return decoder, nil
}
