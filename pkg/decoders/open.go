package decoders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drgolem/afengine/pkg/decoder"
	"github.com/drgolem/afengine/pkg/decoders/flac"
	"github.com/drgolem/afengine/pkg/decoders/mp3"
	"github.com/drgolem/afengine/pkg/decoders/opus"
	"github.com/drgolem/afengine/pkg/decoders/vorbis"
	"github.com/drgolem/afengine/pkg/decoders/wav"
	"github.com/drgolem/afengine/pkg/types"
)

// Open opens fileName against the f32 decoder.Decoder contract every
// pkg/file source drives, dispatching by extension. WAV, MP3, FLAC, and Opus
// are byte-oriented decoders wrapped through pkg/decoder's legacy adapter;
// Vorbis decodes to float32 natively.
func Open(fileName string) (decoder.Decoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch ext {
	case ".mp3":
		return decoder.OpenLegacy(openTypesDecoder(mp3.NewDecoder), fileName)
	case ".flac", ".fla":
		return decoder.OpenLegacy(openTypesDecoder(flac.NewDecoder), fileName)
	case ".opus":
		return decoder.OpenLegacy(openTypesDecoder(opus.NewDecoder), fileName)
	case ".wav":
		return decoder.OpenLegacy(openTypesDecoder(wav.NewDecoder), fileName)
	case ".ogg", ".oga":
		return vorbis.Open(fileName)
	default:
		return nil, types.NewError(types.DecodeError, fmt.Sprintf("unsupported file format: %s", ext))
	}
}

// openTypesDecoder adapts a `func() *T` constructor (where *T implements
// types.AudioDecoder) into a decoder.LegacyOpenFunc.
func openTypesDecoder[T types.AudioDecoder](newDecoder func() T) decoder.LegacyOpenFunc {
	return func(fileName string) (types.AudioDecoder, error) {
		d := newDecoder()
		if err := d.Open(fileName); err != nil {
			return nil, err
		}
		return d, nil
	}
}
