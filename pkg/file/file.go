package file

import (
	"github.com/drgolem/afengine/pkg/decoders"
	"github.com/drgolem/afengine/pkg/source"
	"github.com/drgolem/afengine/pkg/types"
)

// Open opens path and returns a source.Source, preloaded or streamed
// according to opts.Stream, ready to be handed to the mixer at deviceRate.
func Open(id types.PlaybackId, path string, deviceRate int, opts types.FilePlaybackOptions, status chan<- types.StatusEvent) (source.Source, error) {
	dec, err := decoders.Open(path)
	if err != nil {
		return nil, err
	}

	if opts.Stream {
		return NewStreamed(id, path, dec, deviceRate, opts, status)
	}
	return NewPreloaded(id, path, dec, deviceRate, opts, status)
}

